package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"thumbio/internal/domain"
	"thumbio/internal/repository"
)

// reserveScript adds ARGV[1] to KEYS[1] unless the sum exceeds ARGV[2].
// It returns {granted, value}.
var reserveScript = redis.NewScript(`
local used = tonumber(redis.call("GET", KEYS[1]) or "0")
local units = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
if used + units > limit then
	return {0, used}
end
used = redis.call("INCRBY", KEYS[1], units)
redis.call("EXPIREAT", KEYS[1], ARGV[3])
return {1, used}
`)

var errVersionMoved = errors.New("cached canvas version moved")

// RedisStateRepository implements repository.CanvasCache and
// repository.QuotaStore on Redis.
type RedisStateRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStateRepository creates a RedisStateRepository.
func NewRedisStateRepository(client *redis.Client, keyPrefix string) *RedisStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "tb:"
	}
	return &RedisStateRepository{client: client, keyPrefix: keyPrefix}
}

func (r *RedisStateRepository) canvasKey(id string) string {
	return fmt.Sprintf("%scanvas:%s", r.keyPrefix, id)
}

func (r *RedisStateRepository) quotaKey(day string) string {
	return fmt.Sprintf("%squota:%s", r.keyPrefix, day)
}

// GetCanvas returns the cached canvas, including its document.
func (r *RedisStateRepository) GetCanvas(ctx context.Context, id string) (*domain.Canvas, error) {
	key := r.canvasKey(id)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis: failed to get canvas %s from %s: %w", id, key, err)
	}
	var entry cachedCanvas
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("redis: failed to unmarshal canvas %s from %s: %w", id, key, err)
	}
	return entry.canvas(), nil
}

// AddCanvas caches the canvas unless an entry already exists, so a reader
// backfilling from SQL never overwrites a newer save.
func (r *RedisStateRepository) AddCanvas(ctx context.Context, canvas *domain.Canvas, ttl time.Duration) (bool, error) {
	key := r.canvasKey(canvas.ID)
	raw, err := marshalCanvas(canvas)
	if err != nil {
		return false, err
	}
	added, err := r.client.SetNX(ctx, key, raw, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to add canvas cache on key %s: %w", key, err)
	}
	return added, nil
}

// SwapCanvas stores the canvas when the cached entry is absent or exactly one
// version behind. The check and the write run in one WATCH transaction.
func (r *RedisStateRepository) SwapCanvas(ctx context.Context, canvas *domain.Canvas, ttl time.Duration) (bool, error) {
	key := r.canvasKey(canvas.ID)
	raw, err := marshalCanvas(canvas)
	if err != nil {
		return false, err
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var entry cachedCanvas
			// An unreadable entry is overwritten.
			if json.Unmarshal(current, &entry) == nil && entry.Version+1 != canvas.Version {
				return errVersionMoved
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, ttl)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errVersionMoved), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("redis: failed to swap canvas cache on key %s (version %d): %w", key, canvas.Version, err)
	}
}

// DeleteCanvas drops the cached entry; the next read is served from SQL.
func (r *RedisStateRepository) DeleteCanvas(ctx context.Context, id string) error {
	key := r.canvasKey(id)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: failed to delete canvas cache on key %s: %w", key, err)
	}
	return nil
}

// Reserve atomically grants units against the day's counter.
func (r *RedisStateRepository) Reserve(ctx context.Context, day string, units, limit int64, expireAt time.Time) (bool, int64, error) {
	key := r.quotaKey(day)
	res, err := reserveScript.Run(ctx, r.client, []string{key}, units, limit, expireAt.Unix()).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("redis: quota reserve on key %s: %w", key, err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("redis: quota reserve on key %s: unexpected reply %v", key, res)
	}
	granted, _ := res[0].(int64)
	used, _ := res[1].(int64)
	return granted == 1, used, nil
}

func (r *RedisStateRepository) Used(ctx context.Context, day string) (int64, error) {
	key := r.quotaKey(day)
	used, err := r.client.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis: failed to get quota counter %s: %w", key, err)
	}
	return used, nil
}

// cachedCanvas carries the document, which domain.Canvas hides from JSON.
type cachedCanvas struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"document"`
	Version   uint      `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func marshalCanvas(c *domain.Canvas) ([]byte, error) {
	raw, err := json.Marshal(newCachedCanvas(c))
	if err != nil {
		return nil, fmt.Errorf("redis: failed to marshal canvas %s (version %d): %w", c.ID, c.Version, err)
	}
	return raw, nil
}

func newCachedCanvas(c *domain.Canvas) cachedCanvas {
	return cachedCanvas{ID: c.ID, Name: c.Name, Document: c.Document, Version: c.Version, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func (c cachedCanvas) canvas() *domain.Canvas {
	return &domain.Canvas{ID: c.ID, Name: c.Name, Document: c.Document, Version: c.Version, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}
