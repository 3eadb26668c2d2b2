package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"thumbio/internal/domain"
	"thumbio/internal/repository"
)

const maxListLimit = 200

// GormCanvasRepository implements repository.CanvasRepository with GORM.
type GormCanvasRepository struct {
	db *gorm.DB
}

// NewGormCanvasRepository creates a GormCanvasRepository.
func NewGormCanvasRepository(db *gorm.DB) *GormCanvasRepository {
	if db == nil {
		panic("database connection cannot be nil for GormCanvasRepository")
	}
	return &GormCanvasRepository{db: db}
}

func (r *GormCanvasRepository) FindByID(ctx context.Context, id string) (*domain.Canvas, error) {
	var canvas domain.Canvas
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&canvas).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCanvasNotFound
		}
		return nil, fmt.Errorf("gorm: find canvas by id %s: %w", id, err)
	}
	return &canvas, nil
}

func (r *GormCanvasRepository) Create(ctx context.Context, canvas *domain.Canvas) error {
	if err := r.db.WithContext(ctx).Create(canvas).Error; err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create canvas %s: %w", canvas.ID, err)
	}
	return nil
}

// SaveIfNewer is a conditional UPDATE on the version column, so two writers
// racing on one row can never move it backwards. A missing row is inserted;
// losing that insert to another writer retries the update once.
func (r *GormCanvasRepository) SaveIfNewer(ctx context.Context, canvas *domain.Canvas) (bool, error) {
	db := r.db.WithContext(ctx)
	for attempt := 0; attempt < 2; attempt++ {
		res := db.Model(&domain.Canvas{}).
			Where("id = ? AND version < ?", canvas.ID, canvas.Version).
			Updates(map[string]interface{}{
				"name":       canvas.Name,
				"document":   canvas.Document,
				"version":    canvas.Version,
				"updated_at": canvas.UpdatedAt,
			})
		if res.Error != nil {
			return false, fmt.Errorf("gorm: update canvas %s to version %d: %w", canvas.ID, canvas.Version, res.Error)
		}
		if res.RowsAffected > 0 {
			return true, nil
		}

		var count int64
		if err := db.Model(&domain.Canvas{}).Where("id = ?", canvas.ID).Count(&count).Error; err != nil {
			return false, fmt.Errorf("gorm: count canvas %s: %w", canvas.ID, err)
		}
		if count > 0 {
			return false, nil
		}
		err := db.Create(canvas).Error
		if err == nil {
			return true, nil
		}
		if !isDuplicateEntry(err) {
			return false, fmt.Errorf("gorm: insert canvas %s (version %d): %w", canvas.ID, canvas.Version, err)
		}
	}
	return false, nil
}

func (r *GormCanvasRepository) List(ctx context.Context, limit int) ([]domain.Canvas, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	var canvases []domain.Canvas
	err := r.db.WithContext(ctx).
		Select("id", "name", "version", "created_at", "updated_at").
		Order("updated_at DESC").
		Limit(limit).
		Find(&canvases).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list canvases: %w", err)
	}
	return canvases, nil
}

// isDuplicateEntry recognises unique-constraint violations from MySQL and
// from dialects that translate errors for GORM.
func isDuplicateEntry(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
