package service

import (
	"context"
	"time"
	_ "time/tzdata" // America/Los_Angeles on hosts without a zoneinfo database

	"github.com/sirupsen/logrus"

	"thumbio/internal/domain"
	"thumbio/internal/repository"
)

const (
	DefaultDailyQuota = 10000
	QuotaTimeZone     = "America/Los_Angeles"

	// Counters outlive their day slightly so late readers still see them.
	quotaKeyGrace = time.Hour
)

// QuotaService meters the daily budget of external content fetches. The
// budget resets at midnight Pacific time.
type QuotaService struct {
	store repository.QuotaStore
	limit int64
	loc   *time.Location
	now   func() time.Time
}

// QuotaOption configures a QuotaService.
type QuotaOption func(*QuotaService)

// WithQuotaClock overrides the time source.
func WithQuotaClock(now func() time.Time) QuotaOption {
	return func(s *QuotaService) { s.now = now }
}

// NewQuotaService creates a QuotaService. A non-positive limit selects
// DefaultDailyQuota.
func NewQuotaService(store repository.QuotaStore, limit int64, opts ...QuotaOption) *QuotaService {
	if store == nil {
		panic("QuotaStore cannot be nil for QuotaService")
	}
	if limit <= 0 {
		limit = DefaultDailyQuota
	}
	loc, err := time.LoadLocation(QuotaTimeZone)
	if err != nil {
		// Unreachable with time/tzdata linked in.
		logrus.WithError(err).Warn("QuotaService: time zone unavailable, using fixed UTC-8")
		loc = time.FixedZone("PST", -8*60*60)
	}
	s := &QuotaService{store: store, limit: limit, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limit returns the daily budget.
func (s *QuotaService) Limit() int64 { return s.limit }

// Day returns the Pacific calendar day that t falls in.
func (s *QuotaService) Day(t time.Time) string {
	return t.In(s.loc).Format("2006-01-02")
}

// ResetAt returns the next Pacific midnight after t. Midnight is computed in
// the zone itself, so days around DST changes are 23 or 25 hours long.
func (s *QuotaService) ResetAt(t time.Time) time.Time {
	local := t.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, s.loc)
}

// Consume spends units from today's budget. A request that does not fit is
// rejected whole with ErrQuotaExceeded and spends nothing.
func (s *QuotaService) Consume(ctx context.Context, units int64) (domain.QuotaUsage, error) {
	if units < 0 {
		return domain.QuotaUsage{}, ErrInvalidUnits
	}
	now := s.now()
	if units == 0 {
		return s.usageAt(ctx, now)
	}
	day, resetAt := s.Day(now), s.ResetAt(now)
	logCtx := logrus.WithFields(logrus.Fields{"day": day, "units": units})

	granted, used, err := s.store.Reserve(ctx, day, units, s.limit, resetAt.Add(quotaKeyGrace))
	if err != nil {
		logCtx.WithError(err).Error("QuotaService: reserve failed")
		return domain.QuotaUsage{}, ErrInternalServer
	}
	usage := s.usage(used, resetAt)
	if !granted {
		logCtx.WithField("used", used).Warn("QuotaService: daily quota exceeded")
		return usage, ErrQuotaExceeded
	}
	logCtx.WithField("used", used).Debug("QuotaService: units consumed")
	return usage, nil
}

// Approve reports whether units fit in today's budget and, if so, spends
// them. It satisfies canvas.QuotaGate.
func (s *QuotaService) Approve(ctx context.Context, units int64) (bool, error) {
	_, err := s.Consume(ctx, units)
	switch err {
	case nil:
		return true, nil
	case ErrQuotaExceeded:
		return false, nil
	default:
		return false, err
	}
}

// Usage reports today's consumption.
func (s *QuotaService) Usage(ctx context.Context) (domain.QuotaUsage, error) {
	return s.usageAt(ctx, s.now())
}

func (s *QuotaService) usageAt(ctx context.Context, now time.Time) (domain.QuotaUsage, error) {
	used, err := s.store.Used(ctx, s.Day(now))
	if err != nil {
		logrus.WithError(err).Error("QuotaService: usage read failed")
		return domain.QuotaUsage{}, ErrInternalServer
	}
	return s.usage(used, s.ResetAt(now)), nil
}

func (s *QuotaService) usage(used int64, resetAt time.Time) domain.QuotaUsage {
	remaining := s.limit - used
	if remaining < 0 {
		remaining = 0
	}
	return domain.QuotaUsage{Used: used, Limit: s.limit, Remaining: remaining, ResetAt: resetAt}
}
