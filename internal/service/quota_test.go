package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"thumbio/internal/repository/mocks"
	"thumbio/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newQuotaService(now time.Time, limit int64) (*service.QuotaService, *mocks.QuotaStore) {
	store := new(mocks.QuotaStore)
	return service.NewQuotaService(store, limit, service.WithQuotaClock(func() time.Time { return now })), store
}

func TestQuotaService_DayAndResetFollowPacificTime(t *testing.T) {
	svc, _ := newQuotaService(time.Now(), 0)
	assert.Equal(t, int64(service.DefaultDailyQuota), svc.Limit())

	// 07:59 UTC on 8 March is still 7 March in California.
	assert.Equal(t, "2026-03-07", svc.Day(time.Date(2026, 3, 8, 7, 59, 0, 0, time.UTC)))
	assert.Equal(t, "2026-03-08", svc.Day(time.Date(2026, 3, 8, 8, 0, 0, 0, time.UTC)))

	cases := []struct {
		name  string
		at    time.Time
		reset time.Time
	}{
		{"winter", time.Date(2026, 1, 15, 20, 0, 0, 0, time.UTC), time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)},
		{"summer", time.Date(2026, 7, 15, 20, 0, 0, 0, time.UTC), time.Date(2026, 7, 16, 7, 0, 0, 0, time.UTC)},
		{"spring forward day", time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC), time.Date(2026, 3, 9, 7, 0, 0, 0, time.UTC)},
		{"fall back day", time.Date(2026, 11, 1, 7, 30, 0, 0, time.UTC), time.Date(2026, 11, 2, 8, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.reset.Equal(svc.ResetAt(tc.at)), "got %s", svc.ResetAt(tc.at).UTC())
		})
	}
}

func TestQuotaService_ApproveAndDeny(t *testing.T) {
	now := time.Date(2026, 5, 20, 18, 0, 0, 0, time.UTC)
	svc, store := newQuotaService(now, 100)
	ctx := context.Background()
	expire := svc.ResetAt(now).Add(time.Hour)

	store.On("Reserve", ctx, "2026-05-20", int64(30), int64(100), expire).Return(true, int64(30), nil).Once()
	ok, err := svc.Approve(ctx, 30)
	require.NoError(t, err)
	assert.True(t, ok)

	store.On("Reserve", ctx, "2026-05-20", int64(80), int64(100), expire).Return(false, int64(30), nil).Once()
	usage, err := svc.Consume(ctx, 80)
	assert.ErrorIs(t, err, service.ErrQuotaExceeded)
	assert.Equal(t, int64(70), usage.Remaining)

	store.On("Reserve", ctx, "2026-05-20", int64(80), int64(100), expire).Return(false, int64(30), nil).Once()
	ok, err = svc.Approve(ctx, 80)
	require.NoError(t, err)
	assert.False(t, ok)
	store.AssertExpectations(t)
}

func TestQuotaService_InvalidAndZeroUnits(t *testing.T) {
	now := time.Date(2026, 5, 20, 18, 0, 0, 0, time.UTC)
	svc, store := newQuotaService(now, 100)
	ctx := context.Background()

	_, err := svc.Approve(ctx, -1)
	assert.ErrorIs(t, err, service.ErrInvalidUnits)

	store.On("Used", ctx, "2026-05-20").Return(int64(12), nil).Once()
	ok, err := svc.Approve(ctx, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	store.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQuotaService_UsageAndStoreErrors(t *testing.T) {
	now := time.Date(2026, 5, 20, 18, 0, 0, 0, time.UTC)
	svc, store := newQuotaService(now, 100)
	ctx := context.Background()

	store.On("Used", ctx, "2026-05-20").Return(int64(120), nil).Once()
	usage, err := svc.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(120), usage.Used)
	assert.Zero(t, usage.Remaining)
	assert.True(t, usage.ResetAt.Equal(time.Date(2026, 5, 21, 7, 0, 0, 0, time.UTC)))

	store.On("Reserve", ctx, "2026-05-20", int64(1), int64(100), mock.Anything).Return(false, int64(0), errors.New("redis down")).Once()
	_, err = svc.Approve(ctx, 1)
	assert.ErrorIs(t, err, service.ErrInternalServer)
}
