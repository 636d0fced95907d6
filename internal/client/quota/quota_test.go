package quota

import (
	"context"
	"testing"
	"time"

	"github.com/gokigennote/gokigen/internal/client/localstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCounters struct {
	m      map[string]localstore.Counter
	writes int
}

func newMemCounters() *memCounters { return &memCounters{m: map[string]localstore.Counter{}} }

func (c *memCounters) LoadCounter(_ context.Context, name string) localstore.Counter {
	return c.m[name]
}

func (c *memCounters) SaveCounter(_ context.Context, name string, v localstore.Counter) {
	c.writes++
	c.m[name] = v
}

func tokyo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	return loc
}

func TestFree_DailyLimitAndReset(t *testing.T) {
	ctx := context.Background()
	loc := tokyo(t)
	m := NewManager(newMemCounters(), loc, DefaultLimits())
	day1 := time.Date(2025, 11, 19, 9, 0, 0, 0, loc)

	for i := 0; i < 10; i++ {
		require.True(t, m.CanConsume(ctx, day1), "call %d", i)
		m.Consume(ctx, day1)
	}
	assert.False(t, m.CanConsume(ctx, day1))
	assert.Equal(t, "0 left today", m.RemainingText(ctx, day1))

	m.Consume(ctx, day1)
	n, _ := m.Remaining(ctx, day1)
	assert.Equal(t, 0, n)

	day2 := day1.Add(24 * time.Hour)
	assert.True(t, m.CanConsume(ctx, day2))
	n, unlimited := m.Remaining(ctx, day2)
	assert.False(t, unlimited)
	assert.Equal(t, 10, n)
}

func TestLifetime_MonthlyLimit(t *testing.T) {
	ctx := context.Background()
	loc := tokyo(t)
	m := NewManager(newMemCounters(), loc, Limits{FreePerDay: 1, LifetimePerMonth: 3})
	m.SetTier(TierLifetime)
	nov := time.Date(2025, 11, 1, 0, 0, 0, 0, loc)

	for i := 0; i < 3; i++ {
		m.Consume(ctx, nov.Add(time.Duration(i)*48*time.Hour))
	}
	assert.False(t, m.CanConsume(ctx, time.Date(2025, 11, 30, 23, 0, 0, 0, loc)))
	assert.Equal(t, "0 left this month", m.RemainingText(ctx, nov))
	assert.True(t, m.CanConsume(ctx, time.Date(2025, 12, 1, 0, 0, 0, 0, loc)))
}

func TestSubscription_UnlimitedAndNoWrites(t *testing.T) {
	ctx := context.Background()
	store := newMemCounters()
	m := NewManager(store, time.UTC, DefaultLimits())
	m.SetTier(TierSubscription)
	now := time.Now()

	for i := 0; i < 50; i++ {
		assert.True(t, m.CanConsume(ctx, now))
		m.Consume(ctx, now)
	}
	assert.Zero(t, store.writes)
	assert.Equal(t, "unlimited", m.RemainingText(ctx, now))
}

func TestPeriodKeys_IgnoreProcessTimezone(t *testing.T) {
	loc := tokyo(t)
	orig := time.Local
	t.Cleanup(func() { time.Local = orig })

	// 2025-11-19 16:30 UTC is already the 20th in Tokyo.
	instant := time.Date(2025, 11, 19, 16, 30, 0, 0, time.UTC)

	time.Local = time.FixedZone("far-west", -11*3600)
	a := DayKey(instant.Local(), loc)
	time.Local = time.FixedZone("far-east", 14*3600)
	b := DayKey(instant.Local(), loc)

	assert.Equal(t, "2025-11-20", a)
	assert.Equal(t, a, b)
	assert.Equal(t, "2025-11", MonthKey(instant, loc))
}

func TestDailyBudget(t *testing.T) {
	ctx := context.Background()
	b := NewDailyBudget(newMemCounters(), time.UTC, 2)
	now := time.Date(2025, 11, 19, 12, 0, 0, 0, time.UTC)

	assert.False(t, b.Exhausted(ctx, now))
	b.Increment(ctx, now)
	b.Increment(ctx, now)
	assert.True(t, b.Exhausted(ctx, now))
	assert.Equal(t, 2, b.Used(ctx, now))

	tomorrow := now.Add(24 * time.Hour)
	assert.False(t, b.Exhausted(ctx, tomorrow))
	assert.Equal(t, 0, b.Used(ctx, tomorrow))
}

func TestParseTier(t *testing.T) {
	for in, want := range map[string]Tier{"": TierFree, "free": TierFree, "lifetime": TierLifetime, "premium": TierSubscription} {
		got, err := ParseTier(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseTier("gold")
	assert.Error(t, err)
}
