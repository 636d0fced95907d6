// Package quota meters the AI rewrite allowance shared by empathy generation
// and reformulation.
//
// Free users get a daily allowance, lifetime buyers a monthly one, and
// subscribers are unlimited. Usage is counted per period key; a counter
// whose stored period differs from the current one reads as zero, so
// resets happen lazily on the first access of a new day or month.
package quota

import (
	"context"
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/gokigennote/gokigen/internal/client/localstore"
)

type Tier int

const (
	TierFree Tier = iota
	TierLifetime
	TierSubscription
)

func (t Tier) String() string {
	switch t {
	case TierLifetime:
		return "lifetime"
	case TierSubscription:
		return "subscription"
	default:
		return "free"
	}
}

// ParseTier maps a config string to a Tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "", "free":
		return TierFree, nil
	case "lifetime":
		return TierLifetime, nil
	case "subscription", "premium":
		return TierSubscription, nil
	}
	return TierFree, fmt.Errorf("unknown tier %q", s)
}

const (
	DefaultFreePerDay       = 10
	DefaultLifetimePerMonth = 200

	dayCounterName   = "quota.rewrite.day"
	monthCounterName = "quota.rewrite.month"
)

// CounterStore persists period counters. localstore.Store satisfies it.
type CounterStore interface {
	LoadCounter(ctx context.Context, name string) localstore.Counter
	SaveCounter(ctx context.Context, name string, c localstore.Counter)
}

type Limits struct {
	FreePerDay       int
	LifetimePerMonth int
}

func DefaultLimits() Limits {
	return Limits{FreePerDay: DefaultFreePerDay, LifetimePerMonth: DefaultLifetimePerMonth}
}

type Manager struct {
	mu     sync.Mutex
	store  CounterStore
	loc    *time.Location
	limits Limits
	tier   Tier
}

// NewManager builds a manager formatting period keys in loc. A nil loc
// means UTC.
func NewManager(store CounterStore, loc *time.Location, limits Limits) *Manager {
	if loc == nil {
		loc = time.UTC
	}
	return &Manager{store: store, loc: loc, limits: limits}
}

func (m *Manager) SetTier(t Tier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tier = t
}

func (m *Manager) Tier() Tier {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tier
}

func (m *Manager) CanConsume(ctx context.Context, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canConsume(ctx, now)
}

// Consume records one performed remote call. It is a no-op for subscribers
// and when the allowance is already spent.
func (m *Manager) Consume(ctx context.Context, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.canConsume(ctx, now) {
		return
	}
	name, period, ok := m.bucket(now)
	if !ok {
		return
	}
	used := m.used(ctx, name, period)
	m.store.SaveCounter(ctx, name, localstore.Counter{Period: period, Count: used + 1})
}

// Remaining reports how many calls are left in the current period. The
// second result is true for unlimited tiers.
func (m *Manager) Remaining(ctx context.Context, now time.Time) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name, period, ok := m.bucket(now)
	if !ok {
		return 0, true
	}
	return max(0, m.limit()-m.used(ctx, name, period)), false
}

func (m *Manager) RemainingText(ctx context.Context, now time.Time) string {
	n, unlimited := m.Remaining(ctx, now)
	if unlimited {
		return "unlimited"
	}
	if m.Tier() == TierLifetime {
		return fmt.Sprintf("%d left this month", n)
	}
	return fmt.Sprintf("%d left today", n)
}

func (m *Manager) canConsume(ctx context.Context, now time.Time) bool {
	name, period, ok := m.bucket(now)
	if !ok {
		return true
	}
	return m.used(ctx, name, period) < m.limit()
}

// bucket returns the counter name and period key for the current tier;
// ok is false for unlimited tiers.
func (m *Manager) bucket(now time.Time) (name, period string, ok bool) {
	switch m.tier {
	case TierSubscription:
		return "", "", false
	case TierLifetime:
		return monthCounterName, MonthKey(now, m.loc), true
	default:
		return dayCounterName, DayKey(now, m.loc), true
	}
}

func (m *Manager) limit() int {
	if m.tier == TierLifetime {
		return m.limits.LifetimePerMonth
	}
	return m.limits.FreePerDay
}

func (m *Manager) used(ctx context.Context, name, period string) int {
	c := m.store.LoadCounter(ctx, name)
	if c.Period != period {
		return 0
	}
	return c.Count
}

// DayKey formats now as YYYY-MM-DD in loc.
func DayKey(now time.Time, loc *time.Location) string {
	return now.In(loc).Format("2006-01-02")
}

// MonthKey formats now as YYYY-MM in loc.
func MonthKey(now time.Time, loc *time.Location) string {
	return now.In(loc).Format("2006-01")
}
