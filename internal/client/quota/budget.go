package quota

import (
	"context"
	"sync"
	"time"

	"github.com/gokigennote/gokigen/internal/client/localstore"
)

const DefaultDailyNetworkBudget = 10

const networkCounterName = "quota.network.day"

// DailyBudget caps remote AI calls per day independently of the purchased
// allowance. It counts every remote attempt, including those of subscribers.
type DailyBudget struct {
	mu    sync.Mutex
	store CounterStore
	loc   *time.Location
	limit int
}

func NewDailyBudget(store CounterStore, loc *time.Location, limit int) *DailyBudget {
	if loc == nil {
		loc = time.UTC
	}
	return &DailyBudget{store: store, loc: loc, limit: limit}
}

func (b *DailyBudget) Exhausted(ctx context.Context, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used(ctx, now) >= b.limit
}

func (b *DailyBudget) Increment(ctx context.Context, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	period := DayKey(now, b.loc)
	b.store.SaveCounter(ctx, networkCounterName, localstore.Counter{Period: period, Count: b.used(ctx, now) + 1})
}

func (b *DailyBudget) Used(ctx context.Context, now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used(ctx, now)
}

func (b *DailyBudget) used(ctx context.Context, now time.Time) int {
	c := b.store.LoadCounter(ctx, networkCounterName)
	if c.Period != DayKey(now, b.loc) {
		return 0
	}
	return c.Count
}
