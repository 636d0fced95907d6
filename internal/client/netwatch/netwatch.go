// Package netwatch probes the remote service and reports when the client
// comes back online.
package netwatch

import (
	"context"
	"sync"
	"time"

	"github.com/gokigennote/gokigen/internal/client/observe"
	"github.com/gokigennote/gokigen/internal/logging"
)

const DefaultInterval = 30 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type Watcher struct {
	pinger   Pinger
	onOnline func(ctx context.Context)
	log      logging.Logger
	online   *observe.Value[bool]

	mu      sync.Mutex
	checked bool
}

// New starts in the offline state. onOnline runs on every offline to online
// transition, including the first successful probe.
func New(p Pinger, onOnline func(ctx context.Context), log logging.Logger) *Watcher {
	return &Watcher{
		pinger:   p,
		onOnline: onOnline,
		log:      log.With("module", "netwatch"),
		online:   observe.NewValue(false),
	}
}

func (w *Watcher) Online() *observe.Value[bool] { return w.online }

// Check probes once and returns the new state.
func (w *Watcher) Check(ctx context.Context) bool {
	err := w.pinger.Ping(ctx)
	up := err == nil

	w.mu.Lock()
	was := w.online.Get()
	first := !w.checked
	w.checked = true
	w.online.Set(up)
	w.mu.Unlock()

	switch {
	case up && !was:
		w.log.Info(ctx, "remote reachable")
		if w.onOnline != nil {
			w.onOnline(ctx)
		}
	case !up && (was || first):
		w.log.Warn(ctx, "remote unreachable", "err", err)
	}
	return up
}

// Run checks immediately and then on every tick until ctx is done.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	w.Check(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.Check(ctx)
		}
	}
}
