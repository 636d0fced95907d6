// Package ai coordinates the two AI features, empathy generation and
// reformulation, which share one quota pool and one busy flag.
//
// At most one remote call is in flight across both kinds. A request is
// answered, in order of preference, from the cache, from the local rule
// engine when the daily network budget is spent, or from the remote
// generator after the purchased quota has been charged.
package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gokigennote/gokigen/internal/client/empathy"
	"github.com/gokigennote/gokigen/internal/client/models"
	"github.com/gokigennote/gokigen/internal/client/textgen"
	"github.com/gokigennote/gokigen/internal/common"
	"github.com/gokigennote/gokigen/internal/logging"
)

type Kind int

const (
	KindEmpathy Kind = iota
	KindReformulation
	kindCount
)

func (k Kind) String() string {
	if k == KindReformulation {
		return "reformulation"
	}
	return "empathy"
}

// Source says where a result came from.
type Source int

const (
	SourceRemote Source = iota
	SourceCache
	SourceLocal
)

// Notice is a condition the user should be told about.
type Notice int

const (
	NoticeNone Notice = iota
	// NoticeDailyLimit: the network budget is spent for today.
	NoticeDailyLimit
	// NoticeRemoteUnavailable: the remote call failed.
	NoticeRemoteUnavailable
	// NoticeLocalOnly: no remote generator is configured.
	NoticeLocalOnly
)

type Result struct {
	Kind   Kind
	Source Source
	Notice Notice

	Empathy  string
	NextStep string
	Text     string
}

type Quota interface {
	CanConsume(ctx context.Context, now time.Time) bool
	Consume(ctx context.Context, now time.Time)
}

type Budget interface {
	Exhausted(ctx context.Context, now time.Time) bool
	Increment(ctx context.Context, now time.Time)
}

const (
	DefaultCacheSize = 50
	DefaultTimeout   = 30 * time.Second
)

type Options struct {
	CacheSize int
	Timeout   time.Duration
	Now       func() time.Time
}

type Coordinator struct {
	gen    textgen.Generator
	quota  Quota
	budget Budget
	log    logging.Logger
	opts   Options

	mu        sync.Mutex
	busy      bool
	nextToken uint64
	tokens    [kindCount]uint64
	cancels   [kindCount]context.CancelFunc

	empathyCache *fifo[empathy.Result]
	reformCache  *fifo[string]
}

// New builds a coordinator. A nil generator makes every request fall back
// to the local rule engine without charging anything.
func New(gen textgen.Generator, q Quota, b Budget, log logging.Logger, opts Options) *Coordinator {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Coordinator{
		gen:          gen,
		quota:        q,
		budget:       b,
		log:          log.With("module", "ai"),
		opts:         opts,
		empathyCache: newFIFO[empathy.Result](opts.CacheSize),
		reformCache:  newFIFO[string](opts.CacheSize),
	}
}

// Busy reports whether a remote call is in flight.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Empathy returns an empathy message and next step for text.
func (c *Coordinator) Empathy(ctx context.Context, text string, mood models.Mood) (Result, error) {
	text = strings.TrimSpace(text)
	local := func(n Notice) Result {
		r := empathy.Rewrite(text, mood)
		return Result{Kind: KindEmpathy, Source: SourceLocal, Notice: n, Empathy: r.Empathy, NextStep: r.NextStep}
	}
	lookup := func() (Result, bool) {
		r, ok := c.empathyCache.get(text)
		return Result{Kind: KindEmpathy, Source: SourceCache, Empathy: r.Empathy, NextStep: r.NextStep}, ok
	}
	apply := func(reply string) Result {
		e, n := textgen.ParseEmpathy(reply)
		c.empathyCache.put(text, empathy.Result{Empathy: e, NextStep: n})
		return Result{Kind: KindEmpathy, Source: SourceRemote, Empathy: e, NextStep: n}
	}
	return c.run(ctx, KindEmpathy, text, textgen.EmpathyPrompt(text), lookup, local, apply)
}

// Reformulate rewrites text for rc. Cached answers are keyed by both.
func (c *Coordinator) Reformulate(ctx context.Context, text string, rc models.ReformulationContext) (Result, error) {
	text = strings.TrimSpace(text)
	key := rc.Key() + "\x00" + text
	local := func(n Notice) Result {
		return Result{Kind: KindReformulation, Source: SourceLocal, Notice: n, Text: empathy.Reformulate(text, rc)}
	}
	lookup := func() (Result, bool) {
		s, ok := c.reformCache.get(key)
		return Result{Kind: KindReformulation, Source: SourceCache, Text: s}, ok
	}
	apply := func(reply string) Result {
		out := strings.Trim(strings.TrimSpace(reply), `"`)
		c.reformCache.put(key, out)
		return Result{Kind: KindReformulation, Source: SourceRemote, Text: out}
	}
	return c.run(ctx, KindReformulation, text, textgen.ReformulationPrompt(text, rc), lookup, local, apply)
}

// Cancel abandons the in-flight request of kind k, if any. Its caller gets
// ErrStaleResponse.
func (c *Coordinator) Cancel(k Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextToken++
	c.tokens[k] = c.nextToken
	if cancel := c.cancels[k]; cancel != nil {
		cancel()
	}
}

func (c *Coordinator) run(
	ctx context.Context,
	kind Kind,
	text, prompt string,
	lookup func() (Result, bool),
	local func(Notice) Result,
	apply func(string) Result,
) (Result, error) {
	if text == "" {
		return Result{}, common.ErrValidationEmpty
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return Result{}, common.ErrBusy
	}
	if r, ok := lookup(); ok {
		c.mu.Unlock()
		return r, nil
	}
	if c.gen == nil {
		c.mu.Unlock()
		return local(NoticeLocalOnly), nil
	}

	now := c.opts.Now()
	if c.budget.Exhausted(ctx, now) {
		c.mu.Unlock()
		c.log.Info(ctx, "daily network budget spent, using local rules", "kind", kind)
		return local(NoticeDailyLimit), nil
	}
	if !c.quota.CanConsume(ctx, now) {
		c.mu.Unlock()
		return Result{}, common.ErrQuotaExceeded
	}

	c.nextToken++
	token := c.nextToken
	c.tokens[kind] = token
	c.busy = true
	callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	c.cancels[kind] = cancel
	c.quota.Consume(ctx, now)
	c.budget.Increment(ctx, now)
	c.mu.Unlock()

	reply, err := c.gen.Generate(callCtx, prompt)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.cancels[kind] = nil

	if c.tokens[kind] != token {
		return Result{}, common.ErrStaleResponse
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(common.ErrTimeout, err)
		}
		c.log.Warn(ctx, "remote generation failed, using local rules", "kind", kind, "err", err)
		return local(NoticeRemoteUnavailable), nil
	}
	return apply(reply), nil
}
