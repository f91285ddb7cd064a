// Package app holds the long-lived objects of a server: static tables, the progression
// store and aggregator, the bus and the run machine factory. It is built once in main and
// passed to the transports.
package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/xtding233/spiral-backend/internal/bus"
	"github.com/xtding233/spiral-backend/internal/progress"
	"github.com/xtding233/spiral-backend/internal/rng"
	"github.com/xtding233/spiral-backend/internal/run"
	"github.com/xtding233/spiral-backend/internal/tables"
)

// Option configures a Context.
type Option func(*Context)

func WithLogger(l zerolog.Logger) Option { return func(c *Context) { c.Logger = l } }

// WithSeed fixes every run's seed. 0 keeps time-derived seeds.
func WithSeed(seed uint32) Option { return func(c *Context) { c.seed = seed } }

// WithCoin sets the fortune flip source handed to new machines.
func WithCoin(src rng.RandomSource) Option { return func(c *Context) { c.coin = src } }

// WithProgressOptions passes options through to the aggregator.
func WithProgressOptions(opts ...progress.Option) Option {
	return func(c *Context) { c.progressOpts = append(c.progressOpts, opts...) }
}

// WithManualTransitions stops sessions from firing queued transitions on timers; they run
// only when the next command drains them or Session.Drain is called.
func WithManualTransitions() Option { return func(c *Context) { c.manual = true } }

// Context is the application context.
type Context struct {
	Store    progress.Store
	Progress *progress.Aggregator
	Bus      *bus.Bus
	Logger   zerolog.Logger

	mu           sync.RWMutex
	tables       *tables.Tables
	seed         uint32
	coin         rng.RandomSource
	manual       bool
	progressOpts []progress.Option
}

// New builds the context over t and store.
func New(t *tables.Tables, store progress.Store, opts ...Option) *Context {
	c := &Context{
		Store:  store,
		Bus:    bus.New(),
		Logger: zerolog.Nop(),
		tables: t,
	}
	for _, o := range opts {
		o(c)
	}
	popts := append([]progress.Option{progress.WithLogger(c.Component("progress"))}, c.progressOpts...)
	c.Progress = progress.New(store, t, popts...)
	return c
}

// Component returns the logger for a named component.
func (c *Context) Component(name string) zerolog.Logger {
	return c.Logger.With().Str("component", name).Logger()
}

// Tables returns the tables new runs are generated from.
func (c *Context) Tables() *tables.Tables {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tables
}

// SetTables swaps in reloaded tables. Runs already in progress keep the tables they started with.
func (c *Context) SetTables(t *tables.Tables) {
	c.mu.Lock()
	c.tables = t
	c.mu.Unlock()
	c.Progress.SetTables(t)
	l := c.Component("tables")
	l.Info().Str("version", t.Version).Msg("tables swapped")
}

// NewMachine is the run machine factory: one fresh machine per play-through.
func (c *Context) NewMachine() *run.Machine {
	opts := []run.Option{
		run.WithBus(c.Bus),
		run.WithLogger(c.Component("run")),
	}
	if c.seed != 0 {
		seed := c.seed
		opts = append(opts, run.WithSeeds(func() uint32 { return seed }))
	}
	if c.coin != nil {
		opts = append(opts, run.WithCoin(c.coin))
	}
	return run.NewMachine(c.Tables(), c.Progress, opts...)
}

// transitionTimer is the wall-clock hook for scheduled transitions.
var transitionTimer = func(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// ProgressSummary is the persisted progression as shown between runs.
type ProgressSummary struct {
	Currency       int            `json:"currency"`
	BestFloor      int            `json:"bestFloor"`
	TotalBanked    int            `json:"totalBanked"`
	Achievements   []string       `json:"achievements"`
	Stats          progress.Stats `json:"stats"`
	DailyAvailable bool           `json:"dailyAvailable"`
}

func (c *Context) Summary() ProgressSummary {
	p := c.Progress
	return ProgressSummary{
		Currency:       p.Currency(),
		BestFloor:      p.BestFloor(),
		TotalBanked:    p.TotalBanked(),
		Achievements:   p.Achievements(),
		Stats:          p.Stats(),
		DailyAvailable: p.DailyRewardAvailable(),
	}
}
