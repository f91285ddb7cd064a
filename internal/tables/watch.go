package tables

import (
	"context"
	"os"
	"time"
)

const defaultPollInterval = 2 * time.Second

// Reloader polls the loader's override file and re-reads the tables when its
// modification time moves. Invalid files are reported and the last good
// tables stay in effect.
type Reloader struct {
	loader   *Loader
	interval time.Duration
	apply    func(*Tables)
	reject   func(error)

	lastMod time.Time
	primed  bool
}

// NewReloader returns a reloader for l. reject may be nil.
func NewReloader(l *Loader, interval time.Duration, apply func(*Tables), reject func(error)) *Reloader {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if reject == nil {
		reject = func(error) {}
	}
	return &Reloader{loader: l, interval: interval, apply: apply, reject: reject}
}

// Run polls until ctx is cancelled. It always returns nil so it can share an
// errgroup with the servers without tearing them down.
func (r *Reloader) Run(ctx context.Context) error {
	r.check()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.check()
		}
	}
}

// check reloads when the file changed since the previous call. The first
// call only records the current mtime. A file that shows up later counts as
// a change.
func (r *Reloader) check() bool {
	first := !r.primed
	r.primed = true
	fi, err := os.Stat(r.loader.Path())
	if err != nil {
		return false
	}
	mod := fi.ModTime()
	changed := r.lastMod.IsZero() || mod.After(r.lastMod)
	r.lastMod = mod
	if first || !changed {
		return false
	}

	r.loader.Invalidate()
	t, err := r.loader.Load()
	if err != nil {
		r.reject(err)
		return false
	}
	r.apply(t)
	return true
}
