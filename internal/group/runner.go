package group

import (
	"context"
	"time"

	"github.com/kelvari/groupsync/internal/logger"
)

// Runner owns the single cooperative loop of the process. The poller, the
// lifecycle operations and the connect/disconnect hooks all execute on this
// one goroutine, which is why no engine state needs locking.
type Runner struct {
	log      *logger.Logger
	interval time.Duration
	engines  map[Kind]*Engine
	cmds     chan func(context.Context)
}

// NewRunner creates a runner driving the given engines at the pump interval.
func NewRunner(log *logger.Logger, interval time.Duration, engines ...*Engine) *Runner {
	r := &Runner{
		log:      log,
		interval: interval,
		engines:  make(map[Kind]*Engine, len(engines)),
		cmds:     make(chan func(context.Context), 256),
	}
	for _, e := range engines {
		r.engines[e.Kind()] = e
	}
	return r
}

// Engine returns the engine for a kind, or nil if none is registered.
func (r *Runner) Engine(kind Kind) *Engine {
	return r.engines[kind]
}

// Do schedules fn onto the runner loop. It is the only safe way to touch an
// engine from another goroutine.
func (r *Runner) Do(fn func(context.Context)) {
	r.cmds <- fn
}

// Run processes commands and poll ticks until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("runner started", "pump_interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("runner stopped")
			return
		case fn := <-r.cmds:
			fn(ctx)
		case <-ticker.C:
			for _, e := range r.engines {
				e.Pump(ctx)
			}
		}
	}
}
