// Package scheduler implements component H: an optional cron-driven
// loop that calls PruneMessages for a registered set of fids. It is
// additive to followstore.Store, not part of the store's own API —
// an embedder that wants pruning on a schedule constructs one of
// these; one that drives pruning itself never touches this package.
// Grounded on the teacher's internal/retention package, which wakes on
// a gronx-computed next tick rather than polling, and on its
// pkg/auth/limiter.go pooled-rate.Limiter pattern, adapted here to cap
// how often any single fid can be pruned.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"golang.org/x/time/rate"

	"followstore/pkg/logging"
)

// Pruner is the subset of followstore.Store's API the scheduler drives.
// Accepting an interface rather than *followstore.Store keeps this
// package free of a direct dependency on it, and lets tests substitute
// a fake.
type Pruner interface {
	PruneMessages(fid []byte) error
}

// Config controls a Scheduler's cron expression and per-fid throttle.
type Config struct {
	// Cron is a standard five-field cron expression. Empty defaults to
	// "0 2 * * *" (daily at 02:00 UTC), matching the teacher's default.
	Cron string `yaml:"cron"`
	// FidRPS caps how many PruneMessages calls a single fid can incur
	// per second across ticks; zero uses the default of 1.
	FidRPS float64 `yaml:"fid_rps"`
	// FidBurst is the token bucket burst size for the per-fid limiter;
	// zero uses the default of 1.
	FidBurst int `yaml:"fid_burst"`
}

// LoadConfig parses a YAML document into a Config, for embedders that
// keep scheduler settings alongside their own config file.
func LoadConfig(data []byte, out *Config) error {
	return yamlUnmarshal(data, out)
}

// Scheduler periodically prunes a registered set of fids according to
// a cron schedule. The zero value is not usable; build one with New.
type Scheduler struct {
	pruner Pruner
	cfg    Config

	mu      sync.Mutex
	fids    map[string][]byte
	limiter limiterPool
}

// New builds a Scheduler over pruner. cfg.Cron is validated lazily, at
// Start, so a Scheduler can be constructed before its config is final.
func New(pruner Pruner, cfg Config) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		cfg:    cfg,
		fids:   make(map[string][]byte),
		limiter: limiterPool{
			rps:   cfg.FidRPS,
			burst: cfg.FidBurst,
		},
	}
}

// Register adds fid to the set the scheduler prunes on each tick.
// Registering the same fid twice is a no-op.
func (s *Scheduler) Register(fid []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fids[string(fid)] = append([]byte(nil), fid...)
}

// Unregister removes fid from the scheduled set.
func (s *Scheduler) Unregister(fid []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fids, string(fid))
}

// Start validates the configured cron expression and runs the
// scheduling loop until ctx is canceled. Start blocks; call it from its
// own goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	cronExpr := s.cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		return fmt.Errorf("invalid prune cron expression: %s", cronExpr)
	}

	logging.Info("scheduler_started", "cron", cronExpr)
	for {
		select {
		case <-ctx.Done():
			logging.Info("scheduler_stopping")
			return nil
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logging.Error("scheduler_nexttick_failed", "cron", cronExpr, "error", err.Error())
			if !sleepOrDone(ctx, 30*time.Second) {
				return nil
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			s.runTick()
			if !sleepOrDone(ctx, time.Second) {
				return nil
			}
			continue
		}

		if !sleepOrDone(ctx, wait) {
			return nil
		}
		s.runTick()
	}
}

// runTick prunes every registered fid once, skipping any fid whose
// per-fid limiter denies the attempt.
func (s *Scheduler) runTick() {
	s.mu.Lock()
	batch := make([][]byte, 0, len(s.fids))
	for _, fid := range s.fids {
		batch = append(batch, fid)
	}
	s.mu.Unlock()

	for _, fid := range batch {
		if !s.limiter.allow(string(fid)) {
			continue
		}
		if err := s.pruner.PruneMessages(fid); err != nil {
			logging.Error("scheduler_prune_failed", "fid", fmt.Sprintf("%x", fid), "error", err.Error())
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

// limiterPool hands out one rate.Limiter per key, matching the
// teacher's pkg/auth/limiter.go pool shape.
type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   float64
	burst int
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*rate.Limiter)
	}
	if l, ok := p.m[key]; ok {
		return l
	}
	rps := p.rps
	if rps <= 0 {
		rps = 1
	}
	burst := p.burst
	if burst <= 0 {
		burst = 1
	}
	l := rate.NewLimiter(rate.Limit(rps), burst)
	p.m[key] = l
	return l
}

func (p *limiterPool) allow(key string) bool {
	return p.get(key).Allow()
}
