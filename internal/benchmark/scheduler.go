package benchmark

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ModelSpec describes one generation/evaluation model as the scheduler
// sees it: which pool it belongs to, and (for local models) its declared
// parameter count. ParamBillions is nil when the size is unknown; per
// §4.13, unknown sizes are treated as small.
type ModelSpec struct {
	Name          string
	Local         bool
	ParamBillions *float64
}

func (m ModelSpec) isLarge(threshold float64) bool {
	if threshold <= 0 || m.ParamBillions == nil {
		return false
	}
	return *m.ParamBillions >= threshold
}

// Scheduler runs a per-model function honoring §4.13's scheduling model:
// cloud and local pools run concurrently with each other; within cloud,
// every model runs in parallel; within local, models at or above
// LargeModelThreshold run strictly sequentially (GPU memory isolation)
// while the rest run with up to LocalModelParallelism concurrent workers.
type Scheduler struct {
	LargeModelThreshold   float64
	LocalModelParallelism int
}

// NewScheduler applies §4.13's default local parallelism (1) when
// localModelParallelism is unset. largeModelThreshold is taken as given:
// a caller-supplied 0 means "disabled" (every local model runs in the
// small/parallel tier), distinct from never configuring it at all — the
// 20B default for that unconfigured case belongs to internal/config, not
// here.
func NewScheduler(largeModelThreshold float64, localModelParallelism int) *Scheduler {
	if localModelParallelism <= 0 {
		localModelParallelism = 1
	}
	return &Scheduler{LargeModelThreshold: largeModelThreshold, LocalModelParallelism: localModelParallelism}
}

// RunFunc processes one model; a non-nil error fails that model only —
// the scheduler collects every error rather than aborting the whole run,
// per §4.13's "per-item failures... do not fail the phase" posture.
type RunFunc func(ctx context.Context, model ModelSpec) error

// Run executes fn for every model in models per the pool/isolation rules
// above and returns the per-model errors keyed by model name.
func (s *Scheduler) Run(ctx context.Context, models []ModelSpec, fn RunFunc) map[string]error {
	var cloud, large, small []ModelSpec
	for _, m := range models {
		switch {
		case !m.Local:
			cloud = append(cloud, m)
		case m.isLarge(s.LargeModelThreshold):
			large = append(large, m)
		default:
			small = append(small, m)
		}
	}

	errs := make(map[string]error)
	var mu sync.Mutex
	record := func(name string, err error) {
		if err == nil {
			return
		}
		mu.Lock()
		errs[name] = err
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		g, gctx := errgroup.WithContext(ctx)
		for _, m := range cloud {
			m := m
			g.Go(func() error {
				record(m.Name, fn(gctx, m))
				return nil
			})
		}
		_ = g.Wait()
	}()

	go func() {
		defer wg.Done()
		for _, m := range large {
			record(m.Name, fn(ctx, m))
		}
	}()

	go func() {
		defer wg.Done()
		sem := make(chan struct{}, s.LocalModelParallelism)
		var inner sync.WaitGroup
		for _, m := range small {
			m := m
			sem <- struct{}{}
			inner.Add(1)
			go func() {
				defer inner.Done()
				defer func() { <-sem }()
				record(m.Name, fn(ctx, m))
			}()
		}
		inner.Wait()
	}()

	wg.Wait()
	return errs
}
