package assistant

import (
	"context"
	"sync"

	"github.com/prodpulse/knowledgesync/internal/mylog"
)

// Runner executes fire-and-forget background tasks. The contract is explicit:
// task errors are logged, never surfaced to the caller that scheduled them.
// Wait exists so tests and shutdown paths can drain in-flight tasks.
type Runner struct {
	logger *mylog.Logger
	wg     sync.WaitGroup
}

func NewRunner(logger *mylog.Logger) *Runner {
	return &Runner{logger: logger}
}

func (r *Runner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		// Detached from the scheduling caller's lifetime on purpose.
		if err := fn(context.Background()); err != nil {
			r.logger.Warn("background task failed", "task", name, mylog.Err(err))
		}
	}()
}

func (r *Runner) Wait() {
	r.wg.Wait()
}
