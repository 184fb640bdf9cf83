package assistant

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/prodpulse/knowledgesync/internal/mylog"
)

func TestRunnerRunsTasksAndWaits(t *testing.T) {
	runner := NewRunner(mylog.NewLogger("error", "default"))

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		runner.Go("task", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
	}
	runner.Wait()

	require.EqualValues(t, 5, ran.Load())
}

func TestRunnerSwallowsTaskErrors(t *testing.T) {
	runner := NewRunner(mylog.NewLogger("error", "default"))

	// Errors are logged, never panicked or surfaced.
	runner.Go("failing", func(ctx context.Context) error {
		return errors.New("boom")
	})
	runner.Wait()
}
