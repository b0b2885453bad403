package async

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/utils/logging"
)

// Timeout bounds every dispatched job. Jobs outlive the request that
// triggered them, so they must not hang on a slow external API.
const Timeout = 30 * time.Second

// Dispatch runs job in its own goroutine, detached from ctx cancellation.
// The request logger is carried over and tagged with the job name. Errors
// and panics are logged, never returned.
func Dispatch(ctx context.Context, name string, job func(ctx context.Context) error) {
	logger := logging.From(ctx).With("job", name)

	go func() {
		bgCtx, cancel := context.WithTimeout(logging.With(context.Background(), logger), Timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in async job", "panic", r)
			}
		}()

		if err := job(bgCtx); err != nil {
			logger.Error("async job failed", "error", goerr.Unwrap(err))
		}
	}()
}
