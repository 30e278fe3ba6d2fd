package crawler

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// Default values
	DefaultRequestsPerSecond = 5.0
	DefaultRequestTimeout    = 10 * time.Second
	DefaultBurst             = 5

	// Upstream bodies above this size are rejected as malformed.
	MaxResponseBytes = 4 << 20
)

func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}

// Head returns the first n items, or all of them when there are fewer.
func Head[T any](items []T, n int) []T {
	if n <= 0 {
		return items[:0]
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}

// RunWithGracefulShutdown starts workers and waits for them after SIGINT,
// SIGTERM or the first call to fail. The error passed to fail is returned.
func RunWithGracefulShutdown(
	logger *logrus.Logger,
	startWorkers func(ctx context.Context, wg *sync.WaitGroup, fail func(error)),
) error {
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			logger.Info("Received shutdown signal, gracefully shutting down...")
			cancel(nil)
		case <-ctx.Done():
		}
	}()

	fail := func(err error) {
		logger.Errorf("Worker failed, shutting down: %v", err)
		cancel(err)
	}

	// Start workers
	var wg sync.WaitGroup
	startWorkers(ctx, &wg, fail)

	logger.Info("All workers started")
	wg.Wait()

	if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
