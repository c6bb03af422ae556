package imageproc

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type normalizer interface {
	Normalize(ctx context.Context, ref string) (string, error)
}

// Pool runs normalization that needs disk or network I/O on a fixed number of
// workers and bounds each call by a timeout.
type Pool struct {
	logger     *zap.Logger
	normalizer normalizer
	sem        *semaphore.Weighted
	timeout    time.Duration
}

func NewPool(logger *zap.Logger, n normalizer, workers int64, timeout time.Duration) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		logger:     logger,
		normalizer: n,
		sem:        semaphore.NewWeighted(workers),
		timeout:    timeout,
	}
}

type result struct {
	uri string
	err error
}

// Normalize waits at most the pool timeout, queueing included. On timeout the
// worker is abandoned: its context is cancelled and it releases its slot when
// it returns.
func (p *Pool) Normalize(ctx context.Context, ref string) (string, error) {
	source := Classify(ref)
	if source == SourceDataURI {
		return p.normalizer.Normalize(ctx, ref)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", p.abandoned(source, err)
	}

	done := make(chan result, 1)
	go func() {
		defer p.sem.Release(1)
		uri, err := p.normalizer.Normalize(ctx, ref)
		done <- result{uri: uri, err: err}
	}()

	select {
	case r := <-done:
		return r.uri, r.err
	case <-ctx.Done():
		return "", p.abandoned(source, ctx.Err())
	}
}

func (p *Pool) abandoned(source Source, err error) error {
	msg := "image processing cancelled"
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "image processing timed out"
	}
	p.logger.Warn(msg, zap.Stringer("source", source), zap.Duration("timeout", p.timeout))
	return &ImageError{Source: source, Msg: msg, Err: err}
}
