package adsbx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/slim-bean/adsb-intercept/pkg/model"
)

// Stats summarises one ForEach call.
type Stats struct {
	Delivered int
	Skipped   int
}

type result struct {
	report *model.Report
	err    error
}

// ForEach decodes sources in parallel and calls fn serially, in input order,
// once per successfully decoded batch. A decode failure aborts the run with a
// *DecodeError unless SkipErrors is set, in which case it is logged and
// skipped. An error from fn aborts the run and is returned as is.
func (l *Loader) ForEach(ctx context.Context, sources []string, fn func(source string, r *model.Report) error) (Stats, error) {
	var stats Stats
	workers := l.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]chan result, len(sources))
	for i := range results {
		results[i] = make(chan result, 1)
	}
	// Bounds decoded-but-undelivered batches.
	inflight := make(chan struct{}, 2*workers)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	producerDone := make(chan struct{})
	go func() {
		defer close(producerDone)
		for i, src := range sources {
			select {
			case inflight <- struct{}{}:
			case <-egCtx.Done():
				return
			}
			i, src := i, src
			eg.Go(func() error {
				return l.decodeInto(egCtx, src, results[i])
			})
		}
	}()

	start := time.Now()
	var err error
loop:
	for i, src := range sources {
		var res result
		select {
		case res = <-results[i]:
		case <-egCtx.Done():
			// nil when only the group failed, eg.Wait reports that below.
			err = ctx.Err()
			break loop
		}
		<-inflight

		if res.err != nil {
			var ce *ConcurrencyError
			if errors.As(res.err, &ce) || !l.cfg.SkipErrors {
				err = res.err
				break loop
			}
			stats.Skipped++
			level.Warn(l.logger).Log("msg", "skipping batch", "source", src, "err", res.err)
			continue
		}

		if ferr := fn(src, res.report); ferr != nil {
			err = ferr
			break loop
		}
		stats.Delivered++

		if l.cfg.ProgressEvery > 0 && (i+1)%l.cfg.ProgressEvery == 0 {
			level.Info(l.logger).Log("msg", "progress", "done", i+1, "total", len(sources), "elapsed", time.Since(start))
		}
	}

	cancel()
	<-producerDone
	if werr := eg.Wait(); werr != nil && err == nil {
		var ce *ConcurrencyError
		if !errors.As(werr, &ce) {
			werr = &ConcurrencyError{Err: werr}
		}
		err = werr
	}
	return stats, err
}

// decodeInto always delivers exactly one result for src, even if decoding
// panics.
func (l *Loader) decodeInto(ctx context.Context, src string, out chan<- result) (err error) {
	delivered := false
	defer func() {
		if r := recover(); r != nil {
			err = &ConcurrencyError{Source: src, Err: fmt.Errorf("panic: %v", r)}
			if !delivered {
				out <- result{err: err}
			}
		}
	}()
	rpt, lerr := l.load(ctx, src)
	out <- result{report: rpt, err: lerr}
	delivered = true
	return nil
}
