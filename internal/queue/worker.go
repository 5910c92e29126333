package queue

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	mastering "github.com/tphakala/go-audio-mastering"
)

// Processor masters one job. Each call owns its own pipeline run.
type Processor func(ctx context.Context, job Job) (mastering.Results, error)

// Pool runs queued jobs on a fixed number of workers.
type Pool struct {
	q       *Queue
	process Processor
	workers int
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithWorkers sets the number of concurrent jobs. Values below one are ignored.
func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// NewPool creates a pool that feeds jobs from q to process.
// The default worker count is GOMAXPROCS.
func NewPool(q *Queue, process Processor, opts ...PoolOption) *Pool {
	p := &Pool{q: q, process: process, workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Workers returns the worker count.
func (p *Pool) Workers() int { return p.workers }

// Run processes jobs as they arrive until ctx is done.
func (p *Pool) Run(ctx context.Context) error {
	return p.run(ctx, false)
}

// Drain processes jobs until no pending job is left, then returns.
func (p *Pool) Drain(ctx context.Context) error {
	return p.run(ctx, true)
}

func (p *Pool) run(ctx context.Context, stopWhenIdle bool) error {
	g, ctx := errgroup.WithContext(ctx)
	for w := range p.workers {
		g.Go(func() error {
			for ctx.Err() == nil {
				job, ok, wake := p.q.claim()
				if ok {
					p.execute(ctx, w, job)
					continue
				}
				if stopWhenIdle {
					return nil
				}
				select {
				case <-ctx.Done():
				case <-wake:
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func (p *Pool) execute(ctx context.Context, worker int, job Job) {
	log := p.q.log.WithFields(logrus.Fields{"job_id": job.ID, "worker": worker})

	res, err := p.guarded(ctx, job)
	if err != nil {
		if ferr := p.q.Fail(job.ID, err); ferr != nil {
			log.WithError(ferr).Error("record job failure")
		}
		return
	}
	if cerr := p.q.Complete(job.ID, res); cerr != nil {
		log.WithError(cerr).Error("record job completion")
	}
}

func (p *Pool) guarded(ctx context.Context, job Job) (res mastering.Results, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("processor panic: %v", rec)
		}
	}()
	return p.process(ctx, job)
}
