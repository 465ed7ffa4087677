package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mkfin/banking-backend/internal/errs"
	"github.com/mkfin/banking-backend/pkg/logger"
)

const (
	defaultJobTimeout = 2 * time.Minute

	// One retry after the first failure; anything still failing goes
	// back to the scheduler on its next tick.
	maxAttempts = 2

	defaultRetryBackoff = 5 * time.Second
)

// Job is one unit of background work, scoped to a company.
type Job interface {
	Execute(ctx context.Context) error
	CompanyID() string
	Description() string
}

// Pool runs jobs on a fixed set of workers. Execution is at least
// once: a job that fails transiently is retried in place before being
// given up on.
type Pool struct {
	workerCount  int
	jobTimeout   time.Duration
	retryBackoff time.Duration
	jobs         chan Job
	wg           sync.WaitGroup
	log          *slog.Logger
	ctx          context.Context
	cancel       context.CancelFunc

	// mu guards closed so Submit never races a Shutdown close.
	mu     sync.Mutex
	closed bool
}

func NewPool(workerCount, queueSize int, log *slog.Logger) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workerCount:  workerCount,
		jobTimeout:   defaultJobTimeout,
		retryBackoff: defaultRetryBackoff,
		jobs:         make(chan Job, queueSize),
		log:          log,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	p.log.Info("worker pool starting", "workers", p.workerCount)
	for i := 1; i <= p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.runJob(id, job)
		}
	}
}

// runJob executes one job with a per-attempt timeout and a bounded
// retry for transient failures.
func (p *Pool) runJob(workerID int, job Job) {
	log := p.log.With(
		"worker", workerID,
		"company_id", job.CompanyID(),
		"job", job.Description(),
	)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(p.ctx, p.jobTimeout)
		ctx = logger.ToContext(ctx, log)
		start := time.Now()
		err := job.Execute(ctx)
		cancel()

		if err == nil {
			log.Info("job finished", "attempt", attempt, "duration", time.Since(start).String())
			return
		}

		if attempt < maxAttempts && retryable(err) {
			log.Warn("job failed, retrying", "attempt", attempt, "error", err.Error())
			select {
			case <-time.After(p.retryBackoff):
			case <-p.ctx.Done():
				return
			}
			continue
		}

		log.Error("job failed", "attempt", attempt, "error", err.Error())
		return
	}
}

// retryable reports whether a failure is worth an in-place retry.
// Expired authorizations and bad input never fix themselves.
func retryable(err error) bool {
	var external *errs.ExternalServiceError
	if errors.As(err, &external) {
		return external.Transient
	}
	var auth *errs.AuthExpiredError
	var validation *errs.ValidationError
	var parse *errs.ParseError
	if errors.As(err, &auth) || errors.As(err, &validation) || errors.As(err, &parse) {
		return false
	}
	return true
}

// Submit enqueues a job without blocking. A full queue drops the job;
// the scheduler resubmits on its next tick.
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errs.NewExternalServiceError("queue", "worker pool is shut down", false)
	}

	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case p.jobs <- job:
		return nil
	default:
		p.log.Warn("job queue full, dropping job",
			"company_id", job.CompanyID(), "job", job.Description())
		return errs.NewExternalServiceError("queue", "job queue full", true)
	}
}

// SubmitBatch enqueues what fits and reports how many made it.
func (p *Pool) SubmitBatch(jobs []Job) int {
	submitted := 0
	for _, job := range jobs {
		if err := p.Submit(job); err != nil {
			continue
		}
		submitted++
	}
	p.log.Info("jobs submitted", "submitted", submitted, "total", len(jobs))
	return submitted
}

// Shutdown stops accepting work, drains in-flight jobs, and waits up
// to the grace period before forcing cancellation.
func (p *Pool) Shutdown(grace time.Duration) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("worker pool drained")
	case <-time.After(grace):
		p.log.Warn("worker pool shutdown timed out, cancelling")
		p.cancel()
	}
	p.cancel()
}
