package queue

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mkfin/banking-backend/internal/dto"
	"github.com/mkfin/banking-backend/internal/errs"
	"github.com/mkfin/banking-backend/pkg/logger"
)

type countingJob struct {
	mu       sync.Mutex
	attempts int
	failWith []error // errors returned per attempt, nil entries succeed
	done     chan struct{}
}

func newCountingJob(failWith ...error) *countingJob {
	return &countingJob{failWith: failWith, done: make(chan struct{}, 8)}
}

func (j *countingJob) Execute(ctx context.Context) error {
	j.mu.Lock()
	attempt := j.attempts
	j.attempts++
	j.mu.Unlock()
	j.done <- struct{}{}

	if attempt < len(j.failWith) {
		return j.failWith[attempt]
	}
	return nil
}

func (j *countingJob) CompanyID() string   { return "company-a" }
func (j *countingJob) Description() string { return "test job" }

func (j *countingJob) attemptCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.attempts
}

func (j *countingJob) waitAttempts(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-j.done:
		case <-time.After(10 * time.Second):
			t.Fatalf("timed out waiting for attempt %d", i+1)
		}
	}
}

func testPool(workers, queueSize int) *Pool {
	p := NewPool(workers, queueSize, slog.New(logger.NewTestHandler(slog.LevelError)))
	p.jobTimeout = time.Second
	p.retryBackoff = 10 * time.Millisecond
	return p
}

func TestPoolRunsSubmittedJobs(t *testing.T) {
	p := testPool(2, 4)
	p.Start()
	defer p.Shutdown(time.Second)

	jobs := []*countingJob{newCountingJob(), newCountingJob(), newCountingJob()}
	for _, j := range jobs {
		if err := p.Submit(j); err != nil {
			t.Fatalf("Submit error: %v", err)
		}
	}
	for _, j := range jobs {
		j.waitAttempts(t, 1)
	}
}

func TestPoolRetriesTransientFailure(t *testing.T) {
	p := testPool(1, 4)
	p.Start()
	defer p.Shutdown(30 * time.Second)

	j := newCountingJob(errs.NewExternalServiceError("psd2", "upstream 503", true))
	if err := p.Submit(j); err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	j.waitAttempts(t, 2)
	if got := j.attemptCount(); got != 2 {
		t.Fatalf("attempts = %d, want 2", got)
	}
}

func TestPoolDoesNotRetryAuthFailure(t *testing.T) {
	p := testPool(1, 4)
	p.Start()

	j := newCountingJob(errs.NewAuthExpiredError("nlb", "reconnect required"))
	if err := p.Submit(j); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	j.waitAttempts(t, 1)

	p.Shutdown(5 * time.Second)
	if got := j.attemptCount(); got != 1 {
		t.Fatalf("attempts = %d, want 1 (auth failures never retry)", got)
	}
}

func TestPoolRejectsWhenQueueFull(t *testing.T) {
	// No workers started, so the buffer is the whole capacity.
	p := NewPool(1, 1, slog.New(logger.NewTestHandler(slog.LevelError)))

	if err := p.Submit(newCountingJob()); err != nil {
		t.Fatalf("first submit should fit: %v", err)
	}
	err := p.Submit(newCountingJob())
	if err == nil {
		t.Fatal("second submit should report a full queue")
	}
}

func TestPoolRejectsSubmitAfterShutdown(t *testing.T) {
	p := testPool(1, 4)
	p.Start()
	p.Shutdown(time.Second)

	if err := p.Submit(newCountingJob()); err == nil {
		t.Fatal("submit after shutdown should report an error")
	}
}

func TestPoolSubmitDuringShutdownDoesNotPanic(t *testing.T) {
	p := testPool(2, 64)
	p.Start()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					p.Submit(newCountingJob())
				}
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	p.Shutdown(time.Second)
	close(stop)
	wg.Wait()
}

type fakeSyncer struct {
	result dto.SyncResult
	err    error
	calls  int
}

func (f *fakeSyncer) SyncConnection(ctx context.Context, companyID, bankCode, accountID string, lookbackDays, maxTransactions int) (dto.SyncResult, error) {
	f.calls++
	return f.result, f.err
}

func TestConnectionSyncJobSurfacesPartialFailure(t *testing.T) {
	ctx := logger.ToContext(context.Background(), slog.New(logger.NewTestHandler(slog.LevelError)))

	healthy := &fakeSyncer{result: dto.SyncResult{AccountsSynced: 2}}
	job := NewConnectionSyncJob("company-a", "nlb", 30, healthy)
	if err := job.Execute(ctx); err != nil {
		t.Fatalf("clean sync should not error: %v", err)
	}

	partial := &fakeSyncer{result: dto.SyncResult{AccountsSynced: 1, AccountsFailed: 1}}
	job = NewConnectionSyncJob("company-a", "nlb", 30, partial)
	if err := job.Execute(ctx); err == nil {
		t.Fatal("partial failure should surface for retry")
	}
}
