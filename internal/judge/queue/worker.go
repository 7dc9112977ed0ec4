package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"algolab/internal/judge/model"
	"algolab/pkg/utils/logger"
)

// Handler grades one submission end to end, including its state
// transitions and persistence. It must not panic across the boundary and
// must always leave the submission in a terminal state.
type Handler interface {
	HandleSubmission(ctx context.Context, sub *model.Submission)
}

// Pool is a fixed-size set of workers pulling from one FIFO queue. Each
// worker processes one submission fully before claiming the next, so
// sandbox concurrency is bounded by the pool size.
type Pool struct {
	cfg     Config
	queue   *Queue
	handler Handler

	mu       sync.Mutex
	inFlight map[string]int

	wg sync.WaitGroup
}

func NewPool(cfg Config, q *Queue, handler Handler) *Pool {
	cfg.applyDefaults()
	return &Pool{
		cfg:      cfg,
		queue:    q,
		handler:  handler,
		inFlight: make(map[string]int),
	}
}

// Start launches the workers. They run until ctx is cancelled; Wait
// blocks until all of them drain.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		sub, err := p.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		if !p.acquireUser(sub.UserID) {
			// The user is already at the in-flight cap. Put the
			// submission back and yield so this worker does not spin on
			// a queue holding only that user's work.
			if err := p.queue.Requeue(ctx, sub); err != nil {
				// Only happens on shutdown; the submission stays PENDING
				// and a resubmission is safe.
				logger.Warn(ctx, "requeue failed during shutdown",
					zap.String("submission_id", sub.ID), zap.Error(err))
				return
			}
			select {
			case <-time.After(10 * time.Millisecond):
			case <-ctx.Done():
				return
			}
			continue
		}
		logger.Debug(ctx, "worker claimed submission",
			zap.Int("worker", id), zap.String("submission_id", sub.ID))
		p.handler.HandleSubmission(ctx, sub)
		p.releaseUser(sub.UserID)
	}
}

func (p *Pool) acquireUser(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[userID] >= p.cfg.PerUserInFlightCap {
		return false
	}
	p.inFlight[userID]++
	return true
}

func (p *Pool) releaseUser(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[userID] <= 1 {
		delete(p.inFlight, userID)
		return
	}
	p.inFlight[userID]--
}
