// Package queue schedules accepted submissions onto a fixed pool of
// grading workers.
package queue

import (
	"context"
	"sync"

	"algolab/internal/judge/model"
	apperr "algolab/pkg/errors"
)

// Config tunes the queue and worker pool.
type Config struct {
	// Capacity bounds the queue; Enqueue fails fast when full.
	Capacity int `yaml:"capacity"`
	// Workers is the fixed number of concurrent graders.
	Workers int `yaml:"workers"`
	// PerUserPendingCap bounds how many submissions one user may have
	// queued at once; exceeding it rejects with RateLimited.
	PerUserPendingCap int `yaml:"perUserPendingCap"`
	// PerUserInFlightCap bounds how many submissions of one user may be
	// actively grading at once. A claimed submission over the cap is
	// requeued, not rejected.
	PerUserInFlightCap int `yaml:"perUserInFlightCap"`
	// OverheadMarginMs pads the per-submission wall-clock ceiling.
	OverheadMarginMs int64 `yaml:"overheadMarginMs"`
}

func (c *Config) applyDefaults() {
	if c.Capacity <= 0 {
		c.Capacity = 256
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.PerUserPendingCap <= 0 {
		c.PerUserPendingCap = 8
	}
	if c.PerUserInFlightCap <= 0 {
		c.PerUserInFlightCap = 1
	}
	if c.OverheadMarginMs <= 0 {
		c.OverheadMarginMs = 15000
	}
}

// Queue is a bounded FIFO of accepted submissions with per-user pending
// accounting. The channel and the counter map are the only state shared
// across workers; each is mutated in exactly one critical section.
type Queue struct {
	ch chan *model.Submission

	mu         sync.Mutex
	pending    map[string]int
	pendingCap int
}

func NewQueue(capacity, perUserPendingCap int) *Queue {
	if capacity <= 0 {
		capacity = 256
	}
	if perUserPendingCap <= 0 {
		perUserPendingCap = 8
	}
	return &Queue{
		ch:         make(chan *model.Submission, capacity),
		pending:    make(map[string]int),
		pendingCap: perUserPendingCap,
	}
}

// Enqueue accepts a submission or fails fast: RateLimited when the user
// already has too many queued, QueueFull when the queue is at capacity.
// It never blocks.
func (q *Queue) Enqueue(sub *model.Submission) error {
	if sub == nil || sub.ID == "" {
		return apperr.ValidationError("submission", "required")
	}
	q.mu.Lock()
	if q.pending[sub.UserID] >= q.pendingCap {
		q.mu.Unlock()
		return apperr.Newf(apperr.RateLimited, "user %s has too many pending submissions", sub.UserID)
	}
	q.pending[sub.UserID]++
	q.mu.Unlock()

	select {
	case q.ch <- sub:
		return nil
	default:
		q.release(sub.UserID)
		return apperr.New(apperr.QueueFull).WithMessage("submission queue is full")
	}
}

// Dequeue blocks until a submission arrives or ctx is done. The caller
// owns the submission afterwards; its pending slot is released.
func (q *Queue) Dequeue(ctx context.Context) (*model.Submission, error) {
	select {
	case sub := <-q.ch:
		q.release(sub.UserID)
		return sub, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Requeue puts a claimed submission back at the tail without pending-cap
// checks, used when the owner is over the in-flight cap. It blocks until
// a slot frees or ctx is done.
func (q *Queue) Requeue(ctx context.Context, sub *model.Submission) error {
	q.mu.Lock()
	q.pending[sub.UserID]++
	q.mu.Unlock()
	select {
	case q.ch <- sub:
		return nil
	case <-ctx.Done():
		q.release(sub.UserID)
		return ctx.Err()
	}
}

// Len reports the current queue depth.
func (q *Queue) Len() int {
	return len(q.ch)
}

func (q *Queue) release(userID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending[userID] <= 1 {
		delete(q.pending, userID)
		return
	}
	q.pending[userID]--
}
