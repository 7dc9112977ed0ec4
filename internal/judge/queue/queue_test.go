package queue

import (
	"context"
	"testing"
	"time"

	"algolab/internal/judge/model"
	apperr "algolab/pkg/errors"
)

func sub(id, userID string) *model.Submission {
	return &model.Submission{ID: id, UserID: userID, Status: model.StatusPending}
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(10, 10)
	for _, id := range []string{"s1", "s2", "s3"} {
		if err := q.Enqueue(sub(id, "u-"+id)); err != nil {
			t.Fatalf("Enqueue(%s): %v", id, err)
		}
	}
	for _, want := range []string{"s1", "s2", "s3"} {
		got, err := q.Dequeue(context.Background())
		if err != nil {
			t.Fatalf("Dequeue: %v", err)
		}
		if got.ID != want {
			t.Errorf("dequeued %s, want %s", got.ID, want)
		}
	}
}

func TestQueueFullFailsFast(t *testing.T) {
	q := NewQueue(2, 10)
	if err := q.Enqueue(sub("s1", "u1")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Enqueue(sub("s2", "u2")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- q.Enqueue(sub("s3", "u3")) }()
	select {
	case err := <-done:
		if !apperr.Is(err, apperr.QueueFull) {
			t.Errorf("expected QueueFull, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestQueuePerUserPendingCap(t *testing.T) {
	q := NewQueue(10, 2)
	if err := q.Enqueue(sub("s1", "u1")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Enqueue(sub("s2", "u1")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	err := q.Enqueue(sub("s3", "u1"))
	if !apperr.Is(err, apperr.RateLimited) {
		t.Errorf("expected RateLimited, got %v", err)
	}
	// Another user is unaffected.
	if err := q.Enqueue(sub("s4", "u2")); err != nil {
		t.Errorf("other user rejected: %v", err)
	}

	// Dequeue frees the slot.
	if _, err := q.Dequeue(context.Background()); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if err := q.Enqueue(sub("s5", "u1")); err != nil {
		t.Errorf("slot not released after dequeue: %v", err)
	}
}

func TestQueueDequeueHonorsContext(t *testing.T) {
	q := NewQueue(1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := q.Dequeue(ctx); err == nil {
		t.Error("Dequeue on empty queue should fail when ctx expires")
	}
}

func TestQueueRequeueBypassesPendingCap(t *testing.T) {
	q := NewQueue(10, 1)
	if err := q.Enqueue(sub("s1", "u1")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	claimed, err := q.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	// Fill the user's pending slot again, then requeue the claimed one.
	if err := q.Enqueue(sub("s2", "u1")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Requeue(context.Background(), claimed); err != nil {
		t.Fatalf("Requeue: %v", err)
	}
	if q.Len() != 2 {
		t.Errorf("queue depth = %d, want 2", q.Len())
	}
}
