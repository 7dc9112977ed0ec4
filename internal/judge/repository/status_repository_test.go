package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"algolab/internal/common/cache"
	"algolab/internal/judge/model"
	apperr "algolab/pkg/errors"
)

func newTestRepo(t *testing.T) *StatusRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c, err := cache.NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("NewRedisCacheWithClient: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return NewStatusRepository(c, time.Hour)
}

func TestStatusRepositorySaveAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	snap := StatusSnapshot{
		SubmissionID: "sub-1",
		Status:       model.StatusRunning,
	}
	if err := repo.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Get(ctx, "sub-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.StatusRunning {
		t.Errorf("status = %s, want RUNNING", got.Status)
	}
	if got.UpdatedAt == 0 {
		t.Error("UpdatedAt should be stamped on save")
	}
}

func TestStatusRepositorySnapshotIsWhole(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	terminal := StatusSnapshot{
		SubmissionID: "sub-2",
		Status:       model.StatusAccepted,
		Verdict:      model.OutcomeAccepted,
		RuntimeMs:    120,
		MemoryKB:     2048,
		TestCaseResults: []model.TestCaseResult{
			{Index: 0, Outcome: model.OutcomeAccepted, RuntimeMs: 120, MemoryKB: 2048},
		},
	}
	if err := repo.Save(ctx, terminal); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Get(ctx, "sub-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.TestCaseResults) != 1 || got.Verdict != model.OutcomeAccepted {
		t.Errorf("snapshot not read back whole: %+v", got)
	}
}

func TestStatusRepositoryGetMissing(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Get(context.Background(), "nope")
	if !apperr.Is(err, apperr.SubmissionNotFound) {
		t.Errorf("expected SubmissionNotFound, got %v", err)
	}
}

func TestStatusRepositoryGetBatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := repo.Save(ctx, StatusSnapshot{SubmissionID: id, Status: model.StatusPending}); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}
	got, err := repo.GetBatch(ctx, []string{"a", "missing", "b"})
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(got))
	}
	if _, ok := got["missing"]; ok {
		t.Error("missing id should be absent from the result")
	}
	if got["a"].Status != model.StatusPending {
		t.Errorf("snapshot a = %+v", got["a"])
	}
}

func TestStatusRepositoryValidation(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Save(context.Background(), StatusSnapshot{}); err == nil {
		t.Error("Save without submission id should fail")
	}
	if _, err := repo.Get(context.Background(), ""); err == nil {
		t.Error("Get with empty id should fail")
	}
}
