package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"algolab/internal/common/cache"
	"algolab/internal/judge/model"
	apperr "algolab/pkg/errors"
)

const statusKeyPrefix = "judge:status:"

// StatusSnapshot is the poll-facing view of a submission. A snapshot is
// written whole at every state transition, so readers never observe
// partially-written results.
type StatusSnapshot struct {
	SubmissionID    string                 `json:"submissionId"`
	Status          model.Status           `json:"status"`
	Verdict         model.Outcome          `json:"verdict,omitempty"`
	RuntimeMs       int64                  `json:"runtimeMs,omitempty"`
	MemoryKB        int64                  `json:"memoryKb,omitempty"`
	TestCaseResults []model.TestCaseResult `json:"testCaseResults,omitempty"`
	UpdatedAt       int64                  `json:"updatedAt"`
}

// StatusRepository stores status snapshots in the cache for polling.
type StatusRepository struct {
	cache cache.Cache
	TTL   time.Duration
}

func NewStatusRepository(cacheClient cache.Cache, ttl time.Duration) *StatusRepository {
	return &StatusRepository{cache: cacheClient, TTL: ttl}
}

// Get returns the snapshot for a submission id.
func (r *StatusRepository) Get(ctx context.Context, submissionID string) (StatusSnapshot, error) {
	if submissionID == "" {
		return StatusSnapshot{}, apperr.ValidationError("submission_id", "required")
	}
	if r.cache == nil {
		return StatusSnapshot{}, apperr.New(apperr.CacheError).WithMessage("cache client is not initialized")
	}
	val, err := r.cache.Get(ctx, statusKeyPrefix+submissionID)
	if err != nil {
		return StatusSnapshot{}, apperr.Wrapf(err, apperr.CacheError, "load status failed")
	}
	if val == "" {
		return StatusSnapshot{}, apperr.New(apperr.SubmissionNotFound).WithMessage("submission status not found")
	}
	var snap StatusSnapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return StatusSnapshot{}, apperr.Wrapf(err, apperr.CacheError, "decode status failed")
	}
	return snap, nil
}

// GetBatch returns snapshots for multiple ids in one round trip. Missing
// ids are simply absent from the result map.
func (r *StatusRepository) GetBatch(ctx context.Context, submissionIDs []string) (map[string]StatusSnapshot, error) {
	if r.cache == nil {
		return nil, apperr.New(apperr.CacheError).WithMessage("cache client is not initialized")
	}
	if len(submissionIDs) == 0 {
		return map[string]StatusSnapshot{}, nil
	}
	keys := make([]string, len(submissionIDs))
	for i, id := range submissionIDs {
		keys[i] = statusKeyPrefix + id
	}
	values, err := r.cache.MGet(ctx, keys...)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.CacheError, "load status batch failed")
	}
	out := make(map[string]StatusSnapshot, len(submissionIDs))
	for i, val := range values {
		if val == "" {
			continue
		}
		var snap StatusSnapshot
		if err := json.Unmarshal([]byte(val), &snap); err != nil {
			return nil, apperr.Wrapf(err, apperr.CacheError, "decode status failed")
		}
		out[submissionIDs[i]] = snap
	}
	return out, nil
}

// Save writes the snapshot atomically.
func (r *StatusRepository) Save(ctx context.Context, snap StatusSnapshot) error {
	if snap.SubmissionID == "" {
		return apperr.ValidationError("submission_id", "required")
	}
	if r.cache == nil {
		return apperr.New(apperr.CacheError).WithMessage("cache client is not initialized")
	}
	if snap.UpdatedAt == 0 {
		snap.UpdatedAt = time.Now().Unix()
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal status failed: %w", err)
	}
	if err := r.cache.Set(ctx, statusKeyPrefix+snap.SubmissionID, string(data), r.TTL); err != nil {
		return apperr.Wrapf(err, apperr.CacheError, "store status failed")
	}
	return nil
}

// Delete removes a snapshot, used to roll back a rejected intake.
func (r *StatusRepository) Delete(ctx context.Context, submissionID string) error {
	if submissionID == "" {
		return apperr.ValidationError("submission_id", "required")
	}
	if r.cache == nil {
		return apperr.New(apperr.CacheError).WithMessage("cache client is not initialized")
	}
	if err := r.cache.Del(ctx, statusKeyPrefix+submissionID); err != nil {
		return apperr.Wrapf(err, apperr.CacheError, "delete status failed")
	}
	return nil
}
