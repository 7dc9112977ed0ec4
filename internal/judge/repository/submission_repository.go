package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/klauspost/compress/zstd"

	"algolab/internal/judge/model"
	apperr "algolab/pkg/errors"
)

// SubmissionRepository is the persistence collaborator for submissions:
// one insert at intake, one update on the terminal transition. The engine
// never queries submission history.
type SubmissionRepository interface {
	Insert(ctx context.Context, sub *model.Submission) error
	UpdateResult(ctx context.Context, sub *model.Submission) error
	// Delete rolls back an intake that failed after the insert.
	Delete(ctx context.Context, submissionID string) error
}

// MySQLSubmissionRepository stores submissions in MySQL. Per-test-case
// results are stored as one zstd-compressed JSON blob per submission;
// they are only ever read back as a unit.
type MySQLSubmissionRepository struct {
	db      *sql.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewMySQLSubmissionRepository(db *sql.DB) (*MySQLSubmissionRepository, error) {
	if db == nil {
		return nil, apperr.New(apperr.DatabaseError).WithMessage("db handle is required")
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.InternalServerError, "create zstd encoder failed")
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.InternalServerError, "create zstd decoder failed")
	}
	return &MySQLSubmissionRepository{db: db, encoder: encoder, decoder: decoder}, nil
}

func (r *MySQLSubmissionRepository) Insert(ctx context.Context, sub *model.Submission) error {
	if sub == nil || sub.ID == "" {
		return apperr.ValidationError("submission", "required")
	}
	const query = `
		INSERT INTO submissions
			(id, user_id, problem_id, language_id, source_key, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.ProblemID, sub.LanguageID, sub.SourceKey,
		string(sub.Status), sub.CreatedAt)
	if err != nil {
		return apperr.Wrapf(err, apperr.DatabaseError, "insert submission failed")
	}
	return nil
}

func (r *MySQLSubmissionRepository) UpdateResult(ctx context.Context, sub *model.Submission) error {
	if sub == nil || sub.ID == "" {
		return apperr.ValidationError("submission", "required")
	}
	blob, err := r.encodeResults(sub.TestCaseResults)
	if err != nil {
		return err
	}
	const query = `
		UPDATE submissions
		SET status = ?, verdict = ?, runtime_ms = ?, memory_kb = ?, results_blob = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(sub.Status), string(sub.Verdict), sub.RuntimeMs, sub.MemoryKB, blob, sub.ID)
	if err != nil {
		return apperr.Wrapf(err, apperr.ResultPersistError, "update submission result failed")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return apperr.Newf(apperr.SubmissionNotFound, "submission %s not found", sub.ID)
	}
	return nil
}

func (r *MySQLSubmissionRepository) Delete(ctx context.Context, submissionID string) error {
	if submissionID == "" {
		return apperr.ValidationError("submission_id", "required")
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = ?`, submissionID)
	if err != nil {
		return apperr.Wrapf(err, apperr.DatabaseError, "delete submission failed")
	}
	return nil
}

func (r *MySQLSubmissionRepository) encodeResults(results []model.TestCaseResult) ([]byte, error) {
	if len(results) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.ResultPersistError, "marshal results failed")
	}
	return r.encoder.EncodeAll(raw, nil), nil
}

func (r *MySQLSubmissionRepository) decodeResults(blob []byte) ([]model.TestCaseResult, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	raw, err := r.decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.DatabaseError, "decompress results failed")
	}
	var results []model.TestCaseResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, apperr.Wrapf(err, apperr.DatabaseError, "unmarshal results failed")
	}
	return results, nil
}
