package repository

import (
	"context"
	"database/sql"
	"errors"

	"algolab/internal/judge/model"
	apperr "algolab/pkg/errors"
)

// ProblemStore is the read-only problem/test-case collaborator.
type ProblemStore interface {
	GetProblem(ctx context.Context, problemID string) (*model.Problem, error)
}

// MySQLProblemStore reads problems and their test cases from MySQL.
type MySQLProblemStore struct {
	db *sql.DB
}

func NewMySQLProblemStore(db *sql.DB) (*MySQLProblemStore, error) {
	if db == nil {
		return nil, apperr.New(apperr.DatabaseError).WithMessage("db handle is required")
	}
	return &MySQLProblemStore{db: db}, nil
}

func (s *MySQLProblemStore) GetProblem(ctx context.Context, problemID string) (*model.Problem, error) {
	if problemID == "" {
		return nil, apperr.ValidationError("problem_id", "required")
	}
	const problemQuery = `
		SELECT id, title, time_limit_ms, memory_limit_mb
		FROM problems WHERE id = ?`
	var p model.Problem
	err := s.db.QueryRowContext(ctx, problemQuery, problemID).
		Scan(&p.ID, &p.Title, &p.TimeLimitMs, &p.MemoryLimitMB)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.ProblemNotFound, "problem %s not found", problemID)
	}
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.DatabaseError, "load problem failed")
	}

	const casesQuery = `
		SELECT input, expected_output, is_sample
		FROM test_cases WHERE problem_id = ?
		ORDER BY idx ASC`
	rows, err := s.db.QueryContext(ctx, casesQuery, problemID)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.DatabaseError, "load test cases failed")
	}
	defer rows.Close()

	for rows.Next() {
		var tc model.TestCase
		if err := rows.Scan(&tc.Input, &tc.ExpectedOutput, &tc.IsSample); err != nil {
			return nil, apperr.Wrapf(err, apperr.DatabaseError, "scan test case failed")
		}
		p.TestCases = append(p.TestCases, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrapf(err, apperr.DatabaseError, "iterate test cases failed")
	}
	if len(p.TestCases) == 0 {
		return nil, apperr.Newf(apperr.ProblemHasNoTests, "problem %s has no test cases", problemID)
	}
	return &p, nil
}
