// Package service implements submission intake, status polling, the
// sample-run flow, and the grading pipeline executed by the worker pool.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"algolab/internal/common/storage"
	"algolab/internal/judge/evaluator"
	"algolab/internal/judge/language"
	"algolab/internal/judge/model"
	"algolab/internal/judge/queue"
	"algolab/internal/judge/repository"
	"algolab/internal/judge/verdict"
	apperr "algolab/pkg/errors"
	"algolab/pkg/utils/logger"
)

// Config tunes intake limits and the grading ceiling.
type Config struct {
	// MaxSourceBytes bounds submitted source size.
	MaxSourceBytes int
	// CompileTimeLimitMs mirrors the evaluator's compile ceiling; it
	// feeds the per-submission wall-clock ceiling.
	CompileTimeLimitMs int64
	// OverheadMarginMs pads the per-submission wall-clock ceiling.
	OverheadMarginMs int64
	// SourceBucket is the object storage bucket for archived source.
	// Empty disables archival.
	SourceBucket string
}

func (c *Config) applyDefaults() {
	if c.MaxSourceBytes <= 0 {
		c.MaxSourceBytes = 256 * 1024
	}
	if c.CompileTimeLimitMs <= 0 {
		c.CompileTimeLimitMs = 10000
	}
	if c.OverheadMarginMs <= 0 {
		c.OverheadMarginMs = 15000
	}
}

// JudgeService coordinates the grading engine. It is the queue.Handler
// the worker pool drives, and the operation surface the HTTP layer calls.
type JudgeService struct {
	cfg       Config
	registry  *language.Registry
	evaluator *evaluator.Evaluator
	queue     *queue.Queue

	statusRepo  *repository.StatusRepository
	submissions repository.SubmissionRepository
	problems    repository.ProblemStore

	// Optional collaborators; nil disables the feature.
	publisher repository.StatusEventPublisher
	storage   storage.ObjectStorage
}

func NewJudgeService(
	cfg Config,
	registry *language.Registry,
	ev *evaluator.Evaluator,
	q *queue.Queue,
	statusRepo *repository.StatusRepository,
	submissions repository.SubmissionRepository,
	problems repository.ProblemStore,
	publisher repository.StatusEventPublisher,
	objectStorage storage.ObjectStorage,
) (*JudgeService, error) {
	if registry == nil || ev == nil || q == nil || statusRepo == nil || submissions == nil || problems == nil {
		return nil, apperr.New(apperr.InvalidParams).WithMessage("judge service is missing a required collaborator")
	}
	cfg.applyDefaults()
	return &JudgeService{
		cfg:         cfg,
		registry:    registry,
		evaluator:   ev,
		queue:       q,
		statusRepo:  statusRepo,
		submissions: submissions,
		problems:    problems,
		publisher:   publisher,
		storage:     objectStorage,
	}, nil
}

// Submit validates the request, persists the submission, and enqueues it
// for grading. Every rejection happens synchronously, before the
// submission ever reaches PENDING.
func (s *JudgeService) Submit(ctx context.Context, userID, problemID, languageID, code string) (string, error) {
	if userID == "" {
		return "", apperr.ValidationError("user_id", "required")
	}
	if problemID == "" {
		return "", apperr.ValidationError("problem_id", "required")
	}
	if strings.TrimSpace(code) == "" {
		return "", apperr.New(apperr.EmptyCode).WithMessage("source code is empty")
	}
	if len(code) > s.cfg.MaxSourceBytes {
		return "", apperr.Newf(apperr.CodeTooLarge, "source exceeds %d bytes", s.cfg.MaxSourceBytes)
	}
	if _, err := s.registry.Resolve(languageID); err != nil {
		return "", err
	}
	if _, err := s.problems.GetProblem(ctx, problemID); err != nil {
		return "", err
	}

	sub := &model.Submission{
		ID:         uuid.NewString(),
		UserID:     userID,
		ProblemID:  problemID,
		LanguageID: languageID,
		SourceCode: code,
		CreatedAt:  time.Now().UTC(),
		Status:     model.StatusPending,
	}
	s.archiveSource(ctx, sub)

	if err := s.submissions.Insert(ctx, sub); err != nil {
		return "", err
	}
	if err := s.saveSnapshot(ctx, sub); err != nil {
		s.rollbackIntake(ctx, sub.ID)
		return "", err
	}
	if err := s.queue.Enqueue(sub); err != nil {
		s.rollbackIntake(ctx, sub.ID)
		return "", err
	}
	logger.Info(ctx, "submission accepted",
		zap.String("submission_id", sub.ID),
		zap.String("user_id", userID),
		zap.String("problem_id", problemID),
		zap.String("language_id", languageID))
	return sub.ID, nil
}

// archiveSource stores the raw source in object storage as the durable
// record. Grading uses the in-memory copy, so a storage outage degrades
// to a warning instead of blocking intake.
func (s *JudgeService) archiveSource(ctx context.Context, sub *model.Submission) {
	if s.storage == nil || s.cfg.SourceBucket == "" {
		return
	}
	key := "submissions/" + sub.ID + "/source"
	err := s.storage.PutObject(ctx, s.cfg.SourceBucket, key,
		strings.NewReader(sub.SourceCode), int64(len(sub.SourceCode)), "text/plain")
	if err != nil {
		logger.Warn(ctx, "archive source failed",
			zap.String("submission_id", sub.ID), zap.Error(err))
		return
	}
	sub.SourceKey = key
}

func (s *JudgeService) rollbackIntake(ctx context.Context, submissionID string) {
	if err := s.submissions.Delete(ctx, submissionID); err != nil {
		logger.Warn(ctx, "intake rollback: delete submission failed",
			zap.String("submission_id", submissionID), zap.Error(err))
	}
	if err := s.statusRepo.Delete(ctx, submissionID); err != nil {
		logger.Warn(ctx, "intake rollback: delete status failed",
			zap.String("submission_id", submissionID), zap.Error(err))
	}
}

// GetStatus returns the stable status snapshot for polling.
func (s *JudgeService) GetStatus(ctx context.Context, submissionID string) (repository.StatusSnapshot, error) {
	return s.statusRepo.Get(ctx, submissionID)
}

// GetStatusBatch returns snapshots for multiple submissions at once.
func (s *JudgeService) GetStatusBatch(ctx context.Context, submissionIDs []string) (map[string]repository.StatusSnapshot, error) {
	if len(submissionIDs) == 0 {
		return nil, apperr.ValidationError("ids", "required")
	}
	return s.statusRepo.GetBatch(ctx, submissionIDs)
}

// RunResult is the synchronous outcome of a sample run.
type RunResult struct {
	Verdict         model.Outcome          `json:"verdict"`
	RuntimeMs       int64                  `json:"runtimeMs"`
	MemoryKB        int64                  `json:"memoryKb"`
	TestCaseResults []model.TestCaseResult `json:"testCaseResults"`
}

// RunSamples grades code against a problem's sample test cases only,
// synchronously, without creating a persisted submission. When stdin is
// non-empty the code runs once against that input instead, and the
// produced output is returned without comparison.
func (s *JudgeService) RunSamples(ctx context.Context, problemID, languageID, code, stdin string) (*RunResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperr.New(apperr.EmptyCode).WithMessage("source code is empty")
	}
	if len(code) > s.cfg.MaxSourceBytes {
		return nil, apperr.Newf(apperr.CodeTooLarge, "source exceeds %d bytes", s.cfg.MaxSourceBytes)
	}
	spec, err := s.registry.Resolve(languageID)
	if err != nil {
		return nil, err
	}
	problem, err := s.problems.GetProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}

	var cases []model.TestCase
	if stdin != "" {
		cases = []model.TestCase{{Input: stdin}}
	} else {
		cases = problem.SampleTestCases()
		if len(cases) == 0 {
			return nil, apperr.Newf(apperr.ProblemHasNoTests, "problem %s has no sample test cases", problemID)
		}
	}

	limits := model.EffectiveLimits(problem, spec.DefaultTimeLimitMs, spec.DefaultMemoryLimitMB)
	deadline := time.Now().Add(s.submissionCeiling(spec, limits, len(cases)))
	results, err := s.evaluator.Evaluate(ctx, code, spec, cases, limits, deadline)
	if err != nil {
		logger.Error(ctx, "sample run failed", zap.String("problem_id", problemID), zap.Error(err))
		return nil, apperr.Wrapf(err, apperr.SandboxError, "sample run failed")
	}
	if stdin != "" {
		// A custom-input run has nothing to compare against; surface the
		// raw execution, not a WRONG_ANSWER.
		for i := range results {
			if results[i].Outcome == model.OutcomeWrongAnswer {
				results[i].Outcome = model.OutcomeAccepted
			}
		}
	}
	agg := verdict.Compute(results)
	return &RunResult{
		Verdict:         agg.Verdict,
		RuntimeMs:       agg.RuntimeMs,
		MemoryKB:        agg.MemoryKB,
		TestCaseResults: results,
	}, nil
}

// Languages lists the supported language identifiers.
func (s *JudgeService) Languages() []string {
	return s.registry.IDs()
}

// HandleSubmission grades one claimed submission end to end. It always
// leaves the submission in a terminal state; infrastructure failures
// become SYSTEM_ERROR, never a code-quality verdict.
func (s *JudgeService) HandleSubmission(ctx context.Context, sub *model.Submission) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "grading panicked",
				zap.String("submission_id", sub.ID), zap.Any("panic", r))
			s.finishSystemError(ctx, sub)
		}
	}()

	if !sub.Status.CanTransition(model.StatusRunning) {
		logger.Error(ctx, "illegal claim transition",
			zap.String("submission_id", sub.ID), zap.String("status", string(sub.Status)))
		return
	}
	sub.Status = model.StatusRunning
	if err := s.saveSnapshot(ctx, sub); err != nil {
		logger.Warn(ctx, "save running snapshot failed",
			zap.String("submission_id", sub.ID), zap.Error(err))
	}

	spec, err := s.registry.Resolve(sub.LanguageID)
	if err != nil {
		s.finishSystemError(ctx, sub)
		return
	}
	problem, err := s.problems.GetProblem(ctx, sub.ProblemID)
	if err != nil {
		s.finishSystemError(ctx, sub)
		return
	}

	limits := model.EffectiveLimits(problem, spec.DefaultTimeLimitMs, spec.DefaultMemoryLimitMB)
	deadline := time.Now().Add(s.submissionCeiling(spec, limits, len(problem.TestCases)))

	results, err := s.evaluator.Evaluate(ctx, sub.SourceCode, spec, problem.TestCases, limits, deadline)
	if err != nil {
		logger.Error(ctx, "evaluation failed",
			zap.String("submission_id", sub.ID), zap.Error(err))
		s.finishSystemError(ctx, sub)
		return
	}

	agg := verdict.Compute(results)
	sub.Verdict = agg.Verdict
	sub.RuntimeMs = agg.RuntimeMs
	sub.MemoryKB = agg.MemoryKB
	sub.TestCaseResults = results
	s.finish(ctx, sub, model.StatusForOutcome(agg.Verdict))
}

// submissionCeiling is the hard wall-clock budget for one submission:
// the sum of scaled per-test limits, the compile ceiling when a compile
// step exists, and a fixed overhead margin.
func (s *JudgeService) submissionCeiling(spec *language.Spec, limits model.Limits, numCases int) time.Duration {
	totalMs := spec.ScaleTimeLimit(limits.TimeLimitMs) * int64(numCases)
	if spec.CompileEnabled {
		totalMs += s.cfg.CompileTimeLimitMs
	}
	totalMs += s.cfg.OverheadMarginMs
	return time.Duration(totalMs) * time.Millisecond
}

func (s *JudgeService) finishSystemError(ctx context.Context, sub *model.Submission) {
	sub.Verdict = ""
	sub.TestCaseResults = nil
	s.finish(ctx, sub, model.StatusSystemError)
}

// finish persists the grading result and then moves the submission to
// its terminal state, refreshes the poll snapshot, and announces the
// event. The terminal state is settled before the single transition: a
// persist failure degrades the intended verdict to SYSTEM_ERROR, so the
// state machine never moves terminal to terminal.
func (s *JudgeService) finish(ctx context.Context, sub *model.Submission, terminal model.Status) {
	if !sub.Status.CanTransition(terminal) {
		logger.Error(ctx, "illegal terminal transition",
			zap.String("submission_id", sub.ID),
			zap.String("from", string(sub.Status)),
			zap.String("to", string(terminal)))
		return
	}

	if err := s.persistResult(ctx, sub, terminal); err != nil {
		logger.Error(ctx, "persist result failed",
			zap.String("submission_id", sub.ID), zap.Error(err))
		if terminal != model.StatusSystemError {
			terminal = model.StatusSystemError
			sub.Verdict = ""
			sub.TestCaseResults = nil
			if err := s.persistResult(ctx, sub, terminal); err != nil {
				logger.Error(ctx, "persist system error failed",
					zap.String("submission_id", sub.ID), zap.Error(err))
			}
		}
	}
	sub.Status = terminal

	snap := s.snapshotOf(sub)
	if err := s.statusRepo.Save(ctx, snap); err != nil {
		logger.Error(ctx, "save terminal snapshot failed",
			zap.String("submission_id", sub.ID), zap.Error(err))
	}
	if s.publisher != nil {
		if err := s.publisher.PublishFinalStatus(ctx, snap); err != nil {
			logger.Warn(ctx, "publish final status failed",
				zap.String("submission_id", sub.ID), zap.Error(err))
		}
	}
	logger.Info(ctx, "submission graded",
		zap.String("submission_id", sub.ID),
		zap.String("status", string(sub.Status)),
		zap.Int64("runtime_ms", sub.RuntimeMs),
		zap.Int64("memory_kb", sub.MemoryKB))
}

// persistResult writes the result row carrying the terminal status
// without touching the in-memory state machine.
func (s *JudgeService) persistResult(ctx context.Context, sub *model.Submission, terminal model.Status) error {
	rec := *sub
	rec.Status = terminal
	return s.submissions.UpdateResult(ctx, &rec)
}

func (s *JudgeService) saveSnapshot(ctx context.Context, sub *model.Submission) error {
	return s.statusRepo.Save(ctx, s.snapshotOf(sub))
}

func (s *JudgeService) snapshotOf(sub *model.Submission) repository.StatusSnapshot {
	return repository.StatusSnapshot{
		SubmissionID:    sub.ID,
		Status:          sub.Status,
		Verdict:         sub.Verdict,
		RuntimeMs:       sub.RuntimeMs,
		MemoryKB:        sub.MemoryKB,
		TestCaseResults: sub.TestCaseResults,
	}
}
