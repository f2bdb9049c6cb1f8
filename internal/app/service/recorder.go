package service

import (
	"context"
	"database/sql"

	"github.com/krishkrishna03/techex-sub003/internal/common"
	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
	"github.com/krishkrishna03/techex-sub003/internal/domain/repository"
)

// Recorder persists a graded submission together with its per-case results
// and the student's practice progress, atomically.
type Recorder struct {
	submissionRepo repository.SubmissionRepository
	progressRepo   repository.ProgressRepository
	db             *sql.DB
}

func NewRecorder(submissionRepo repository.SubmissionRepository, progressRepo repository.ProgressRepository, db *sql.DB) *Recorder {
	return &Recorder{submissionRepo: submissionRepo, progressRepo: progressRepo, db: db}
}

type RecordOutcome struct {
	Progress    *model.PracticeProgress
	NewlySolved bool
}

// Record inserts sub (whose ID must be set) and its results. Nothing is
// written unless every statement succeeds.
func (r *Recorder) Record(ctx context.Context, sub *model.Submission) (*RecordOutcome, error) {
	if !sub.Status.Final() {
		return nil, common.Errorf("refusing to record submission in status %q: %w", sub.Status, common.ErrBadRequest)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := r.submissionRepo.CreateSubmission(ctx, tx, sub); err != nil {
		return nil, common.Errorf("failed to record submission: %w", err)
	}
	if err := r.submissionRepo.CreateSubmissionResults(ctx, tx, sub.ID, sub.Results); err != nil {
		return nil, common.Errorf("failed to record submission results: %w", err)
	}
	progress, newlySolved, err := r.progressRepo.RecordAttempt(ctx, tx, sub)
	if err != nil {
		return nil, common.Errorf("failed to update practice progress: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	return &RecordOutcome{Progress: progress, NewlySolved: newlySolved}, nil
}
