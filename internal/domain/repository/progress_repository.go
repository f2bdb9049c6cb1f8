package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/krishkrishna03/techex-sub003/internal/common"
	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
)

type ProgressRepository interface {
	// RecordAttempt folds one graded submission into the student's progress and
	// reports whether this submission solved the question for the first time.
	RecordAttempt(ctx context.Context, tx *sql.Tx, sub *model.Submission) (*model.PracticeProgress, bool, error)
	SetBookmark(ctx context.Context, studentID, questionID string, bookmarked bool) (*model.PracticeProgress, error)
	GetProgress(ctx context.Context, studentID, questionID string) (*model.PracticeProgress, error)
	ListProgress(ctx context.Context, studentID string, bookmarkedOnly bool) ([]model.PracticeProgress, error)
}

type pgProgressRepository struct {
	db *sql.DB
}

func NewPgProgressRepository(db *sql.DB) ProgressRepository {
	return &pgProgressRepository{db: db}
}

func (r *pgProgressRepository) RecordAttempt(ctx context.Context, tx *sql.Tx, sub *model.Submission) (*model.PracticeProgress, bool, error) {
	conn := on(r.db, tx)

	var previous model.ProgressStatus
	err := conn.QueryRowContext(ctx, `SELECT status FROM practice_progress WHERE student_id = $1 AND question_id = $2 FOR UPDATE`,
		sub.StudentID, sub.QuestionID).Scan(&previous)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("pgProgressRepository.RecordAttempt lock: %w", err)
	}

	status := model.ProgressAttempted
	if sub.Status == model.StatusAccepted {
		status = model.ProgressSolved
	}
	query := `INSERT INTO practice_progress (student_id, question_id, best_score, attempts, status, bookmarked, last_submission_id, updated_at)
	          VALUES ($1, $2, $3, 1, $4, FALSE, $5, CURRENT_TIMESTAMP)
	          ON CONFLICT (student_id, question_id) DO UPDATE SET
	              best_score = GREATEST(practice_progress.best_score, EXCLUDED.best_score),
	              attempts = practice_progress.attempts + 1,
	              status = CASE WHEN practice_progress.status = 'solved' OR EXCLUDED.status = 'solved' THEN 'solved' ELSE 'attempted' END,
	              last_submission_id = EXCLUDED.last_submission_id,
	              updated_at = CURRENT_TIMESTAMP
	          RETURNING best_score, attempts, status, bookmarked, last_submission_id, updated_at`
	p := &model.PracticeProgress{StudentID: sub.StudentID, QuestionID: sub.QuestionID}
	err = conn.QueryRowContext(ctx, query, sub.StudentID, sub.QuestionID, sub.Score, status, sub.ID).
		Scan(&p.BestScore, &p.Attempts, &p.Status, &p.Bookmarked, &p.LastSubmissionID, &p.UpdatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("pgProgressRepository.RecordAttempt upsert: %w", err)
	}

	newlySolved := p.Status == model.ProgressSolved && previous != model.ProgressSolved
	return p, newlySolved, nil
}

func (r *pgProgressRepository) SetBookmark(ctx context.Context, studentID, questionID string, bookmarked bool) (*model.PracticeProgress, error) {
	var query string
	if bookmarked {
		// A bookmark never lowers an attempted or solved status.
		query = `INSERT INTO practice_progress (student_id, question_id, best_score, attempts, status, bookmarked, updated_at)
		         VALUES ($1, $2, 0, 0, 'bookmarked', TRUE, CURRENT_TIMESTAMP)
		         ON CONFLICT (student_id, question_id) DO UPDATE SET bookmarked = TRUE, updated_at = CURRENT_TIMESTAMP
		         RETURNING best_score, attempts, status, bookmarked, last_submission_id, updated_at`
	} else {
		query = `UPDATE practice_progress SET bookmarked = FALSE, updated_at = CURRENT_TIMESTAMP
		         WHERE student_id = $1 AND question_id = $2
		         RETURNING best_score, attempts, status, bookmarked, last_submission_id, updated_at`
	}
	p := &model.PracticeProgress{StudentID: studentID, QuestionID: questionID}
	err := r.db.QueryRowContext(ctx, query, studentID, questionID).
		Scan(&p.BestScore, &p.Attempts, &p.Status, &p.Bookmarked, &p.LastSubmissionID, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProgressRepository.SetBookmark: %w", err)
	}
	return p, nil
}

func (r *pgProgressRepository) GetProgress(ctx context.Context, studentID, questionID string) (*model.PracticeProgress, error) {
	query := `SELECT best_score, attempts, status, bookmarked, last_submission_id, updated_at
	          FROM practice_progress WHERE student_id = $1 AND question_id = $2`
	p := &model.PracticeProgress{StudentID: studentID, QuestionID: questionID}
	err := r.db.QueryRowContext(ctx, query, studentID, questionID).
		Scan(&p.BestScore, &p.Attempts, &p.Status, &p.Bookmarked, &p.LastSubmissionID, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProgressRepository.GetProgress: %w", err)
	}
	return p, nil
}

func (r *pgProgressRepository) ListProgress(ctx context.Context, studentID string, bookmarkedOnly bool) ([]model.PracticeProgress, error) {
	sb := psql.Select("pp.question_id::text", "q.title", "pp.best_score", "pp.attempts", "pp.status", "pp.bookmarked",
		"pp.last_submission_id", "pp.updated_at").
		From("practice_progress pp").
		Join("questions q ON q.id = pp.question_id").
		Where("pp.student_id = ?", studentID).
		OrderBy("pp.updated_at DESC")
	if bookmarkedOnly {
		sb = sb.Where("pp.bookmarked = TRUE")
	}
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("pgProgressRepository.ListProgress build: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgProgressRepository.ListProgress query: %w", err)
	}
	defer rows.Close()

	progress := []model.PracticeProgress{}
	for rows.Next() {
		p := model.PracticeProgress{StudentID: studentID}
		if err := rows.Scan(&p.QuestionID, &p.QuestionTitle, &p.BestScore, &p.Attempts, &p.Status, &p.Bookmarked,
			&p.LastSubmissionID, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgProgressRepository.ListProgress scan: %w", err)
		}
		progress = append(progress, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProgressRepository.ListProgress rows.Err: %w", err)
	}
	return progress, nil
}
