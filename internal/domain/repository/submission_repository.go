package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/krishkrishna03/techex-sub003/internal/common"
	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	CreateSubmissionResults(ctx context.Context, tx *sql.Tx, submissionID string, results []model.TestResult) error
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)
	GetSubmissionResults(ctx context.Context, submissionID string) ([]model.TestResult, error)

	// Code history, newest first. Code is included; results are not.
	GetSubmissionsForStudentQuestion(ctx context.Context, studentID, questionID string, limit, offset int) ([]model.Submission, int, error)

	// Best score per question among a student's submissions in one test attempt.
	GetAttemptScores(ctx context.Context, studentID, attemptID string) ([]model.AttemptQuestionScore, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) CreateSubmission(ctx context.Context, tx *sql.Tx, s *model.Submission) error {
	query := `INSERT INTO submissions (id, student_id, question_id, test_attempt_id, language, code, status, score, max_score,
	              test_cases_passed, total_test_cases, execution_time_ms, memory_kb)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING submitted_at`
	err := on(r.db, tx).QueryRowContext(ctx, query,
		s.ID, s.StudentID, s.QuestionID, s.TestAttemptID, s.Language, s.Code, s.Status, s.Score, s.MaxScore,
		s.TestCasesPassed, s.TotalTestCases, s.ExecutionTimeMs, s.MemoryKB,
	).Scan(&s.SubmittedAt)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateSubmission: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) CreateSubmissionResults(ctx context.Context, tx *sql.Tx, submissionID string, results []model.TestResult) error {
	if len(results) == 0 {
		return nil
	}
	stmt, err := on(r.db, tx).PrepareContext(ctx, `INSERT INTO submission_results (submission_id, case_index, test_case_id, passed, status, actual_output, error_message, execution_time_ms)
	                                                VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateSubmissionResults prepare: %w", err)
	}
	defer stmt.Close()

	for _, res := range results {
		var caseID *string
		if res.TestCaseID != "" {
			caseID = &res.TestCaseID
		}
		if _, err := stmt.ExecContext(ctx, submissionID, res.CaseIndex, caseID, res.Passed, res.Status, res.ActualOutput, res.ErrorMessage, res.ExecutionTimeMs); err != nil {
			return fmt.Errorf("pgSubmissionRepository.CreateSubmissionResults exec for case %d: %w", res.CaseIndex, err)
		}
	}
	return nil
}

const submissionColumns = `id, student_id, question_id, test_attempt_id, language, code, status, score, max_score,
	test_cases_passed, total_test_cases, execution_time_ms, memory_kb, submitted_at`

func scanSubmission(row rowScanner, s *model.Submission) error {
	return row.Scan(&s.ID, &s.StudentID, &s.QuestionID, &s.TestAttemptID, &s.Language, &s.Code, &s.Status, &s.Score, &s.MaxScore,
		&s.TestCasesPassed, &s.TotalTestCases, &s.ExecutionTimeMs, &s.MemoryKB, &s.SubmittedAt)
}

func (r *pgSubmissionRepository) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	s := &model.Submission{}
	if err := scanSubmission(r.db.QueryRowContext(ctx, query, id), s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID: %w", err)
	}
	return s, nil
}

// GetSubmissionResults joins back to test_cases so sample visibility and the
// case data are available for the response.
func (r *pgSubmissionRepository) GetSubmissionResults(ctx context.Context, submissionID string) ([]model.TestResult, error) {
	query := `SELECT sr.case_index, COALESCE(sr.test_case_id::text, ''), sr.passed, sr.status, sr.actual_output, sr.error_message,
	                 sr.execution_time_ms, COALESCE(tc.is_sample, FALSE), COALESCE(tc.input, ''), COALESCE(tc.expected_output, '')
	          FROM submission_results sr
	          LEFT JOIN test_cases tc ON tc.id = sr.test_case_id
	          WHERE sr.submission_id = $1
	          ORDER BY sr.case_index ASC`
	rows, err := r.db.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionResults query: %w", err)
	}
	defer rows.Close()

	results := []model.TestResult{}
	for rows.Next() {
		var res model.TestResult
		if err := rows.Scan(&res.CaseIndex, &res.TestCaseID, &res.Passed, &res.Status, &res.ActualOutput, &res.ErrorMessage,
			&res.ExecutionTimeMs, &res.IsSample, &res.Input, &res.ExpectedOutput); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionResults scan: %w", err)
		}
		results = append(results, res)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionResults rows.Err: %w", err)
	}
	return results, nil
}

func (r *pgSubmissionRepository) GetSubmissionsForStudentQuestion(ctx context.Context, studentID, questionID string, limit, offset int) ([]model.Submission, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions WHERE student_id = $1 AND question_id = $2`, studentID, questionID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("pgSubmissionRepository.GetSubmissionsForStudentQuestion count: %w", err)
	}

	query := `SELECT ` + submissionColumns + ` FROM submissions
	          WHERE student_id = $1 AND question_id = $2
	          ORDER BY submitted_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, query, studentID, questionID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgSubmissionRepository.GetSubmissionsForStudentQuestion query: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		if err := scanSubmission(rows, &s); err != nil {
			return nil, 0, fmt.Errorf("pgSubmissionRepository.GetSubmissionsForStudentQuestion scan: %w", err)
		}
		subs = append(subs, s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgSubmissionRepository.GetSubmissionsForStudentQuestion rows.Err: %w", err)
	}
	return subs, total, nil
}

func (r *pgSubmissionRepository) GetAttemptScores(ctx context.Context, studentID, attemptID string) ([]model.AttemptQuestionScore, error) {
	query := `SELECT question_id::text, MAX(score), MAX(max_score), COUNT(*), BOOL_OR(status = 'accepted')
	          FROM submissions
	          WHERE student_id = $1 AND test_attempt_id = $2
	          GROUP BY question_id
	          ORDER BY question_id`
	rows, err := r.db.QueryContext(ctx, query, studentID, attemptID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetAttemptScores query: %w", err)
	}
	defer rows.Close()

	scores := []model.AttemptQuestionScore{}
	for rows.Next() {
		var s model.AttemptQuestionScore
		if err := rows.Scan(&s.QuestionID, &s.BestScore, &s.MaxScore, &s.Attempts, &s.Accepted); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.GetAttemptScores scan: %w", err)
		}
		scores = append(scores, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetAttemptScores rows.Err: %w", err)
	}
	return scores, nil
}
