package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/krishkrishna03/techex-sub003/internal/common"
	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
)

type QuestionFilter struct {
	Difficulty model.QuestionDifficulty
	Language   model.Language
	Search     string
	CreatedBy  string
	Limit      uint64
	Offset     uint64
}

type QuestionRepository interface {
	CreateQuestion(ctx context.Context, tx *sql.Tx, q *model.Question) error
	UpdateQuestion(ctx context.Context, tx *sql.Tx, q *model.Question) error
	FindQuestionByID(ctx context.Context, id string) (*model.Question, error)
	ListQuestions(ctx context.Context, filter QuestionFilter) ([]model.Question, int, error)

	AddTestCases(ctx context.Context, tx *sql.Tx, questionID string, cases []model.TestCase) error
	GetTestCasesByQuestionID(ctx context.Context, questionID string) ([]model.TestCase, error)
}

type pgQuestionRepository struct {
	db *sql.DB
}

func NewPgQuestionRepository(db *sql.DB) QuestionRepository {
	return &pgQuestionRepository{db: db}
}

const questionColumns = `id, slug, title, prompt, difficulty, languages, time_limit_ms, memory_limit_mb,
	sample_input, sample_output, constraints, input_format, output_format, created_by, created_at, updated_at`

func (r *pgQuestionRepository) CreateQuestion(ctx context.Context, tx *sql.Tx, q *model.Question) error {
	langs, err := json.Marshal(q.Languages)
	if err != nil {
		return fmt.Errorf("pgQuestionRepository.CreateQuestion marshal languages: %w", err)
	}
	query := `INSERT INTO questions (id, slug, title, prompt, difficulty, languages, time_limit_ms, memory_limit_mb,
	              sample_input, sample_output, constraints, input_format, output_format, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	          RETURNING created_at, updated_at`
	err = on(r.db, tx).QueryRowContext(ctx, query,
		q.ID, q.Slug, q.Title, q.Prompt, q.Difficulty, langs, q.TimeLimitMs, q.MemoryLimitMB,
		q.SampleInput, q.SampleOutput, q.Constraints, q.InputFormat, q.OutputFormat, q.CreatedBy,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("question with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgQuestionRepository.CreateQuestion: %w", err)
	}
	return nil
}

func (r *pgQuestionRepository) UpdateQuestion(ctx context.Context, tx *sql.Tx, q *model.Question) error {
	langs, err := json.Marshal(q.Languages)
	if err != nil {
		return fmt.Errorf("pgQuestionRepository.UpdateQuestion marshal languages: %w", err)
	}
	query := `UPDATE questions SET
	              title = $1, prompt = $2, difficulty = $3, languages = $4, time_limit_ms = $5,
	              memory_limit_mb = $6, sample_input = $7, sample_output = $8, constraints = $9,
	              input_format = $10, output_format = $11, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $12
	          RETURNING updated_at`
	err = on(r.db, tx).QueryRowContext(ctx, query,
		q.Title, q.Prompt, q.Difficulty, langs, q.TimeLimitMs, q.MemoryLimitMB,
		q.SampleInput, q.SampleOutput, q.Constraints, q.InputFormat, q.OutputFormat, q.ID,
	).Scan(&q.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("pgQuestionRepository.UpdateQuestion: %w", err)
	}
	return nil
}

const maxScoreColumn = `(SELECT COALESCE(SUM(tc.weight), 0) FROM test_cases tc WHERE tc.question_id = questions.id) AS max_score`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner, q *model.Question, extra ...any) error {
	var langs []byte
	dest := []any{&q.ID, &q.Slug, &q.Title, &q.Prompt, &q.Difficulty, &langs, &q.TimeLimitMs, &q.MemoryLimitMB,
		&q.SampleInput, &q.SampleOutput, &q.Constraints, &q.InputFormat, &q.OutputFormat,
		&q.CreatedBy, &q.CreatedAt, &q.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	if len(langs) == 0 {
		q.Languages = []model.Language{}
		return nil
	}
	return json.Unmarshal(langs, &q.Languages)
}

func (r *pgQuestionRepository) FindQuestionByID(ctx context.Context, id string) (*model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	q := &model.Question{}
	if err := scanQuestion(r.db.QueryRowContext(ctx, query, id), q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgQuestionRepository.FindQuestionByID: %w", err)
	}
	return q, nil
}

func questionFilterQuery(filter QuestionFilter, sb sq.SelectBuilder) sq.SelectBuilder {
	where := sq.And{}
	if filter.Difficulty != "" {
		where = append(where, sq.Eq{"difficulty": filter.Difficulty})
	}
	if filter.Language != "" {
		langs, _ := json.Marshal([]model.Language{filter.Language})
		where = append(where, sq.Expr("languages @> ?::jsonb", string(langs)))
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		where = append(where, sq.Or{sq.ILike{"title": like}, sq.ILike{"prompt": like}})
	}
	if filter.CreatedBy != "" {
		where = append(where, sq.Eq{"created_by": filter.CreatedBy})
	}
	if len(where) == 0 {
		return sb
	}
	return sb.Where(where)
}

func (r *pgQuestionRepository) ListQuestions(ctx context.Context, filter QuestionFilter) ([]model.Question, int, error) {
	countQuery, countArgs, err := questionFilterQuery(filter, psql.Select("COUNT(*)").From("questions")).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("pgQuestionRepository.ListQuestions build count: %w", err)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgQuestionRepository.ListQuestions count: %w", err)
	}

	sb := questionFilterQuery(filter, psql.Select(questionColumns, maxScoreColumn).From("questions")).
		OrderBy("created_at DESC", "id")
	if filter.Limit > 0 {
		sb = sb.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		sb = sb.Offset(filter.Offset)
	}
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("pgQuestionRepository.ListQuestions build: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgQuestionRepository.ListQuestions query: %w", err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		if err := scanQuestion(rows, &q, &q.MaxScore); err != nil {
			return nil, 0, fmt.Errorf("pgQuestionRepository.ListQuestions scan: %w", err)
		}
		questions = append(questions, q)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgQuestionRepository.ListQuestions rows.Err: %w", err)
	}
	return questions, total, nil
}

func (r *pgQuestionRepository) AddTestCases(ctx context.Context, tx *sql.Tx, questionID string, cases []model.TestCase) error {
	if len(cases) == 0 {
		return nil
	}
	stmt, err := on(r.db, tx).PrepareContext(ctx, `INSERT INTO test_cases (id, question_id, input, expected_output, is_sample, weight, sort_order) VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("pgQuestionRepository.AddTestCases prepare: %w", err)
	}
	defer stmt.Close()

	for _, tc := range cases {
		if _, err := stmt.ExecContext(ctx, tc.ID, questionID, tc.Input, tc.ExpectedOutput, tc.IsSample, tc.Weight, tc.SortOrder); err != nil {
			return fmt.Errorf("pgQuestionRepository.AddTestCases exec for test case %s: %w", tc.ID, err)
		}
	}
	return nil
}

func (r *pgQuestionRepository) GetTestCasesByQuestionID(ctx context.Context, questionID string) ([]model.TestCase, error) {
	query := `SELECT id, question_id, input, expected_output, is_sample, weight, sort_order, created_at
	          FROM test_cases WHERE question_id = $1 ORDER BY sort_order ASC`
	rows, err := r.db.QueryContext(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("pgQuestionRepository.GetTestCasesByQuestionID query: %w", err)
	}
	defer rows.Close()

	cases := []model.TestCase{}
	for rows.Next() {
		var tc model.TestCase
		if err := rows.Scan(&tc.ID, &tc.QuestionID, &tc.Input, &tc.ExpectedOutput, &tc.IsSample, &tc.Weight, &tc.SortOrder, &tc.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgQuestionRepository.GetTestCasesByQuestionID scan: %w", err)
		}
		cases = append(cases, tc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgQuestionRepository.GetTestCasesByQuestionID rows.Err: %w", err)
	}
	return cases, nil
}
