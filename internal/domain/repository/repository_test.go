package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishkrishna03/techex-sub003/internal/common"
	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var questionCols = []string{"id", "slug", "title", "prompt", "difficulty", "languages", "time_limit_ms", "memory_limit_mb",
	"sample_input", "sample_output", "constraints", "input_format", "output_format", "created_by", "created_at", "updated_at"}

func TestCreateQuestionSlugConflict(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgQuestionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO questions")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.CreateQuestion(context.Background(), nil, &model.Question{ID: "q1", Slug: "sum", Languages: []model.Language{model.LanguageJavaScript}})
	require.ErrorIs(t, err, common.ErrConflict)
}

func TestFindQuestionByID(t *testing.T) {
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPgQuestionRepository(db)
		mock.ExpectQuery(regexp.QuoteMeta("FROM questions WHERE id = $1")).
			WithArgs("q1").
			WillReturnRows(sqlmock.NewRows(questionCols).AddRow(
				"q1", "sum-of-two", "Sum of Two", "Add them", "easy", []byte(`["javascript","python"]`), 2000, 256,
				"2 3", "5", "", "", "", "u1", now, now))

		q, err := repo.FindQuestionByID(context.Background(), "q1")
		require.NoError(t, err)
		assert.Equal(t, []model.Language{model.LanguageJavaScript, model.LanguagePython}, q.Languages)
		assert.Equal(t, model.DifficultyEasy, q.Difficulty)
		assert.Equal(t, 2000, q.TimeLimitMs)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPgQuestionRepository(db)
		mock.ExpectQuery(regexp.QuoteMeta("FROM questions WHERE id = $1")).
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindQuestionByID(context.Background(), "nope")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestListQuestionsFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgQuestionRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM questions WHERE .*difficulty = \$1.*languages @> \$2::jsonb.*title ILIKE \$3 OR prompt ILIKE \$4`).
		WithArgs("easy", `["javascript"]`, "%sum%", "%sum%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`(?s)SELECT id, slug, .* AS max_score FROM questions WHERE .* ORDER BY created_at DESC, id LIMIT 10 OFFSET 20`).
		WithArgs("easy", `["javascript"]`, "%sum%", "%sum%").
		WillReturnRows(sqlmock.NewRows(append(questionCols, "max_score")).AddRow(
			"q1", "sum-of-two", "Sum of Two", "Add them", "easy", []byte(`["javascript"]`), 2000, 256,
			"", "", "", "", "", "u1", now, now, 100))

	qs, total, err := repo.ListQuestions(context.Background(), QuestionFilter{
		Difficulty: model.DifficultyEasy,
		Language:   model.LanguageJavaScript,
		Search:     "sum",
		Limit:      10,
		Offset:     20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, qs, 1)
	assert.Equal(t, 100, qs[0].MaxScore)
}

func TestListQuestionsNoFilter(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgQuestionRepository(db)

	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM questions$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`(?s)FROM questions ORDER BY created_at DESC, id$`).
		WillReturnRows(sqlmock.NewRows(append(questionCols, "max_score")))

	qs, total, err := repo.ListQuestions(context.Background(), QuestionFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, qs)
}

func TestAddTestCasesInTransaction(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgQuestionRepository(db)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO test_cases"))
	prep.ExpectExec().WithArgs("c1", "q1", "1 2", "3", true, 10, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("c2", "q1", "5 5", "10", false, 30, 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.AddTestCases(context.Background(), tx, "q1", []model.TestCase{
		{ID: "c1", Input: "1 2", ExpectedOutput: "3", IsSample: true, Weight: 10, SortOrder: 1},
		{ID: "c2", Input: "5 5", ExpectedOutput: "10", Weight: 30, SortOrder: 2},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
}

func TestRecordAttempt(t *testing.T) {
	progressCols := []string{"best_score", "attempts", "status", "bookmarked", "last_submission_id", "updated_at"}
	sub := &model.Submission{ID: "s1", StudentID: "u1", QuestionID: "q1", Status: model.StatusAccepted, Score: 100}

	t.Run("first solve", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPgProgressRepository(db)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM practice_progress")).
			WithArgs("u1", "q1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("attempted"))
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO practice_progress")).
			WithArgs("u1", "q1", 100, "solved", "s1").
			WillReturnRows(sqlmock.NewRows(progressCols).AddRow(100, 3, "solved", false, "s1", time.Now()))

		p, newlySolved, err := repo.RecordAttempt(context.Background(), nil, sub)
		require.NoError(t, err)
		assert.True(t, newlySolved)
		assert.Equal(t, 3, p.Attempts)
		assert.Equal(t, model.ProgressSolved, p.Status)
	})

	t.Run("already solved", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPgProgressRepository(db)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM practice_progress")).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("solved"))
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO practice_progress")).
			WillReturnRows(sqlmock.NewRows(progressCols).AddRow(100, 4, "solved", true, "s1", time.Now()))

		_, newlySolved, err := repo.RecordAttempt(context.Background(), nil, sub)
		require.NoError(t, err)
		assert.False(t, newlySolved)
	})

	t.Run("first attempt fails", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPgProgressRepository(db)
		failed := *sub
		failed.Status = model.StatusWrongAnswer
		failed.Score = 40
		mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM practice_progress")).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO practice_progress")).
			WithArgs("u1", "q1", 40, "attempted", "s1").
			WillReturnRows(sqlmock.NewRows(progressCols).AddRow(40, 1, "attempted", false, "s1", time.Now()))

		p, newlySolved, err := repo.RecordAttempt(context.Background(), nil, &failed)
		require.NoError(t, err)
		assert.False(t, newlySolved)
		assert.Equal(t, model.ProgressAttempted, p.Status)
	})
}

func TestSetBookmark(t *testing.T) {
	progressCols := []string{"best_score", "attempts", "status", "bookmarked", "last_submission_id", "updated_at"}

	t.Run("bookmark keeps status", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPgProgressRepository(db)
		mock.ExpectQuery(`(?s)INSERT INTO practice_progress .* DO UPDATE SET bookmarked = TRUE`).
			WithArgs("u1", "q1").
			WillReturnRows(sqlmock.NewRows(progressCols).AddRow(100, 2, "solved", true, nil, time.Now()))

		p, err := repo.SetBookmark(context.Background(), "u1", "q1", true)
		require.NoError(t, err)
		assert.True(t, p.Bookmarked)
		assert.Equal(t, model.ProgressSolved, p.Status)
	})

	t.Run("unbookmark missing row", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewPgProgressRepository(db)
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE practice_progress SET bookmarked = FALSE")).
			WithArgs("u1", "q1").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.SetBookmark(context.Background(), "u1", "q1", false)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestGetSubmissionResults(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgSubmissionRepository(db)
	cols := []string{"case_index", "test_case_id", "passed", "status", "actual_output", "error_message", "execution_time_ms", "is_sample", "input", "expected_output"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM submission_results sr")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(0, "c1", true, "accepted", nil, "", 3, true, "2 3", "5").
			AddRow(1, "c2", false, "wrong_answer", "7\n", "", 2, false, "3 3", "6"))

	results, err := repo.GetSubmissionResults(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Nil(t, results[0].ActualOutput)
	require.NotNil(t, results[1].ActualOutput)
	assert.Equal(t, "7\n", *results[1].ActualOutput)
	assert.Equal(t, model.StatusWrongAnswer, results[1].Status)
}

func TestGetAttemptScores(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgSubmissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY question_id")).
		WithArgs("u1", "a1").
		WillReturnRows(sqlmock.NewRows([]string{"question_id", "max", "max", "count", "bool_or"}).
			AddRow("q1", 60, 100, 2, false).
			AddRow("q2", 50, 50, 1, true))

	scores, err := repo.GetAttemptScores(context.Background(), "u1", "a1")
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 60, scores[0].BestScore)
	assert.True(t, scores[1].Accepted)
}
