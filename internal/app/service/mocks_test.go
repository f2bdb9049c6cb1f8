package service

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
	"github.com/krishkrishna03/techex-sub003/internal/domain/repository"
)

type mockQuestionRepo struct {
	mock.Mock
}

func (m *mockQuestionRepo) CreateQuestion(ctx context.Context, tx *sql.Tx, q *model.Question) error {
	return m.Called(q).Error(0)
}

func (m *mockQuestionRepo) UpdateQuestion(ctx context.Context, tx *sql.Tx, q *model.Question) error {
	return m.Called(q).Error(0)
}

func (m *mockQuestionRepo) FindQuestionByID(ctx context.Context, id string) (*model.Question, error) {
	args := m.Called(id)
	q, _ := args.Get(0).(*model.Question)
	return q, args.Error(1)
}

func (m *mockQuestionRepo) ListQuestions(ctx context.Context, filter repository.QuestionFilter) ([]model.Question, int, error) {
	args := m.Called(filter)
	qs, _ := args.Get(0).([]model.Question)
	return qs, args.Int(1), args.Error(2)
}

func (m *mockQuestionRepo) AddTestCases(ctx context.Context, tx *sql.Tx, questionID string, cases []model.TestCase) error {
	return m.Called(questionID, cases).Error(0)
}

func (m *mockQuestionRepo) GetTestCasesByQuestionID(ctx context.Context, questionID string) ([]model.TestCase, error) {
	args := m.Called(questionID)
	cases, _ := args.Get(0).([]model.TestCase)
	return cases, args.Error(1)
}

type mockSubmissionRepo struct {
	mock.Mock
}

func (m *mockSubmissionRepo) CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	return m.Called(sub).Error(0)
}

func (m *mockSubmissionRepo) CreateSubmissionResults(ctx context.Context, tx *sql.Tx, submissionID string, results []model.TestResult) error {
	return m.Called(submissionID, results).Error(0)
}

func (m *mockSubmissionRepo) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	args := m.Called(id)
	s, _ := args.Get(0).(*model.Submission)
	return s, args.Error(1)
}

func (m *mockSubmissionRepo) GetSubmissionResults(ctx context.Context, submissionID string) ([]model.TestResult, error) {
	args := m.Called(submissionID)
	rs, _ := args.Get(0).([]model.TestResult)
	return rs, args.Error(1)
}

func (m *mockSubmissionRepo) GetSubmissionsForStudentQuestion(ctx context.Context, studentID, questionID string, limit, offset int) ([]model.Submission, int, error) {
	args := m.Called(studentID, questionID, limit, offset)
	subs, _ := args.Get(0).([]model.Submission)
	return subs, args.Int(1), args.Error(2)
}

func (m *mockSubmissionRepo) GetAttemptScores(ctx context.Context, studentID, attemptID string) ([]model.AttemptQuestionScore, error) {
	args := m.Called(studentID, attemptID)
	scores, _ := args.Get(0).([]model.AttemptQuestionScore)
	return scores, args.Error(1)
}

type mockProgressRepo struct {
	mock.Mock
}

func (m *mockProgressRepo) RecordAttempt(ctx context.Context, tx *sql.Tx, sub *model.Submission) (*model.PracticeProgress, bool, error) {
	args := m.Called(sub)
	p, _ := args.Get(0).(*model.PracticeProgress)
	return p, args.Bool(1), args.Error(2)
}

func (m *mockProgressRepo) SetBookmark(ctx context.Context, studentID, questionID string, bookmarked bool) (*model.PracticeProgress, error) {
	args := m.Called(studentID, questionID, bookmarked)
	p, _ := args.Get(0).(*model.PracticeProgress)
	return p, args.Error(1)
}

func (m *mockProgressRepo) GetProgress(ctx context.Context, studentID, questionID string) (*model.PracticeProgress, error) {
	args := m.Called(studentID, questionID)
	p, _ := args.Get(0).(*model.PracticeProgress)
	return p, args.Error(1)
}

func (m *mockProgressRepo) ListProgress(ctx context.Context, studentID string, bookmarkedOnly bool) ([]model.PracticeProgress, error) {
	args := m.Called(studentID, bookmarkedOnly)
	ps, _ := args.Get(0).([]model.PracticeProgress)
	return ps, args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifySolved(ctx context.Context, n model.SolveNotification) error {
	return m.Called(n).Error(0)
}

type fakeListPusher struct {
	key    string
	values []any
	err    error
}

func (f *fakeListPusher) LPush(ctx context.Context, key string, values ...any) *redis.IntCmd {
	f.key = key
	f.values = append(f.values, values...)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(int64(len(f.values)))
	}
	return cmd
}
