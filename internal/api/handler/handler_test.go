package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishkrishna03/techex-sub003/internal/api/middleware"
	"github.com/krishkrishna03/techex-sub003/internal/app/service"
	"github.com/krishkrishna03/techex-sub003/internal/common"
	"github.com/krishkrishna03/techex-sub003/internal/common/security"
	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
)

func init() {
	security.InitJWT([]byte("test-secret"))
}

type fakeQuestions struct {
	created    *service.CreateQuestionRequest
	listParams service.ListQuestionsParams
	err        error
}

func (f *fakeQuestions) CreateQuestion(ctx context.Context, author model.Principal, req service.CreateQuestionRequest) (*model.Question, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &req
	return &model.Question{ID: "q1", Title: req.Title, CreatedBy: author.UserID}, nil
}

func (f *fakeQuestions) GetQuestion(ctx context.Context, viewer model.Principal, id string) (*model.Question, error) {
	if id != "q1" {
		return nil, common.ErrNotFound
	}
	return &model.Question{ID: "q1"}, nil
}

func (f *fakeQuestions) ListQuestions(ctx context.Context, viewer model.Principal, params service.ListQuestionsParams) ([]model.Question, int, error) {
	f.listParams = params
	return []model.Question{{ID: "q1"}}, 1, nil
}

func (f *fakeQuestions) UpdateQuestion(ctx context.Context, editor model.Principal, id string, req service.UpdateQuestionRequest) (*model.Question, error) {
	return nil, common.ErrForbidden
}

type fakeSubmissions struct {
	runErr    error
	submitErr error
	history   service.HistoryParams
}

func (f *fakeSubmissions) Run(ctx context.Context, student model.Principal, req service.RunRequest) (*service.RunResponse, error) {
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &service.RunResponse{Output: "5\n", TestResults: []model.TestResult{{Passed: true, Status: model.StatusAccepted, IsSample: true}}}, nil
}

func (f *fakeSubmissions) Submit(ctx context.Context, student model.Principal, req service.SubmitRequest) (*service.SubmitResponse, error) {
	resp := &service.SubmitResponse{SubmissionID: "s1", Status: model.StatusAccepted, Score: 100, MaxScore: 100, TestCasesPassed: 5, TotalTestCases: 5}
	return resp, f.submitErr
}

func (f *fakeSubmissions) GetSubmission(ctx context.Context, viewer model.Principal, id string) (*model.Submission, error) {
	return nil, common.ErrForbidden
}

func (f *fakeSubmissions) ListHistory(ctx context.Context, viewer model.Principal, questionID string, params service.HistoryParams) ([]model.Submission, int, error) {
	f.history = params
	return []model.Submission{}, 0, nil
}

type fakeProgress struct{}

func (fakeProgress) List(ctx context.Context, student model.Principal, bookmarkedOnly bool) ([]model.PracticeProgress, error) {
	return []model.PracticeProgress{{QuestionID: "q1", Bookmarked: bookmarkedOnly}}, nil
}

func (fakeProgress) Get(ctx context.Context, student model.Principal, questionID string) (*model.PracticeProgress, error) {
	if questionID != "q1" {
		return nil, common.ErrNotFound
	}
	return &model.PracticeProgress{QuestionID: questionID, Attempts: 2, Status: model.ProgressAttempted}, nil
}

func (fakeProgress) Bookmark(ctx context.Context, student model.Principal, questionID string) (*model.PracticeProgress, error) {
	return &model.PracticeProgress{QuestionID: questionID, Bookmarked: true, Status: model.ProgressBookmarked}, nil
}

func (fakeProgress) Unbookmark(ctx context.Context, student model.Principal, questionID string) (*model.PracticeProgress, error) {
	return nil, common.ErrNotFound
}

type fakeAttempts struct{}

func (fakeAttempts) CodingSummary(ctx context.Context, student model.Principal, attemptID string) (*service.CodingSummary, error) {
	return &service.CodingSummary{AttemptID: attemptID, TotalScore: 70, MaxScore: 150}, nil
}

type testServer struct {
	questions   *fakeQuestions
	submissions *fakeSubmissions
	router      http.Handler
}

func newTestServer(limiter *middleware.UserRateLimiter) *testServer {
	ts := &testServer{questions: &fakeQuestions{}, submissions: &fakeSubmissions{}}
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(security.TokenAuth))
	r.Use(middleware.Authenticator)
	r.Route("/questions", NewQuestionHandler(ts.questions, ts.submissions).RegisterRoutes)
	NewSubmissionHandler(ts.submissions, limiter).RegisterRoutes(r)
	NewProgressHandler(fakeProgress{}, fakeAttempts{}).RegisterRoutes(r)
	ts.router = r
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	tok, err := security.GenerateToken(model.Principal{UserID: "u1", Role: role}, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func TestQuestionRoutes(t *testing.T) {
	ts := newTestServer(nil)

	t.Run("student cannot create", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/questions", model.RoleStudent, map[string]any{"title": "Sum"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("faculty creates", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/questions", model.RoleFaculty, map[string]any{"title": "Sum of Two"})
		assert.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, ts.questions.created)
		assert.Equal(t, "Sum of Two", ts.questions.created.Title)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/questions", model.RoleFaculty, "{oops")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation details", func(t *testing.T) {
		ts.questions.err = validation.Errors{"title": errors.New("the length must be between 3 and 200")}
		defer func() { ts.questions.err = nil }()

		rec := ts.do(t, http.MethodPost, "/questions", model.RoleFaculty, map[string]any{"title": "ab"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		details, ok := body["details"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, details, "title")
	})

	t.Run("list decodes query", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/questions?page=2&page_size=5&difficulty=easy&language=js&search=sum&unknown=1", model.RoleStudent, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, service.ListQuestionsParams{Page: 2, PageSize: 5, Difficulty: "easy", Language: "js", Search: "sum"}, ts.questions.listParams)

		var body Paginated[model.Question]
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, 1, body.Total)
		assert.Equal(t, 2, body.Page)
	})

	t.Run("bad query value", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/questions?page=abc", model.RoleStudent, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get missing", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/questions/nope", model.RoleStudent, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update forbidden", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/questions/q1", model.RoleFaculty, map[string]any{"title": "New"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("history defaults paging", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/questions/q1/submissions", model.RoleStudent, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, service.HistoryParams{Page: 1, PageSize: 20}, ts.submissions.history)
	})
}

func TestRunAndSubmitRoutes(t *testing.T) {
	t.Run("run", func(t *testing.T) {
		ts := newTestServer(nil)
		rec := ts.do(t, http.MethodPost, "/run", model.RoleStudent, service.RunRequest{QuestionID: "q1", Code: "x", Language: "js"})
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "5\n", body["output"])
		assert.Len(t, body["testResults"], 1)
	})

	t.Run("language errors", func(t *testing.T) {
		for err, status := range map[error]int{
			model.ErrUnknownLanguage:         http.StatusBadRequest,
			common.ErrLanguageNotAvailable:   http.StatusBadRequest,
			common.ErrLanguageNotImplemented: http.StatusUnprocessableEntity,
			common.ErrNotFound:               http.StatusNotFound,
		} {
			ts := newTestServer(nil)
			ts.submissions.runErr = err
			rec := ts.do(t, http.MethodPost, "/run", model.RoleStudent, service.RunRequest{})
			assert.Equal(t, status, rec.Code, err.Error())
		}
	})

	t.Run("submit", func(t *testing.T) {
		ts := newTestServer(nil)
		rec := ts.do(t, http.MethodPost, "/submit", model.RoleStudent, service.SubmitRequest{QuestionID: "q1", Code: "x", Language: "js"})
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "s1", body["submissionId"])
		assert.Equal(t, "accepted", body["status"])
		assert.EqualValues(t, 100, body["score"])
	})

	t.Run("submit persistence failure keeps result", func(t *testing.T) {
		ts := newTestServer(nil)
		ts.submissions.submitErr = errors.New("db down")
		rec := ts.do(t, http.MethodPost, "/submit", model.RoleStudent, service.SubmitRequest{QuestionID: "q1", Code: "x", Language: "js"})
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		var body failedSubmitResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.NotNil(t, body.Result)
		assert.Equal(t, 100, body.Result.Score)
	})

	t.Run("rate limited", func(t *testing.T) {
		ts := newTestServer(middleware.NewUserRateLimiter(1, 1))
		req := service.RunRequest{QuestionID: "q1", Code: "x", Language: "js"}
		assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/run", model.RoleStudent, req).Code)
		assert.Equal(t, http.StatusTooManyRequests, ts.do(t, http.MethodPost, "/run", model.RoleStudent, req).Code)
	})

	t.Run("foreign submission", func(t *testing.T) {
		ts := newTestServer(nil)
		rec := ts.do(t, http.MethodGet, "/submissions/s9", model.RoleStudent, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestProgressRoutes(t *testing.T) {
	ts := newTestServer(nil)

	rec := ts.do(t, http.MethodGet, "/progress?bookmarked=true", model.RoleStudent, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.PracticeProgress
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.True(t, list[0].Bookmarked)

	rec = ts.do(t, http.MethodGet, "/progress/q1", model.RoleStudent, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodGet, "/progress/q2", model.RoleStudent, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPut, "/progress/q1/bookmark", model.RoleStudent, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/progress/q1/bookmark", model.RoleStudent, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/test-attempts/a1/coding-summary", model.RoleStudent, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, "a1", summary["attemptId"])
}
