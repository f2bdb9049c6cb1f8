package service

import (
	"context"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/krishkrishna03/techex-sub003/internal/app/judge"
	"github.com/krishkrishna03/techex-sub003/internal/common"
	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
	"github.com/krishkrishna03/techex-sub003/internal/domain/repository"
	"github.com/krishkrishna03/techex-sub003/internal/platform/metrics"
)

const maxCodeBytes = 64 << 10

type SubmissionService struct {
	questionRepo   repository.QuestionRepository
	submissionRepo repository.SubmissionRepository
	runner         *judge.Runner
	recorder       *Recorder
	notifier       SolveNotifier
}

func NewSubmissionService(
	questionRepo repository.QuestionRepository,
	submissionRepo repository.SubmissionRepository,
	runner *judge.Runner,
	recorder *Recorder,
	notifier SolveNotifier,
) *SubmissionService {
	if notifier == nil {
		notifier = NewNoopSolveNotifier()
	}
	return &SubmissionService{
		questionRepo:   questionRepo,
		submissionRepo: submissionRepo,
		runner:         runner,
		recorder:       recorder,
		notifier:       notifier,
	}
}

type RunRequest struct {
	QuestionID string `json:"questionId"`
	Code       string `json:"code"`
	Language   string `json:"language"`
}

func (r RunRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.QuestionID, validation.Required, is.UUID),
		validation.Field(&r.Code, validation.Required, validation.Length(1, maxCodeBytes)),
		validation.Field(&r.Language, validation.Required),
	)
}

type RunResponse struct {
	Output      string             `json:"output"`
	TestResults []model.TestResult `json:"testResults"`
}

type SubmitRequest struct {
	QuestionID    string  `json:"questionId"`
	Code          string  `json:"code"`
	Language      string  `json:"language"`
	TestAttemptID *string `json:"testAttemptId,omitempty"`
}

func (r SubmitRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.QuestionID, validation.Required, is.UUID),
		validation.Field(&r.Code, validation.Required, validation.Length(1, maxCodeBytes)),
		validation.Field(&r.Language, validation.Required),
		validation.Field(&r.TestAttemptID, validation.NilOrNotEmpty, is.UUID),
	)
}

type SubmitResponse struct {
	SubmissionID    string                 `json:"submissionId"`
	Status          model.SubmissionStatus `json:"status"`
	Score           int                    `json:"score"`
	MaxScore        int                    `json:"maxScore"`
	TestCasesPassed int                    `json:"testCasesPassed"`
	TotalTestCases  int                    `json:"totalTestCases"`
	TestResults     []model.TestResult     `json:"testResults"`
}

// prepare resolves the language and loads the question with every test case.
func (s *SubmissionService) prepare(ctx context.Context, questionID, tag string) (*model.Question, []model.TestCase, model.Language, error) {
	lang, err := model.ParseLanguage(tag)
	if err != nil {
		return nil, nil, "", err
	}
	question, err := s.questionRepo.FindQuestionByID(ctx, questionID)
	if err != nil {
		return nil, nil, "", err
	}
	if !question.Supports(lang) {
		return nil, nil, "", common.Errorf("%s is not offered for this question: %w", lang, common.ErrLanguageNotAvailable)
	}
	cases, err := s.questionRepo.GetTestCasesByQuestionID(ctx, question.ID)
	if err != nil {
		return nil, nil, "", err
	}
	question.MaxScore = model.TotalWeight(cases)
	return question, cases, lang, nil
}

// Run grades code against the sample cases only. Nothing is stored.
func (s *SubmissionService) Run(ctx context.Context, student model.Principal, req RunRequest) (*RunResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	question, cases, lang, err := s.prepare(ctx, req.QuestionID, req.Language)
	if err != nil {
		return nil, err
	}

	report, err := s.runner.Run(ctx, question, cases, req.Code, lang, judge.ModeRun)
	if err != nil {
		return nil, err
	}
	scored := judge.Score(report.Results, report.Cases)
	metrics.Submissions.WithLabelValues(string(judge.ModeRun), string(scored.Status)).Inc()

	slog.DebugContext(ctx, "Code run",
		slog.String("student_id", student.UserID),
		slog.String("question_id", question.ID),
		slog.String("language", string(lang)),
		slog.String("status", string(scored.Status)))
	return &RunResponse{Output: report.Output, TestResults: model.RedactResults(report.Results)}, nil
}

// Submit grades code against every case and records the attempt. When
// recording fails the computed response is still returned alongside the error.
func (s *SubmissionService) Submit(ctx context.Context, student model.Principal, req SubmitRequest) (*SubmitResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	question, cases, lang, err := s.prepare(ctx, req.QuestionID, req.Language)
	if err != nil {
		return nil, err
	}

	report, err := s.runner.Run(ctx, question, cases, req.Code, lang, judge.ModeSubmit)
	if err != nil {
		return nil, err
	}
	scored := judge.Score(report.Results, report.Cases)
	metrics.Submissions.WithLabelValues(string(judge.ModeSubmit), string(scored.Status)).Inc()

	submission := &model.Submission{
		ID:              uuid.NewString(),
		StudentID:       student.UserID,
		QuestionID:      question.ID,
		TestAttemptID:   req.TestAttemptID,
		Language:        lang,
		Code:            req.Code,
		Status:          scored.Status,
		TestCasesPassed: scored.Passed,
		TotalTestCases:  scored.Total,
		Score:           scored.Score,
		MaxScore:        scored.MaxScore,
		ExecutionTimeMs: int(report.Elapsed.Milliseconds()),
		Results:         report.Results,
	}
	resp := &SubmitResponse{
		SubmissionID:    submission.ID,
		Status:          scored.Status,
		Score:           scored.Score,
		MaxScore:        scored.MaxScore,
		TestCasesPassed: scored.Passed,
		TotalTestCases:  scored.Total,
		TestResults:     report.Results,
	}
	if !model.IsStaff(student.Role) {
		resp.TestResults = model.RedactResults(report.Results)
	}

	outcome, err := s.recorder.Record(ctx, submission)
	if err != nil {
		return resp, err
	}

	slog.InfoContext(ctx, "Submission graded",
		slog.String("submission_id", submission.ID),
		slog.String("student_id", student.UserID),
		slog.String("question_id", question.ID),
		slog.String("status", string(scored.Status)),
		slog.Int("score", scored.Score))

	if outcome.NewlySolved && student.Email != "" {
		note := model.SolveNotification{
			StudentID:     student.UserID,
			StudentEmail:  student.Email,
			StudentName:   student.Name,
			QuestionID:    question.ID,
			QuestionTitle: question.Title,
			SubmissionID:  submission.ID,
			Attempts:      outcome.Progress.Attempts,
			SolvedAt:      time.Now().UTC(),
		}
		if err := s.notifier.NotifySolved(ctx, note); err != nil {
			slog.WarnContext(ctx, "Could not queue solve notification", slog.String("submission_id", submission.ID), slog.Any("err", err))
		}
	}
	return resp, nil
}

// GetSubmission returns a stored submission to its owner or to staff.
func (s *SubmissionService) GetSubmission(ctx context.Context, viewer model.Principal, id string) (*model.Submission, error) {
	submission, err := s.submissionRepo.GetSubmissionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	staff := model.IsStaff(viewer.Role)
	if submission.StudentID != viewer.UserID && !staff {
		return nil, common.Errorf("submission belongs to another student: %w", common.ErrForbidden)
	}
	results, err := s.submissionRepo.GetSubmissionResults(ctx, submission.ID)
	if err != nil {
		return nil, err
	}
	if !staff {
		results = model.RedactResults(results)
	}
	submission.Results = results
	return submission, nil
}

type HistoryParams struct {
	Page     int `schema:"page"`
	PageSize int `schema:"page_size"`
}

// ListHistory lists the viewer's own submissions for one question, newest first.
func (s *SubmissionService) ListHistory(ctx context.Context, viewer model.Principal, questionID string, params HistoryParams) ([]model.Submission, int, error) {
	if _, err := s.questionRepo.FindQuestionByID(ctx, questionID); err != nil {
		return nil, 0, err
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 || params.PageSize > 100 {
		params.PageSize = 20
	}
	return s.submissionRepo.GetSubmissionsForStudentQuestion(ctx, viewer.UserID, questionID, params.PageSize, (params.Page-1)*params.PageSize)
}
