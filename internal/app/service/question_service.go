package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/krishkrishna03/techex-sub003/internal/common"
	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
	"github.com/krishkrishna03/techex-sub003/internal/domain/repository"
)

// QuestionLimits are the bounds authors may choose within.
type QuestionLimits struct {
	DefaultTimeLimitMs   int
	DefaultMemoryLimitMB int
	MaxTimeLimitMs       int
	MaxTestCases         int
}

type QuestionService struct {
	questionRepo repository.QuestionRepository
	limits       QuestionLimits
	db           *sql.DB // For transactions
}

func NewQuestionService(questionRepo repository.QuestionRepository, limits QuestionLimits, db *sql.DB) *QuestionService {
	return &QuestionService{questionRepo: questionRepo, limits: limits, db: db}
}

type TestCaseRequest struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	IsSample       bool   `json:"is_sample"`
	Weight         int    `json:"weight"`
}

func (tc TestCaseRequest) Validate() error {
	return validation.ValidateStruct(&tc,
		validation.Field(&tc.Weight, validation.Required.Error("must be a positive integer"), validation.Min(1)),
	)
}

type CreateQuestionRequest struct {
	Title         string                   `json:"title"`
	Prompt        string                   `json:"prompt"`
	Difficulty    model.QuestionDifficulty `json:"difficulty"`
	Languages     []string                 `json:"languages"`
	TimeLimitMs   int                      `json:"time_limit_ms"`
	MemoryLimitMB int                      `json:"memory_limit_mb"`
	SampleInput   string                   `json:"sample_input"`
	SampleOutput  string                   `json:"sample_output"`
	Constraints   string                   `json:"constraints"`
	InputFormat   string                   `json:"input_format"`
	OutputFormat  string                   `json:"output_format"`
	MaxScore      *int                     `json:"max_score,omitempty"`
	TestCases     []TestCaseRequest        `json:"test_cases"`
}

// UpdateQuestionRequest edits metadata only. Test cases back existing
// submissions and are never rewritten.
type UpdateQuestionRequest struct {
	Title         *string                   `json:"title,omitempty"`
	Prompt        *string                   `json:"prompt,omitempty"`
	Difficulty    *model.QuestionDifficulty `json:"difficulty,omitempty"`
	Languages     *[]string                 `json:"languages,omitempty"`
	TimeLimitMs   *int                      `json:"time_limit_ms,omitempty"`
	MemoryLimitMB *int                      `json:"memory_limit_mb,omitempty"`
	SampleInput   *string                   `json:"sample_input,omitempty"`
	SampleOutput  *string                   `json:"sample_output,omitempty"`
	Constraints   *string                   `json:"constraints,omitempty"`
	InputFormat   *string                   `json:"input_format,omitempty"`
	OutputFormat  *string                   `json:"output_format,omitempty"`
}

var knownLanguage = validation.By(func(value any) error {
	tag, _ := value.(string)
	if _, err := model.ParseLanguage(tag); err != nil {
		return fmt.Errorf("unknown language %q, expected one of %v", tag, model.KnownLanguages)
	}
	return nil
})

// questionMetadata is the editable part of a question, validated the same
// way on create and update.
type questionMetadata struct {
	Title         string                   `json:"title"`
	Prompt        string                   `json:"prompt"`
	Difficulty    model.QuestionDifficulty `json:"difficulty"`
	Languages     []string                 `json:"languages"`
	TimeLimitMs   int                      `json:"time_limit_ms"`
	MemoryLimitMB int                      `json:"memory_limit_mb"`
}

func (s *QuestionService) validateMetadata(m *questionMetadata) error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Title, validation.Required, validation.Length(3, 200)),
		validation.Field(&m.Prompt, validation.Required),
		validation.Field(&m.Difficulty, validation.Required, validation.In(model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard)),
		validation.Field(&m.Languages, validation.Required, validation.Each(knownLanguage)),
		validation.Field(&m.TimeLimitMs, validation.Required, validation.Min(100), validation.Max(s.limits.MaxTimeLimitMs)),
		validation.Field(&m.MemoryLimitMB, validation.Required, validation.Min(16), validation.Max(1024)),
	)
}

func (s *QuestionService) validateCreate(req *CreateQuestionRequest) error {
	errs := validation.Errors{}
	merge := func(err error) error {
		var verrs validation.Errors
		if !errors.As(err, &verrs) {
			return err
		}
		for k, v := range verrs {
			errs[k] = v
		}
		return nil
	}

	err := s.validateMetadata(&questionMetadata{
		Title:         req.Title,
		Prompt:        req.Prompt,
		Difficulty:    req.Difficulty,
		Languages:     req.Languages,
		TimeLimitMs:   req.TimeLimitMs,
		MemoryLimitMB: req.MemoryLimitMB,
	})
	if err := merge(err); err != nil {
		return err
	}

	total := 0
	for _, tc := range req.TestCases {
		total += tc.Weight
	}
	testCaseRules := []validation.Rule{
		validation.Required.Error("at least one test case is required"),
		validation.By(func(any) error {
			for _, tc := range req.TestCases {
				if tc.IsSample {
					return nil
				}
			}
			return errors.New("at least one sample test case is required")
		}),
	}
	if s.limits.MaxTestCases > 0 {
		testCaseRules = append(testCaseRules, validation.Length(0, s.limits.MaxTestCases))
	}
	err = validation.ValidateStruct(req,
		validation.Field(&req.TestCases, testCaseRules...),
		validation.Field(&req.MaxScore, validation.By(func(any) error {
			if req.MaxScore != nil && *req.MaxScore != total {
				return fmt.Errorf("must equal the sum of test case weights (%d)", total)
			}
			return nil
		})),
	)
	if err := merge(err); err != nil {
		return err
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func normalizeLanguages(tags []string) []model.Language {
	out := make([]model.Language, 0, len(tags))
	seen := make(map[model.Language]bool, len(tags))
	for _, tag := range tags {
		lang, err := model.ParseLanguage(tag)
		if err != nil || seen[lang] {
			continue
		}
		seen[lang] = true
		out = append(out, lang)
	}
	return out
}

func (s *QuestionService) CreateQuestion(ctx context.Context, author model.Principal, req CreateQuestionRequest) (*model.Question, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Difficulty = model.QuestionDifficulty(strings.ToLower(string(req.Difficulty)))
	if req.TimeLimitMs == 0 {
		req.TimeLimitMs = s.limits.DefaultTimeLimitMs
	}
	if req.MemoryLimitMB == 0 {
		req.MemoryLimitMB = s.limits.DefaultMemoryLimitMB
	}
	if err := s.validateCreate(&req); err != nil {
		return nil, err
	}

	question := &model.Question{
		ID:            uuid.NewString(),
		Slug:          slug.Make(req.Title),
		Title:         req.Title,
		Prompt:        req.Prompt,
		Difficulty:    req.Difficulty,
		Languages:     normalizeLanguages(req.Languages),
		TimeLimitMs:   req.TimeLimitMs,
		MemoryLimitMB: req.MemoryLimitMB,
		SampleInput:   req.SampleInput,
		SampleOutput:  req.SampleOutput,
		Constraints:   req.Constraints,
		InputFormat:   req.InputFormat,
		OutputFormat:  req.OutputFormat,
		CreatedBy:     author.UserID,
	}
	cases := make([]model.TestCase, len(req.TestCases))
	for i, tc := range req.TestCases {
		cases[i] = model.TestCase{
			ID:             uuid.NewString(),
			QuestionID:     question.ID,
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			IsSample:       tc.IsSample,
			Weight:         tc.Weight,
			SortOrder:      i + 1,
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := s.questionRepo.CreateQuestion(ctx, tx, question); err != nil {
		return nil, common.Errorf("failed to create question: %w", err)
	}
	if err := s.questionRepo.AddTestCases(ctx, tx, question.ID, cases); err != nil {
		return nil, common.Errorf("failed to add test cases: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Question created", slog.String("question_id", question.ID), slog.String("slug", question.Slug), slog.Int("test_cases", len(cases)))
	question.TestCases = cases
	question.MaxScore = model.TotalWeight(cases)
	return question, nil
}

// GetQuestion returns the question as the viewer may see it: staff get every
// test case, everyone else only the samples.
func (s *QuestionService) GetQuestion(ctx context.Context, viewer model.Principal, id string) (*model.Question, error) {
	question, err := s.questionRepo.FindQuestionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cases, err := s.questionRepo.GetTestCasesByQuestionID(ctx, question.ID)
	if err != nil {
		return nil, err
	}
	question.MaxScore = model.TotalWeight(cases)
	if model.IsStaff(viewer.Role) {
		question.TestCases = cases
	} else {
		question.TestCases = model.SampleCases(cases)
	}
	return question, nil
}

type ListQuestionsParams struct {
	Page       int    `schema:"page"`
	PageSize   int    `schema:"page_size"`
	Difficulty string `schema:"difficulty"`
	Language   string `schema:"language"`
	Search     string `schema:"search"`
	Mine       bool   `schema:"mine"`
}

func (s *QuestionService) ListQuestions(ctx context.Context, viewer model.Principal, params ListQuestionsParams) ([]model.Question, int, error) {
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 || params.PageSize > 100 {
		params.PageSize = 20
	}

	filter := repository.QuestionFilter{
		Difficulty: model.QuestionDifficulty(strings.ToLower(params.Difficulty)),
		Search:     strings.TrimSpace(params.Search),
		Limit:      uint64(params.PageSize),
		Offset:     uint64((params.Page - 1) * params.PageSize),
	}
	if params.Language != "" {
		lang, err := model.ParseLanguage(params.Language)
		if err != nil {
			return nil, 0, err
		}
		filter.Language = lang
	}
	if params.Mine && model.IsStaff(viewer.Role) {
		filter.CreatedBy = viewer.UserID
	}
	return s.questionRepo.ListQuestions(ctx, filter)
}

func (s *QuestionService) UpdateQuestion(ctx context.Context, editor model.Principal, id string, req UpdateQuestionRequest) (*model.Question, error) {
	question, err := s.questionRepo.FindQuestionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if question.CreatedBy != editor.UserID && !model.IsAdmin(editor.Role) {
		return nil, common.Errorf("only the owner or an admin may edit this question: %w", common.ErrForbidden)
	}

	meta := &questionMetadata{
		Title:         question.Title,
		Prompt:        question.Prompt,
		Difficulty:    question.Difficulty,
		Languages:     make([]string, len(question.Languages)),
		TimeLimitMs:   question.TimeLimitMs,
		MemoryLimitMB: question.MemoryLimitMB,
	}
	for i, l := range question.Languages {
		meta.Languages[i] = string(l)
	}
	if req.Title != nil {
		meta.Title = strings.TrimSpace(*req.Title)
	}
	if req.Prompt != nil {
		meta.Prompt = *req.Prompt
	}
	if req.Difficulty != nil {
		meta.Difficulty = model.QuestionDifficulty(strings.ToLower(string(*req.Difficulty)))
	}
	if req.Languages != nil {
		meta.Languages = *req.Languages
	}
	if req.TimeLimitMs != nil {
		meta.TimeLimitMs = *req.TimeLimitMs
	}
	if req.MemoryLimitMB != nil {
		meta.MemoryLimitMB = *req.MemoryLimitMB
	}
	if err := s.validateMetadata(meta); err != nil {
		return nil, err
	}

	question.Title = meta.Title
	question.Prompt = meta.Prompt
	question.Difficulty = meta.Difficulty
	question.Languages = normalizeLanguages(meta.Languages)
	question.TimeLimitMs = meta.TimeLimitMs
	question.MemoryLimitMB = meta.MemoryLimitMB
	for dst, src := range map[*string]*string{
		&question.SampleInput:  req.SampleInput,
		&question.SampleOutput: req.SampleOutput,
		&question.Constraints:  req.Constraints,
		&question.InputFormat:  req.InputFormat,
		&question.OutputFormat: req.OutputFormat,
	} {
		if src != nil {
			*dst = *src
		}
	}

	if err := s.questionRepo.UpdateQuestion(ctx, nil, question); err != nil {
		return nil, err
	}
	return question, nil
}
