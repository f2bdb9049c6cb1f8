package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/krishkrishna03/techex-sub003/internal/api/middleware"
	"github.com/krishkrishna03/techex-sub003/internal/app/service"
	"github.com/krishkrishna03/techex-sub003/internal/common"
	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
)

type questionService interface {
	CreateQuestion(ctx context.Context, author model.Principal, req service.CreateQuestionRequest) (*model.Question, error)
	GetQuestion(ctx context.Context, viewer model.Principal, id string) (*model.Question, error)
	ListQuestions(ctx context.Context, viewer model.Principal, params service.ListQuestionsParams) ([]model.Question, int, error)
	UpdateQuestion(ctx context.Context, editor model.Principal, id string, req service.UpdateQuestionRequest) (*model.Question, error)
}

type historyService interface {
	ListHistory(ctx context.Context, viewer model.Principal, questionID string, params service.HistoryParams) ([]model.Submission, int, error)
}

type QuestionHandler struct {
	questionService questionService
	historyService  historyService
}

func NewQuestionHandler(qs questionService, hs historyService) *QuestionHandler {
	return &QuestionHandler{questionService: qs, historyService: hs}
}

// RegisterRoutes expects an authenticated router.
func (h *QuestionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listQuestions)                             // GET /api/v1/questions
	r.Get("/{questionID}", h.getQuestion)                   // GET /api/v1/questions/{id}
	r.Get("/{questionID}/submissions", h.listMySubmissions) // GET /api/v1/questions/{id}/submissions

	r.Group(func(staff chi.Router) {
		staff.Use(middleware.StaffOnly)
		staff.Post("/", h.createQuestion)             // POST /api/v1/questions
		staff.Put("/{questionID}", h.updateQuestion) // PUT /api/v1/questions/{id}
	})
}

func (h *QuestionHandler) createQuestion(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req service.CreateQuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	question, err := h.questionService.CreateQuestion(r.Context(), p, req)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, question)
}

func (h *QuestionHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var params service.ListQuestionsParams
	if !decodeQuery(w, r, &params) {
		return
	}
	params.Page, params.PageSize = pageBounds(params.Page, params.PageSize)

	questions, total, err := h.questionService.ListQuestions(r.Context(), p, params)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, Paginated[model.Question]{
		Items:    questions,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
}

func (h *QuestionHandler) getQuestion(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	question, err := h.questionService.GetQuestion(r.Context(), p, chi.URLParam(r, "questionID"))
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, question)
}

func (h *QuestionHandler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req service.UpdateQuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	question, err := h.questionService.UpdateQuestion(r.Context(), p, chi.URLParam(r, "questionID"), req)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, question)
}

func (h *QuestionHandler) listMySubmissions(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var params service.HistoryParams
	if !decodeQuery(w, r, &params) {
		return
	}
	params.Page, params.PageSize = pageBounds(params.Page, params.PageSize)

	subs, total, err := h.historyService.ListHistory(r.Context(), p, chi.URLParam(r, "questionID"), params)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, Paginated[model.Submission]{
		Items:    subs,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
}
