package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/krishkrishna03/techex-sub003/internal/app/service"
	"github.com/krishkrishna03/techex-sub003/internal/common"
	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
)

type progressService interface {
	List(ctx context.Context, student model.Principal, bookmarkedOnly bool) ([]model.PracticeProgress, error)
	Get(ctx context.Context, student model.Principal, questionID string) (*model.PracticeProgress, error)
	Bookmark(ctx context.Context, student model.Principal, questionID string) (*model.PracticeProgress, error)
	Unbookmark(ctx context.Context, student model.Principal, questionID string) (*model.PracticeProgress, error)
}

type attemptService interface {
	CodingSummary(ctx context.Context, student model.Principal, attemptID string) (*service.CodingSummary, error)
}

type ProgressHandler struct {
	progressService progressService
	attemptService  attemptService
}

func NewProgressHandler(ps progressService, as attemptService) *ProgressHandler {
	return &ProgressHandler{progressService: ps, attemptService: as}
}

// RegisterRoutes expects an authenticated router.
func (h *ProgressHandler) RegisterRoutes(r chi.Router) {
	r.Get("/progress", h.listProgress)
	r.Get("/progress/{questionID}", h.getProgress)
	r.Put("/progress/{questionID}/bookmark", h.bookmark)
	r.Delete("/progress/{questionID}/bookmark", h.unbookmark)
	r.Get("/test-attempts/{attemptID}/coding-summary", h.codingSummary)
}

type progressQuery struct {
	Bookmarked bool `schema:"bookmarked"`
}

func (h *ProgressHandler) listProgress(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var q progressQuery
	if !decodeQuery(w, r, &q) {
		return
	}

	progress, err := h.progressService.List(r.Context(), p, q.Bookmarked)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, progress)
}

func (h *ProgressHandler) getProgress(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	progress, err := h.progressService.Get(r.Context(), p, chi.URLParam(r, "questionID"))
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, progress)
}

func (h *ProgressHandler) bookmark(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	progress, err := h.progressService.Bookmark(r.Context(), p, chi.URLParam(r, "questionID"))
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, progress)
}

func (h *ProgressHandler) unbookmark(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	progress, err := h.progressService.Unbookmark(r.Context(), p, chi.URLParam(r, "questionID"))
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, progress)
}

func (h *ProgressHandler) codingSummary(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	summary, err := h.attemptService.CodingSummary(r.Context(), p, chi.URLParam(r, "attemptID"))
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, summary)
}
