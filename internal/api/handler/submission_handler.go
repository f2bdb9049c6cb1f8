package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/krishkrishna03/techex-sub003/internal/api/middleware"
	"github.com/krishkrishna03/techex-sub003/internal/app/service"
	"github.com/krishkrishna03/techex-sub003/internal/common"
	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
)

type submissionService interface {
	Run(ctx context.Context, student model.Principal, req service.RunRequest) (*service.RunResponse, error)
	Submit(ctx context.Context, student model.Principal, req service.SubmitRequest) (*service.SubmitResponse, error)
	GetSubmission(ctx context.Context, viewer model.Principal, id string) (*model.Submission, error)
}

type SubmissionHandler struct {
	submissionService submissionService
	execLimiter       *middleware.UserRateLimiter
}

func NewSubmissionHandler(ss submissionService, execLimiter *middleware.UserRateLimiter) *SubmissionHandler {
	return &SubmissionHandler{submissionService: ss, execLimiter: execLimiter}
}

// RegisterRoutes expects an authenticated router.
func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(exec chi.Router) {
		if h.execLimiter != nil {
			exec.Use(middleware.RateLimit(h.execLimiter))
		}
		exec.Post("/run", h.runCode)       // POST /api/v1/run
		exec.Post("/submit", h.submitCode) // POST /api/v1/submit
	})
	r.Get("/submissions/{submissionID}", h.getSubmission) // GET /api/v1/submissions/{id}
}

func (h *SubmissionHandler) runCode(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req service.RunRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.submissionService.Run(r.Context(), p, req)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

type failedSubmitResponse struct {
	Error  string                  `json:"error"`
	Result *service.SubmitResponse `json:"result"`
}

func (h *SubmissionHandler) submitCode(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req service.SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.submissionService.Submit(r.Context(), p, req)
	if err != nil {
		if resp != nil {
			// Graded but not stored; the student still gets the verdict.
			slog.ErrorContext(r.Context(), "Failed to record submission", slog.String("submission_id", resp.SubmissionID), slog.Any("err", err))
			common.RespondWithJSON(w, http.StatusInternalServerError, failedSubmitResponse{
				Error:  "Submission was graded but could not be saved",
				Result: resp,
			})
			return
		}
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *SubmissionHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	sub, err := h.submissionService.GetSubmission(r.Context(), p, chi.URLParam(r, "submissionID"))
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}
