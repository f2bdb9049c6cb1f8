package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"

	"github.com/krishkrishna03/techex-sub003/internal/api/handler"
	"github.com/krishkrishna03/techex-sub003/internal/api/middleware"
	"github.com/krishkrishna03/techex-sub003/internal/app/service"
	"github.com/krishkrishna03/techex-sub003/internal/common/security"
	"github.com/krishkrishna03/techex-sub003/internal/platform/metrics"
)

type RouterOptions struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	ExecLimiter    *middleware.UserRateLimiter
}

func NewRouter(
	questionService *service.QuestionService,
	submissionService *service.SubmissionService,
	progressService *service.ProgressService,
	attemptService *service.AttemptService,
	opts RouterOptions,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	// API v1 Routes, all authenticated
	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(jwtauth.Verifier(security.TokenAuth))
		v1.Use(middleware.Authenticator)

		questionHandler := handler.NewQuestionHandler(questionService, submissionService)
		v1.Route("/questions", questionHandler.RegisterRoutes)

		submissionHandler := handler.NewSubmissionHandler(submissionService, opts.ExecLimiter)
		submissionHandler.RegisterRoutes(v1)

		progressHandler := handler.NewProgressHandler(progressService, attemptService)
		progressHandler.RegisterRoutes(v1)
	})

	return r
}
