package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/krishkrishna03/techex-sub003/internal/api"
	"github.com/krishkrishna03/techex-sub003/internal/api/middleware"
	"github.com/krishkrishna03/techex-sub003/internal/app/judge"
	"github.com/krishkrishna03/techex-sub003/internal/app/service"
	"github.com/krishkrishna03/techex-sub003/internal/app/worker"
	"github.com/krishkrishna03/techex-sub003/internal/common/security"
	"github.com/krishkrishna03/techex-sub003/internal/domain/repository"
	"github.com/krishkrishna03/techex-sub003/internal/platform/config"
	"github.com/krishkrishna03/techex-sub003/internal/platform/database"
	"github.com/krishkrishna03/techex-sub003/internal/platform/logging"
	"github.com/krishkrishna03/techex-sub003/internal/platform/mailer"
	"github.com/krishkrishna03/techex-sub003/internal/platform/queue"
)

func main() {
	// 1. Load Configuration and logging
	config.Load()
	logCloser := logging.Setup(config.AppConfig.LogLevel, config.AppConfig.LogFile)
	defer logCloser.Close()
	slog.Info("Configuration loaded")

	// 2. Initialize JWT
	security.InitJWT(config.AppConfig.JWTKey)

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, database.DB); err != nil {
		migrateCancel()
		slog.Error("Could not apply schema", slog.Any("err", err))
		os.Exit(1)
	}
	migrateCancel()

	// 4. Initialize Repositories
	questionRepo := repository.NewPgQuestionRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)
	progressRepo := repository.NewPgProgressRepository(database.DB)

	// 5. Initialize the judge
	executors, err := judge.NewExecutors(judge.ExecutorConfig{ProgramCacheSize: config.AppConfig.ProgramCacheSize})
	if err != nil {
		slog.Error("Could not build executors", slog.Any("err", err))
		os.Exit(1)
	}
	runner := judge.NewRunner(executors, config.AppConfig.ExecMaxOutputBytes)

	// 6. Notifications (optional)
	notifier := service.NewNoopSolveNotifier()
	var notificationWorker *worker.NotificationWorker
	if config.AppConfig.NotificationsEnabled {
		queue.ConnectRedis()
		defer queue.CloseRedis()
		notifier = service.NewRedisSolveNotifier(queue.RDB, config.AppConfig.NotificationQueueName)
		m := mailer.NewSMTPMailer(config.AppConfig.SMTPHost, config.AppConfig.SMTPPort,
			config.AppConfig.SMTPUsername, config.AppConfig.SMTPPassword, config.AppConfig.SMTPFrom)
		notificationWorker = worker.NewNotificationWorker(queue.RDB, config.AppConfig.NotificationQueueName, m)
	}

	// 7. Initialize Services
	questionService := service.NewQuestionService(questionRepo, service.QuestionLimits{
		DefaultTimeLimitMs:   config.AppConfig.DefaultTimeLimitMs,
		DefaultMemoryLimitMB: config.AppConfig.DefaultMemoryLimitMB,
		MaxTimeLimitMs:       config.AppConfig.MaxTimeLimitMs,
		MaxTestCases:         config.AppConfig.MaxTestCases,
	}, database.DB)
	recorder := service.NewRecorder(submissionRepo, progressRepo, database.DB)
	submissionService := service.NewSubmissionService(questionRepo, submissionRepo, runner, recorder, notifier)
	progressService := service.NewProgressService(progressRepo, questionRepo)
	attemptService := service.NewAttemptService(submissionRepo)

	// 8. Initialize Router & HTTP Server
	requestTimeout := config.AppConfig.RequestTimeout()
	router := api.NewRouter(questionService, submissionService, progressService, attemptService, api.RouterOptions{
		AllowedOrigins: config.AppConfig.CORSAllowedOrigins,
		RequestTimeout: requestTimeout,
		ExecLimiter:    middleware.NewUserRateLimiter(float64(config.AppConfig.ExecRatePerMinute), config.AppConfig.ExecRateBurst),
	})

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Run until signalled, then shut down gracefully
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server starting", slog.String("port", config.AppConfig.APIPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if notificationWorker != nil {
		g.Go(func() error {
			return notificationWorker.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("Server and worker stopped gracefully")
}
