package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"
	"github.com/redis/go-redis/v9"

	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
	"github.com/krishkrishna03/techex-sub003/internal/platform/mailer"
	"github.com/krishkrishna03/techex-sub003/internal/platform/metrics"
)

const (
	popTimeout      = 5 * time.Second
	maxSendRetries  = 3
	errorRetryDelay = 5 * time.Second
)

// listPopper is the slice of the redis client the worker needs.
type listPopper interface {
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// NotificationWorker drains the solve notification queue and mails each student.
type NotificationWorker struct {
	rdb        listPopper
	queue      string
	mailer     mailer.Mailer
	newBackOff func() backoff.BackOff
}

func NewNotificationWorker(rdb listPopper, queue string, m mailer.Mailer) *NotificationWorker {
	return &NotificationWorker{
		rdb:    rdb,
		queue:  queue,
		mailer: m,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxElapsedTime = time.Minute
			return b
		},
	}
}

// Start blocks until ctx is cancelled.
func (w *NotificationWorker) Start(ctx context.Context) error {
	slog.Info("Notification worker started", slog.String("queue", w.queue))
	for {
		if ctx.Err() != nil {
			slog.Info("Notification worker stopping")
			return nil
		}

		res, err := w.rdb.BRPop(ctx, popTimeout, w.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // timed out with nothing queued
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			slog.Error("Failed to BRPop notification queue", slog.String("queue", w.queue), slog.Any("err", err))
			select {
			case <-ctx.Done():
			case <-time.After(errorRetryDelay):
			}
			continue
		}

		// res is [queueName, value]
		if len(res) < 2 || res[1] == "" {
			slog.Warn("BRPop returned an empty notification")
			continue
		}
		if err := w.handle(ctx, res[1]); err != nil {
			slog.Error("Dropping solve notification", slog.Any("err", err))
		}
	}
}

func (w *NotificationWorker) handle(ctx context.Context, payload string) error {
	var note model.SolveNotification
	if err := json.Unmarshal([]byte(payload), &note); err != nil {
		metrics.NotificationsSent.WithLabelValues("malformed").Inc()
		return fmt.Errorf("decode notification: %w", err)
	}
	if note.StudentEmail == "" {
		metrics.NotificationsSent.WithLabelValues("skipped").Inc()
		return nil
	}

	msg := solvedMessage(note)
	op := func() error {
		return w.mailer.Send(ctx, msg)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(w.newBackOff(), maxSendRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		metrics.NotificationsSent.WithLabelValues("failed").Inc()
		return fmt.Errorf("send to %s for question %s: %w", note.StudentEmail, note.QuestionID, err)
	}

	metrics.NotificationsSent.WithLabelValues("sent").Inc()
	slog.Info("Solve notification sent", slog.String("student_id", note.StudentID), slog.String("question_id", note.QuestionID))
	return nil
}

func solvedMessage(note model.SolveNotification) mailer.Message {
	name := note.StudentName
	if name == "" {
		name = "there"
	}
	attempt := "first"
	if note.Attempts > 1 {
		attempt = humanize.Ordinal(note.Attempts)
	}
	return mailer.Message{
		To:      note.StudentEmail,
		Subject: fmt.Sprintf("You solved %q", note.QuestionTitle),
		Text: fmt.Sprintf("Hi %s,\n\nYour submission %s solved %q on your %s attempt (%s).\n\nKeep practicing!\n",
			name, note.SubmissionID, note.QuestionTitle, attempt, note.SolvedAt.UTC().Format(time.RFC1123)),
	}
}
