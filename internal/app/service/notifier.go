package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
)

// SolveNotifier is told when a student solves a question for the first time.
type SolveNotifier interface {
	NotifySolved(ctx context.Context, n model.SolveNotification) error
}

// listPusher is the slice of the redis client the notifier needs.
type listPusher interface {
	LPush(ctx context.Context, key string, values ...any) *redis.IntCmd
}

type redisSolveNotifier struct {
	rdb   listPusher
	queue string
}

// NewRedisSolveNotifier queues notifications for the notification worker.
func NewRedisSolveNotifier(rdb listPusher, queue string) SolveNotifier {
	return &redisSolveNotifier{rdb: rdb, queue: queue}
}

func (n *redisSolveNotifier) NotifySolved(ctx context.Context, note model.SolveNotification) error {
	payload, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("redisSolveNotifier.NotifySolved marshal: %w", err)
	}
	if err := n.rdb.LPush(ctx, n.queue, payload).Err(); err != nil {
		return fmt.Errorf("redisSolveNotifier.NotifySolved lpush: %w", err)
	}
	return nil
}

type noopSolveNotifier struct{}

// NewNoopSolveNotifier is used when notifications are disabled.
func NewNoopSolveNotifier() SolveNotifier { return noopSolveNotifier{} }

func (noopSolveNotifier) NotifySolved(context.Context, model.SolveNotification) error { return nil }
