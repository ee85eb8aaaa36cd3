package queue

import (
	"context"
	"time"
)

type StoreAPI interface {
	Enqueue(ctx context.Context, userID string, weekStart time.Time) error
	ClaimBatch(ctx context.Context, maxItems int, staleBefore time.Time) ([]Request, error)
	Complete(ctx context.Context, id string) error
	Release(ctx context.Context, id string, lastError string) error
	PendingCount(ctx context.Context) (int, error)
}
