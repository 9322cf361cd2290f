package usecase

import (
	"context"
	"time"

	"workforce-portal/internal/domain/lifecycle"
)

// EventPublisher fans domain events out to subscribers. Publish must not
// block on slow consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev lifecycle.Event)
}

type ReportCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// TargetLocker is a cross-process lock. A nil release is never returned.
type TargetLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, lifecycle.Event) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

// timeNow is truncated to the precision postgres keeps.
func timeNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
