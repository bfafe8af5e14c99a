package ports

import (
	"context"

	"github.com/akhbar-news/backoffice/internal/core/domain"
)

// AccessEventSink persists gate decisions for later review.
type AccessEventSink interface {
	Record(ctx context.Context, event *domain.AccessEvent) error
}

// AccessEventReader lists recorded decisions, newest first.
type AccessEventReader interface {
	Recent(ctx context.Context, limit int) ([]*domain.AccessEvent, error)
}

// AccessRecorder accepts events from the request path without blocking it.
type AccessRecorder interface {
	Enqueue(event *domain.AccessEvent)
}
