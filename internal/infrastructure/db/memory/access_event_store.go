package memory

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/akhbar-news/backoffice/internal/core/domain"
)

const defaultAccessEventCapacity = 500

// AccessEventStore keeps the most recent access events in a ring buffer and
// mirrors each one to the log.
type AccessEventStore struct {
	mu     sync.Mutex
	events []*domain.AccessEvent
	next   int
	full   bool
	log    zerolog.Logger
}

func NewAccessEventStore(capacity int, log zerolog.Logger) *AccessEventStore {
	if capacity <= 0 {
		capacity = defaultAccessEventCapacity
	}
	return &AccessEventStore{events: make([]*domain.AccessEvent, capacity), log: log}
}

func (s *AccessEventStore) Record(_ context.Context, event *domain.AccessEvent) error {
	s.log.Info().
		Str("event_id", event.ID).
		Str("user_id", event.UserID).
		Str("role", string(event.Role)).
		Str("code", event.Code).
		Str("method", event.Method).
		Str("path", event.Path).
		Strs("required", event.Required).
		Msg("access event")

	clone := *event
	s.mu.Lock()
	s.events[s.next] = &clone
	s.next = (s.next + 1) % len(s.events)
	if s.next == 0 {
		s.full = true
	}
	s.mu.Unlock()
	return nil
}

// Recent returns up to limit events, newest first.
func (s *AccessEventStore) Recent(_ context.Context, limit int) ([]*domain.AccessEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := s.next
	if s.full {
		size = len(s.events)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]*domain.AccessEvent, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (s.next - 1 - i + len(s.events)) % len(s.events)
		clone := *s.events[idx]
		out = append(out, &clone)
	}
	return out, nil
}
