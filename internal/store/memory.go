package store

import (
	"context"
	"strings"
	"sync"

	"github.com/i474232898/weather-session/internal/common"
)

// MemoryStore is a concurrency-safe in-memory preference store. Values do not
// outlive the process.
type MemoryStore struct {
	mu sync.Mutex

	// key: preference key, value: preference value
	data map[string]string

	hub *common.Broadcaster[City]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]string),
		hub:  common.NewBroadcaster(City{}),
	}
}

// ObserveCity subscribes to city changes.
func (s *MemoryStore) ObserveCity(ctx context.Context) <-chan City {
	return s.hub.Subscribe(ctx)
}

// SaveCity stores the city and notifies subscribers.
func (s *MemoryStore) SaveCity(ctx context.Context, city string) error {
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	city = strings.TrimSpace(city)
	if city == "" {
		return ErrEmptyCity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[KeyCity] = city
	s.hub.Publish(City{Name: city, Valid: true})
	return nil
}
