package profile

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"littlesteps/internal/storage"
)

// ErrUnknownDevice is returned for an empty device id.
var ErrUnknownDevice = errors.New("device id is required")

// Opener returns the storage namespace for a device.
type Opener func(deviceID string) storage.Storage

// Registry lazily opens and caches one Store per device. Stores that go
// unused are dropped by EvictIdle and reopened from storage on demand.
type Registry struct {
	mu       sync.Mutex
	stores   map[string]*Store
	lastUsed map[string]time.Time
	open     Opener
	opts     []Option
	logger   *zap.Logger
	now      func() time.Time
	closed   bool
}

// NewRegistry creates a registry. opts are applied to every store it opens.
func NewRegistry(open Opener, logger *zap.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		stores:   make(map[string]*Store),
		lastUsed: make(map[string]time.Time),
		open:     open,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Store returns the device's store, opening it on first use.
func (r *Registry) Store(ctx context.Context, deviceID string) (*Store, error) {
	if deviceID == "" {
		return nil, ErrUnknownDevice
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	r.lastUsed[deviceID] = r.now()
	if s, ok := r.stores[deviceID]; ok {
		return s, nil
	}

	opts := append([]Option{WithLogger(r.logger.With(zap.String("device", deviceID)))}, r.opts...)
	s, err := Open(ctx, r.open(deviceID), opts...)
	if err != nil {
		delete(r.lastUsed, deviceID)
		return nil, err
	}
	r.stores[deviceID] = s
	return s, nil
}

// Evict closes and forgets a device's store so the next call reloads it.
func (r *Registry) Evict(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evict(deviceID)
}

// EvictIdle drops every store not used within maxIdle and reports how
// many went. Their data stays in storage.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-maxIdle)
	evicted := 0
	for id, used := range r.lastUsed {
		if used.Before(cutoff) {
			r.evict(id)
			evicted++
		}
	}
	return evicted
}

// Len reports how many stores are open.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

func (r *Registry) evict(deviceID string) {
	if s, ok := r.stores[deviceID]; ok {
		s.Close()
		delete(r.stores, deviceID)
	}
	delete(r.lastUsed, deviceID)
}

// Close closes every open store. Later Store calls fail with ErrClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.stores {
		r.evict(id)
	}
	r.closed = true
}
