// Package cache stores solved schedules keyed by the content of the table
// and the options they were solved with.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/kilianp07/killchain/core/model"
)

// Cache looks up and stores proven schedules.
type Cache interface {
	Get(ctx context.Context, key string) (model.Schedule, bool, error)
	Put(ctx context.Context, key string, s model.Schedule) error
}

// Key derives the cache key of a table fingerprint solved with opts. opts
// must be JSON encodable.
func Key(fingerprint string, opts any) (string, error) {
	b, err := json.Marshal(opts)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Nop never hits.
type Nop struct{}

func (Nop) Get(context.Context, string) (model.Schedule, bool, error) {
	return model.Schedule{}, false, nil
}
func (Nop) Put(context.Context, string, model.Schedule) error { return nil }

// Memory is an in-process Cache.
type Memory struct {
	mu sync.RWMutex
	m  map[string]model.Schedule
}

// NewMemory returns an empty Memory cache.
func NewMemory() *Memory { return &Memory{m: make(map[string]model.Schedule)} }

// Get returns a copy of the cached schedule.
func (c *Memory) Get(_ context.Context, key string) (model.Schedule, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.m[key]
	return clone(s), ok, nil
}

// Put stores a copy of s.
func (c *Memory) Put(_ context.Context, key string, s model.Schedule) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = clone(s)
	return nil
}

func clone(s model.Schedule) model.Schedule {
	if s.Results != nil {
		s.Results = append([]model.ScheduleResult(nil), s.Results...)
	}
	return s
}
