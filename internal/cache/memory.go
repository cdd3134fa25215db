package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process cache Store, used in development and tests where
// no Redis is available
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates an in-process cache store
func NewMemory() *Memory {
	return &Memory{
		c: gocache.New(gocache.NoExpiration, 5*time.Minute),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	value, found := m.c.Get(key)
	if !found {
		return nil, ErrMiss
	}
	b, ok := value.([]byte)
	if !ok {
		return nil, ErrMiss
	}
	return b, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.c.Set(key, value, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	for key := range m.c.Items() {
		if strings.HasPrefix(key, prefix) {
			m.c.Delete(key)
		}
	}
	return nil
}
