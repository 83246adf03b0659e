package slots

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

type memoryEntry struct {
	slots     []types.TimeString
	expiresAt time.Time
}

// MemoryCache in-process кэш с TTL
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryCache создает in-process кэш
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Get возвращает копию списка слотов, если запись не истекла
func (c *MemoryCache) Get(_ context.Context, key string) ([]types.TimeString, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return append([]types.TimeString(nil), e.slots...), true
}

// Set сохраняет список слотов
func (c *MemoryCache) Set(_ context.Context, key string, slots []types.TimeString) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		slots:     append([]types.TimeString(nil), slots...),
		expiresAt: c.now().Add(c.ttl),
	}
}

// InvalidateDate удаляет все списки на дату
func (c *MemoryCache) InvalidateDate(_ context.Context, date time.Time) {
	prefix := datePrefix(date)

	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

// Clear очищает кэш
func (c *MemoryCache) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]memoryEntry)
}
