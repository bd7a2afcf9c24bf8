package application

import (
	"fmt"
	"sync"
	"time"

	"github.com/example/mowing-roster/internal/calendar"
)

// CalendarCache memoises rendered month views until a session or user
// mutation invalidates them or their TTL passes. A nil cache disables caching.
type CalendarCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]calendarCacheEntry
}

type calendarCacheEntry struct {
	view      CalendarView
	expiresAt time.Time
}

// NewCalendarCache returns a cache holding at most maxEntries months.
func NewCalendarCache(ttl time.Duration, maxEntries int, now func() time.Time) *CalendarCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 24
	}
	if now == nil {
		now = time.Now
	}
	return &CalendarCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]calendarCacheEntry),
	}
}

func (c *CalendarCache) Get(key string) (CalendarView, bool) {
	if c == nil {
		return CalendarView{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return CalendarView{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return CalendarView{}, false
	}
	return cloneCalendarView(entry.view), true
}

func (c *CalendarCache) Store(key string, view CalendarView) {
	if c == nil {
		return
	}
	cloned := cloneCalendarView(view)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = calendarCacheEntry{view: cloned, expiresAt: expiry}
}

// Invalidate drops every cached month.
func (c *CalendarCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]calendarCacheEntry)
	c.mu.Unlock()
}

// Len reports how many months are cached.
func (c *CalendarCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *CalendarCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// evictOneLocked drops the entry closest to expiry.
func (c *CalendarCache) evictOneLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

func calendarCacheKey(year int, month time.Month, today calendar.Date) string {
	return fmt.Sprintf("%04d-%02d|%s", year, int(month), today)
}

func cloneCalendarView(view CalendarView) CalendarView {
	out := view
	if view.Days == nil {
		return out
	}
	out.Days = make([]CalendarDay, len(view.Days))
	for i, day := range view.Days {
		out.Days[i] = day
		if day.Match.Overlapping != nil {
			out.Days[i].Match.Overlapping = append([]string(nil), day.Match.Overlapping...)
		}
	}
	return out
}
