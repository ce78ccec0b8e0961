package controller

import (
	"sync"
	"time"

	"github.com/billingcat/leadboard/leadtable"
)

// viewEntry is one caller's table state. mu serializes all requests of that
// caller, so a fetch response is always applied to the state it was
// requested for.
type viewEntry struct {
	mu     sync.Mutex
	view   *leadtable.View
	loaded bool
	used   time.Time
}

// viewRegistry holds the table views of all sessions and API tokens. Views
// idle for longer than ttl are dropped.
type viewRegistry struct {
	mu        sync.Mutex
	entries   map[string]*viewEntry
	pageSize  int
	ttl       time.Duration
	lastSweep time.Time
}

func newViewRegistry(pageSize int, ttl time.Duration) *viewRegistry {
	return &viewRegistry{
		entries:  make(map[string]*viewEntry),
		pageSize: pageSize,
		ttl:      ttl,
	}
}

// get returns the entry for key, creating an empty view for role if needed.
func (r *viewRegistry) get(key string, role leadtable.ViewerRole, now time.Time) *viewEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if now.Sub(r.lastSweep) > time.Minute {
		r.sweepLocked(now)
	}
	e, ok := r.entries[key]
	if !ok {
		v := leadtable.NewView(role)
		v.SetPageSize(r.pageSize)
		e = &viewEntry{view: v}
		r.entries[key] = e
	}
	e.used = now
	return e
}

func (r *viewRegistry) drop(key string) {
	r.mu.Lock()
	delete(r.entries, key)
	r.mu.Unlock()
}

func (r *viewRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *viewRegistry) sweepLocked(now time.Time) {
	r.lastSweep = now
	for k, e := range r.entries {
		if now.Sub(e.used) > r.ttl {
			delete(r.entries, k)
		}
	}
}
