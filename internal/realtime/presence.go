package realtime

import (
	"sort"
	"sync"
)

// PresenceSet tracks which users are currently online. Each server
// broadcast is an authoritative snapshot, so Replace swaps the whole set
// rather than patching it.
type PresenceSet struct {
	mu     sync.RWMutex
	online map[string]struct{}
}

func NewPresenceSet() *PresenceSet {
	return &PresenceSet{online: make(map[string]struct{})}
}

// Replace installs a fresh snapshot of online user ids.
func (p *PresenceSet) Replace(ids []string) {
	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	p.mu.Lock()
	p.online = next
	p.mu.Unlock()
}

// IsOnline reports whether the given user is in the current snapshot.
func (p *PresenceSet) IsOnline(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.online[id]
	return ok
}

// List returns the sorted ids in the current snapshot.
func (p *PresenceSet) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.online))
	for id := range p.online {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
