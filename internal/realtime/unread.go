package realtime

import "sync"

// UnreadCounts maps conversation partner ids to unread message counts.
// The count for the open conversation is always implicitly zero: the
// session never records increments for it, and opening a conversation
// clears any stored entry.
type UnreadCounts struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewUnreadCounts() *UnreadCounts {
	return &UnreadCounts{counts: make(map[string]int)}
}

// Increment adds delta to the stored count, creating the entry at delta
// if absent. Counts accumulate across events until the conversation is
// opened.
func (u *UnreadCounts) Increment(partnerID string, delta int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.counts[partnerID] += delta
}

// Set installs an authoritative count pushed by the server, overwriting
// any locally accumulated value. A non-positive count removes the entry.
func (u *UnreadCounts) Set(partnerID string, count int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if count <= 0 {
		delete(u.counts, partnerID)
		return
	}
	u.counts[partnerID] = count
}

// Clear removes the entry entirely; a missing entry reads as zero.
func (u *UnreadCounts) Clear(partnerID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.counts, partnerID)
}

// Count returns the stored count for a partner, zero when absent.
func (u *UnreadCounts) Count(partnerID string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.counts[partnerID]
}

// Snapshot returns a copy of all non-zero counts for sidebar badges.
func (u *UnreadCounts) Snapshot() map[string]int {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make(map[string]int, len(u.counts))
	for id, n := range u.counts {
		out[id] = n
	}
	return out
}
