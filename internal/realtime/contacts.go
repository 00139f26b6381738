package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/carelink/carelink/internal/domain/chat"
)

// ContactList mirrors the paginated, search-filtered sidebar. Page one
// (or a changed search term) replaces the list; later pages append with
// id-based dedupe. Inbound messages update the matching entry in place
// instead of refetching the whole list.
type ContactList struct {
	mu     sync.Mutex
	items  []*chat.Contact
	ids    map[string]int
	page   int
	search string
	total  int
}

func NewContactList() *ContactList {
	return &ContactList{ids: make(map[string]int)}
}

// Load fetches one page from the contacts service and merges it in.
func (c *ContactList) Load(ctx context.Context, api ContactAPI, page, limit int, search string) error {
	if page < 1 {
		page = 1
	}
	items, total, err := api.GetContacts(ctx, page, limit, search)
	if err != nil {
		return fmt.Errorf("load contacts: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if page == 1 || search != c.search {
		c.items = c.items[:0]
		c.ids = make(map[string]int, len(items))
	}
	for _, item := range items {
		if _, ok := c.ids[item.ID]; ok {
			continue
		}
		c.ids[item.ID] = len(c.items)
		c.items = append(c.items, item)
	}
	c.page = page
	c.search = search
	c.total = total
	return nil
}

// ApplyMessage updates the partner entry's denormalized last-message
// fields in place. Returns false when the partner is not in the loaded
// list, in which case the caller may refetch.
func (c *ContactList) ApplyMessage(m *chat.Message, localUserID string) bool {
	partnerID := m.SenderID
	if partnerID == localUserID {
		partnerID = m.ReceiverID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.ids[partnerID]
	if !ok {
		return false
	}
	entry := c.items[idx]
	if m.Text != nil {
		entry.LastMessage = m.Text
	} else if m.Image != nil {
		placeholder := "[image]"
		entry.LastMessage = &placeholder
	}
	at := m.CreatedAt
	entry.LastMessageAt = &at
	return true
}

// Items returns a copy of the loaded contacts in display order.
func (c *ContactList) Items() []*chat.Contact {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*chat.Contact, len(c.items))
	copy(out, c.items)
	return out
}

// Total returns the server-reported total across all pages.
func (c *ContactList) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}
