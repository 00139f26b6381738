package realtime

import (
	"sync"

	"github.com/carelink/carelink/internal/domain/chat"
)

// MessageStore holds the ordered, deduplicated message list for the
// active conversation. Messages render in insertion order: creation order
// for history loads, arrival order for live messages. The store never
// re-sorts by timestamp.
//
// Every mutation is a single locked check-and-apply step, so duplicate
// suppression and optimistic replacement cannot race even when the
// session's read loop and a UI goroutine touch the store concurrently.
type MessageStore struct {
	mu     sync.Mutex
	active string
	ids    map[string]struct{}
	msgs   []*chat.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{ids: make(map[string]struct{})}
}

// SetActive switches the active conversation without touching the list;
// LoadHistory replaces the list once the fetch resolves. An empty id
// means no conversation is open.
func (s *MessageStore) SetActive(partnerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = partnerID
}

// ActiveConversation returns the partner id of the open conversation.
func (s *MessageStore) ActiveConversation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// AppendInbound inserts a server-pushed message unless one with the same
// id is already present. Duplicate delivery is a no-op, not an error.
func (s *MessageStore) AppendInbound(m *chat.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.ids[m.ID]; dup {
		return false
	}
	s.ids[m.ID] = struct{}{}
	s.msgs = append(s.msgs, m)
	return true
}

// AppendOptimistic inserts a locally-created message carrying a temporary
// id so the sender sees it before server confirmation.
func (s *MessageStore) AppendOptimistic(m *chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[m.ID] = struct{}{}
	s.msgs = append(s.msgs, m)
}

// ReplaceOptimistic swaps the optimistic message for its confirmed
// counterpart in place, preserving list position. If the confirmed id
// already arrived over the wire (push raced the HTTP response), the
// optimistic entry is removed instead so the id stays unique.
func (s *MessageStore) ReplaceOptimistic(tempID string, confirmed *chat.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(tempID)
	if idx < 0 {
		return false
	}
	delete(s.ids, tempID)

	if _, dup := s.ids[confirmed.ID]; dup {
		s.msgs = append(s.msgs[:idx], s.msgs[idx+1:]...)
		return true
	}
	s.ids[confirmed.ID] = struct{}{}
	s.msgs[idx] = confirmed
	return true
}

// RemoveOptimistic strips a failed optimistic send from the list.
func (s *MessageStore) RemoveOptimistic(tempID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(tempID)
	if idx < 0 {
		return false
	}
	delete(s.ids, tempID)
	s.msgs = append(s.msgs[:idx], s.msgs[idx+1:]...)
	return true
}

// LoadHistory replaces the entire list with the fetched history for
// partnerID. The load is discarded when the active conversation changed
// while the fetch was in flight: a stale completion must not clobber the
// conversation the user switched to.
func (s *MessageStore) LoadHistory(partnerID string, history []*chat.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != partnerID {
		return false
	}
	s.ids = make(map[string]struct{}, len(history))
	s.msgs = s.msgs[:0]
	for _, m := range history {
		if _, dup := s.ids[m.ID]; dup {
			continue
		}
		s.ids[m.ID] = struct{}{}
		s.msgs = append(s.msgs, m)
	}
	return true
}

// Messages returns a copy of the current list.
func (s *MessageStore) Messages() []*chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*chat.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Len returns the number of messages in the list.
func (s *MessageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func (s *MessageStore) indexOf(id string) int {
	for i, m := range s.msgs {
		if m.ID == id {
			return i
		}
	}
	return -1
}
