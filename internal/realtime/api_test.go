package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carelink/carelink/internal/domain/chat"
)

func TestRESTClientGetMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/api/v1/chat/messages/u2" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("missing bearer token, got %q", got)
		}
		text := "hi"
		resp := pagedMessages{
			Data:  []*chat.Message{{ID: "m1", SenderID: "u2", ReceiverID: "u1", Text: &text}},
			Total: 1,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "tok")
	msgs, err := c.GetMessages(context.Background(), "u2")
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestRESTClientSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/chat/messages" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req chat.SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.ReceiverID != "u2" {
			t.Errorf("unexpected receiver %q", req.ReceiverID)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(chat.Message{ID: "m1", SenderID: "u1", ReceiverID: "u2", Text: req.Text})
	}))
	defer srv.Close()

	text := "hello"
	c := NewRESTClient(srv.URL, "tok")
	m, err := c.SendMessage(context.Background(), &chat.SendRequest{ReceiverID: "u2", Text: &text})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if m.ID != "m1" {
		t.Fatalf("expected confirmed id m1, got %s", m.ID)
	}
}

func TestRESTClientSendMessageServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"receiver not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	text := "hello"
	c := NewRESTClient(srv.URL, "tok")
	if _, err := c.SendMessage(context.Background(), &chat.SendRequest{ReceiverID: "nobody", Text: &text}); err == nil {
		t.Fatalf("expected error on non-2xx status")
	}
}

func TestRESTClientGetContactsPaging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("limit"); got != "20" {
			t.Errorf("expected limit 20, got %q", got)
		}
		if got := q.Get("offset"); got != "40" {
			t.Errorf("expected offset 40 for page 3, got %q", got)
		}
		if got := q.Get("search"); got != "asha" {
			t.Errorf("expected search term, got %q", got)
		}
		json.NewEncoder(w).Encode(pagedContacts{
			Data:  []*chat.Contact{{ID: "u2", Name: "Asha", Role: "doctor"}},
			Total: 41,
		})
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "tok")
	contacts, total, err := c.GetContacts(context.Background(), 3, 20, "asha")
	if err != nil {
		t.Fatalf("get contacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].ID != "u2" {
		t.Fatalf("unexpected contacts: %+v", contacts)
	}
	if total != 41 {
		t.Fatalf("expected total 41, got %d", total)
	}
}

func TestRESTClientMarkRead(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if r.Method != http.MethodPatch || r.URL.Path != "/api/v1/chat/messages/u2/read" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL, "tok")
	if err := c.MarkRead(context.Background(), "u2"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !called {
		t.Fatalf("server never hit")
	}
}
