package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/carelink/carelink/internal/domain/chat"
)

// MessageAPI is the collaborator service for history and sends. The
// session never retries a failed send: the server may have persisted the
// message before the error was reported, and a blind retry could
// duplicate it.
type MessageAPI interface {
	GetMessages(ctx context.Context, partnerID string) ([]*chat.Message, error)
	SendMessage(ctx context.Context, req *chat.SendRequest) (*chat.Message, error)
	MarkRead(ctx context.Context, partnerID string) error
}

// ContactAPI is the collaborator service for the sidebar list.
type ContactAPI interface {
	GetContacts(ctx context.Context, page, limit int, search string) ([]*chat.Contact, int, error)
}

// ChatAPI combines the collaborator services the session consumes.
type ChatAPI interface {
	MessageAPI
	ContactAPI
}

// RESTClient implements ChatAPI against the carelink-server HTTP API.
type RESTClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewRESTClient creates a client for the given server base URL (without a
// trailing slash) authenticating with the given bearer token.
func NewRESTClient(baseURL, token string) *RESTClient {
	return &RESTClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// pagedResponse mirrors pagination.Response with typed data.
type pagedMessages struct {
	Data  []*chat.Message `json:"data"`
	Total int             `json:"total"`
}

type pagedContacts struct {
	Data  []*chat.Contact `json:"data"`
	Total int             `json:"total"`
}

func (r *RESTClient) GetMessages(ctx context.Context, partnerID string) ([]*chat.Message, error) {
	var out pagedMessages
	path := "/api/v1/chat/messages/" + url.PathEscape(partnerID) + "?limit=100"
	if err := r.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	return out.Data, nil
}

func (r *RESTClient) SendMessage(ctx context.Context, req *chat.SendRequest) (*chat.Message, error) {
	var out chat.Message
	if err := r.do(ctx, http.MethodPost, "/api/v1/chat/messages", req, &out); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &out, nil
}

func (r *RESTClient) MarkRead(ctx context.Context, partnerID string) error {
	path := "/api/v1/chat/messages/" + url.PathEscape(partnerID) + "/read"
	if err := r.do(ctx, http.MethodPatch, path, nil, nil); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (r *RESTClient) GetContacts(ctx context.Context, page, limit int, search string) ([]*chat.Contact, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa((page-1)*limit))
	if search != "" {
		q.Set("search", search)
	}
	var out pagedContacts
	if err := r.do(ctx, http.MethodGet, "/api/v1/chat/contacts?"+q.Encode(), nil, &out); err != nil {
		return nil, 0, fmt.Errorf("get contacts: %w", err)
	}
	return out.Data, out.Total, nil
}

func (r *RESTClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
