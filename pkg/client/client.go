// Package client is a Go client for the task list endpoint.
//
// Only the most recent ListTasks call on a Client may deliver a page. Starting
// a new call cancels the one in flight, and any response that arrives for a
// superseded call is reported as ErrStaleResponse instead of being returned.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrStaleResponse is returned by a ListTasks call that a newer call superseded.
var ErrStaleResponse = errors.New("client: response superseded by a newer request")

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Task mirrors the server's task representation.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	DueDate     time.Time `json:"due_date"`
	OwnerID     string    `json:"owner_id"`
	AssignedTo  *string   `json:"assigned_to"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Items       []Task `json:"items"`
	TotalCount  int    `json:"total_count"`
	TotalPages  int    `json:"total_pages"`
	CurrentPage int    `json:"current_page"`
	PageSize    int    `json:"page_size"`
}

// ListParams are the list query parameters. Zero values are omitted and take server defaults.
type ListParams struct {
	UserID       string
	Scope        string
	SearchTerm   string
	StatusFilter string
	DateFilter   string
	Page         int
	PageSize     int
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("userId", p.UserID)
	set("scope", p.Scope)
	set("searchTerm", p.SearchTerm)
	set("statusFilter", p.StatusFilter)
	set("dateFilter", p.DateFilter)
	if p.Page != 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize != 0 {
		v.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	return v
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithToken sends token as a bearer access token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// Client talks to one API server. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string

	mu       sync.Mutex
	seq      uint64
	inflight context.CancelFunc
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTasks fetches one page of tasks. It supersedes any earlier call on c.
func (c *Client) ListTasks(ctx context.Context, params ListParams) (*TaskPage, error) {
	ctx, seq := c.begin(ctx)
	defer c.end(seq)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tasks?"+params.values().Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.superseded(seq) {
			return nil, ErrStaleResponse
		}
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		if c.superseded(seq) {
			return nil, ErrStaleResponse
		}
		return nil, apiErr
	}

	var page TaskPage
	decodeErr := json.NewDecoder(resp.Body).Decode(&page)
	if c.superseded(seq) {
		return nil, ErrStaleResponse
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode task page: %w", decodeErr)
	}
	return &page, nil
}

// begin tags a new call with the next sequence number and cancels the previous call.
func (c *Client) begin(ctx context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight != nil {
		c.inflight()
	}
	c.seq++
	c.inflight = cancel
	return ctx, c.seq
}

func (c *Client) end(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq == seq && c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
}

func (c *Client) superseded(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq != seq
}
