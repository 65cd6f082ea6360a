// Package dashclient is the Go client for the legalintel dashboard API. It
// wraps the REST endpoints, maintains the live status push channel with
// automatic reconnects, and keeps a local document cache in sync.
package dashclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultReconnectDelay = 3 * time.Second

// Options configures a Client. BaseURL and UserID are required.
type Options struct {
	// BaseURL is the API root, e.g. "http://localhost:8080".
	BaseURL string
	// UserID identifies the tenant whose documents and updates to follow.
	UserID int64

	// ReconnectDelay is the fixed wait between reconnect attempts.
	// Defaults to 3 seconds.
	ReconnectDelay time.Duration
	// MaxRetries caps consecutive reconnect attempts. Zero means retry
	// forever, which suits a dashboard left open overnight.
	MaxRetries int
	// ResyncInterval, when positive, periodically refetches the document
	// list while connected to reconcile missed pushes.
	ResyncInterval time.Duration

	HTTPClient *http.Client
	Dialer     Dialer
	Logger     *slog.Logger
}

type Client struct {
	options Options
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger
	cache   *DocumentCache

	mu         sync.Mutex
	state      ConnState
	conn       Conn
	retries    int
	retryTimer *time.Timer
	deliberate bool
	generation uint64
	resyncStop chan struct{}
	onUpdate   func(StatusUpdate)
}

// New validates options and builds a client. No connection is opened until
// Connect.
func New(options Options) (*Client, error) {
	if options.BaseURL == "" {
		return nil, errors.New("dashclient: BaseURL is required")
	}
	if options.UserID <= 0 {
		return nil, errors.New("dashclient: UserID must be positive")
	}
	base, err := url.Parse(options.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("dashclient: parse BaseURL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("dashclient: BaseURL scheme must be http or https, got %q", base.Scheme)
	}

	if options.ReconnectDelay <= 0 {
		options.ReconnectDelay = defaultReconnectDelay
	}
	if options.HTTPClient == nil {
		options.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if options.Dialer == nil {
		options.Dialer = gorillaDialer{}
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Client{
		options: options,
		baseURL: base,
		http:    options.HTTPClient,
		logger:  options.Logger,
		cache:   NewDocumentCache(),
		state:   StateDisconnected,
	}, nil
}

// WebsocketURL derives the push endpoint from the API base: the scheme flips
// to ws(s) and the user's channel path is appended.
func (c *Client) WebsocketURL() string {
	u := *c.baseURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/v1/ws/" + strconv.FormatInt(c.options.UserID, 10)
	return u.String()
}

// Cache exposes the document cache the push channel maintains.
func (c *Client) Cache() *DocumentCache {
	return c.cache
}

// OnUpdate registers a callback invoked for every decoded status update,
// after the cache merge. Passing nil removes the callback.
func (c *Client) OnUpdate(handler func(StatusUpdate)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = handler
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	if i := strings.Index(path, "?"); i >= 0 {
		u.RawQuery = path[i+1:]
		path = path[:i]
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("dashclient: marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("dashclient: build request: %w", err)
	}
	req.Header.Set("X-User-Id", strconv.FormatInt(c.options.UserID, 10))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dashclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("dashclient: %s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("dashclient: %s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("dashclient: decode response: %w", err)
	}
	return nil
}

// ListDocuments fetches a window of the user's documents. Zero skip and limit
// request the server defaults.
func (c *Client) ListDocuments(ctx context.Context, skip, limit int) ([]Document, error) {
	path := "/api/v1/documents"
	if skip > 0 || limit > 0 {
		values := url.Values{}
		if skip > 0 {
			values.Set("skip", strconv.Itoa(skip))
		}
		if limit > 0 {
			values.Set("limit", strconv.Itoa(limit))
		}
		path += "?" + values.Encode()
	}

	var resp struct {
		Documents []Document `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

// GetDocument fetches one document by id.
func (c *Client) GetDocument(ctx context.Context, id int64) (*Document, error) {
	var doc Document
	if err := c.do(ctx, http.MethodGet, "/api/v1/documents/"+strconv.FormatInt(id, 10), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Query executes one interrogation request.
func (c *Client) Query(ctx context.Context, params QueryParams) (*QueryResponse, error) {
	var resp QueryResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/query", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DashboardStats fetches the aggregate counters.
func (c *Client) DashboardStats(ctx context.Context) (map[string]any, error) {
	var stats map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/v1/dashboard/stats", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Resync refetches the document list into the cache. The fetched set is
// authoritative and clears the stats-stale flag.
func (c *Client) Resync(ctx context.Context) error {
	docs, err := c.ListDocuments(ctx, 0, 0)
	if err != nil {
		return err
	}
	c.cache.SetDocuments(docs)
	return nil
}

// NewQuerySession builds a query session bound to this client.
func (c *Client) NewQuerySession() *QuerySession {
	return NewQuerySession(c.Query)
}
