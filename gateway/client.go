// Package gateway is the client for the remote memory service. All turns
// share one lazily established websocket connection; requests and responses
// are correlated by id over that single stream.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/singleflight"
)

const defaultCallTimeout = 10 * time.Second

var (
	ErrNotConfigured    = errors.New("gateway: url is not configured")
	ErrConnectionClosed = errors.New("gateway: connection closed")
)

type Options struct {
	URL     string
	APIKey  string
	Timeout time.Duration
	Logger  *slog.Logger
}

type Client struct {
	url     string
	apiKey  string
	timeout time.Duration
	logger  *slog.Logger

	// dialGroup deduplicates concurrent first-use: every caller that arrives
	// while a dial is in flight shares the same eventual connection.
	dialGroup singleflight.Group

	mu      sync.Mutex // guards conn
	conn    *websocket.Conn
	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan response
}

func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Client{
		url:     opts.URL,
		apiKey:  opts.APIKey,
		timeout: timeout,
		logger:  logger,
		pending: map[string]chan response{},
	}
}

// Create stores a new memory item.
func (c *Client) Create(ctx context.Context, in CreateInput) error {
	_, err := c.call(ctx, "item.create", in)
	return err
}

// Query returns items matching f, most relevant first, truncated to limit.
// An unexpected response shape yields no items, not an error.
func (c *Client) Query(ctx context.Context, f Filter, limit int) ([]Item, error) {
	data, err := c.call(ctx, "item.query", queryParams{Filter: f, Limit: limit})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	items := data.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Update mutates an existing item's status.
func (c *Client) Update(ctx context.Context, id, status string) error {
	_, err := c.call(ctx, "item.update", updateParams{ID: id, Status: status})
	return err
}

func (c *Client) call(ctx context.Context, action string, params any) (*responseData, error) {
	conn, err := c.connection()
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("gateway: encode %s params: %w", action, err)
	}
	req := request{ID: uuid.NewString(), Action: action, Params: raw}

	ch := make(chan response, 1)
	c.pendingMu.Lock()
	c.pending[req.ID] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.ID)
		c.pendingMu.Unlock()
	}()

	c.writeMu.Lock()
	err = conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.dropConn(conn)
		return nil, fmt.Errorf("gateway: send %s: %w", action, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("gateway: %s: %w", action, ctx.Err())
	case <-timer.C:
		return nil, fmt.Errorf("gateway: %s: timed out after %s", action, c.timeout)
	case resp := <-ch:
		if resp.Error != "" {
			return nil, fmt.Errorf("gateway: %s: %s", action, resp.Error)
		}
		return resp.Data, nil
	}
}

// connection returns the shared websocket, dialing it on first use. A dial
// already in flight is joined rather than duplicated.
func (c *Client) connection() (*websocket.Conn, error) {
	c.mu.Lock()
	if c.conn != nil {
		conn := c.conn
		c.mu.Unlock()
		return conn, nil
	}
	c.mu.Unlock()

	if c.url == "" {
		return nil, ErrNotConfigured
	}

	v, err, _ := c.dialGroup.Do("dial", func() (any, error) {
		c.mu.Lock()
		if c.conn != nil {
			conn := c.conn
			c.mu.Unlock()
			return conn, nil
		}
		c.mu.Unlock()

		header := http.Header{}
		if c.apiKey != "" {
			header.Set("Authorization", "Bearer "+c.apiKey)
		}
		dialer := websocket.Dialer{HandshakeTimeout: c.timeout}
		conn, _, err := dialer.Dial(c.url, header)
		if err != nil {
			return nil, fmt.Errorf("gateway: dial %s: %w", c.url, err)
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		go c.readLoop(conn)
		c.logger.Info("gateway_connected", "url", c.url)
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*websocket.Conn), nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.logger.Warn("gateway_read_error", "error", err.Error())
			c.dropConn(conn)
			return
		}
		var resp response
		if err := json.Unmarshal(data, &resp); err != nil {
			// Malformed frame: not fatal, the pending call times out.
			c.logger.Warn("gateway_malformed_frame", "error", err.Error())
			continue
		}
		c.pendingMu.Lock()
		ch, ok := c.pending[resp.ID]
		c.pendingMu.Unlock()
		if ok {
			select {
			case ch <- resp:
			default:
			}
		}
	}
}

func (c *Client) dropConn(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = conn.Close()

	c.pendingMu.Lock()
	for id, ch := range c.pending {
		select {
		case ch <- response{ID: id, Error: ErrConnectionClosed.Error()}:
		default:
		}
	}
	c.pendingMu.Unlock()
}
