package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
	applogger "MarketSentry/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client implements MarketStream over a trade-feed WebSocket. The upstream
// pushes frames of the form {"type":"trade","data":[{s,p,v,t}]} with t in
// epoch milliseconds.
type Client struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	l              *applogger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

func New(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, l *applogger.Logger) domrepo.MarketStream {
	if reconnectDelay <= 0 {
		reconnectDelay = 3 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		l:              l,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := c.websocketURL
	if c.apiKey != "" {
		u = fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("stream connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	c.l.Info("market stream connected", applogger.String("url", c.websocketURL))
	return nil
}

// Subscribe subscribes to the configured symbols.
func (c *Client) Subscribe(ctx context.Context) error {
	c.mu.Lock()
	conn, connected := c.conn, c.connected
	c.mu.Unlock()
	if conn == nil || !connected {
		return fmt.Errorf("stream not connected")
	}
	for _, s := range c.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
	}
	c.l.Info("market stream subscribed", applogger.Int("symbols", len(c.symbols)))
	return nil
}

type wsTick struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type wsFrame struct {
	Type string   `json:"type"`
	Data []wsTick `json:"data"`
}

// Read streams PriceSample events and errors until the connection breaks or
// ctx is cancelled.
func (c *Client) Read(ctx context.Context) (<-chan *models.PriceSample, <-chan error) {
	samples := make(chan *models.PriceSample, 1024)
	errs := make(chan error, 1)

	// keepalive loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.Lock()
				conn := c.conn
				c.mu.Unlock()
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(samples)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				c.mu.Lock()
				conn := c.conn
				c.mu.Unlock()
				if conn == nil {
					errs <- fmt.Errorf("stream conn nil")
					return
				}
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("stream read: %w", err)
					return
				}
				var f wsFrame
				if err := json.Unmarshal(b, &f); err != nil {
					// ignore non-trade frames
					continue
				}
				if f.Type != "trade" {
					continue
				}
				for _, d := range f.Data {
					sample := &models.PriceSample{
						Symbol:    d.S,
						Timestamp: d.T / 1000,
						Price:     d.P,
						Volume:    d.V,
					}
					select {
					case samples <- sample:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return samples, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.reconnectDelay):
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
