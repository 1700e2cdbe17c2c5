// Package transport carries audio-mixing envelopes over a WebSocket
// connection to the gateway. It owns the read/write pumps and the keepalive
// and feeds every decoded inbound envelope to the attached handles'
// dispatchers, in arrival order, from a single reader goroutine.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Mixer/internal/bridge"
)

var (
	ErrClosed       = errors.New("transport closed")
	ErrBackpressure = errors.New("backpressure")
)

const writeDeadline = 5 * time.Second

// Options tunes one gateway connection.
type Options struct {
	// KeepAlivePeriod is the interval between WebSocket pings. Zero
	// disables keepalive.
	KeepAlivePeriod time.Duration
	// SendBuffer is the outbound queue size; 32 when zero.
	SendBuffer int
}

// Client is one connection to the gateway.
type Client struct {
	conn *websocket.Conn
	send chan []byte

	mu      sync.RWMutex
	handles []*bridge.Handle
	closed  bool

	cancel context.CancelFunc
}

// Dial connects to the gateway and starts the pumps.
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	buffer := opts.SendBuffer
	if buffer == 0 {
		buffer = 32
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:   conn,
		send:   make(chan []byte, buffer),
		cancel: cancel,
	}
	log.Info().Str("module", "transport").Str("url", url).Msg("gateway connected")

	go c.writePump(runCtx)
	go c.readPump(runCtx)
	if opts.KeepAlivePeriod > 0 {
		go c.keepAlive(runCtx, opts.KeepAlivePeriod)
	}
	return c, nil
}

// Attach binds a new handle to this connection. The handle's requests go
// out through this transport and inbound envelopes reach its dispatcher.
func (c *Client) Attach(reg bridge.TransactionRegistry, emit bridge.Emitter) *bridge.Handle {
	h := bridge.NewHandle(c, reg, emit)
	c.mu.Lock()
	c.handles = append(c.handles, h)
	c.mu.Unlock()
	log.Info().Str("module", "transport").Msg("handle attached")
	return h
}

// Detach stops dispatch for a handle. Transactions the handle still has
// pending are left for their callers to abandon.
func (c *Client) Detach(h *bridge.Handle) {
	h.Detach()
	c.mu.Lock()
	for i, cur := range c.handles {
		if cur == h {
			c.handles = append(c.handles[:i], c.handles[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
}

// SendRequest marshals body, stamps it with the transaction and queues it.
func (c *Client) SendRequest(ctx context.Context, transaction string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	fields["transaction"] = transaction
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	// The read lock is held across the send so Close cannot close the
	// channel underneath us.
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBackpressure
	}
}

// Close tears the connection down. Attached handles stop receiving.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	close(c.send)
	_ = c.conn.Close()
	log.Info().Str("module", "transport").Msg("gateway connection closed")
}

func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "transport").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "transport").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				log.Error().Err(err).Str("module", "transport").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "transport").Msg("writePump write error")
				return
			}
		}
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		log.Info().Str("module", "transport").Msg("readPump closing")
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "transport").Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Error().Err(err).Str("module", "transport").Msg("readPump read error")
				return
			}
			c.route(data)
		}
	}
}

// route decodes one inbound message and runs it through the attached
// dispatchers. A correlated response goes to the handle owning its
// transaction; everything else is offered to every handle.
func (c *Client) route(data []byte) {
	var env bridge.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "transport").Msg("bad json")
		return
	}

	c.mu.RLock()
	handles := make([]*bridge.Handle, len(c.handles))
	copy(handles, c.handles)
	c.mu.RUnlock()

	if env.Transaction != "" {
		for _, h := range handles {
			if h.Owns(env.Transaction) {
				h.Dispatch(&env)
				return
			}
		}
	}

	handled := false
	for _, h := range handles {
		if _, ok := h.Dispatch(&env); ok {
			handled = true
		}
	}
	if !handled {
		log.Debug().Str("module", "transport").
			Str("tag", env.AudioBridge).
			Msg("message not handled by any dispatcher")
	}
}

func (c *Client) keepAlive(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeDeadline)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				log.Error().Err(err).Str("module", "transport").Msg("keepalive ping")
				return
			}
		}
	}
}
