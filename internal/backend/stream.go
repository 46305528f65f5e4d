package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	ws "github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

const (
	eventBufferSize = 16
	pingInterval    = 30 * time.Second
	pingTimeout     = 10 * time.Second
)

// subscribeFrame is the first frame sent after dialing, binding the
// connection to one family's item table.
type subscribeFrame struct {
	Topic    string `json:"topic"`
	FamilyID string `json:"family_id"`
}

// Subscribe opens the realtime change feed for one family. The returned
// stream lives until the connection drops or Close is called.
func (c *Client) Subscribe(ctx context.Context, familyID uuid.UUID) (Stream, error) {
	u, err := wsURL(c.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("apikey", c.cfg.APIKey)
	u += "?" + q.Encode()

	conn, _, err := ws.Dial(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dial realtime: %w", err)
	}

	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if err := wsjson.Write(ctx, conn, subscribeFrame{Topic: "grocery_items", FamilyID: familyID.String()}); err != nil {
		cancel()
		conn.Close(ws.StatusInternalError, "subscribe failed")
		return nil, fmt.Errorf("send subscribe frame: %w", err)
	}

	s := &wsStream{
		conn:   conn,
		events: make(chan ChangeEvent, eventBufferSize),
		cancel: cancel,
	}
	go s.pingLoop(streamCtx)
	go s.readLoop(streamCtx)
	return s, nil
}

func wsURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/realtime/v1/stream"
	return u.String(), nil
}

// wsStream implements Stream over a websocket connection.
type wsStream struct {
	conn   *ws.Conn
	events chan ChangeEvent
	cancel context.CancelFunc

	mu     sync.Mutex
	err    error
	closed bool
}

func (s *wsStream) Events() <-chan ChangeEvent { return s.events }

func (s *wsStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close tears the stream down. Safe to call more than once and after the
// stream has already died.
func (s *wsStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	return s.conn.Close(ws.StatusNormalClosure, "unsubscribe")
}

func (s *wsStream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil && !s.closed {
		s.err = err
	}
}

// pingLoop detects quiet-death connections. A failed ping is recorded as a
// timeout so the reconnect policy can pick the shorter delay class.
func (s *wsStream) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := s.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				s.fail(fmt.Errorf("%w: %v", ErrStreamTimeout, err))
				s.conn.Close(ws.StatusGoingAway, "ping timeout")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *wsStream) readLoop(ctx context.Context) {
	defer close(s.events)
	defer s.cancel()

	for {
		var ev ChangeEvent
		if err := wsjson.Read(ctx, s.conn, &ev); err != nil {
			s.fail(classify(err))
			return
		}
		select {
		case s.events <- ev:
		case <-ctx.Done():
			s.fail(classify(ctx.Err()))
			return
		}
	}
}

// classify maps transport errors onto the two failure classes the reconnect
// policy distinguishes.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStreamTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrStreamTimeout, err)
	}
	return err
}
