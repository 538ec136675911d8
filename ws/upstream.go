package ws

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/pkg"
)

const (
	upstreamPongWait   = 90 * time.Second
	upstreamPingPeriod = 30 * time.Second
	// Server frames carry whole channel payloads.
	upstreamMaxMessageSize = 1 << 20
)

// Submitter receives decoded batches. *services.SyncService implements it.
type Submitter interface {
	Submit(batch []events.Event) bool
}

// UpstreamConfig is what the connection needs to authenticate.
type UpstreamConfig struct {
	URL    string
	APIKey string
	Token  string
}

// Upstream is the connection to the chat server's event stream.
// Reconnecting is the caller's business: Run returns when the connection
// drops.
type Upstream struct {
	cfg    UpstreamConfig
	sink   Submitter
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewUpstream(cfg UpstreamConfig, sink Submitter) *Upstream {
	return &Upstream{
		cfg:    cfg,
		sink:   sink,
		dialer: websocket.DefaultDialer,
	}
}

// ConnectURL adds the credentials to the configured URL.
func (u *Upstream) ConnectURL() (string, error) {
	parsed, err := url.Parse(u.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("%w: ws url: %v", pkg.ErrBadRequest, err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return "", fmt.Errorf("%w: ws url scheme %q", pkg.ErrBadRequest, parsed.Scheme)
	}

	q := parsed.Query()
	if u.cfg.APIKey != "" {
		q.Set("api_key", u.cfg.APIKey)
	}
	if u.cfg.Token != "" {
		q.Set("authorization", u.cfg.Token)
		q.Set("stream-auth-type", "jwt")
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

// Connect dials the server.
func (u *Upstream) Connect(ctx context.Context) error {
	target, err := u.ConnectURL()
	if err != nil {
		return err
	}

	conn, resp, err := u.dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial upstream (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("dial upstream: %w", err)
	}

	u.mu.Lock()
	u.conn = conn
	u.mu.Unlock()
	return nil
}

// Run reads frames until the connection fails or ctx is done. Every frame
// becomes one batch; a frame with undecodable elements still submits the
// elements that did decode.
func (u *Upstream) Run(ctx context.Context) error {
	u.mu.Lock()
	conn := u.conn
	u.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("%w: upstream not connected", pkg.ErrClosed)
	}

	conn.SetReadLimit(upstreamMaxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(upstreamPongWait)); err != nil {
		return err
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(upstreamPongWait))
	})

	stopPing := make(chan struct{})
	defer close(stopPing)
	go u.pingLoop(conn, stopPing)

	go func() {
		select {
		case <-ctx.Done():
			u.Close()
		case <-stopPing:
		}
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read upstream: %w", err)
		}

		// Any frame proves the server is alive.
		_ = conn.SetReadDeadline(time.Now().Add(upstreamPongWait))

		batch, err := Decode(frame)
		if err != nil {
			log.Printf("[upstream] %v", err)
		}
		if len(batch) > 0 {
			u.sink.Submit(batch)
		}
	}
}

func (u *Upstream) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(upstreamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			u.mu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			u.mu.Unlock()
			if err != nil {
				log.Printf("[upstream] ping failed: %v", err)
				return
			}
		}
	}
}

// Close closes the connection; Run then returns.
func (u *Upstream) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.conn == nil {
		return nil
	}
	err := u.conn.Close()
	u.conn = nil
	return err
}
