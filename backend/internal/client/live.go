package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"themtwo/backend/internal/live"
	"themtwo/backend/internal/state"
)

const (
	initialRetryDelay = 250 * time.Millisecond
	maxRetryDelay     = 5 * time.Second
)

func (c *Client) liveURL() string {
	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/api/live"
}

// Subscribe opens one live connection. The returned channel yields every
// pushed snapshot and is closed when the connection drops or ctx ends.
func (c *Client) Subscribe(ctx context.Context) (<-chan *state.Snapshot, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.liveURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial live updates: %w", err)
	}

	out := make(chan *state.Snapshot)
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	go func() {
		defer close(out)
		defer stop()
		defer conn.Close()

		for {
			var msg live.Message
			if err := conn.ReadJSON(&msg); err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Warn("Live connection lost", zap.Error(err))
				}
				return
			}
			if msg.Type != live.MessageTypeSnapshot || msg.Data == nil {
				continue
			}
			select {
			case out <- msg.Data:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Follow keeps a live subscription open until ctx ends, reconnecting with
// exponential backoff, and forwards every snapshot into the returned channel.
// A reconnect always starts with the server's latest snapshot, so nothing
// is missed beyond intermediate versions.
func (c *Client) Follow(ctx context.Context) <-chan *state.Snapshot {
	out := make(chan *state.Snapshot)

	go func() {
		defer close(out)
		delay := initialRetryDelay

		for attempt := 1; ctx.Err() == nil; attempt++ {
			snapshots, err := c.Subscribe(ctx)
			if err != nil {
				c.logger.Debug("Live endpoint not ready, retrying...",
					zap.Int("attempt", attempt),
					zap.Duration("retry_delay", delay),
					zap.Error(err))
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return
				}
				delay *= 2
				if delay > maxRetryDelay {
					delay = maxRetryDelay
				}
				continue
			}

			c.logger.Info("Live updates connected", zap.Int("attempt", attempt))
			delay = initialRetryDelay
			for snap := range snapshots {
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
