package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/wisdomcircle/circled/internal/models"
	"github.com/wisdomcircle/circled/internal/session"
)

const (
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
)

// Subscribe opens the daemon's event stream and invokes fn for every
// message event. The connection is re-established with backoff after a
// drop; a reconnect can redeliver recent messages, which the session's
// id dedupe absorbs. Close the returned subscription to stop.
func (c *Client) Subscribe(fn func(models.Message)) (session.Subscription, error) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &streamSub{cancel: cancel}
	go c.follow(ctx, fn)
	return sub, nil
}

// streamSub cancels the follow goroutine. Close may be called from
// inside the delivery callback, so it does not wait for the goroutine
// to exit.
type streamSub struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (s *streamSub) Close() {
	s.once.Do(s.cancel)
}

func (c *Client) follow(ctx context.Context, fn func(models.Message)) {
	delay := reconnectBaseDelay
	for {
		err := c.readStream(ctx, fn)
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn().Err(err).Dur("retry_in", delay).Msg("event stream dropped, reconnecting")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
	}
}

func (c *Client) readStream(ctx context.Context, fn func(models.Message)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/messages/stream", nil)
	if err != nil {
		return models.TransportError("stream", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// No client timeout here, the stream stays open indefinitely.
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		return models.TransportError("stream", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.TransportError("stream", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var msg models.Message
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			c.logger.Warn().Err(err).Str("line", line).Msg("skipping malformed stream event")
			continue
		}
		fn(msg)
	}
	return scanner.Err()
}
