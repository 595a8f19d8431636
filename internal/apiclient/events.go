package apiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/marksapp/marks/internal/notify"
)

// sseSubscription adapts one SSE connection to the notify.Subscription
// interface. Closing cancels the request, which ends the reader goroutine,
// which closes the event channel.
type sseSubscription struct {
	cancel context.CancelFunc
	ch     chan notify.Event
	once   sync.Once
}

func (s *sseSubscription) Events() <-chan notify.Event { return s.ch }

func (s *sseSubscription) Close() {
	s.once.Do(s.cancel)
}

// Subscribe opens the server's SSE feed for the token's owner. Comment
// lines (heartbeats) and malformed payloads are skipped; the channel closes
// when the connection drops. The caller decides whether to reconnect.
func (c *Client) Subscribe(ctx context.Context) (notify.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/events", nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The feed is long-lived; the default client timeout would kill it.
	stream := &http.Client{Transport: c.http.Transport}
	resp, err := stream.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		err := apiError(resp)
		resp.Body.Close()
		cancel()
		return nil, err
	}

	sub := &sseSubscription{cancel: cancel, ch: make(chan notify.Event, 64)}
	go func() {
		defer close(sub.ch)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var ev notify.Event
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
				continue
			}
			select {
			case sub.ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub, nil
}
