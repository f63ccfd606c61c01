package client

import (
	"context"
	"strings"

	"github.com/gorilla/websocket"

	"grameen_connect/internal/models"
)

// Watch subscribes to the realtime feed and invalidates the request cache on every request event.
// onEvent may be nil. Watch returns when ctx is done or the connection fails.
func (s *State) Watch(ctx context.Context, onEvent func(models.RequestEvent)) error {
	wsURL, err := s.client.EventsURL()
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var event models.RequestEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if strings.HasPrefix(event.Type, "request.") {
			s.InvalidateRequests()
		}
		if onEvent != nil {
			onEvent(event)
		}
	}
}
