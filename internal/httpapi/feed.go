package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ent0n29/taskboard/internal/tasks"
)

const (
	feedWriteTimeout = 10 * time.Second
	feedPongWait     = 60 * time.Second
	feedPingEvery    = 50 * time.Second
)

type feedSnapshot struct {
	Type  string       `json:"type"`
	Tasks []tasks.Task `json:"tasks"`
}

// handleTaskFeed streams the board to a websocket client: one "snapshot"
// message with the current list, then every store event as it happens.
// Inbound messages are read only to notice the client going away.
func (s *Server) handleTaskFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Subscribe before the snapshot so nothing between the two is missed.
	// A change racing the snapshot may show up in both.
	events, unsubscribe := s.store.Subscribe()
	defer unsubscribe()

	s.metrics.WSClients.Inc()
	defer s.metrics.WSClients.Dec()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()

		write := func(v any, typ string) bool {
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := conn.WriteJSON(v); err != nil {
				return false
			}
			s.metrics.WSMessages.WithLabelValues(typ).Inc()
			return true
		}

		if !write(feedSnapshot{Type: "snapshot", Tasks: s.store.List()}, "snapshot") {
			return
		}

		ping := time.NewTicker(feedPingEvery)
		defer ping.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				if !write(evt, string(evt.Type)) {
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteTimeout)); err != nil {
					return
				}
			}
		}
	}()

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
		return nil
	})
	go func() {
		<-ctx.Done()
		// Unblock ReadMessage when the writer gives up first.
		_ = conn.SetReadDeadline(time.Now())
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	cancel()
	<-writerDone
}
