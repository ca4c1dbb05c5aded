// Package ws streams the occupancy tracker's floor/slot projection to
// websocket clients. Every recomputation is broadcast as one JSON
// document, so a map screen repaints without polling.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"spotwise/internal/domain/facility"
	"spotwise/internal/occupancy"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// OccupancyFeed is a broadcast hub over the tracker's views.
type OccupancyFeed struct {
	tracker *occupancy.Tracker
	log     *slog.Logger

	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once

	clients map[*websocket.Conn]bool
}

func NewOccupancyFeed(tracker *occupancy.Tracker, log *slog.Logger) *OccupancyFeed {
	return &OccupancyFeed{
		tracker:    tracker,
		log:        log,
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 16),
		done:       make(chan struct{}),
		clients:    make(map[*websocket.Conn]bool),
	}
}

// Start runs the hub loop and follows the tracker until Stop. Call in a
// goroutine.
func (f *OccupancyFeed) Start() {
	cancel := f.tracker.Watch(func(view facility.Facility) {
		payload, err := json.Marshal(view)
		if err != nil {
			f.log.Error("failed to encode occupancy view", slog.String("error", err.Error()))
			return
		}
		select {
		case f.broadcast <- payload:
		default:
			f.log.Warn("occupancy broadcast buffer full, dropping update")
		}
	})
	defer cancel()

	for {
		select {
		case <-f.done:
			for client := range f.clients {
				client.Close()
			}
			return

		case client := <-f.register:
			f.clients[client] = true
			if view, ok := f.tracker.Snapshot(); ok {
				if payload, err := json.Marshal(view); err == nil {
					if err := client.WriteMessage(websocket.TextMessage, payload); err != nil {
						client.Close()
						delete(f.clients, client)
					}
				}
			}

		case client := <-f.unregister:
			if _, ok := f.clients[client]; ok {
				delete(f.clients, client)
				client.Close()
			}

		case message := <-f.broadcast:
			for client := range f.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					f.log.Warn("dropping websocket client", slog.String("error", err.Error()))
					client.Close()
					delete(f.clients, client)
				}
			}
		}
	}
}

func (f *OccupancyFeed) Stop() {
	f.closeOnce.Do(func() { close(f.done) })
}

// SessionSwitcher points the live-feed session at a facility. The
// coordinator implements it.
type SessionSwitcher interface {
	Facility() string
	Start(ctx context.Context, facilityName string) error
}

// Handle upgrades the request and keeps the connection registered until
// the peer goes away. Inbound messages are discarded; the feed is
// one-way. Connecting for a different facility than the current session
// repoints the session there.
func (f *OccupancyFeed) Handle(session SessionSwitcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("facility")
		if name != "" && session.Facility() != name {
			if err := session.Start(context.Background(), name); err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": "Facility feed unavailable"})
				return
			}
		}
		f.serve(c)
	}
}

func (f *OccupancyFeed) serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		f.log.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	f.register <- conn

	go func() {
		defer func() {
			select {
			case f.unregister <- conn:
			case <-f.done:
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
