// SPDX-License-Identifier: MIT
package transport

import (
	"analyzer/internal/analysis"
	"analyzer/internal/log"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// FramesPath is the WebSocket endpoint.
const FramesPath = "/frames"

const (
	websocketQueueSize    = 64
	websocketWriteTimeout = time.Second
)

// WebSocketRenderer serves frames as JSON messages to every client
// connected to FramesPath. Frames arriving faster than the minimum interval
// are skipped and frames that do not fit the queue are dropped.
type WebSocketRenderer struct {
	listener  net.Listener
	server    *http.Server
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]struct{}
	clientsMu sync.Mutex
	broadcast chan *FrameMessage
	throttle  throttle

	dropped atomic.Uint64
	sent    atomic.Uint64
	closed  atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewWebSocketRenderer listens on addr and starts serving. Use port 0 to
// pick a free port and Addr to find it.
func NewWebSocketRenderer(addr string, minInterval time.Duration) (*WebSocketRenderer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	r := &WebSocketRenderer{
		listener: listener,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16384,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local dashboards are served from anywhere.
			},
		},
		clients:   make(map[*websocket.Conn]struct{}),
		broadcast: make(chan *FrameMessage, websocketQueueSize),
		throttle:  throttle{interval: minInterval},
		done:      make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(FramesPath, r.handleWebSocket)
	r.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		log.Infof("websocket: serving frames on ws://%s%s", listener.Addr(), FramesPath)
		if err := r.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("websocket: server error: %v", err)
		}
	}()
	go func() {
		defer r.wg.Done()
		r.handleBroadcasts()
	}()
	return r, nil
}

// Addr returns the address the server listens on.
func (r *WebSocketRenderer) Addr() string { return r.listener.Addr().String() }

// Clients returns the number of connected clients.
func (r *WebSocketRenderer) Clients() int {
	r.clientsMu.Lock()
	defer r.clientsMu.Unlock()
	return len(r.clients)
}

// Sent returns how many frames were queued for broadcast.
func (r *WebSocketRenderer) Sent() uint64 { return r.sent.Load() }

// Dropped returns how many frames were discarded because the queue was full.
func (r *WebSocketRenderer) Dropped() uint64 { return r.dropped.Load() }

// Render queues frame for broadcast without blocking.
func (r *WebSocketRenderer) Render(frame *analysis.Frame) {
	if r.closed.Load() || !r.throttle.allow(frame.Time) {
		return
	}
	select {
	case r.broadcast <- NewFrameMessage(frame):
		r.sent.Add(1)
	default:
		if r.dropped.Add(1)%100 == 1 {
			log.Warnf("websocket: broadcast queue full, dropped %d frames", r.dropped.Load())
		}
	}
}

func (r *WebSocketRenderer) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Warnf("websocket: upgrade error: %v", err)
		return
	}

	r.clientsMu.Lock()
	r.clients[conn] = struct{}{}
	total := len(r.clients)
	r.clientsMu.Unlock()
	log.Infof("websocket: client %s connected, total: %d", conn.RemoteAddr(), total)

	// Drain client messages until the connection goes away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				r.removeClient(conn)
				return
			}
		}
	}()
}

func (r *WebSocketRenderer) removeClient(conn *websocket.Conn) {
	r.clientsMu.Lock()
	_, ok := r.clients[conn]
	delete(r.clients, conn)
	total := len(r.clients)
	r.clientsMu.Unlock()

	if ok {
		conn.Close()
		log.Infof("websocket: client %s disconnected, total: %d", conn.RemoteAddr(), total)
	}
}

func (r *WebSocketRenderer) handleBroadcasts() {
	for {
		select {
		case <-r.done:
			return
		case msg := <-r.broadcast:
			r.clientsMu.Lock()
			for conn := range r.clients {
				conn.SetWriteDeadline(time.Now().Add(websocketWriteTimeout))
				if err := conn.WriteJSON(msg); err != nil {
					log.Warnf("websocket: error sending to %s: %v", conn.RemoteAddr(), err)
					conn.Close()
					delete(r.clients, conn)
				}
			}
			r.clientsMu.Unlock()
		}
	}
}

// Close stops the server and disconnects every client.
func (r *WebSocketRenderer) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	log.Infof("websocket: closing server")

	err := r.server.Close()
	close(r.done)
	r.wg.Wait()

	r.clientsMu.Lock()
	for conn := range r.clients {
		conn.Close()
	}
	clear(r.clients)
	r.clientsMu.Unlock()
	return err
}

var _ Renderer = (*WebSocketRenderer)(nil)
