package http

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"amia-console/internal/app"
	"amia-console/internal/console/page"
	"amia-console/internal/datastore"
	"amia-console/internal/domain"
	"amia-console/internal/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

const maxMessageSize = 64 << 10

// ConsoleDeps are shared by every console the handler opens.
type ConsoleDeps struct {
	Store         *datastore.Store
	Auth          app.SessionProvider
	ToastDuration time.Duration
	Log           *logger.Logger
}

// WSHandler runs one console per WebSocket connection.
type WSHandler struct {
	deps     ConsoleDeps
	log      *logger.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewWSHandler(deps ConsoleDeps) *WSHandler {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &WSHandler{
		deps:  deps,
		log:   log.Named("ws"),
		conns: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     sameOrigin,
		},
	}
}

// inboundMessage is what a client sends: a navigation or an action on the
// current view.
type inboundMessage struct {
	Type   string              `json:"type"`
	Path   string              `json:"path,omitempty"`
	Action string              `json:"action,omitempty"`
	Target string              `json:"target,omitempty"`
	Values map[string][]string `json:"values,omitempty"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type locationPayload struct {
	Path string `json:"path"`
}

type sessionPayload struct {
	Token   string          `json:"token"`
	Session *domain.Session `json:"session"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// connSink forwards console output to the connection writer. Sends give up
// once the connection is going away so the console loop never blocks on a
// dead client.
type connSink struct {
	send chan<- outboundMessage
	gone <-chan struct{}
}

func (s connSink) push(msg outboundMessage) {
	select {
	case s.send <- msg:
	case <-s.gone:
	}
}

func (s connSink) ShowFrame(f page.Frame) {
	s.push(outboundMessage{Type: "frame", Payload: f})
}

func (s connSink) ShowToast(t *page.Toast) {
	s.push(outboundMessage{Type: "toast", Payload: t})
}

func (s connSink) ShowLocation(path string) {
	s.push(outboundMessage{Type: "location", Payload: locationPayload{Path: path}})
}

func (s connSink) ShowSession(token string, session *domain.Session) {
	s.push(outboundMessage{Type: "session", Payload: sessionPayload{Token: token, Session: session}})
}

// ServeWS upgrades the request and attaches a console to the connection.
// The optional query parameters are path (initial location) and token
// (session to restore).
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	token := r.URL.Query().Get("token")
	if path != "" && !strings.HasPrefix(path, "/") {
		http.Error(w, "path must be absolute", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)
	h.track(conn, true)
	defer h.track(conn, false)

	log := h.log.With("request_id", middleware.GetReqID(r.Context()))
	send := make(chan outboundMessage, 16)
	gone := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write failed", "error", err)
				// Unblocks the reader below.
				_ = conn.Close()
				for range send {
				}
				return
			}
		}
	}()

	sink := connSink{send: send, gone: gone}
	console := app.NewConsole(app.Options{
		Store:         h.deps.Store,
		Auth:          h.deps.Auth,
		Sink:          sink,
		Path:          path,
		ToastDuration: h.deps.ToastDuration,
		Log:           log,
	})
	console.Start(r.Context(), token)
	log.Debug("console opened", "path", path)

	for {
		var in inboundMessage
		if err := conn.ReadJSON(&in); err != nil {
			break
		}
		switch in.Type {
		case "navigate":
			if !strings.HasPrefix(in.Path, "/") {
				sink.push(outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid path"}})
				continue
			}
			console.Navigate(in.Path)
		case "action":
			if in.Action == "" {
				sink.push(outboundMessage{Type: "error", Payload: errorPayload{Message: "missing action"}})
				continue
			}
			console.Dispatch(in.Action, in.Target, url.Values(in.Values))
		default:
			sink.push(outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(gone)
	console.Close()
	close(send)
	<-writerDone
	log.Debug("console closed")
}

// CloseAll disconnects every open console. The server calls it on shutdown
// since hijacked connections outlive http.Server.Shutdown.
func (h *WSHandler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for conn := range h.conns {
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	}
}

func (h *WSHandler) track(conn *websocket.Conn, open bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if open {
		h.conns[conn] = struct{}{}
	} else {
		delete(h.conns, conn)
	}
}

// sameOrigin accepts clients without an Origin header and browsers whose
// origin host matches the request host, ports ignored.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := r.Host
	if h, _, err := net.SplitHostPort(r.Host); err == nil {
		host = h
	}
	return strings.EqualFold(u.Hostname(), host)
}
