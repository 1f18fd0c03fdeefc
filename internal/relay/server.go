package relay

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/chatwire/chatwire/internal/config"
	"github.com/chatwire/chatwire/internal/history"
	"github.com/chatwire/chatwire/internal/protocol"
	"github.com/chatwire/chatwire/internal/registry"
)

// Server owns the websocket endpoint and wires accepted connections into
// the registry, presence tracker, typing aggregator and router.
type Server struct {
	cfg      *config.Config
	reg      *registry.Registry
	bc       *Broadcaster
	presence *Presence
	typing   *Typing
	router   *Router
	hist     *history.Client

	allowedOrigins map[string]bool
	allowedHosts   map[string]bool

	shutdownOnce sync.Once
}

func NewServer(cfg *config.Config, reg *registry.Registry, bc *Broadcaster, presence *Presence, typing *Typing, router *Router) *Server {
	s := &Server{
		cfg:            cfg,
		reg:            reg,
		bc:             bc,
		presence:       presence,
		typing:         typing,
		router:         router,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}

	if cfg.History.URL != "" {
		s.hist = history.NewClient(cfg.History.URL, cfg.History.Limit)
	}

	for _, origin := range cfg.Server.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	// A send that fails mid-broadcast drops just that session; the leave
	// announcement still goes out to everyone else.
	bc.Dropped = func(sessionID string) {
		presence.Depart(sessionID, protocol.ReasonError)
	}

	return s
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	sess := registry.NewSession(uuid.NewString(), r.URL.Query().Get("name"), conn)
	s.presence.Admit(sess)

	if s.hist != nil {
		go s.sendHistory(sess)
	}

	go s.readLoop(conn, sess)
}

// readLoop feeds inbound frames to the router until the connection dies,
// then runs the departure path with the close classified as normal or not.
func (s *Server) readLoop(conn *websocket.Conn, sess *registry.Session) {
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			reason := protocol.ReasonError
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				reason = protocol.ReasonNormal
			}
			s.typing.SignalStop(sess.DisplayName, sess.ID)
			s.presence.Depart(sess.ID, reason)
			return
		}
		s.router.Route(data, sess)
	}
}

func (s *Server) sendHistory(sess *registry.Session) {
	events, err := s.hist.Recent()
	if err != nil {
		log.Printf("history fetch failed: %v", err)
		return
	}
	if len(events) == 0 {
		return
	}
	if err := s.bc.SendTo(sess, protocol.Event{
		Type:    protocol.KindHistorySnapshot,
		Payload: protocol.HistoryPayload{Events: events},
	}); err != nil {
		log.Printf("history send to %s failed: %v", sess.ID, err)
	}
}

// Shutdown closes every live session with a normal close code.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		log.Printf("closing %d live sessions", s.reg.Len())
		s.reg.ForEach(func(sess *registry.Session) {
			s.reg.Remove(sess.ID)
			sess.Close(true)
		})
	})
}

func (s *Server) authorize(r *http.Request) bool {
	token := s.cfg.Server.AuthToken
	if token == "" {
		return true
	}
	if r.URL.Query().Get("token") == token {
		return true
	}
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == token
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}
	if host == r.Host {
		return true
	}
	if host == "localhost" || strings.HasPrefix(host, "localhost:") {
		return true
	}
	if host == "127.0.0.1" || strings.HasPrefix(host, "127.0.0.1:") {
		return true
	}
	if host == "::1" || strings.HasPrefix(host, "[::1]:") {
		return true
	}
	return false
}

func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("relay listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
