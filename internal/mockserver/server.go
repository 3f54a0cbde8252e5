// Package mockserver provides a scriptable websocket endpoint that mimics the
// ways a remote service can behave towards the probe.
package mockserver

import (
	"fmt"
	"math/rand"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lucasepe/codename"
	"github.com/suyog1pathak/wsprobe/internal/model"
	"github.com/suyog1pathak/wsprobe/pkg/logger"
)

// Behavior selects how the server treats each connection
type Behavior string

const (
	BehaviorSilent         Behavior = "silent"           // accept, never write
	BehaviorAck            Behavior = "ack"              // reply {"type":"ack"} to config messages
	BehaviorGreet          Behavior = "greet"            // send Greeting on connect, then ack
	BehaviorCloseOnConnect Behavior = "close-on-connect" // close right after the upgrade
	BehaviorCloseOnMessage Behavior = "close-on-message" // close on the first inbound message
	BehaviorReject         Behavior = "reject"           // refuse the upgrade with RejectStatus
)

// Behaviors lists every supported behavior
var Behaviors = []Behavior{
	BehaviorSilent, BehaviorAck, BehaviorGreet,
	BehaviorCloseOnConnect, BehaviorCloseOnMessage, BehaviorReject,
}

const drainTimeout = 2 * time.Second

// Config holds the server script
type Config struct {
	Behavior     Behavior
	Greeting     string
	CloseCode    int
	CloseReason  string
	RejectStatus int
}

// Server is an http.Handler that upgrades every request to a websocket session
type Server struct {
	cfg      Config
	upgrader websocket.Upgrader

	mu       sync.Mutex
	rng      *rand.Rand
	received [][]byte
	sessions []string
}

// New creates a mock server, filling in defaults for unset fields
func New(cfg Config) (*Server, error) {
	if cfg.Behavior == "" {
		cfg.Behavior = BehaviorSilent
	}
	if !slices.Contains(Behaviors, cfg.Behavior) {
		return nil, fmt.Errorf("unknown behavior %q", cfg.Behavior)
	}
	if cfg.CloseCode == 0 {
		cfg.CloseCode = websocket.CloseNormalClosure
	}
	if cfg.RejectStatus == 0 {
		cfg.RejectStatus = http.StatusForbidden
	}
	if cfg.Greeting == "" {
		cfg.Greeting = "hello"
	}

	rng, err := codename.DefaultRNG()
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg: cfg,
		rng: rng,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}, nil
}

// Received returns a copy of every message read from clients, in arrival order
func (s *Server) Received() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]byte, len(s.received))
	copy(out, s.received)
	return out
}

// Sessions returns the names of the sessions accepted so far
func (s *Server) Sessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.sessions...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Behavior == BehaviorReject {
		logger.Info("Rejecting websocket upgrade", "remote", r.RemoteAddr, "status", s.cfg.RejectStatus)
		http.Error(w, "rejected by mock server", s.cfg.RejectStatus)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	name := s.openSession()
	log := logger.With("session", name, "behavior", s.cfg.Behavior)
	log.Info("Session opened", "remote", r.RemoteAddr)

	switch s.cfg.Behavior {
	case BehaviorCloseOnConnect:
		s.closeSession(conn)
		return
	case BehaviorGreet:
		if err := conn.WriteMessage(websocket.TextMessage, []byte(s.cfg.Greeting)); err != nil {
			log.Error("Failed to send greeting", "error", err)
			return
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Info("Session ended", "error", err)
			return
		}
		s.record(data)
		log.Debug("Message received", "payload", string(data))

		switch s.cfg.Behavior {
		case BehaviorCloseOnMessage:
			s.closeSession(conn)
			return
		case BehaviorAck, BehaviorGreet:
			msg, err := model.DecodeControlMessage(data)
			if err != nil || msg.Type != model.MessageTypeConfig {
				continue
			}
			reply, err := model.NewAckMessage().Encode()
			if err != nil {
				log.Error("Failed to encode ack", "error", err)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
				log.Error("Failed to send ack", "error", err)
				return
			}
		}
	}
}

func (s *Server) openSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := codename.Generate(s.rng, 0)
	s.sessions = append(s.sessions, name)
	return name
}

func (s *Server) record(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.received = append(s.received, append([]byte(nil), data...))
}

// closeSession sends the scripted close frame and waits for the peer's reply
func (s *Server) closeSession(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(s.cfg.CloseCode, s.cfg.CloseReason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(drainTimeout)); err != nil {
		logger.Warn("Failed to send close frame", "error", err)
		return
	}

	conn.SetReadDeadline(time.Now().Add(drainTimeout))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
