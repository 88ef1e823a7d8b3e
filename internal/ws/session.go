// Package ws binds one upgraded WebSocket connection to the session registry.
//
// A Session registers its delivery channel on Run, then runs two loops: the
// read loop handles inbound frames and detects disconnects, the write loop
// drains the delivery channel onto the wire and sends keepalive pings. Only
// the write loop writes data frames. Whichever loop ends first tears the
// session down; the registry entry is released exactly once.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"coursehub/internal/hub"
	"coursehub/internal/model"
)

const (
	// writeWait is the deadline for a single frame write.
	writeWait = 10 * time.Second

	// pongWait is how long the peer may stay silent before the session is
	// considered dead.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024
)

type State int32

const (
	StateConnecting State = iota
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Registry is the part of hub.Registry a session needs.
type Registry interface {
	Register(userID string, sink hub.Sink)
	Release(userID string, sink hub.Sink) bool
}

type Session struct {
	userID   string
	conn     *websocket.Conn
	sink     *hub.Channel
	registry Registry
	log      *zap.Logger

	state     atomic.Int32
	closeOnce sync.Once
}

func NewSession(conn *websocket.Conn, userID string, registry Registry, bufferSize int, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		userID:   userID,
		conn:     conn,
		sink:     hub.NewChannel(bufferSize),
		registry: registry,
		log:      logger.With(zap.String("user_id", userID)),
	}
}

func (s *Session) UserID() string { return s.userID }

func (s *Session) State() State { return State(s.state.Load()) }

// Run registers the session and serves it until the connection ends or ctx
// is cancelled.
func (s *Session) Run(ctx context.Context) {
	s.registry.Register(s.userID, s.sink)
	s.state.Store(int32(StateActive))
	s.log.Info("session active")

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writePump()
	}()

	stop := context.AfterFunc(ctx, s.Close)
	defer stop()

	s.readPump()
	s.Close()
	<-done

	s.state.Store(int32(StateClosed))
	s.log.Info("session closed")
}

// Close starts the teardown: the registry entry is released and the delivery
// channel closed, which makes the write loop send a close frame and drop the
// connection. Safe to call more than once and from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.state.CompareAndSwap(int32(StateActive), int32(StateClosing))
		s.registry.Release(s.userID, s.sink)
		s.sink.Close()
	})
}

func (s *Session) readPump() {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		typ, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				s.log.Debug("read failed", zap.Error(err))
			}
			return
		}
		// any inbound traffic proves the peer is alive
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		if typ != websocket.TextMessage {
			continue
		}
		s.handleText(data)
	}
}

type clientMessage struct {
	Type string `json:"type"`
}

func (s *Session) handleText(data []byte) {
	var reply model.Envelope
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err == nil && msg.Type == model.EnvelopePing {
		reply = model.Envelope{Type: model.EnvelopePong}
	} else {
		reply = model.Envelope{Type: model.EnvelopeEcho, Body: string(data)}
	}

	out, err := json.Marshal(reply)
	if err != nil {
		return
	}
	if !s.sink.Send(out) {
		s.log.Debug("reply dropped", zap.String("type", reply.Type))
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.sink.C():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.log.Debug("write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.log.Debug("ping failed", zap.Error(err))
				return
			}
		}
	}
}
