package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"ticksim.ai/internal/protocol"
	"ticksim.ai/internal/sim/engine"
)

type Options struct {
	MaxQueue    int
	ReadTimeout time.Duration
}

type Server struct {
	engine *engine.Engine
	log    *log.Logger
	opts   Options

	sessions atomic.Uint64
	upgrader websocket.Upgrader

	mu      sync.Mutex
	conns   map[*websocket.Conn]struct{}
	closing bool
	active  sync.WaitGroup
}

func NewServer(e *engine.Engine, logger *log.Logger, opts Options) *Server {
	if opts.MaxQueue <= 0 {
		opts.MaxQueue = 16
	}
	if opts.MaxQueue > 256 {
		opts.MaxQueue = 256
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 60 * time.Second
	}
	return &Server{
		engine: e,
		log:    logger,
		opts:   opts,
		conns:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if !s.track(conn) {
			closeWith(conn, "shutting down")
			return
		}
		defer s.untrack(conn)

		sessionID, ok := s.handshake(conn)
		if !ok {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		out := make(chan []byte, s.opts.MaxQueue)

		// Writer goroutine.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. Commands are applied in arrival order; the engine
		// serializes them against every other session.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			res := s.handleMessage(msg)
			b, err := json.Marshal(res)
			if err != nil {
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}
		cancel()
		<-done
		if s.log != nil {
			s.log.Printf("session %s closed", sessionID)
		}
	}
}

func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	s.active.Add(1)
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.active.Done()
}

// Shutdown closes every hijacked connection and waits for their handlers to
// return, so no command reaches the engine afterwards. http.Server.Shutdown
// does not track upgraded connections; call this after it.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	for conn := range s.conns {
		closeWith(conn, "shutting down")
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handshake(conn *websocket.Conn) (string, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return "", false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, "bad HELLO")
		return "", false
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return "", false
	}
	if hello.ClientName == "" {
		hello.ClientName = "client"
	}

	sessionID := fmt.Sprintf("S%06d", s.sessions.Add(1))
	cfg := s.engine.Config()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		EngineID:        cfg.ID,
		Mode:            string(cfg.Mode),
		MoveMode:        string(cfg.MoveMode),
		Tick:            s.engine.CurrentTick(),
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", false
	}
	if s.log != nil {
		s.log.Printf("session %s opened client=%s", sessionID, hello.ClientName)
	}
	return sessionID, true
}

func (s *Server) handleMessage(msg []byte) protocol.ResultMsg {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return failure("", protocol.ErrProtoBadRequest, "invalid json")
	}
	if base.Type != protocol.TypeCmd {
		return failure("", protocol.ErrProtoBadRequest, "unexpected message type "+base.Type)
	}
	var cmd protocol.CmdMsg
	if err := json.Unmarshal(msg, &cmd); err != nil {
		return failure("", protocol.ErrProtoBadRequest, "bad CMD")
	}
	if cmd.ProtocolVersion != protocol.Version {
		return failure(cmd.ID, protocol.ErrProtoBadRequest, "bad protocol_version")
	}
	if strings.TrimSpace(cmd.ID) == "" {
		return failure("", protocol.ErrProtoBadRequest, "missing id")
	}
	return s.Apply(cmd)
}

// Apply executes one command against the engine. Single-entity engines
// ignore EntityID.
func (s *Server) Apply(cmd protocol.CmdMsg) protocol.ResultMsg {
	e := s.engine
	single := e.Config().Mode == engine.ModeSingle
	id := engine.EntityID(cmd.EntityID)
	if single {
		id = engine.SingleEntityID
	}

	// Every count reported back comes from the same lock acquisition as the
	// operation itself.
	var count uint64
	switch cmd.Op {
	case protocol.OpReset:
		e.Reset()
	case protocol.OpRegister:
		if single {
			return failure(cmd.ID, protocol.ErrBadRequest, "REGISTER is not available on a single-entity engine")
		}
		count = e.RegisterEntity(id, engine.Vec2{X: cmd.X, Y: cmd.Y})
	case protocol.OpAdvance:
		dir, ok := engine.ParseDirection(cmd.Direction)
		if cmd.Direction == "" {
			dir, ok = engine.DirNone, true
		}
		if !ok {
			return failure(cmd.ID, protocol.ErrBadRequest, "unknown direction "+cmd.Direction)
		}
		count = e.AdvanceTick(id, dir) + 1
	case protocol.OpGetPosition:
		pos, n := e.PositionWithCount(id)
		return withPos(cmd.ID, n, pos)
	case protocol.OpGetTickCount:
		count = e.TickCount()
	case protocol.OpGetPositionAtTick:
		pos, n := e.PositionAtTickWithCount(id, cmd.TickIndex)
		return withPos(cmd.ID, n, pos)
	default:
		return failure(cmd.ID, protocol.ErrUnknownOp, "unknown op "+cmd.Op)
	}
	return protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		AckFor:          cmd.ID,
		OK:              true,
		TickCount:       count,
	}
}

func withPos(ackFor string, count uint64, p engine.Vec2) protocol.ResultMsg {
	pos := [2]float32{p.X, p.Y}
	return protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		AckFor:          ackFor,
		OK:              true,
		TickCount:       count,
		Pos:             &pos,
	}
}

func failure(ackFor, code, message string) protocol.ResultMsg {
	return protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		AckFor:          ackFor,
		Code:            code,
		Message:         message,
	}
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
