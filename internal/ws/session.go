package ws

import (
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"
	"github.com/tablelobby/backend/internal/auth"
	"github.com/tablelobby/backend/internal/lobby"
)

const sendBuffer = 64

// session is one client connection's protocol state machine: unauthenticated
// until a successful login, then optionally subscribed to the lobby stream.
// All state transitions happen on the read loop goroutine.
type session struct {
	conn *websocket.Conn
	hub  *lobby.Hub
	auth auth.Checker

	send chan []byte // outbound frames, drained by writePump

	role    auth.Role
	sub     *lobby.Subscriber
	subDone chan struct{} // closed when the current forwarder exits
}

func newSession(conn *websocket.Conn, hub *lobby.Hub, checker auth.Checker) *session {
	return &session{
		conn: conn,
		hub:  hub,
		auth: checker,
		send: make(chan []byte, sendBuffer),
	}
}

// run processes inbound frames in receipt order until the connection drops,
// then tears the session down: the subscription is released first so the
// forwarder can finish, and only then is the outbound channel closed.
func (s *session) run() {
	go s.writePump()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			break
		}
		msg, err := Decode(data)
		if err != nil {
			s.enqueue(newError(ErrProtocol, err.Error()))
			continue
		}
		s.handle(msg)
	}

	s.stopSubscription()
	close(s.send)
}

func (s *session) writePump() {
	defer s.conn.Close()
	for msg := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (s *session) handle(msg any) {
	switch m := msg.(type) {
	case *Login:
		s.handleLogin(m)
	case *Ping:
		if s.role == auth.RoleNone {
			s.enqueue(newError(ErrAuth, "not authenticated"))
			return
		}
		s.enqueue(Pong{Type: MsgPong, Seq: m.Seq})
	case *SubscribeTables:
		s.handleSubscribe()
	case *UnsubscribeTables:
		s.handleUnsubscribe()
	case *AddTable:
		if !s.requireAdmin() {
			return
		}
		afterID := lobby.FrontID
		if m.AfterID != nil {
			afterID = *m.AfterID
		}
		// The commit broadcasts to every subscriber, this session included
		// if it is subscribed; there is no direct echo reply.
		s.hub.AddTable(afterID, m.Table.Name, m.Table.Participants)
	case *UpdateTable:
		if !s.requireAdmin() {
			return
		}
		if _, err := s.hub.UpdateTable(m.Table); err != nil {
			s.enqueue(newError(ErrNotFound, err.Error()))
		}
	case *RemoveTable:
		if !s.requireAdmin() {
			return
		}
		if _, err := s.hub.RemoveTable(m.ID); err != nil {
			s.enqueue(newError(ErrNotFound, err.Error()))
		}
	}
}

func (s *session) handleLogin(m *Login) {
	// A second login is rejected rather than re-classifying the session.
	if s.role != auth.RoleNone {
		s.enqueue(newError(ErrAlreadyAuthenticated, "already logged in"))
		return
	}
	role, ok := s.auth.Check(m.Username, m.Password)
	if !ok {
		s.enqueue(newError(ErrAuth, "invalid credentials"))
		return
	}
	s.role = role
	s.enqueue(LoginSuccessful{Type: MsgLoginSuccessful, UserType: role})
}

func (s *session) handleSubscribe() {
	if s.role == auth.RoleNone {
		s.enqueue(newError(ErrAuth, "not authenticated"))
		return
	}
	if s.sub != nil {
		// Idempotent: already streaming.
		return
	}
	tables, _, sub := s.hub.Subscribe()
	s.sub = sub
	s.subDone = make(chan struct{})
	// The snapshot enters the outbound queue before the forwarder starts, so
	// the stream is exactly the snapshot followed by events in version order.
	s.enqueue(TableList{Type: MsgTableList, Tables: tables})
	go s.forward(sub, s.subDone)
}

func (s *session) handleUnsubscribe() {
	if s.role == auth.RoleNone {
		s.enqueue(newError(ErrAuth, "not authenticated"))
		return
	}
	s.stopSubscription()
}

// forward relays committed events to the outbound queue until the
// subscription ends. A subscriber evicted by the hub for falling behind gets
// its connection closed by policy.
func (s *session) forward(sub *lobby.Subscriber, done chan struct{}) {
	defer close(done)
	for ev := range sub.Events() {
		if msg := eventMessage(ev); msg != nil {
			s.enqueue(msg)
		}
	}
	if sub.Dropped() {
		log.Printf("ws: closing connection of slow subscriber")
		s.conn.Close()
	}
}

// stopSubscription releases the hub subscription and waits for the forwarder
// to drain, so no event can be enqueued after it returns. Idempotent.
func (s *session) stopSubscription() {
	if s.sub == nil {
		return
	}
	s.hub.Unsubscribe(s.sub)
	<-s.subDone
	s.sub = nil
	s.subDone = nil
}

func (s *session) requireAdmin() bool {
	switch s.role {
	case auth.RoleAdmin:
		return true
	case auth.RoleNone:
		s.enqueue(newError(ErrAuth, "not authenticated"))
	default:
		s.enqueue(newError(ErrForbidden, "admin role required"))
	}
	return false
}

// enqueue marshals and queues one outbound frame without blocking. A full
// queue means the writePump has stalled behind a slow reader; the connection
// is closed rather than letting one client stall the session.
func (s *session) enqueue(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ws: marshal outbound: %v", err)
		return
	}
	select {
	case s.send <- data:
	default:
		log.Printf("ws: outbound queue full, closing connection")
		s.conn.Close()
	}
}
