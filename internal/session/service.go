// Package session implements the per-connection state machine of the
// real-time chat core: presence announcements, room joins with history
// load, and message send with room fan-out.
package session

import (
	"sync"

	"github.com/vineet-vishwakarma/Chat-App/internal/presence"
	"github.com/vineet-vishwakarma/Chat-App/internal/room"
	"github.com/vineet-vishwakarma/Chat-App/internal/store"
)

// Conn is one live client connection. Send is best-effort and reports
// whether the frame was queued.
type Conn interface {
	ID() string
	Send(payload []byte) bool
}

// Fanout delivers frames to connections subscribed to a room, or to every
// registered connection.
type Fanout interface {
	Register(c Conn)
	Unregister(c Conn)
	Subscribe(id room.ID, c Conn)
	Broadcast(id room.ID, payload []byte)
	BroadcastGlobal(payload []byte)
}

// Service holds the collaborators shared by all sessions.
type Service struct {
	store    store.Store
	presence *presence.Registry
	fanout   Fanout
	locks    roomLocks
}

func NewService(st store.Store, reg *presence.Registry, fan Fanout) *Service {
	return &Service{
		store:    st,
		presence: reg,
		fanout:   fan,
		locks:    roomLocks{m: make(map[room.ID]*sync.Mutex)},
	}
}

// Open registers c for global delivery and returns its session.
func (s *Service) Open(c Conn) *Session {
	s.fanout.Register(c)
	return &Session{svc: s, conn: c, rooms: make(map[room.ID]struct{})}
}

// roomLocks serializes persist+broadcast per room so messages for one room
// are delivered in the order they were sent. Rooms never share a lock.
type roomLocks struct {
	mu sync.Mutex
	m  map[room.ID]*sync.Mutex
}

func (l *roomLocks) lock(id room.ID) func() {
	l.mu.Lock()
	mu, ok := l.m[id]
	if !ok {
		mu = &sync.Mutex{}
		l.m[id] = mu
	}
	l.mu.Unlock()
	mu.Lock()
	return mu.Unlock
}
