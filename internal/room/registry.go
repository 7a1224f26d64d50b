// Package room tracks which sessions are connected to which auction and
// fans events out to them. Membership is sharded per auction: the registry
// lock only guards the room map, and each room carries its own lock, so
// traffic in one auction never stalls another.
package room

import (
	"sync"

	"auction-hub/internal/protocol"
	"auction-hub/utils"
)

// outboxSize bounds how many undelivered frames a session may queue before
// broadcasts start skipping it.
const outboxSize = 256

// Session is one live connection. A session belongs to at most one room at
// a time; one identity may hold several sessions (one per browser tab).
type Session struct {
	ID     string
	UserID string

	outbox chan []byte
	done   chan struct{}
	once   sync.Once
}

// NewSession creates a session for a connected user.
func NewSession(id, userID string) *Session {
	return &Session{
		ID:     id,
		UserID: userID,
		outbox: make(chan []byte, outboxSize),
		done:   make(chan struct{}),
	}
}

// Outbox is the stream of frames the transport write loop must drain.
func (s *Session) Outbox() <-chan []byte { return s.outbox }

// Done is closed when the session shuts down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close stops delivery to this session. Safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() { close(s.done) })
}

// Send encodes an event and queues it for this session alone. Delivery is
// best-effort: a closed or backed-up session is skipped.
func (s *Session) Send(event protocol.ServerEvent) error {
	frame, err := protocol.EncodeServerEvent(event)
	if err != nil {
		return err
	}
	s.deliver(frame)
	return nil
}

// deliver reports whether the frame was queued.
func (s *Session) deliver(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.outbox <- frame:
		return true
	default:
		return false
	}
}

type room struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
}

// Registry is the concurrency-safe map from auction ID to its connected
// sessions.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*room),
	}
}

// Join adds the session to the auction's room, creating the room if absent.
// The add happens while the registry lock is still held: releasing it between
// the lookup and the add would let a concurrent Leave tear the room down and
// strand the joiner in an unregistered room object.
func (r *Registry) Join(auctionID string, s *Session) {
	r.mu.Lock()
	rm, ok := r.rooms[auctionID]
	if !ok {
		rm = &room{sessions: make(map[*Session]struct{})}
		r.rooms[auctionID] = rm
	}
	rm.mu.Lock()
	rm.sessions[s] = struct{}{}
	count := len(rm.sessions)
	rm.mu.Unlock()
	r.mu.Unlock()

	utils.Info("session joined room", map[string]any{
		"auction_id": auctionID,
		"session_id": s.ID,
		"user_id":    s.UserID,
		"members":    count,
	})
}

// Leave removes the session from the auction's room and tears the room down
// when it empties.
func (r *Registry) Leave(auctionID string, s *Session) {
	r.mu.Lock()
	rm, ok := r.rooms[auctionID]
	if !ok {
		r.mu.Unlock()
		return
	}

	rm.mu.Lock()
	delete(rm.sessions, s)
	count := len(rm.sessions)
	rm.mu.Unlock()

	if count == 0 {
		delete(r.rooms, auctionID)
	}
	r.mu.Unlock()

	utils.Info("session left room", map[string]any{
		"auction_id": auctionID,
		"session_id": s.ID,
		"user_id":    s.UserID,
		"members":    count,
	})
}

// Members returns the sessions currently registered in the room.
func (r *Registry) Members(auctionID string) []*Session {
	r.mu.RLock()
	rm, ok := r.rooms[auctionID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()
	members := make([]*Session, 0, len(rm.sessions))
	for s := range rm.sessions {
		members = append(members, s)
	}
	return members
}

// Count returns the number of sessions in the room.
func (r *Registry) Count(auctionID string) int {
	r.mu.RLock()
	rm, ok := r.rooms[auctionID]
	r.mu.RUnlock()
	if !ok {
		return 0
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.sessions)
}

// Broadcast encodes the event once and queues it for every session in the
// room except the optionally excluded one. Sessions whose outbox is full or
// already closed are skipped; the transport layer handles their eventual
// disconnect.
func (r *Registry) Broadcast(auctionID string, event protocol.ServerEvent, exclude *Session) error {
	frame, err := protocol.EncodeServerEvent(event)
	if err != nil {
		return err
	}

	delivered := 0
	skipped := 0
	for _, s := range r.Members(auctionID) {
		if s == exclude {
			continue
		}
		if s.deliver(frame) {
			delivered++
		} else {
			skipped++
		}
	}

	utils.Debug("broadcast", map[string]any{
		"auction_id": auctionID,
		"delivered":  delivered,
		"skipped":    skipped,
	})
	return nil
}
