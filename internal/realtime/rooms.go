package realtime

import (
	"log/slog"
	"sync"
)

// Rooms is the room router: a bidirectional index between room ids and the
// connections joined to them. Membership is connection-scoped and vanishes
// with the connection; rooms themselves have no persisted representation.
type Rooms struct {
	mu      sync.RWMutex
	members map[string]map[*Client]struct{}
	joined  map[*Client]map[string]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[string]map[*Client]struct{}),
		joined:  make(map[*Client]map[string]struct{}),
	}
}

// Join adds the connection to the room. It reports false, without mutating
// anything, when the connection is already a member.
func (r *Rooms) Join(c *Client, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.joined[c][roomID]; ok {
		return false
	}

	if r.members[roomID] == nil {
		r.members[roomID] = make(map[*Client]struct{})
	}
	r.members[roomID][c] = struct{}{}

	if r.joined[c] == nil {
		r.joined[c] = make(map[string]struct{})
	}
	r.joined[c][roomID] = struct{}{}
	return true
}

// Leave removes the connection from the room; no-op if it was not a member.
func (r *Rooms) Leave(c *Client, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leave(c, roomID)
}

// LeaveAll removes the connection from every room it joined.
func (r *Rooms) LeaveAll(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID := range r.joined[c] {
		r.leave(c, roomID)
	}
	delete(r.joined, c)
}

func (r *Rooms) leave(c *Client, roomID string) {
	if clients, ok := r.members[roomID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(r.members, roomID)
		}
	}
	if rooms, ok := r.joined[c]; ok {
		delete(rooms, roomID)
	}
}

// Broadcast queues payload on every connection currently in the room and
// returns the number of connections reached. An empty room is a silent no-op:
// there is no queuing or replay for absent members. A member whose send
// buffer is full misses the event rather than blocking the router.
func (r *Rooms) Broadcast(roomID string, payload []byte) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients, ok := r.members[roomID]
	if !ok {
		return 0
	}

	sent := 0
	for c := range clients {
		select {
		case c.send <- payload:
			sent++
		default:
			slog.Warn("send buffer full, dropping event",
				slog.String("conn", c.ID), slog.String("room", roomID))
		}
	}
	return sent
}

// RoomCount reports how many connections are in the room.
func (r *Rooms) RoomCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members[roomID])
}
