// Package broadcast maintains group membership for live station displays and
// pushes tree updates to every member of an affected group. Membership is
// in-memory only: a push iterates current members at push time, and a missed
// push is recoverable because a client can always request a full tree.
package broadcast

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
)

// WorkOrderGroup is the group key for all displays watching one work order.
func WorkOrderGroup(workOrderID string) string {
	return "workorder-" + workOrderID
}

// StationGroup is the group key for all displays of one station type.
func StationGroup(station string) string {
	return strings.ToLower(station) + "-station"
}

// Hub maintains the set of active clients and their group memberships.
type Hub struct {
	mu sync.RWMutex

	// groups maps a group key to its member set.
	groups map[string]map[*Client]bool

	// stationOf tracks the single station group a client belongs to, so a
	// station join can implicitly leave the previous one.
	stationOf map[*Client]string
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		groups:    make(map[string]map[*Client]bool),
		stationOf: make(map[*Client]string),
	}
}

// Join adds a client to a group. Joining an already-joined group is a no-op.
func (h *Hub) Join(c *Client, group string) {
	if group == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.join(c, group)
}

func (h *Hub) join(c *Client, group string) {
	members, ok := h.groups[group]
	if !ok {
		members = make(map[*Client]bool)
		h.groups[group] = members
	}
	members[c] = true
}

// Leave removes a client from a group. Leaving a group never joined is a
// no-op, not an error.
func (h *Hub) Leave(c *Client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(c, group)
}

func (h *Hub) leave(c *Client, group string) {
	if members, ok := h.groups[group]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
	if h.stationOf[c] == group {
		delete(h.stationOf, c)
	}
}

// JoinStation puts a client into a station-type group. A client belongs to at
// most one station group; joining a second implicitly leaves the first.
func (h *Hub) JoinStation(c *Client, station string) {
	group := StationGroup(station)
	h.mu.Lock()
	defer h.mu.Unlock()
	if prev, ok := h.stationOf[c]; ok && prev != group {
		h.leave(c, prev)
	}
	h.join(c, group)
	h.stationOf[c] = group
}

// Remove drops a client from every group. Called when the connection closes.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for group, members := range h.groups {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
	delete(h.stationOf, c)
}

// Members reports how many clients are currently in a group.
func (h *Hub) Members(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// InGroup reports whether a client is currently a member of a group.
func (h *Hub) InGroup(c *Client, group string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.groups[group][c]
}

// Broadcast pushes a payload to every current member of a group. Delivery is
// best-effort: a client with a full send buffer is skipped, not blocked on.
func (h *Hub) Broadcast(group string, payload interface{}) {
	msg, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️ Broadcast marshal failed for %s: %v", group, err)
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.groups[group]))
	for c := range h.groups[group] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		select {
		case c.send <- msg:
		default:
			// Buffer full or client dead; it can re-request a full tree.
		}
	}
}
