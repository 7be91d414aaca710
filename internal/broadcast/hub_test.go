package broadcast

import (
	"encoding/json"
	"testing"
)

func TestGroupKeys(t *testing.T) {
	if got := WorkOrderGroup("WO-1"); got != "workorder-WO-1" {
		t.Errorf("WorkOrderGroup = %q", got)
	}
	if got := StationGroup("CNC"); got != "cnc-station" {
		t.Errorf("StationGroup = %q", got)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub)
	group := WorkOrderGroup("WO-1")

	hub.Join(c, group)
	hub.Join(c, group)
	hub.Join(c, group)

	if n := hub.Members(group); n != 1 {
		t.Errorf("Members = %d after repeated joins, want 1", n)
	}
}

func TestLeaveNeverJoinedIsNoop(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub)

	// Must not panic or create the group.
	hub.Leave(c, WorkOrderGroup("WO-1"))
	if n := hub.Members(WorkOrderGroup("WO-1")); n != 0 {
		t.Errorf("Members = %d, want 0", n)
	}
}

func TestLeaveCleansUpEmptyGroup(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub)
	group := WorkOrderGroup("WO-1")

	hub.Join(c, group)
	hub.Leave(c, group)
	hub.Leave(c, group) // second leave is a no-op

	if hub.InGroup(c, group) {
		t.Error("client still in group after leave")
	}
	if n := hub.Members(group); n != 0 {
		t.Errorf("Members = %d, want 0", n)
	}
}

// A display belongs to at most one station group; joining a second leaves the
// first implicitly.
func TestSingleStationGroup(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub)

	hub.JoinStation(c, "cnc")
	hub.JoinStation(c, "sorting")

	if hub.InGroup(c, StationGroup("cnc")) {
		t.Error("client still in cnc-station after joining sorting")
	}
	if !hub.InGroup(c, StationGroup("sorting")) {
		t.Error("client not in sorting-station")
	}

	// Re-joining the same station stays put.
	hub.JoinStation(c, "sorting")
	if n := hub.Members(StationGroup("sorting")); n != 1 {
		t.Errorf("Members = %d, want 1", n)
	}
}

func TestStationAndWorkOrderGroupsAreIndependent(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub)

	hub.Join(c, WorkOrderGroup("WO-1"))
	hub.JoinStation(c, "cnc")
	hub.JoinStation(c, "sorting")

	if !hub.InGroup(c, WorkOrderGroup("WO-1")) {
		t.Error("station switch must not affect work-order membership")
	}
}

func TestBroadcastReachesOnlyGroupMembers(t *testing.T) {
	hub := NewHub()
	in := NewClient(hub)
	out := NewClient(hub)
	group := WorkOrderGroup("WO-1")

	hub.Join(in, group)
	hub.Join(out, WorkOrderGroup("WO-2"))

	hub.Broadcast(group, map[string]string{"type": "TREE_UPDATE"})

	raw, ok := in.Receive()
	if !ok {
		t.Fatal("member received nothing")
	}
	var msg map[string]string
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg["type"] != "TREE_UPDATE" {
		t.Errorf("type = %q, want TREE_UPDATE", msg["type"])
	}

	if _, ok := out.Receive(); ok {
		t.Error("non-member received a group broadcast")
	}
}

func TestBroadcastToEmptyGroup(t *testing.T) {
	hub := NewHub()
	// Must not panic.
	hub.Broadcast(WorkOrderGroup("WO-NONE"), map[string]string{"type": "TREE_UPDATE"})
}

func TestBroadcastSkipsFullBuffer(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, send: make(chan []byte), ConnID: "test_slow"} // unbuffered, nobody reading
	ok := NewClient(hub)
	group := WorkOrderGroup("WO-1")
	hub.Join(slow, group)
	hub.Join(ok, group)

	// Must not block on the dead client.
	hub.Broadcast(group, map[string]string{"type": "TREE_UPDATE"})

	if _, got := ok.Receive(); !got {
		t.Error("healthy client starved by slow peer")
	}
}

func TestRemoveDropsAllGroups(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub)
	hub.Join(c, WorkOrderGroup("WO-1"))
	hub.Join(c, WorkOrderGroup("WO-2"))
	hub.JoinStation(c, "cnc")

	hub.Remove(c)

	for _, g := range []string{WorkOrderGroup("WO-1"), WorkOrderGroup("WO-2"), StationGroup("cnc")} {
		if hub.InGroup(c, g) {
			t.Errorf("client still in %s after Remove", g)
		}
	}
}
