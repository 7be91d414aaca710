package models

import (
	"fmt"
	"strings"
)

// PartStatus is the stored lifecycle status of a Part (and Hardware, which
// uses a configurable subset of the same sequence).
type PartStatus string

const (
	StatusPending   PartStatus = "pending"
	StatusCut       PartStatus = "cut"
	StatusSorted    PartStatus = "sorted"
	StatusAssembled PartStatus = "assembled"
	StatusShipped   PartStatus = "shipped"
)

// statusOrder defines the forward sequence. Transitions only ever move right.
var statusOrder = []PartStatus{
	StatusPending,
	StatusCut,
	StatusSorted,
	StatusAssembled,
	StatusShipped,
}

// AllStatuses returns the full ordered sequence.
func AllStatuses() []PartStatus {
	out := make([]PartStatus, len(statusOrder))
	copy(out, statusOrder)
	return out
}

// Ord returns the position of s in the lifecycle sequence, or -1 for an
// unknown value.
func (s PartStatus) Ord() int {
	for i, v := range statusOrder {
		if v == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the five known statuses.
func (s PartStatus) Valid() bool {
	return s.Ord() >= 0
}

// Before reports whether s comes strictly earlier than other in the sequence.
func (s PartStatus) Before(other PartStatus) bool {
	return s.Ord() < other.Ord()
}

// MinStatus returns the earlier of a and b in the lifecycle sequence.
func MinStatus(a, b PartStatus) PartStatus {
	if a.Ord() <= b.Ord() {
		return a
	}
	return b
}

// HardwareSequence is the ordered set of statuses a Hardware line item passes
// through. Hardware does not go through CNC or sorting, so its legal sequence
// is shorter than a Part's and is configurable per installation.
type HardwareSequence []PartStatus

// DefaultHardwareSequence is Pending -> Assembled (acknowledgement at the
// assembly station) -> Shipped.
func DefaultHardwareSequence() HardwareSequence {
	return HardwareSequence{StatusPending, StatusAssembled, StatusShipped}
}

// ParseHardwareSequence parses a comma-separated status list like
// "pending,assembled,shipped". An empty input selects the default sequence.
func ParseHardwareSequence(raw string) (HardwareSequence, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultHardwareSequence(), nil
	}
	var seq HardwareSequence
	for _, f := range strings.Split(raw, ",") {
		s := PartStatus(strings.ToLower(strings.TrimSpace(f)))
		if !s.Valid() {
			return nil, fmt.Errorf("unknown status %q in hardware sequence", f)
		}
		seq = append(seq, s)
	}
	if len(seq) < 2 || seq[len(seq)-1] != StatusShipped {
		return nil, fmt.Errorf("hardware sequence must end in %s", StatusShipped)
	}
	return seq, nil
}

// Next returns the status following cur in the sequence, or false when cur is
// terminal or not part of the sequence.
func (seq HardwareSequence) Next(cur PartStatus) (PartStatus, bool) {
	for i, s := range seq {
		if s == cur && i+1 < len(seq) {
			return seq[i+1], true
		}
	}
	return "", false
}

// Contains reports whether s is part of the sequence.
func (seq HardwareSequence) Contains(s PartStatus) bool {
	for _, v := range seq {
		if v == s {
			return true
		}
	}
	return false
}
