// Package store is the persistence collaborator for the scan engine. The
// engine only ever sees this interface; every implementation is fallible and
// latency-bearing, and callers treat any unexpected fault as storage being
// unavailable.
package store

import (
	"context"
	"errors"

	"github.com/millwork-io/shoptrak/internal/models"
)

// ErrNotFound is returned when the requested work order does not exist.
var ErrNotFound = errors.New("work order not found")

// Store loads and saves work-order aggregates. Save methods run inside a
// work-order-scoped transaction; a returned error means nothing was written.
type Store interface {
	// LoadWorkOrder returns the full aggregate: products with nested
	// subassemblies, parts, hardware and nest sheets with part assignments.
	LoadWorkOrder(ctx context.Context, id string) (*models.WorkOrder, error)

	// SaveTransition persists the entities mutated by one status transition
	// in a single transaction.
	SaveTransition(ctx context.Context, workOrderID string, parts []*models.Part, hardware []*models.Hardware, sheets []*models.NestSheet) error

	// FindWorkOrderIDForBarcode resolves which work order an entity barcode
	// belongs to, for scans that arrive without an active work order.
	// Returns ErrNotFound when no loaded entity carries the id.
	FindWorkOrderIDForBarcode(ctx context.Context, barcode string) (string, error)

	// ArchiveWorkOrder stamps ArchivedAt on the work order.
	ArchiveWorkOrder(ctx context.Context, id string) error

	// RecentNestSheets returns the most recently processed sheets of a work
	// order, newest first.
	RecentNestSheets(ctx context.Context, workOrderID string, limit int) ([]models.NestSheet, error)
}
