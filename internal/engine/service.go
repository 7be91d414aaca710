// Package engine turns classified scans into status transitions, executes
// command barcodes, and pushes the resulting tree to every subscribed
// display. Every scan is processed to a terminal ScanResult synchronously;
// only the broadcast to other subscribers happens asynchronously.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/millwork-io/shoptrak/internal/audit"
	"github.com/millwork-io/shoptrak/internal/barcode"
	"github.com/millwork-io/shoptrak/internal/broadcast"
	"github.com/millwork-io/shoptrak/internal/models"
	"github.com/millwork-io/shoptrak/internal/store"
	"github.com/millwork-io/shoptrak/internal/tree"
)

// Broadcaster pushes a payload to every member of a group. Satisfied by
// *broadcast.Hub.
type Broadcaster interface {
	Broadcast(group string, payload interface{})
}

// Authorizer checks whether a caller holds an active administrative session.
type Authorizer interface {
	IsAdmin(token string) bool
}

// storeTimeout bounds every datastore call. A timeout surfaces as
// StorageUnavailable; the engine never retries.
const storeTimeout = 5 * time.Second

// Service is the scan classification and status aggregation engine.
type Service struct {
	store store.Store
	bcast Broadcaster
	audit audit.Sink
	auth  Authorizer
	hwSeq models.HardwareSequence
	locks *workOrderLocks
}

// NewService wires the engine to its collaborators. A nil hardware sequence
// selects the default Pending -> Assembled -> Shipped.
func NewService(st store.Store, bcast Broadcaster, sink audit.Sink, auth Authorizer, hwSeq models.HardwareSequence) *Service {
	if hwSeq == nil {
		hwSeq = models.DefaultHardwareSequence()
	}
	return &Service{
		store: st,
		bcast: bcast,
		audit: sink,
		auth:  auth,
		hwSeq: hwSeq,
		locks: newWorkOrderLocks(),
	}
}

// ScanRequest carries one raw scan from the transport layer.
type ScanRequest struct {
	Barcode     string  `json:"barcode"`
	Station     Station `json:"station"`
	WorkOrderID string  `json:"workOrderId,omitempty"`
	Actor       string  `json:"-"` // username or connection id, from session
	AuthToken   string  `json:"-"` // bearer token, for admin commands
}

// ProcessScan runs one scan to a terminal result. The command/entity split is
// decided on the raw string alone, so command queries never contend with
// transitions for the exclusive side of the work-order lock.
func (s *Service) ProcessScan(ctx context.Context, req ScanRequest) ScanResult {
	clean := barcode.Normalize(req.Barcode)
	if clean == "" {
		return failure(CodeUnclassifiedBarcode, "Empty barcode")
	}

	if cmd, typ, ok := barcode.ParseCommand(clean); ok {
		res := s.runCommand(ctx, req, cmd)
		res.BarcodeType = typ
		return res
	}

	if req.WorkOrderID == "" {
		// No active work order on this display: resolve it from the barcode.
		findCtx, cancel := context.WithTimeout(ctx, storeTimeout)
		id, err := s.store.FindWorkOrderIDForBarcode(findCtx, clean)
		cancel()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return failure(CodeUnclassifiedBarcode, "No active work order; scan a command or select a work order first")
			}
			return failure(CodeStorageUnavailable, fmt.Sprintf("Storage unavailable: %v", err))
		}
		req.WorkOrderID = id
	}

	lock := s.locks.get(req.WorkOrderID)
	lock.Lock()
	defer lock.Unlock()

	wo, res, ok := s.loadWorkOrder(ctx, req.WorkOrderID)
	if !ok {
		return res
	}
	if wo.Archived() {
		return failure(CodeInvalidTransition, fmt.Sprintf("Work order %s is archived; no further transitions", wo.ID))
	}

	idx := tree.NewIndex(wo)
	info := barcode.Classify(clean, idx)

	result := s.transitionEntity(ctx, req, wo, idx, info)
	result.BarcodeType = info.Type
	if len(result.Suggestions) == 0 {
		result.Suggestions = info.Suggestions
	}
	return result
}

// Tree rebuilds and returns the status tree of one work order. Takes the
// shared side of the work-order lock.
func (s *Service) Tree(ctx context.Context, workOrderID string, includeStatus bool) (*tree.TreeDataResponse, ScanResult, bool) {
	lock := s.locks.get(workOrderID)
	lock.RLock()
	defer lock.RUnlock()

	wo, res, ok := s.loadWorkOrder(ctx, workOrderID)
	if !ok {
		return nil, res, false
	}
	return tree.Build(wo, includeStatus), ScanResult{}, true
}

// loadWorkOrder fetches the aggregate, mapping store failures into the
// reported-result taxonomy. The caller must hold the work-order lock.
func (s *Service) loadWorkOrder(ctx context.Context, id string) (*models.WorkOrder, ScanResult, bool) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	wo, err := s.store.LoadWorkOrder(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, failure(CodeUnclassifiedBarcode, fmt.Sprintf("Work order %s not found", id)), false
		}
		return nil, failure(CodeStorageUnavailable, fmt.Sprintf("Storage unavailable: %v", err)), false
	}
	return wo, ScanResult{}, true
}

// commit persists the mutated entities, audits, rebuilds the tree and pushes
// it to the work-order group and to the scanning station's group. The caller
// must hold the exclusive lock; the broadcasts themselves run after the
// datastore write committed.
func (s *Service) commit(ctx context.Context, wo *models.WorkOrder, station Station, parts []*models.Part, hardware []*models.Hardware, sheets []*models.NestSheet, events []audit.Event) (ScanResult, bool) {
	saveCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.store.SaveTransition(saveCtx, wo.ID, parts, hardware, sheets); err != nil {
		return failure(CodeStorageUnavailable, fmt.Sprintf("Storage unavailable: %v", err)), false
	}

	for _, ev := range events {
		s.audit.Record(ctx, ev)
	}

	resp := tree.Build(wo, true)
	payload := map[string]interface{}{
		"type": "TREE_UPDATE",
		"tree": resp,
	}
	group := broadcast.WorkOrderGroup(wo.ID)
	go s.bcast.Broadcast(group, payload)
	stationGroup := broadcast.StationGroup(string(station))
	go s.bcast.Broadcast(stationGroup, payload)
	log.Printf("📡 %s: transition committed, tree pushed to %s and %s", wo.ID, group, stationGroup)

	return ScanResult{}, true
}
