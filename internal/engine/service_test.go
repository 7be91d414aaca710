package engine

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/millwork-io/shoptrak/internal/audit"
	"github.com/millwork-io/shoptrak/internal/barcode"
	"github.com/millwork-io/shoptrak/internal/models"
	"github.com/millwork-io/shoptrak/internal/store"
	"github.com/millwork-io/shoptrak/internal/tree"
)

// fakeStore keeps one canonical aggregate in memory. Loads hand out deep
// copies the way a real datastore would; saves apply the mutated fields back
// by id. loadErr/saveErr inject storage failures.
type fakeStore struct {
	mu       sync.Mutex
	wo       *models.WorkOrder
	loadErr  error
	saveErr  error
	archived bool
}

func (f *fakeStore) LoadWorkOrder(ctx context.Context, id string) (*models.WorkOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.wo == nil || f.wo.ID != id {
		return nil, store.ErrNotFound
	}
	raw, err := json.Marshal(f.wo)
	if err != nil {
		return nil, err
	}
	var snapshot models.WorkOrder
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (f *fakeStore) SaveTransition(ctx context.Context, workOrderID string, parts []*models.Part, hardware []*models.Hardware, sheets []*models.NestSheet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	for _, p := range parts {
		if target := f.findPart(p.ID); target != nil {
			target.Status = p.Status
			target.StatusAt = p.StatusAt
			target.NestSheetID = p.NestSheetID
		}
	}
	for _, h := range hardware {
		if target := f.findHardware(h.ID); target != nil {
			target.Status = h.Status
			target.StatusAt = h.StatusAt
		}
	}
	for _, ns := range sheets {
		for i := range f.wo.NestSheets {
			if f.wo.NestSheets[i].ID == ns.ID {
				f.wo.NestSheets[i].Processed = ns.Processed
				f.wo.NestSheets[i].ProcessedAt = ns.ProcessedAt
			}
		}
	}
	return nil
}

func (f *fakeStore) FindWorkOrderIDForBarcode(ctx context.Context, barcode string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return "", f.loadErr
	}
	for _, ns := range f.wo.NestSheets {
		if ns.ID == barcode {
			return f.wo.ID, nil
		}
	}
	for i := range f.wo.Products {
		if f.wo.Products[i].ID == barcode {
			return f.wo.ID, nil
		}
	}
	if f.findPart(barcode) != nil || f.findHardware(barcode) != nil {
		return f.wo.ID, nil
	}
	return "", store.ErrNotFound
}

func (f *fakeStore) ArchiveWorkOrder(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	now := time.Now().UTC()
	f.wo.ArchivedAt = &now
	f.archived = true
	return nil
}

func (f *fakeStore) RecentNestSheets(ctx context.Context, workOrderID string, limit int) ([]models.NestSheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.NestSheet
	for _, ns := range f.wo.NestSheets {
		if ns.Processed {
			out = append(out, ns)
		}
	}
	return out, nil
}

func (f *fakeStore) findPart(id string) *models.Part {
	for i := range f.wo.Products {
		p := &f.wo.Products[i]
		for j := range p.Parts {
			if p.Parts[j].ID == id {
				return &p.Parts[j]
			}
		}
		if found := findPartInSubs(p.Subassemblies, id); found != nil {
			return found
		}
	}
	return nil
}

func findPartInSubs(subs []models.Subassembly, id string) *models.Part {
	for i := range subs {
		for j := range subs[i].Parts {
			if subs[i].Parts[j].ID == id {
				return &subs[i].Parts[j]
			}
		}
		if found := findPartInSubs(subs[i].Children, id); found != nil {
			return found
		}
	}
	return nil
}

func (f *fakeStore) findHardware(id string) *models.Hardware {
	for i := range f.wo.Hardware {
		if f.wo.Hardware[i].ID == id {
			return &f.wo.Hardware[i]
		}
	}
	for i := range f.wo.Products {
		for j := range f.wo.Products[i].Hardware {
			if f.wo.Products[i].Hardware[j].ID == id {
				return &f.wo.Products[i].Hardware[j]
			}
		}
	}
	return nil
}

// partStatus reads the canonical status of a part out of the fake store.
func (f *fakeStore) partStatus(id string) models.PartStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p := f.findPart(id); p != nil {
		return p.Status
	}
	return ""
}

func (f *fakeStore) sheetProcessed(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ns := range f.wo.NestSheets {
		if ns.ID == id {
			return ns.Processed
		}
	}
	return false
}

type bcastMsg struct {
	group   string
	payload interface{}
}

type fakeBroadcaster struct {
	ch chan bcastMsg
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{ch: make(chan bcastMsg, 16)}
}

func (f *fakeBroadcaster) Broadcast(group string, payload interface{}) {
	f.ch <- bcastMsg{group: group, payload: payload}
}

// wait blocks for the next broadcast; the tree push after a commit runs in
// its own goroutine.
func (f *fakeBroadcaster) wait(t *testing.T) bcastMsg {
	t.Helper()
	select {
	case msg := <-f.ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
		return bcastMsg{}
	}
}

// waitAll collects the next n broadcasts keyed by group; commit pushes to
// the work-order group and the station group from separate goroutines, so
// arrival order is not fixed.
func (f *fakeBroadcaster) waitAll(t *testing.T, n int) map[string]bcastMsg {
	t.Helper()
	got := make(map[string]bcastMsg, n)
	for i := 0; i < n; i++ {
		msg := f.wait(t)
		got[msg.group] = msg
	}
	return got
}

func (f *fakeBroadcaster) drained() bool {
	select {
	case <-f.ch:
		return false
	default:
		return true
	}
}

type fakeSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (f *fakeSink) Record(ctx context.Context, ev audit.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeAuth struct{ adminToken string }

func (f fakeAuth) IsAdmin(token string) bool { return token != "" && token == f.adminToken }

func strPtr(s string) *string { return &s }

// cuttingFixture: one product with two pending parts, both nested on one
// sheet.
func cuttingFixture() *models.WorkOrder {
	return &models.WorkOrder{
		ID: "WO-1", Name: "Kitchen Run",
		Products: []models.Product{{
			ID: "P1", Name: "Base Cabinet", WorkOrderID: "WO-1", Quantity: 1, SortOrder: 1,
			Parts: []models.Part{
				{ID: "A", Name: "Left Side", Quantity: 1, Status: models.StatusPending, ProductID: strPtr("P1")},
				{ID: "B", Name: "Right Side", Quantity: 1, Status: models.StatusPending, ProductID: strPtr("P1")},
			},
		}},
		NestSheets: []models.NestSheet{{
			ID: "NS1", Name: "NS1", WorkOrderID: "WO-1",
			Parts: []models.Part{{ID: "A"}, {ID: "B"}},
		}},
	}
}

func newTestService(wo *models.WorkOrder) (*Service, *fakeStore, *fakeBroadcaster, *fakeSink) {
	st := &fakeStore{wo: wo}
	bc := newFakeBroadcaster()
	sink := &fakeSink{}
	svc := NewService(st, bc, sink, fakeAuth{adminToken: "admin-token"}, nil)
	return svc, st, bc, sink
}

func TestNestSheetScanCutsWholeSheet(t *testing.T) {
	svc, st, bc, sink := newTestService(cuttingFixture())

	res := svc.ProcessScan(context.Background(), ScanRequest{
		Barcode: "NS1", Station: StationCNC, WorkOrderID: "WO-1", Actor: "op1",
	})
	require.True(t, res.Success, "scan failed: %s", res.Message)
	require.Equal(t, CodeOK, res.Code)
	require.Equal(t, barcode.TypeNestSheet, res.BarcodeType)
	require.Equal(t, models.StatusPending, res.OldStatus)
	require.Equal(t, models.StatusCut, res.NewStatus)

	// Both parts and the sheet committed atomically.
	require.Equal(t, models.StatusCut, st.partStatus("A"))
	require.Equal(t, models.StatusCut, st.partStatus("B"))
	require.True(t, st.sheetProcessed("NS1"))
	require.Equal(t, 1, sink.count(), "one audit event per sheet, not per part")

	// The updated tree is pushed to the work-order group and to the
	// scanning station's group.
	msgs := bc.waitAll(t, 2)
	msg, ok := msgs["workorder-WO-1"]
	require.True(t, ok, "work-order group not pushed, got %v", msgs)
	payload, ok := msg.payload.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "TREE_UPDATE", payload["type"])
	resp, ok := payload["tree"].(*tree.TreeDataResponse)
	require.True(t, ok)
	require.Equal(t, models.StatusCut, resp.Items[0].Status, "derived product status after cut")

	stationMsg, ok := msgs["cnc-station"]
	require.True(t, ok, "station group not pushed, got %v", msgs)
	require.Equal(t, msg.payload, stationMsg.payload, "both groups see the same tree")
	require.True(t, bc.drained())
}

func TestNestSheetRejectedAwayFromCNC(t *testing.T) {
	svc, st, _, _ := newTestService(cuttingFixture())

	res := svc.ProcessScan(context.Background(), ScanRequest{
		Barcode: "NS1", Station: StationSorting, WorkOrderID: "WO-1",
	})
	require.False(t, res.Success)
	require.Equal(t, CodeInvalidTransition, res.Code)
	require.Equal(t, models.StatusPending, st.partStatus("A"), "nothing changed")
}

// A sheet with any part already past pending is rejected whole; the pending
// parts on it stay pending.
func TestPartialSheetFailureIsAtomic(t *testing.T) {
	wo := cuttingFixture()
	wo.Products[0].Parts[0].Status = models.StatusCut // part A already cut
	svc, st, bc, sink := newTestService(wo)

	res := svc.ProcessScan(context.Background(), ScanRequest{
		Barcode: "NS1", Station: StationCNC, WorkOrderID: "WO-1",
	})
	require.False(t, res.Success)
	require.Equal(t, CodePartialSheetFailure, res.Code)
	require.Equal(t, []string{"Left Side (cut)"}, res.Blockers)

	require.Equal(t, models.StatusPending, st.partStatus("B"), "pending part must stay pending")
	require.False(t, st.sheetProcessed("NS1"))
	require.Equal(t, 0, sink.count())
	require.True(t, bc.drained(), "no broadcast on a rejected transition")
}

func TestAlreadyProcessedSheet(t *testing.T) {
	wo := cuttingFixture()
	wo.NestSheets[0].Processed = true
	wo.Products[0].Parts[0].Status = models.StatusCut
	wo.Products[0].Parts[1].Status = models.StatusCut
	svc, _, _, _ := newTestService(wo)

	res := svc.ProcessScan(context.Background(), ScanRequest{
		Barcode: "NS1", Station: StationCNC, WorkOrderID: "WO-1",
	})
	require.False(t, res.Success)
	require.Equal(t, CodeInvalidTransition, res.Code)
}

// At CNC a part scan stands in for its nest sheet.
func TestPartScanAtCNCProcessesSheet(t *testing.T) {
	svc, st, bc, _ := newTestService(cuttingFixture())

	res := svc.ProcessScan(context.Background(), ScanRequest{
		Barcode: "A", Station: StationCNC, WorkOrderID: "WO-1",
	})
	require.True(t, res.Success, res.Message)
	require.Equal(t, models.StatusCut, st.partStatus("A"))
	require.Equal(t, models.StatusCut, st.partStatus("B"), "sibling on the same sheet cut too")
	require.True(t, st.sheetProcessed("NS1"))
	bc.wait(t)
}

func TestPartTransitionTable(t *testing.T) {
	wo := cuttingFixture()
	wo.Products[0].Parts[0].Status = models.StatusCut
	svc, st, bc, _ := newTestService(wo)
	ctx := context.Background()

	// cut -> sorted at sorting
	res := svc.ProcessScan(ctx, ScanRequest{Barcode: "A", Station: StationSorting, WorkOrderID: "WO-1"})
	require.True(t, res.Success, res.Message)
	require.Equal(t, models.StatusSorted, st.partStatus("A"))
	bc.wait(t)

	// sorted -> assembled at assembly
	res = svc.ProcessScan(ctx, ScanRequest{Barcode: "A", Station: StationAssembly, WorkOrderID: "WO-1"})
	require.True(t, res.Success, res.Message)
	require.Equal(t, models.StatusAssembled, st.partStatus("A"))
	bc.wait(t)

	// Re-scan at sorting: assembled never moves backwards.
	res = svc.ProcessScan(ctx, ScanRequest{Barcode: "A", Station: StationSorting, WorkOrderID: "WO-1"})
	require.False(t, res.Success)
	require.Equal(t, CodeInvalidTransition, res.Code)
	require.Equal(t, models.StatusAssembled, res.OldStatus)
	require.Equal(t, models.StatusSorted, res.NewStatus)
	require.Equal(t, models.StatusAssembled, st.partStatus("A"), "status unchanged after rejection")
}

func TestSortingRejectsPendingPart(t *testing.T) {
	svc, st, _, _ := newTestService(cuttingFixture())

	res := svc.ProcessScan(context.Background(), ScanRequest{
		Barcode: "A", Station: StationSorting, WorkOrderID: "WO-1",
	})
	require.False(t, res.Success)
	require.Equal(t, CodeInvalidTransition, res.Code)
	require.Equal(t, models.StatusPending, st.partStatus("A"))
}

func shippingFixture() *models.WorkOrder {
	wo := cuttingFixture()
	wo.Products[0].Parts[0].Status = models.StatusAssembled
	wo.Products[0].Parts[1].Status = models.StatusAssembled
	wo.Products[0].Hardware = []models.Hardware{{
		ID: "H1", Name: "Hinge", WorkOrderID: "WO-1", ProductID: strPtr("P1"),
		Quantity: 2, Status: models.StatusAssembled,
	}}
	return wo
}

func TestShipProduct(t *testing.T) {
	svc, st, bc, _ := newTestService(shippingFixture())

	res := svc.ProcessScan(context.Background(), ScanRequest{
		Barcode: "P1", Station: StationShipping, WorkOrderID: "WO-1",
	})
	require.True(t, res.Success, res.Message)
	require.Equal(t, models.StatusShipped, res.NewStatus)
	require.Equal(t, models.StatusShipped, st.partStatus("A"))
	require.Equal(t, models.StatusShipped, st.partStatus("B"))

	st.mu.Lock()
	hwStatus := st.wo.Products[0].Hardware[0].Status
	st.mu.Unlock()
	require.Equal(t, models.StatusShipped, hwStatus, "product hardware ships with the product")
	bc.wait(t)
}

func TestShipProductNotReady(t *testing.T) {
	wo := shippingFixture()
	wo.Products[0].Parts[1].Status = models.StatusSorted // B lags behind
	svc, st, _, _ := newTestService(wo)

	res := svc.ProcessScan(context.Background(), ScanRequest{
		Barcode: "P1", Station: StationShipping, WorkOrderID: "WO-1",
	})
	require.False(t, res.Success)
	require.Equal(t, CodeProductNotReady, res.Code)
	require.Equal(t, []string{"Right Side (sorted)"}, res.Blockers)
	require.Equal(t, models.StatusAssembled, st.partStatus("A"), "ready parts untouched")
	require.Equal(t, models.StatusSorted, st.partStatus("B"))
}

func TestShipProductBlockedByHardware(t *testing.T) {
	wo := shippingFixture()
	wo.Products[0].Hardware[0].Status = models.StatusPending // not acknowledged
	svc, _, _, _ := newTestService(wo)

	res := svc.ProcessScan(context.Background(), ScanRequest{
		Barcode: "P1", Station: StationShipping, WorkOrderID: "WO-1",
	})
	require.False(t, res.Success)
	require.Equal(t, CodeProductNotReady, res.Code)
	require.Equal(t, []string{"Hinge (pending)"}, res.Blockers)
}

// A part scanned at shipping ships its whole product.
func TestPartScanAtShippingShipsProduct(t *testing.T) {
	svc, st, bc, _ := newTestService(shippingFixture())

	res := svc.ProcessScan(context.Background(), ScanRequest{
		Barcode: "B", Station: StationShipping, WorkOrderID: "WO-1",
	})
	require.True(t, res.Success, res.Message)
	require.Equal(t, "P1", res.EntityID)
	require.Equal(t, models.StatusShipped, st.partStatus("A"))
	bc.wait(t)
}

func TestShipAlreadyShippedProduct(t *testing.T) {
	wo := shippingFixture()
	wo.Products[0].Parts[0].Status = models.StatusShipped
	wo.Products[0].Parts[1].Status = models.StatusShipped
	wo.Products[0].Hardware[0].Status = models.StatusShipped
	svc, _, _, _ := newTestService(wo)

	res := svc.ProcessScan(context.Background(), ScanRequest{
		Barcode: "P1", Station: StationShipping, WorkOrderID: "WO-1",
	})
	require.False(t, res.Success)
	require.Equal(t, CodeInvalidTransition, res.Code)
}

func TestHardwareAcknowledgedAtAssembly(t *testing.T) {
	wo := shippingFixture()
	wo.Products[0].Hardware[0].Status = models.StatusPending
	svc, st, bc, _ := newTestService(wo)
	ctx := context.Background()

	res := svc.ProcessScan(ctx, ScanRequest{Barcode: "H1", Station: StationAssembly, WorkOrderID: "WO-1"})
	require.True(t, res.Success, res.Message)
	require.Equal(t, models.StatusAssembled, res.NewStatus)
	st.mu.Lock()
	got := st.wo.Products[0].Hardware[0].Status
	st.mu.Unlock()
	require.Equal(t, models.StatusAssembled, got)
	bc.wait(t)

	// A second acknowledgement has nowhere forward to go at assembly.
	res = svc.ProcessScan(ctx, ScanRequest{Barcode: "H1", Station: StationAssembly, WorkOrderID: "WO-1"})
	require.False(t, res.Success)
	require.Equal(t, CodeInvalidTransition, res.Code)
}

func TestArchivedWorkOrderRejectsScans(t *testing.T) {
	wo := cuttingFixture()
	now := time.Now().UTC()
	wo.ArchivedAt = &now
	svc, st, _, _ := newTestService(wo)

	res := svc.ProcessScan(context.Background(), ScanRequest{
		Barcode: "NS1", Station: StationCNC, WorkOrderID: "WO-1",
	})
	require.False(t, res.Success)
	require.Equal(t, CodeInvalidTransition, res.Code)
	require.Equal(t, models.StatusPending, st.partStatus("A"))
}

func TestUnknownBarcodeGetsSuggestions(t *testing.T) {
	svc, _, _, _ := newTestService(cuttingFixture())

	res := svc.ProcessScan(context.Background(), ScanRequest{
		Barcode: "NS2", Station: StationCNC, WorkOrderID: "WO-1",
	})
	require.False(t, res.Success)
	require.Equal(t, CodeUnclassifiedBarcode, res.Code)
	require.Contains(t, res.Suggestions, "NS1")
}

func TestEmptyAndMissingContext(t *testing.T) {
	svc, st, bc, _ := newTestService(cuttingFixture())
	ctx := context.Background()

	res := svc.ProcessScan(ctx, ScanRequest{Barcode: "   ", Station: StationCNC, WorkOrderID: "WO-1"})
	require.Equal(t, CodeUnclassifiedBarcode, res.Code)

	// A known entity scanned without an active work order resolves its own.
	res = svc.ProcessScan(ctx, ScanRequest{Barcode: "NS1", Station: StationCNC})
	require.True(t, res.Success, res.Message)
	require.Equal(t, models.StatusCut, st.partStatus("A"))
	bc.wait(t)

	// An unknown barcode without a work order has nothing to resolve against.
	res = svc.ProcessScan(ctx, ScanRequest{Barcode: "ZZ-404", Station: StationCNC})
	require.Equal(t, CodeUnclassifiedBarcode, res.Code)

	// Commands never need a work order to classify.
	res = svc.ProcessScan(ctx, ScanRequest{Barcode: "SYS:HELP", Station: StationCNC})
	require.True(t, res.Success)
}

func TestStorageFailuresAreReported(t *testing.T) {
	svc, st, _, _ := newTestService(cuttingFixture())
	ctx := context.Background()

	st.saveErr = context.DeadlineExceeded
	res := svc.ProcessScan(ctx, ScanRequest{Barcode: "NS1", Station: StationCNC, WorkOrderID: "WO-1"})
	require.False(t, res.Success)
	require.Equal(t, CodeStorageUnavailable, res.Code)
	require.Equal(t, models.StatusPending, st.partStatus("A"), "failed save leaves store untouched")

	st.saveErr = nil
	st.loadErr = context.DeadlineExceeded
	res = svc.ProcessScan(ctx, ScanRequest{Barcode: "NS1", Station: StationCNC, WorkOrderID: "WO-1"})
	require.Equal(t, CodeStorageUnavailable, res.Code)

	// A fault while resolving a bare barcode to its work order is an
	// outage too, not an unclassified barcode.
	res = svc.ProcessScan(ctx, ScanRequest{Barcode: "NS1", Station: StationCNC})
	require.Equal(t, CodeStorageUnavailable, res.Code)

	st.loadErr = nil
	res = svc.ProcessScan(ctx, ScanRequest{Barcode: "NS1", Station: StationCNC, WorkOrderID: "WO-GONE"})
	require.Equal(t, CodeUnclassifiedBarcode, res.Code, "missing work order is a scan problem, not an outage")
}

func TestAdminCommandsRequireAuthorization(t *testing.T) {
	svc, st, _, _ := newTestService(cuttingFixture())
	ctx := context.Background()

	res := svc.ProcessScan(ctx, ScanRequest{
		Barcode: "ADM:ARCHIVE", Station: StationAdmin, WorkOrderID: "WO-1",
	})
	require.False(t, res.Success)
	require.Equal(t, CodeUnauthorizedCommand, res.Code)
	require.False(t, st.archived)

	res = svc.ProcessScan(ctx, ScanRequest{
		Barcode: "ADM:ARCHIVE", Station: StationAdmin, WorkOrderID: "WO-1", AuthToken: "admin-token",
	})
	require.True(t, res.Success, res.Message)
	require.True(t, st.archived)
}

func TestStationCommandsBelongToTheirStation(t *testing.T) {
	wo := cuttingFixture()
	wo.Products[0].Parts[0].Status = models.StatusCut
	svc, _, _, _ := newTestService(wo)
	ctx := context.Background()

	// UNSORTED away from sorting is unauthorized, not unknown.
	res := svc.ProcessScan(ctx, ScanRequest{Barcode: "STN:UNSORTED", Station: StationCNC, WorkOrderID: "WO-1"})
	require.False(t, res.Success)
	require.Equal(t, CodeUnauthorizedCommand, res.Code)

	res = svc.ProcessScan(ctx, ScanRequest{Barcode: "STN:UNSORTED", Station: StationSorting, WorkOrderID: "WO-1"})
	require.True(t, res.Success, res.Message)
	require.Equal(t, []string{"Left Side"}, res.Command.Data)
}

func TestRecentSheetsCommand(t *testing.T) {
	wo := cuttingFixture()
	wo.NestSheets[0].Processed = true
	svc, _, _, _ := newTestService(wo)

	res := svc.ProcessScan(context.Background(), ScanRequest{
		Barcode: "STN:RECENT-SHEETS", Station: StationCNC, WorkOrderID: "WO-1",
	})
	require.True(t, res.Success, res.Message)
	sheets, ok := res.Command.Data.([]models.NestSheet)
	require.True(t, ok)
	require.Len(t, sheets, 1)
	require.Equal(t, "NS1", sheets[0].ID)
}

func TestSysRefreshBroadcastsTree(t *testing.T) {
	svc, _, bc, _ := newTestService(cuttingFixture())

	res := svc.ProcessScan(context.Background(), ScanRequest{
		Barcode: "SYS:REFRESH", Station: StationSorting, WorkOrderID: "WO-1",
	})
	require.True(t, res.Success, res.Message)

	msg := bc.wait(t)
	require.Equal(t, "workorder-WO-1", msg.group)
}

func TestNavCommand(t *testing.T) {
	svc, _, _, _ := newTestService(cuttingFixture())

	res := svc.ProcessScan(context.Background(), ScanRequest{Barcode: "NAV:CNC", Station: StationSorting})
	require.True(t, res.Success)
	require.Equal(t, barcode.TypeNavigationCommand, res.BarcodeType)
	require.NotNil(t, res.Command)
	require.Equal(t, "/station/cnc", res.Command.Redirect)
}

// Scans on distinct work orders proceed in parallel; scans on the same one
// serialize. This exercises the per-work-order lock under contention.
func TestConcurrentScansSerializePerWorkOrder(t *testing.T) {
	svc, st, bc, _ := newTestService(cuttingFixture())
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]ScanResult, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.ProcessScan(ctx, ScanRequest{
				Barcode: "NS1", Station: StationCNC, WorkOrderID: "WO-1",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	require.Equal(t, 1, succeeded, "exactly one concurrent sheet scan wins")
	require.Equal(t, models.StatusCut, st.partStatus("A"))
	bc.wait(t)
}
