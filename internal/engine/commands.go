package engine

import (
	"context"
	"fmt"

	"github.com/millwork-io/shoptrak/internal/audit"
	"github.com/millwork-io/shoptrak/internal/barcode"
	"github.com/millwork-io/shoptrak/internal/broadcast"
	"github.com/millwork-io/shoptrak/internal/models"
	"github.com/millwork-io/shoptrak/internal/tree"
)

// runCommand executes one classified command barcode. Wrong-station and
// unauthorized issuance are reported failures; nothing here is fatal to the
// connection.
func (s *Service) runCommand(ctx context.Context, req ScanRequest, cmd barcode.Command) ScanResult {
	switch c := cmd.(type) {
	case barcode.NavCommand:
		return s.runNav(c)
	case barcode.SysCommand:
		return s.runSys(ctx, req, c)
	case barcode.AdminCommand:
		return s.runAdmin(ctx, req, c)
	case barcode.StationCommand:
		return s.runStation(ctx, req, c)
	default:
		return failure(CodeUnclassifiedBarcode, "Unknown command family")
	}
}

var navTargets = map[barcode.NavCommand]string{
	barcode.NavDashboard: "/",
	barcode.NavCNC:       "/station/cnc",
	barcode.NavSorting:   "/station/sorting",
	barcode.NavAssembly:  "/station/assembly",
	barcode.NavShipping:  "/station/shipping",
	barcode.NavAdmin:     "/admin",
}

func (s *Service) runNav(c barcode.NavCommand) ScanResult {
	res := success(fmt.Sprintf("Navigate to %s", c.Value()))
	res.Command = &CommandResult{
		Family:   c.Family(),
		Value:    c.Value(),
		Redirect: navTargets[c],
	}
	return res
}

func (s *Service) runSys(ctx context.Context, req ScanRequest, c barcode.SysCommand) ScanResult {
	cr := &CommandResult{Family: c.Family(), Value: c.Value()}

	switch c {
	case barcode.SysRefresh:
		if req.WorkOrderID == "" {
			return failure(CodeUnclassifiedBarcode, "No active work order to refresh")
		}
		resp, errRes, ok := s.Tree(ctx, req.WorkOrderID, true)
		if !ok {
			return errRes
		}
		s.bcast.Broadcast(broadcast.WorkOrderGroup(req.WorkOrderID), map[string]interface{}{
			"type": "TREE_UPDATE",
			"tree": resp,
		})
		cr.Data = resp
		res := success(fmt.Sprintf("Work order %s refreshed", req.WorkOrderID))
		res.Command = cr
		return res

	case barcode.SysStatus:
		if req.WorkOrderID == "" {
			return failure(CodeUnclassifiedBarcode, "No active work order")
		}
		resp, errRes, ok := s.Tree(ctx, req.WorkOrderID, true)
		if !ok {
			return errRes
		}
		cr.Data = resp.Statistics
		res := success(fmt.Sprintf("Status for work order %s", req.WorkOrderID))
		res.Command = cr
		return res

	case barcode.SysHelp:
		cr.Data = barcode.CommandVocabulary()
		res := success("Available command barcodes")
		res.Command = cr
		return res

	case barcode.SysCancel:
		res := success("Cancelled")
		res.Command = cr
		return res
	}
	return failure(CodeUnclassifiedBarcode, fmt.Sprintf("Unknown system command %s", c.Value()))
}

func (s *Service) runAdmin(ctx context.Context, req ScanRequest, c barcode.AdminCommand) ScanResult {
	if !s.auth.IsAdmin(req.AuthToken) {
		return failure(CodeUnauthorizedCommand, "Admin command requires an active administrative session")
	}
	if req.WorkOrderID == "" {
		return failure(CodeUnclassifiedBarcode, "Admin command requires an active work order")
	}
	cr := &CommandResult{Family: c.Family(), Value: c.Value()}

	switch c {
	case barcode.AdminArchive:
		lock := s.locks.get(req.WorkOrderID)
		lock.Lock()
		defer lock.Unlock()

		if err := s.store.ArchiveWorkOrder(ctx, req.WorkOrderID); err != nil {
			return failure(CodeStorageUnavailable, fmt.Sprintf("Storage unavailable: %v", err))
		}
		s.audit.Record(ctx, audit.Event{
			WorkOrderID: req.WorkOrderID,
			EntityID:    req.WorkOrderID,
			EntityKind:  "workorder",
			Station:     string(req.Station),
			Actor:       req.Actor,
			NewStatus:   models.PartStatus("archived"),
		})
		res := success(fmt.Sprintf("Work order %s archived", req.WorkOrderID))
		res.Command = cr
		return res

	case barcode.AdminRecalc:
		resp, errRes, ok := s.Tree(ctx, req.WorkOrderID, true)
		if !ok {
			return errRes
		}
		s.bcast.Broadcast(broadcast.WorkOrderGroup(req.WorkOrderID), map[string]interface{}{
			"type": "TREE_UPDATE",
			"tree": resp,
		})
		s.audit.Record(ctx, audit.Event{
			WorkOrderID: req.WorkOrderID,
			EntityID:    req.WorkOrderID,
			EntityKind:  "workorder",
			Station:     string(req.Station),
			Actor:       req.Actor,
			Detail:      map[string]interface{}{"command": c.Value()},
		})
		cr.Data = resp
		res := success(fmt.Sprintf("Work order %s recalculated", req.WorkOrderID))
		res.Command = cr
		return res
	}
	return failure(CodeUnclassifiedBarcode, fmt.Sprintf("Unknown admin command %s", c.Value()))
}

// runStation executes a station-scoped read-only query under the shared side
// of the work-order lock.
func (s *Service) runStation(ctx context.Context, req ScanRequest, c barcode.StationCommand) ScanResult {
	home, ok := stationCommandHome[c]
	if !ok {
		return failure(CodeUnclassifiedBarcode, fmt.Sprintf("Unknown station command %s", c.Value()))
	}
	if req.Station != home {
		return failure(CodeUnauthorizedCommand,
			fmt.Sprintf("Command %s belongs to the %s station, not %s", c.Value(), home, req.Station))
	}
	if req.WorkOrderID == "" {
		return failure(CodeUnclassifiedBarcode, "Station command requires an active work order")
	}

	cr := &CommandResult{Family: c.Family(), Value: c.Value()}

	if c == barcode.StationRecentSheets {
		sheets, err := s.store.RecentNestSheets(ctx, req.WorkOrderID, 10)
		if err != nil {
			return failure(CodeStorageUnavailable, fmt.Sprintf("Storage unavailable: %v", err))
		}
		cr.Data = sheets
		res := success(fmt.Sprintf("%d recently processed nest sheet(s)", len(sheets)))
		res.Command = cr
		return res
	}

	lock := s.locks.get(req.WorkOrderID)
	lock.RLock()
	defer lock.RUnlock()

	wo, errRes, ok := s.loadWorkOrder(ctx, req.WorkOrderID)
	if !ok {
		return errRes
	}
	switch c {
	case barcode.StationUnsorted:
		names := partsAtStatus(wo, models.StatusCut)
		cr.Data = names
		res := success(fmt.Sprintf("%d part(s) awaiting sorting", len(names)))
		res.Command = cr
		return res

	case barcode.StationIncomplete:
		var incomplete []string
		for i := range wo.Products {
			p := &wo.Products[i]
			if st, ok := tree.DerivedProductStatus(p); ok && st.Before(models.StatusAssembled) {
				incomplete = append(incomplete, p.Name)
			}
		}
		cr.Data = incomplete
		res := success(fmt.Sprintf("%d product(s) not fully assembled", len(incomplete)))
		res.Command = cr
		return res

	case barcode.StationNotReady:
		notReady := make(map[string][]string)
		for i := range wo.Products {
			p := &wo.Products[i]
			var blockers []string
			for _, part := range collectParts(p) {
				if part.Status.Before(models.StatusAssembled) {
					blockers = append(blockers, part.Name)
				}
			}
			for j := range p.Hardware {
				h := &p.Hardware[j]
				if next, ok := s.hwSeq.Next(h.Status); h.Status != models.StatusShipped && (!ok || next != models.StatusShipped) {
					blockers = append(blockers, h.Name)
				}
			}
			if len(blockers) > 0 {
				notReady[p.Name] = blockers
			}
		}
		cr.Data = notReady
		res := success(fmt.Sprintf("%d product(s) not ready to ship", len(notReady)))
		res.Command = cr
		return res
	}
	return failure(CodeUnclassifiedBarcode, fmt.Sprintf("Unknown station command %s", c.Value()))
}

func partsAtStatus(wo *models.WorkOrder, status models.PartStatus) []string {
	var names []string
	for i := range wo.Products {
		for _, p := range collectParts(&wo.Products[i]) {
			if p.Status == status {
				names = append(names, p.Name)
			}
		}
	}
	return names
}
