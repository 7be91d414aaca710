package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/millwork-io/shoptrak/internal/audit"
	"github.com/millwork-io/shoptrak/internal/barcode"
	"github.com/millwork-io/shoptrak/internal/models"
	"github.com/millwork-io/shoptrak/internal/tree"
)

// partTransitions is the station transition table for individually scanned
// parts. CNC is absent: at CNC a part always transitions through its nest
// sheet.
var partTransitions = map[Station]struct {
	from models.PartStatus
	to   models.PartStatus
}{
	StationSorting:  {models.StatusCut, models.StatusSorted},
	StationAssembly: {models.StatusSorted, models.StatusAssembled},
}

// transitionEntity applies the station-appropriate transition to a classified
// entity scan. The caller holds the exclusive work-order lock.
func (s *Service) transitionEntity(ctx context.Context, req ScanRequest, wo *models.WorkOrder, idx *tree.Index, info barcode.BarcodeInfo) ScanResult {
	switch info.Type {
	case barcode.TypeNestSheet:
		return s.scanNestSheet(ctx, req, wo, idx, idx.NestSheet(info.CleanBarcode))

	case barcode.TypePart:
		return s.scanPart(ctx, req, wo, idx, idx.Part(info.CleanBarcode))

	case barcode.TypeHardware:
		return s.scanHardware(ctx, req, wo, idx, idx.Hardware(info.CleanBarcode))

	case barcode.TypeProduct:
		if req.Station != StationShipping {
			return failure(CodeInvalidTransition,
				fmt.Sprintf("Product barcodes are only scanned at shipping, not %s", req.Station))
		}
		return s.shipProduct(ctx, req, wo, idx, idx.Product(info.CleanBarcode))

	case barcode.TypeDetachedProduct:
		res := failure(CodeUnclassifiedBarcode,
			fmt.Sprintf("Part %s is not in work order %s; its product may not be loaded", info.CleanBarcode, wo.ID))
		res.EntityID = info.CleanBarcode
		return res

	default:
		res := failure(CodeUnclassifiedBarcode, fmt.Sprintf("Barcode %q not recognized", info.CleanBarcode))
		res.Suggestions = info.Suggestions
		return res
	}
}

// scanNestSheet transitions every part assigned to the sheet, all or nothing.
func (s *Service) scanNestSheet(ctx context.Context, req ScanRequest, wo *models.WorkOrder, idx *tree.Index, sheet *models.NestSheet) ScanResult {
	if req.Station != StationCNC {
		return failure(CodeInvalidTransition,
			fmt.Sprintf("Nest sheets are processed at CNC, not %s", req.Station))
	}
	if sheet.Processed {
		res := failure(CodeInvalidTransition, fmt.Sprintf("Nest sheet %s is already processed", sheet.Name))
		res.EntityID, res.EntityName = sheet.ID, sheet.Name
		res.OldStatus, res.NewStatus = models.StatusCut, models.StatusCut
		return res
	}

	// Resolve canonical part records through the index; the sheet's own Parts
	// slice is an association copy.
	canonical := make([]*models.Part, 0, len(sheet.Parts))
	var offenders []string
	for i := range sheet.Parts {
		p := idx.Part(sheet.Parts[i].ID)
		if p == nil {
			p = &sheet.Parts[i]
		}
		canonical = append(canonical, p)
		if p.Status != models.StatusPending {
			offenders = append(offenders, fmt.Sprintf("%s (%s)", p.Name, p.Status))
		}
	}

	if len(offenders) > 0 {
		sort.Strings(offenders)
		res := failure(CodePartialSheetFailure,
			fmt.Sprintf("Nest sheet %s not processed: %d part(s) already past pending", sheet.Name, len(offenders)))
		res.EntityID, res.EntityName = sheet.ID, sheet.Name
		res.Blockers = offenders
		return res
	}

	now := time.Now().UTC()
	for _, p := range canonical {
		p.Status = models.StatusCut
		p.StatusAt = &now
		sheetID := sheet.ID
		p.NestSheetID = &sheetID
	}
	sheet.Processed = true
	sheet.ProcessedAt = &now

	events := []audit.Event{{
		WorkOrderID: wo.ID,
		EntityID:    sheet.ID,
		EntityKind:  "nestsheet",
		Station:     string(req.Station),
		Actor:       req.Actor,
		OldStatus:   models.StatusPending,
		NewStatus:   models.StatusCut,
		Detail:      map[string]interface{}{"parts": len(canonical)},
	}}

	if res, ok := s.commit(ctx, wo, req.Station, canonical, nil, []*models.NestSheet{sheet}, events); !ok {
		return res
	}

	out := success(fmt.Sprintf("Nest sheet %s processed: %d part(s) cut", sheet.Name, len(canonical)))
	out.EntityID, out.EntityName = sheet.ID, sheet.Name
	out.OldStatus, out.NewStatus = models.StatusPending, models.StatusCut
	return out
}

// scanPart applies the single-part table, except at CNC and shipping where a
// part scan stands in for its sheet or its product.
func (s *Service) scanPart(ctx context.Context, req ScanRequest, wo *models.WorkOrder, idx *tree.Index, part *models.Part) ScanResult {
	switch req.Station {
	case StationCNC:
		sheet := idx.SheetForPart(part.ID)
		if sheet == nil {
			res := failure(CodeInvalidTransition,
				fmt.Sprintf("Part %s is not assigned to a nest sheet", part.Name))
			res.EntityID, res.EntityName = part.ID, part.Name
			return res
		}
		return s.scanNestSheet(ctx, req, wo, idx, sheet)

	case StationShipping:
		product := idx.ProductForPart(part.ID)
		if product == nil {
			res := failure(CodeInvalidTransition, fmt.Sprintf("Part %s has no owning product", part.Name))
			res.EntityID, res.EntityName = part.ID, part.Name
			return res
		}
		return s.shipProduct(ctx, req, wo, idx, product)

	case StationSorting, StationAssembly:
		tr := partTransitions[req.Station]
		if part.Status != tr.from {
			res := failure(CodeInvalidTransition,
				fmt.Sprintf("Part %s is %s; %s expects %s", part.Name, part.Status, req.Station, tr.from))
			res.EntityID, res.EntityName = part.ID, part.Name
			res.OldStatus, res.NewStatus = part.Status, tr.to
			return res
		}

		old := part.Status
		now := time.Now().UTC()
		part.Status = tr.to
		part.StatusAt = &now

		events := []audit.Event{{
			WorkOrderID: wo.ID,
			EntityID:    part.ID,
			EntityKind:  "part",
			Station:     string(req.Station),
			Actor:       req.Actor,
			OldStatus:   old,
			NewStatus:   tr.to,
		}}
		if res, ok := s.commit(ctx, wo, req.Station, []*models.Part{part}, nil, nil, events); !ok {
			// Leave the in-memory copy alone; it is discarded with the load.
			return res
		}

		out := success(fmt.Sprintf("Part %s: %s → %s", part.Name, old, tr.to))
		out.EntityID, out.EntityName = part.ID, part.Name
		out.OldStatus, out.NewStatus = old, tr.to
		return out

	default:
		return failure(CodeInvalidTransition,
			fmt.Sprintf("Station %s does not transition parts", req.Station))
	}
}

// scanHardware acknowledges hardware at assembly and ships it with its
// product at shipping. The hardware sequence is configurable; see
// models.HardwareSequence.
func (s *Service) scanHardware(ctx context.Context, req ScanRequest, wo *models.WorkOrder, idx *tree.Index, hw *models.Hardware) ScanResult {
	switch req.Station {
	case StationAssembly:
		next, ok := s.hwSeq.Next(hw.Status)
		if !ok || next == models.StatusShipped {
			res := failure(CodeInvalidTransition,
				fmt.Sprintf("Hardware %s is %s; nothing to acknowledge at assembly", hw.Name, hw.Status))
			res.EntityID, res.EntityName = hw.ID, hw.Name
			res.OldStatus = hw.Status
			return res
		}

		old := hw.Status
		now := time.Now().UTC()
		hw.Status = next
		hw.StatusAt = &now

		events := []audit.Event{{
			WorkOrderID: wo.ID,
			EntityID:    hw.ID,
			EntityKind:  "hardware",
			Station:     string(req.Station),
			Actor:       req.Actor,
			OldStatus:   old,
			NewStatus:   next,
		}}
		if res, ok := s.commit(ctx, wo, req.Station, nil, []*models.Hardware{hw}, nil, events); !ok {
			return res
		}

		out := success(fmt.Sprintf("Hardware %s: %s → %s", hw.Name, old, next))
		out.EntityID, out.EntityName = hw.ID, hw.Name
		out.OldStatus, out.NewStatus = old, next
		return out

	case StationShipping:
		if hw.ProductID != nil {
			if product := idx.Product(*hw.ProductID); product != nil {
				return s.shipProduct(ctx, req, wo, idx, product)
			}
		}
		// Work-order level hardware ships on its own once acknowledged.
		next, ok := s.hwSeq.Next(hw.Status)
		if !ok || next != models.StatusShipped {
			res := failure(CodeInvalidTransition,
				fmt.Sprintf("Hardware %s is %s; it must be acknowledged before shipping", hw.Name, hw.Status))
			res.EntityID, res.EntityName = hw.ID, hw.Name
			res.OldStatus, res.NewStatus = hw.Status, models.StatusShipped
			return res
		}

		old := hw.Status
		now := time.Now().UTC()
		hw.Status = models.StatusShipped
		hw.StatusAt = &now

		events := []audit.Event{{
			WorkOrderID: wo.ID,
			EntityID:    hw.ID,
			EntityKind:  "hardware",
			Station:     string(req.Station),
			Actor:       req.Actor,
			OldStatus:   old,
			NewStatus:   models.StatusShipped,
		}}
		if res, ok := s.commit(ctx, wo, req.Station, nil, []*models.Hardware{hw}, nil, events); !ok {
			return res
		}

		out := success(fmt.Sprintf("Hardware %s shipped", hw.Name))
		out.EntityID, out.EntityName = hw.ID, hw.Name
		out.OldStatus, out.NewStatus = old, models.StatusShipped
		return out

	default:
		return failure(CodeInvalidTransition,
			fmt.Sprintf("Hardware is handled at assembly and shipping, not %s", req.Station))
	}
}

// shipProduct ships every part and hardware line under a product as a unit.
// The whole product must already be assembled; otherwise nothing changes and
// the blockers are named.
func (s *Service) shipProduct(ctx context.Context, req ScanRequest, wo *models.WorkOrder, idx *tree.Index, product *models.Product) ScanResult {
	parts := collectParts(product)
	hardware := make([]*models.Hardware, 0, len(product.Hardware))
	for i := range product.Hardware {
		hardware = append(hardware, &product.Hardware[i])
	}

	var blockers []string
	alreadyShipped := 0
	for _, p := range parts {
		switch p.Status {
		case models.StatusAssembled:
		case models.StatusShipped:
			alreadyShipped++
		default:
			blockers = append(blockers, fmt.Sprintf("%s (%s)", p.Name, p.Status))
		}
	}
	for _, h := range hardware {
		switch h.Status {
		case models.StatusShipped:
			alreadyShipped++
		default:
			if next, ok := s.hwSeq.Next(h.Status); !ok || next != models.StatusShipped {
				blockers = append(blockers, fmt.Sprintf("%s (%s)", h.Name, h.Status))
			}
		}
	}

	if len(blockers) > 0 {
		sort.Strings(blockers)
		res := failure(CodeProductNotReady,
			fmt.Sprintf("Product %s is not ready to ship: %d item(s) not assembled", product.Name, len(blockers)))
		res.EntityID, res.EntityName = product.ID, product.Name
		res.Blockers = blockers
		return res
	}
	if alreadyShipped == len(parts)+len(hardware) && alreadyShipped > 0 {
		res := failure(CodeInvalidTransition, fmt.Sprintf("Product %s is already shipped", product.Name))
		res.EntityID, res.EntityName = product.ID, product.Name
		res.OldStatus, res.NewStatus = models.StatusShipped, models.StatusShipped
		return res
	}

	now := time.Now().UTC()
	for _, p := range parts {
		p.Status = models.StatusShipped
		p.StatusAt = &now
	}
	for _, h := range hardware {
		h.Status = models.StatusShipped
		h.StatusAt = &now
	}

	events := []audit.Event{{
		WorkOrderID: wo.ID,
		EntityID:    product.ID,
		EntityKind:  "product",
		Station:     string(req.Station),
		Actor:       req.Actor,
		OldStatus:   models.StatusAssembled,
		NewStatus:   models.StatusShipped,
		Detail:      map[string]interface{}{"parts": len(parts), "hardware": len(hardware)},
	}}
	if res, ok := s.commit(ctx, wo, req.Station, parts, hardware, nil, events); !ok {
		return res
	}

	out := success(fmt.Sprintf("Product %s shipped: %d part(s), %d hardware line(s)", product.Name, len(parts), len(hardware)))
	out.EntityID, out.EntityName = product.ID, product.Name
	out.OldStatus, out.NewStatus = models.StatusAssembled, models.StatusShipped
	return out
}

// collectParts gathers every part under a product, through nested
// subassemblies.
func collectParts(product *models.Product) []*models.Part {
	var out []*models.Part
	for i := range product.Parts {
		out = append(out, &product.Parts[i])
	}
	var walk func(subs []models.Subassembly)
	walk = func(subs []models.Subassembly) {
		for i := range subs {
			for j := range subs[i].Parts {
				out = append(out, &subs[i].Parts[j])
			}
			walk(subs[i].Children)
		}
	}
	walk(product.Subassemblies)
	return out
}
