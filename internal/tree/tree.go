// Package tree builds the hierarchical work-order projection served to
// station displays. The tree is always recomputed from the loaded aggregate;
// it is never a source of truth.
package tree

import (
	"sort"

	"github.com/millwork-io/shoptrak/internal/models"
)

// ItemKind labels a node in the tree.
type ItemKind string

const (
	KindProduct     ItemKind = "product"
	KindSubassembly ItemKind = "subassembly"
	KindPart        ItemKind = "part"
	KindHardware    ItemKind = "hardware"
	KindNestSheet   ItemKind = "nest_sheet"
)

// TreeItem is one node of the hierarchical projection. Status on Products and
// Subassemblies is derived (minimum over descendants), never stored.
type TreeItem struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Kind     ItemKind          `json:"kind"`
	Quantity int               `json:"quantity"`
	Category string            `json:"category,omitempty"`
	Status   models.PartStatus `json:"status,omitempty"`
	Children []TreeItem        `json:"children,omitempty"`
}

// TreeDataResponse is what a station display renders.
type TreeDataResponse struct {
	WorkOrderID string               `json:"work_order_id"`
	Name        string               `json:"name"`
	Items       []TreeItem           `json:"items"`
	NestSheets  []TreeItem           `json:"nest_sheets,omitempty"`
	Statistics  *WorkOrderStatistics `json:"statistics,omitempty"`
}

// Build produces the full hierarchy for one work order in a single bottom-up
// pass. When includeStatus is false the status/category annotations and the
// statistics block are skipped; structure-only callers pay less.
func Build(wo *models.WorkOrder, includeStatus bool) *TreeDataResponse {
	resp := &TreeDataResponse{
		WorkOrderID: wo.ID,
		Name:        wo.Name,
	}

	var stats *WorkOrderStatistics
	if includeStatus {
		stats = newStatistics()
	}

	products := make([]models.Product, len(wo.Products))
	copy(products, wo.Products)
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].SortOrder < products[j].SortOrder
	})

	for i := range products {
		item, _ := buildProduct(&products[i], includeStatus, stats)
		resp.Items = append(resp.Items, item)
	}

	// Work-order level hardware not attached to any product.
	for i := range wo.Hardware {
		hw := &wo.Hardware[i]
		if hw.ProductID != nil {
			continue
		}
		resp.Items = append(resp.Items, buildHardware(hw, includeStatus, stats))
	}

	for i := range wo.NestSheets {
		resp.NestSheets = append(resp.NestSheets, buildNestSheet(&wo.NestSheets[i], includeStatus, stats))
	}

	resp.Statistics = stats
	return resp
}

// buildProduct returns the product node and its derived status. ok is false
// when the product has no status-bearing descendants at all.
func buildProduct(p *models.Product, includeStatus bool, stats *WorkOrderStatistics) (TreeItem, bool) {
	item := TreeItem{
		ID:       p.ID,
		Name:     p.Name,
		Kind:     KindProduct,
		Quantity: p.Quantity,
	}

	derived, ok := rollupChildren(&item, p.Parts, p.Subassemblies, p.Hardware, includeStatus, stats)
	if includeStatus {
		if ok {
			item.Status = derived
		}
		stats.Products.add(derived, ok)
	}
	return item, ok
}

// buildSubassembly handles nested subassemblies recursively. An empty
// subassembly contributes nothing upward (vacuous), so it never blocks its
// parent's rollup.
func buildSubassembly(sa *models.Subassembly, includeStatus bool, stats *WorkOrderStatistics) (TreeItem, bool) {
	item := TreeItem{
		ID:       sa.ID,
		Name:     sa.Name,
		Kind:     KindSubassembly,
		Quantity: sa.Quantity,
	}

	derived, ok := rollupChildren(&item, sa.Parts, sa.Children, nil, includeStatus, stats)
	if includeStatus {
		if ok {
			item.Status = derived
		}
		stats.Subassemblies.add(derived, ok)
	}
	return item, ok
}

// rollupChildren appends child nodes and folds their statuses with min.
func rollupChildren(parent *TreeItem, parts []models.Part, subs []models.Subassembly, hardware []models.Hardware, includeStatus bool, stats *WorkOrderStatistics) (models.PartStatus, bool) {
	var derived models.PartStatus
	have := false
	fold := func(s models.PartStatus) {
		if !have {
			derived, have = s, true
			return
		}
		derived = models.MinStatus(derived, s)
	}

	for i := range parts {
		child := buildPart(&parts[i], includeStatus, stats)
		parent.Children = append(parent.Children, child)
		fold(parts[i].Status)
	}
	for i := range subs {
		child, ok := buildSubassembly(&subs[i], includeStatus, stats)
		parent.Children = append(parent.Children, child)
		if ok {
			fold(child.Status)
		}
	}
	for i := range hardware {
		child := buildHardware(&hardware[i], includeStatus, stats)
		parent.Children = append(parent.Children, child)
		fold(hardware[i].Status)
	}
	return derived, have
}

func buildPart(p *models.Part, includeStatus bool, stats *WorkOrderStatistics) TreeItem {
	item := TreeItem{
		ID:       p.ID,
		Name:     p.Name,
		Kind:     KindPart,
		Quantity: p.Quantity,
	}
	if includeStatus {
		item.Status = p.Status
		item.Category = p.Category
		stats.Parts.add(p.Status, true)
	}
	return item
}

func buildHardware(h *models.Hardware, includeStatus bool, stats *WorkOrderStatistics) TreeItem {
	item := TreeItem{
		ID:       h.ID,
		Name:     h.Name,
		Kind:     KindHardware,
		Quantity: h.Quantity,
	}
	if includeStatus {
		item.Status = h.Status
		stats.Hardware.add(h.Status, true)
	}
	return item
}

func buildNestSheet(ns *models.NestSheet, includeStatus bool, stats *WorkOrderStatistics) TreeItem {
	item := TreeItem{
		ID:       ns.ID,
		Name:     ns.Name,
		Kind:     KindNestSheet,
		Quantity: len(ns.Parts),
	}
	if includeStatus {
		if ns.Processed {
			item.Status = models.StatusCut
		} else {
			item.Status = models.StatusPending
		}
		stats.NestSheets.add(item.Status, true)
	}
	return item
}

// DerivedProductStatus computes a single product's displayed status without
// building the full tree. ok is false for a product with no status-bearing
// descendants.
func DerivedProductStatus(p *models.Product) (models.PartStatus, bool) {
	item := TreeItem{}
	return rollupChildren(&item, p.Parts, p.Subassemblies, p.Hardware, false, nil)
}
