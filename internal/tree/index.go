package tree

import (
	"github.com/millwork-io/shoptrak/internal/models"
)

// Index is a lookup table over every entity id of one loaded work order. It
// implements barcode.EntityIndex so classification can test membership
// without touching the datastore.
type Index struct {
	nestSheets map[string]*models.NestSheet
	parts      map[string]*models.Part
	products   map[string]*models.Product
	hardware   map[string]*models.Hardware
	// sheetByPart maps a part id to the nest sheet it is assigned to.
	sheetByPart map[string]*models.NestSheet
	// productByPart maps a part id to its owning product, following the
	// subassembly chain.
	productByPart map[string]*models.Product
}

// NewIndex walks the aggregate once and records every id.
func NewIndex(wo *models.WorkOrder) *Index {
	idx := &Index{
		nestSheets:    make(map[string]*models.NestSheet),
		parts:         make(map[string]*models.Part),
		products:      make(map[string]*models.Product),
		hardware:      make(map[string]*models.Hardware),
		sheetByPart:   make(map[string]*models.NestSheet),
		productByPart: make(map[string]*models.Product),
	}

	for i := range wo.NestSheets {
		ns := &wo.NestSheets[i]
		idx.nestSheets[ns.ID] = ns
		for j := range ns.Parts {
			idx.sheetByPart[ns.Parts[j].ID] = ns
		}
	}

	for i := range wo.Products {
		p := &wo.Products[i]
		idx.products[p.ID] = p
		for j := range p.Parts {
			idx.parts[p.Parts[j].ID] = &p.Parts[j]
			idx.productByPart[p.Parts[j].ID] = p
		}
		for j := range p.Hardware {
			idx.hardware[p.Hardware[j].ID] = &p.Hardware[j]
		}
		idx.indexSubassemblies(p, p.Subassemblies)
	}

	for i := range wo.Hardware {
		if wo.Hardware[i].ProductID == nil {
			idx.hardware[wo.Hardware[i].ID] = &wo.Hardware[i]
		}
	}
	return idx
}

func (idx *Index) indexSubassemblies(owner *models.Product, subs []models.Subassembly) {
	for i := range subs {
		sa := &subs[i]
		for j := range sa.Parts {
			idx.parts[sa.Parts[j].ID] = &sa.Parts[j]
			idx.productByPart[sa.Parts[j].ID] = owner
		}
		idx.indexSubassemblies(owner, sa.Children)
	}
}

func (idx *Index) HasNestSheet(id string) bool { return idx.nestSheets[id] != nil }
func (idx *Index) HasPart(id string) bool      { return idx.parts[id] != nil }
func (idx *Index) HasProduct(id string) bool   { return idx.products[id] != nil }
func (idx *Index) HasHardware(id string) bool  { return idx.hardware[id] != nil }

// KnownIDs returns every loaded entity id (order unspecified).
func (idx *Index) KnownIDs() []string {
	out := make([]string, 0, len(idx.nestSheets)+len(idx.parts)+len(idx.products)+len(idx.hardware))
	for id := range idx.nestSheets {
		out = append(out, id)
	}
	for id := range idx.parts {
		out = append(out, id)
	}
	for id := range idx.products {
		out = append(out, id)
	}
	for id := range idx.hardware {
		out = append(out, id)
	}
	return out
}

// NestSheet returns the loaded sheet with the given id, or nil.
func (idx *Index) NestSheet(id string) *models.NestSheet { return idx.nestSheets[id] }

// Part returns the loaded part with the given id, or nil.
func (idx *Index) Part(id string) *models.Part { return idx.parts[id] }

// Product returns the loaded product with the given id, or nil.
func (idx *Index) Product(id string) *models.Product { return idx.products[id] }

// Hardware returns the loaded hardware line with the given id, or nil.
func (idx *Index) Hardware(id string) *models.Hardware { return idx.hardware[id] }

// SheetForPart returns the nest sheet a part is assigned to, or nil.
func (idx *Index) SheetForPart(partID string) *models.NestSheet { return idx.sheetByPart[partID] }

// ProductForPart returns the product that ultimately owns a part, or nil.
func (idx *Index) ProductForPart(partID string) *models.Product { return idx.productByPart[partID] }
