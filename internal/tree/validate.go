package tree

import (
	"fmt"

	"github.com/millwork-io/shoptrak/internal/models"
)

// BuildSubassemblyForest turns the flat subassembly rows of one work order
// into nested trees, grouped by owning product id. Rows arrive flat from the
// datastore because nesting depth is unbounded; cycles in the parent links
// are rejected here, before the engine ever sees the aggregate.
func BuildSubassemblyForest(flat []models.Subassembly) (map[string][]models.Subassembly, error) {
	byID := make(map[string]*models.Subassembly, len(flat))
	children := make(map[string][]*models.Subassembly)

	for i := range flat {
		sa := flat[i] // copy; Children rebuilt below
		sa.Children = nil
		if (sa.ProductID == nil) == (sa.ParentID == nil) {
			return nil, fmt.Errorf("subassembly %s: exactly one of product/parent must be set", sa.ID)
		}
		if _, dup := byID[sa.ID]; dup {
			return nil, fmt.Errorf("duplicate subassembly id %s", sa.ID)
		}
		byID[sa.ID] = &sa
	}

	for _, sa := range byID {
		if sa.ParentID == nil {
			continue
		}
		parent, ok := byID[*sa.ParentID]
		if !ok {
			return nil, fmt.Errorf("subassembly %s: parent %s not in work order", sa.ID, *sa.ParentID)
		}
		children[parent.ID] = append(children[parent.ID], sa)
	}

	// Walk parent chains; a chain longer than the node count is a cycle.
	for _, sa := range byID {
		seen := 0
		for cur := sa; cur.ParentID != nil; cur = byID[*cur.ParentID] {
			seen++
			if seen > len(byID) {
				return nil, fmt.Errorf("subassembly nesting cycle involving %s", sa.ID)
			}
		}
	}

	var materialize func(sa *models.Subassembly) models.Subassembly
	materialize = func(sa *models.Subassembly) models.Subassembly {
		out := *sa
		for _, child := range children[sa.ID] {
			out.Children = append(out.Children, materialize(child))
		}
		return out
	}

	forest := make(map[string][]models.Subassembly)
	for _, sa := range byID {
		if sa.ProductID != nil {
			forest[*sa.ProductID] = append(forest[*sa.ProductID], materialize(sa))
		}
	}
	return forest, nil
}

// ValidateWorkOrder checks the structural invariants of a loaded aggregate:
// every part belongs to exactly one product or subassembly, and no part id
// appears twice in the hierarchy.
func ValidateWorkOrder(wo *models.WorkOrder) error {
	seen := make(map[string]bool)

	var checkParts func(parts []models.Part) error
	checkParts = func(parts []models.Part) error {
		for i := range parts {
			p := &parts[i]
			if (p.ProductID == nil) == (p.SubassemblyID == nil) {
				return fmt.Errorf("part %s: exactly one of product/subassembly must be set", p.ID)
			}
			if seen[p.ID] {
				return fmt.Errorf("part %s appears more than once in work order %s", p.ID, wo.ID)
			}
			seen[p.ID] = true
		}
		return nil
	}

	var checkSubs func(subs []models.Subassembly) error
	checkSubs = func(subs []models.Subassembly) error {
		for i := range subs {
			if err := checkParts(subs[i].Parts); err != nil {
				return err
			}
			if err := checkSubs(subs[i].Children); err != nil {
				return err
			}
		}
		return nil
	}

	for i := range wo.Products {
		if err := checkParts(wo.Products[i].Parts); err != nil {
			return err
		}
		if err := checkSubs(wo.Products[i].Subassemblies); err != nil {
			return err
		}
	}
	return nil
}
