package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/millwork-io/shoptrak/internal/models"
)

// maxSubassemblyDepth bounds the breadth-first expansion. Load-time
// validation rejects cycles, this protects against rows written behind
// its back.
const maxSubassemblyDepth = 100

// expandSubassemblies gathers the subassembly rows of one work order by
// expanding parent links breadth-first from the order's products. Only ids
// already known to belong to this order are ever queried, so a malformed
// row under another work order cannot make this one unloadable.
func expandSubassemblies(productIDs []string, byProduct, byParent func(ids []string) ([]models.Subassembly, error)) ([]models.Subassembly, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	flat, err := byProduct(productIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(flat))
	frontier := make([]string, 0, len(flat))
	for i := range flat {
		seen[flat[i].ID] = true
		frontier = append(frontier, flat[i].ID)
	}

	for depth := 0; len(frontier) > 0; depth++ {
		if depth >= maxSubassemblyDepth {
			return nil, fmt.Errorf("subassembly nesting exceeds %d levels", maxSubassemblyDepth)
		}
		children, err := byParent(frontier)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for i := range children {
			if seen[children[i].ID] {
				continue
			}
			seen[children[i].ID] = true
			flat = append(flat, children[i])
			frontier = append(frontier, children[i].ID)
		}
	}
	return flat, nil
}

// probeResult maps a lookup error for barcode resolution: a missing row
// falls through to the next probe, anything else is a storage fault and
// must surface as one rather than as "no match".
func probeResult(err error) (miss bool, fault error) {
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return true, nil
	default:
		return false, err
	}
}
