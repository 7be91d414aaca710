package tree

import "github.com/millwork-io/shoptrak/internal/models"

// LevelStats is the count breakdown for one entity level of the tree.
type LevelStats struct {
	Total    int                       `json:"total"`
	ByStatus map[models.PartStatus]int `json:"by_status"`
	// NoStatus counts nodes with no status-bearing descendants (empty
	// subassemblies and products).
	NoStatus int `json:"no_status,omitempty"`
}

func newLevelStats() LevelStats {
	return LevelStats{ByStatus: make(map[models.PartStatus]int)}
}

func (ls *LevelStats) add(s models.PartStatus, ok bool) {
	ls.Total++
	if !ok {
		ls.NoStatus++
		return
	}
	ls.ByStatus[s]++
}

// WorkOrderStatistics is the per-level rollup attached to a tree build when
// status was requested.
type WorkOrderStatistics struct {
	Products      LevelStats `json:"products"`
	Subassemblies LevelStats `json:"subassemblies"`
	Parts         LevelStats `json:"parts"`
	Hardware      LevelStats `json:"hardware"`
	NestSheets    LevelStats `json:"nest_sheets"`
}

func newStatistics() *WorkOrderStatistics {
	return &WorkOrderStatistics{
		Products:      newLevelStats(),
		Subassemblies: newLevelStats(),
		Parts:         newLevelStats(),
		Hardware:      newLevelStats(),
		NestSheets:    newLevelStats(),
	}
}
