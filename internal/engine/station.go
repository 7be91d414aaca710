package engine

import (
	"strings"

	"github.com/millwork-io/shoptrak/internal/barcode"
)

// Station identifies the physical work area a scan originates from. Each
// station has its own legal command and transition vocabulary.
type Station string

const (
	StationCNC      Station = "cnc"
	StationSorting  Station = "sorting"
	StationAssembly Station = "assembly"
	StationShipping Station = "shipping"
	StationAdmin    Station = "admin"
)

// ParseStation normalizes a station name from the transport layer.
func ParseStation(s string) (Station, bool) {
	switch Station(strings.ToLower(strings.TrimSpace(s))) {
	case StationCNC:
		return StationCNC, true
	case StationSorting:
		return StationSorting, true
	case StationAssembly:
		return StationAssembly, true
	case StationShipping:
		return StationShipping, true
	case StationAdmin:
		return StationAdmin, true
	}
	return "", false
}

// stationCommandHome maps each station command to the only station allowed to
// issue it.
var stationCommandHome = map[barcode.StationCommand]Station{
	barcode.StationRecentSheets: StationCNC,
	barcode.StationUnsorted:     StationSorting,
	barcode.StationIncomplete:   StationAssembly,
	barcode.StationNotReady:     StationShipping,
}
