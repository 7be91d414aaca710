package barcode

import "strings"

// Command sentinel prefixes. A scan matching none of these is never treated
// as a command, even if it loosely resembles one.
const (
	prefixNav     = "NAV:"
	prefixSys     = "SYS:"
	prefixAdm     = "ADM:"
	prefixStation = "STN:"
)

// Entity id shape prefixes. These are the deterministic label formats the
// shop prints; exact membership in the loaded index always wins over shape.
const (
	shapeNestSheet = "NS"
	shapePart      = "PT"
	shapeProduct   = "PR"
	shapeHardware  = "HW"
)

// Classify maps a raw scanned string to a BarcodeInfo. Priority order:
//
//  1. command prefixes, first match wins
//  2. exact membership in the loaded entity id set
//  3. entity shape tests (a part-shaped code unknown to the index is a
//     detached product)
//  4. Unknown, with nearest-match suggestions
//
// Classify is pure and deterministic over (raw, idx); it never panics and a
// no-match outcome is normal, not a fault.
func Classify(raw string, idx EntityIndex) BarcodeInfo {
	clean := Normalize(raw)
	info := BarcodeInfo{CleanBarcode: clean, Type: TypeUnknown}
	if clean == "" {
		return info
	}

	if cmd, typ, ok := ParseCommand(clean); ok {
		info.Type = typ
		info.Command = cmd
		return info
	}

	switch {
	case idx.HasNestSheet(clean):
		info.Type = TypeNestSheet
	case idx.HasPart(clean):
		info.Type = TypePart
	case idx.HasProduct(clean):
		info.Type = TypeProduct
	case idx.HasHardware(clean):
		info.Type = TypeHardware
	case strings.HasPrefix(clean, shapePart):
		// Part-shaped code but no matching loaded entity: the parent product
		// is not in the current tree.
		info.Type = TypeDetachedProduct
	case strings.HasPrefix(clean, shapeNestSheet):
		info.Type = TypeUnknown
		info.Suggestions = Suggest(clean, idx)
	default:
		info.Suggestions = Suggest(clean, idx)
	}
	return info
}

// Normalize trims whitespace and upper-cases a raw scan. Scanner firmware
// varies in what it appends; everything after the first control character is
// dropped.
func Normalize(raw string) string {
	raw = strings.Map(func(r rune) rune {
		if r < ' ' {
			return -1
		}
		return r
	}, raw)
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ParseCommand tests the four command prefixes in strict priority order.
// The input must already be normalized.
func ParseCommand(clean string) (Command, Type, bool) {
	switch {
	case strings.HasPrefix(clean, prefixNav):
		v := NavCommand(strings.TrimPrefix(clean, prefixNav))
		if isKnownNav(v) {
			return v, TypeNavigationCommand, true
		}
	case strings.HasPrefix(clean, prefixSys):
		v := SysCommand(strings.TrimPrefix(clean, prefixSys))
		if isKnownSys(v) {
			return v, TypeSystemCommand, true
		}
	case strings.HasPrefix(clean, prefixAdm):
		v := AdminCommand(strings.TrimPrefix(clean, prefixAdm))
		if isKnownAdmin(v) {
			return v, TypeAdminCommand, true
		}
	case strings.HasPrefix(clean, prefixStation):
		v := StationCommand(strings.TrimPrefix(clean, prefixStation))
		if isKnownStation(v) {
			return v, TypeStationCommand, true
		}
	}
	return nil, TypeUnknown, false
}

func isKnownNav(v NavCommand) bool {
	switch v {
	case NavDashboard, NavCNC, NavSorting, NavAssembly, NavShipping, NavAdmin:
		return true
	}
	return false
}

func isKnownSys(v SysCommand) bool {
	switch v {
	case SysRefresh, SysStatus, SysHelp, SysCancel:
		return true
	}
	return false
}

func isKnownAdmin(v AdminCommand) bool {
	switch v {
	case AdminArchive, AdminRecalc:
		return true
	}
	return false
}

func isKnownStation(v StationCommand) bool {
	switch v {
	case StationRecentSheets, StationUnsorted, StationIncomplete, StationNotReady:
		return true
	}
	return false
}

// CommandVocabulary lists every legal command barcode, used for suggestions
// on near-miss scans.
func CommandVocabulary() []string {
	return []string{
		prefixNav + string(NavDashboard),
		prefixNav + string(NavCNC),
		prefixNav + string(NavSorting),
		prefixNav + string(NavAssembly),
		prefixNav + string(NavShipping),
		prefixNav + string(NavAdmin),
		prefixSys + string(SysRefresh),
		prefixSys + string(SysStatus),
		prefixSys + string(SysHelp),
		prefixSys + string(SysCancel),
		prefixAdm + string(AdminArchive),
		prefixAdm + string(AdminRecalc),
		prefixStation + string(StationRecentSheets),
		prefixStation + string(StationUnsorted),
		prefixStation + string(StationIncomplete),
		prefixStation + string(StationNotReady),
	}
}
