package barcode

// Type classifies what a scanned string refers to.
type Type string

const (
	TypeNestSheet       Type = "nest_sheet"
	TypePart            Type = "part"
	TypeProduct         Type = "product"
	TypeHardware        Type = "hardware"
	TypeDetachedProduct Type = "detached_product" // part-shaped code with no loaded parent product

	TypeNavigationCommand Type = "navigation_command"
	TypeSystemCommand     Type = "system_command"
	TypeAdminCommand      Type = "admin_command"
	TypeStationCommand    Type = "station_command"

	TypeUnknown Type = "unknown"
)

// CommandFamily identifies which of the four command vocabularies a command
// belongs to.
type CommandFamily string

const (
	FamilyNavigation CommandFamily = "navigation"
	FamilySystem     CommandFamily = "system"
	FamilyAdmin      CommandFamily = "admin"
	FamilyStation    CommandFamily = "station"
)

// Command is the sum of the four command families. The concrete types are
// NavCommand, SysCommand, AdminCommand and StationCommand; nothing outside
// this package can add a family.
type Command interface {
	Family() CommandFamily
	Value() string
	sealed()
}

// NavCommand redirects the station UI to another view.
type NavCommand string

// SysCommand is a station-agnostic system action.
type SysCommand string

// AdminCommand requires an active administrative session.
type AdminCommand string

// StationCommand is only legal at its matching station.
type StationCommand string

func (c NavCommand) Family() CommandFamily     { return FamilyNavigation }
func (c SysCommand) Family() CommandFamily     { return FamilySystem }
func (c AdminCommand) Family() CommandFamily   { return FamilyAdmin }
func (c StationCommand) Family() CommandFamily { return FamilyStation }

func (c NavCommand) Value() string     { return string(c) }
func (c SysCommand) Value() string     { return string(c) }
func (c AdminCommand) Value() string   { return string(c) }
func (c StationCommand) Value() string { return string(c) }

func (NavCommand) sealed()     {}
func (SysCommand) sealed()     {}
func (AdminCommand) sealed()   {}
func (StationCommand) sealed() {}

// Known command values per family.
const (
	NavDashboard NavCommand = "DASHBOARD"
	NavCNC       NavCommand = "CNC"
	NavSorting   NavCommand = "SORTING"
	NavAssembly  NavCommand = "ASSEMBLY"
	NavShipping  NavCommand = "SHIPPING"
	NavAdmin     NavCommand = "ADMIN"

	SysRefresh SysCommand = "REFRESH"
	SysStatus  SysCommand = "STATUS"
	SysHelp    SysCommand = "HELP"
	SysCancel  SysCommand = "CANCEL"

	AdminArchive AdminCommand = "ARCHIVE"
	AdminRecalc  AdminCommand = "RECALC"

	StationRecentSheets StationCommand = "RECENT-SHEETS"
	StationUnsorted     StationCommand = "UNSORTED"
	StationIncomplete   StationCommand = "INCOMPLETE"
	StationNotReady     StationCommand = "NOT-READY"
)

// BarcodeInfo is the classified form of one raw scan. Transient; never
// persisted.
type BarcodeInfo struct {
	CleanBarcode string   `json:"clean_barcode"`
	Type         Type     `json:"type"`
	Command      Command  `json:"-"`
	Suggestions  []string `json:"suggestions,omitempty"`
}

// IsCommand reports whether the scan resolved to a command of any family.
func (b BarcodeInfo) IsCommand() bool {
	return b.Command != nil
}

// EntityIndex is the view of the currently loaded entity id set that
// classification runs against. Classification is a pure function of the
// barcode string and this index.
type EntityIndex interface {
	HasNestSheet(id string) bool
	HasPart(id string) bool
	HasProduct(id string) bool
	HasHardware(id string) bool
	// KnownIDs returns every loaded entity id, used for suggestions.
	KnownIDs() []string
}

// EmptyIndex is an EntityIndex with no loaded entities.
type EmptyIndex struct{}

func (EmptyIndex) HasNestSheet(string) bool { return false }
func (EmptyIndex) HasPart(string) bool      { return false }
func (EmptyIndex) HasProduct(string) bool   { return false }
func (EmptyIndex) HasHardware(string) bool  { return false }
func (EmptyIndex) KnownIDs() []string       { return nil }
