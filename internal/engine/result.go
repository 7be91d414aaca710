package engine

import (
	"github.com/millwork-io/shoptrak/internal/barcode"
	"github.com/millwork-io/shoptrak/internal/models"
)

// ResultCode is the machine-checkable outcome classification of one scan.
// Every code here is a reported result, not a raised fault; no scan ever
// crashes a station session.
type ResultCode string

const (
	CodeOK                  ResultCode = "ok"
	CodeUnclassifiedBarcode ResultCode = "unclassified_barcode"
	CodeUnauthorizedCommand ResultCode = "unauthorized_command"
	CodeInvalidTransition   ResultCode = "invalid_transition"
	CodeProductNotReady     ResultCode = "product_not_ready"
	CodePartialSheetFailure ResultCode = "partial_sheet_failure"
	CodeStorageUnavailable  ResultCode = "storage_unavailable"
)

// ScanResult is the terminal outcome of processing one scan, returned
// synchronously to the originating caller.
type ScanResult struct {
	Success     bool         `json:"success"`
	Code        ResultCode   `json:"code"`
	Message     string       `json:"message"`
	BarcodeType barcode.Type `json:"barcode_type,omitempty"`
	EntityID    string       `json:"entity_id,omitempty"`
	EntityName  string       `json:"entity_name,omitempty"`

	// OldStatus/NewStatus are set on transition outcomes, including rejected
	// ones, so the caller sees exactly what was attempted.
	OldStatus models.PartStatus `json:"old_status,omitempty"`
	NewStatus models.PartStatus `json:"new_status,omitempty"`

	// Blockers names the entities preventing a sheet or shipping transition.
	Blockers []string `json:"blockers,omitempty"`

	// Suggestions lists near-miss ids/commands for unclassifiable scans.
	Suggestions []string `json:"suggestions,omitempty"`

	// Command carries the outcome of a command scan.
	Command *CommandResult `json:"command,omitempty"`

	// Data is additional structured payload for the UI.
	Data interface{} `json:"data,omitempty"`
}

// CommandResult is the outcome of executing a classified command barcode.
type CommandResult struct {
	Family   barcode.CommandFamily `json:"family"`
	Value    string                `json:"value"`
	Redirect string                `json:"redirect,omitempty"`
	Data     interface{}           `json:"data,omitempty"`
}

func failure(code ResultCode, msg string) ScanResult {
	return ScanResult{Success: false, Code: code, Message: msg}
}

func success(msg string) ScanResult {
	return ScanResult{Success: true, Code: CodeOK, Message: msg}
}
