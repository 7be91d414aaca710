package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/millwork-io/shoptrak/internal/engine"
	"github.com/millwork-io/shoptrak/internal/middleware"
	"github.com/millwork-io/shoptrak/internal/utils"
)

// ScanPayload is what a station posts for one barcode read.
type ScanPayload struct {
	Barcode     string `json:"barcode"`
	Station     string `json:"station"`
	WorkOrderID string `json:"workOrderId,omitempty"`
}

// handleScan is the universal entry point for all barcode scans. The scan is
// processed to a terminal result synchronously; tree pushes to other
// subscribers happen in the background.
func (r *Router) handleScan(w http.ResponseWriter, req *http.Request) {
	var body ScanPayload
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	station, ok := engine.ParseStation(body.Station)
	if !ok {
		respondError(w, http.StatusBadRequest, "Unknown station: "+body.Station)
		return
	}

	token := middleware.BearerToken(req)
	actor := "anonymous"
	if token != "" {
		if claims, err := utils.ValidateToken(token, r.cfg.JWTSecret); err == nil {
			if u, _ := claims["username"].(string); u != "" {
				actor = u
			}
		}
	}

	result := r.engine.ProcessScan(req.Context(), engine.ScanRequest{
		Barcode:     body.Barcode,
		Station:     station,
		WorkOrderID: body.WorkOrderID,
		Actor:       actor,
		AuthToken:   token,
	})

	// Every scan yields a reportable result; the HTTP status only signals
	// transport-level problems.
	respondJSON(w, http.StatusOK, result)
}
