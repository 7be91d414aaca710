package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/millwork-io/shoptrak/internal/audit"
	"github.com/millwork-io/shoptrak/internal/engine"
	"github.com/millwork-io/shoptrak/internal/models"
	"github.com/millwork-io/shoptrak/internal/printer"
	"github.com/millwork-io/shoptrak/internal/store"
)

// getTree serves the hierarchical status projection of one work order.
// Status and statistics are skipped unless includeStatus=true; callers that
// only need structure pay less.
func (r *Router) getTree(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	includeStatus := req.URL.Query().Get("includeStatus") == "true"

	resp, errRes, ok := r.engine.Tree(req.Context(), vars["id"], includeStatus)
	if !ok {
		status := http.StatusNotFound
		if errRes.Code == engine.CodeStorageUnavailable {
			status = http.StatusServiceUnavailable
		}
		respondError(w, status, errRes.Message)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// getSheetLabels renders a printable QR label sheet for every part assigned
// to one nest sheet.
func (r *Router) getSheetLabels(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	st := store.NewGormStore(r.db)
	wo, err := st.LoadWorkOrder(req.Context(), vars["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Work order not found")
		return
	}

	var sheet *models.NestSheet
	for i := range wo.NestSheets {
		if wo.NestSheets[i].ID == vars["sheet"] {
			sheet = &wo.NestSheets[i]
			break
		}
	}
	if sheet == nil {
		respondError(w, http.StatusNotFound, "Nest sheet not found")
		return
	}

	labels := []printer.Label{{Barcode: sheet.ID, Caption: "SHEET " + sheet.Name}}
	for i := range sheet.Parts {
		labels = append(labels, printer.Label{
			Barcode: sheet.Parts[i].ID,
			Caption: sheet.Parts[i].Name,
		})
	}

	pdf, err := printer.GenerateLabelsPDF(labels, printer.DefaultLayout())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Label generation failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// archiveWorkOrder closes out a completed work order. Admin only; the auth
// middleware has already validated the session.
func (r *Router) archiveWorkOrder(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	st := store.NewGormStore(r.db)
	if err := st.ArchiveWorkOrder(req.Context(), vars["id"]); err != nil {
		respondError(w, http.StatusServiceUnavailable, "Archive failed")
		return
	}

	sink := audit.NewGormSink(r.db)
	sink.Record(req.Context(), audit.Event{
		WorkOrderID: vars["id"],
		EntityID:    vars["id"],
		EntityKind:  "workorder",
		Station:     "admin",
		Actor:       actorFrom(req),
		NewStatus:   models.PartStatus("archived"),
	})

	respondJSON(w, http.StatusOK, map[string]string{"status": "archived"})
}
