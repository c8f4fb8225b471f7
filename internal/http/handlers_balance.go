package http

import (
	"fmt"
	"html/template"
	"net/http"
	"sync/atomic"

	"holdings/internal/core"
	"holdings/internal/log"
)

// handleBalanceSheetJSON returns the aggregated view. A degraded view is
// still a 200: the body carries the flag and the reason.
func (s *Server) handleBalanceSheetJSON(w http.ResponseWriter, r *http.Request) {
	view := s.balance.BalanceSheet(r.Context(), ParseQuery(r.URL.Query()))
	writeJSON(w, http.StatusOK, view)
}

// handleListHoldings returns the filtered rows, assets first. Unlike the
// balance sheet route it fails when the pipeline fails.
func (s *Server) handleListHoldings(w http.ResponseWriter, r *http.Request) {
	view := s.balance.BalanceSheet(r.Context(), ParseQuery(r.URL.Query()))
	if view.Degraded {
		writeJSONError(w, http.StatusBadGateway, view.Reason)
		return
	}
	writeJSON(w, http.StatusOK, view.Rows())
}

func (s *Server) handleGetHolding(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "missing holding id")
		return
	}

	row, err := s.balance.Row(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, "Failed to fetch holding", err, log.OpRead, id)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleCreateHolding(w http.ResponseWriter, r *http.Request) {
	rec, err := DecodeHolding(w, r)
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}

	id, err := s.holdings.CreateHolding(r.Context(), rec)
	if err != nil {
		s.writeServiceError(w, r, "Failed to create holding", err, log.OpCreate, rec.ID)
		return
	}
	atomic.AddInt64(&s.appMetrics.holdingsCreated, 1)

	w.Header().Set("Location", "/api/holdings/"+id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleCreateHoldingForm serves the "New Asset" form. It answers with an
// HTML fragment and asks the page to refresh the balance sheet.
func (s *Server) handleCreateHoldingForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Parse form error",
			log.FieldError, err, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusBadRequest, "Invalid request format").Write(w)
		return
	}

	rec, err := ParseHoldingForm(r.Form)
	if err != nil {
		ErrorResponse(statusFor(err), "Invalid holding: "+err.Error()).Write(w)
		return
	}

	id, err := s.holdings.CreateHolding(r.Context(), rec)
	if err != nil {
		status := statusFor(err)
		s.logServiceError(r, "Failed to create holding", err, log.OpCreate, rec.ID)
		ErrorResponse(status, publicMessage(err, status)).
			TriggerErrorNotification("Holding not saved").
			Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.holdingsCreated, 1)

	name := sanitizeInput(r.Form.Get("name"))
	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerHoldingCreated(id).
		TriggerBalanceRefresh().
		TriggerFormReset().
		TriggerSuccessNotification(fmt.Sprintf("Saved %s", name)).
		BodyHTML(fmt.Sprintf(`<div class="success">Holding saved (#%s): %s</div>`,
			template.HTMLEscapeString(id), template.HTMLEscapeString(name))).
		Write(w)
}

// handleExport writes the unfiltered balance sheet to the configured
// spreadsheet. A degraded view is never exported.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		s.respondError(w, r, http.StatusNotImplemented, "export is not configured")
		return
	}

	view := s.balance.BalanceSheet(r.Context(), core.Query{OwnerFilter: core.AllOwners})
	if view.Degraded {
		s.respondError(w, r, http.StatusServiceUnavailable, view.Reason)
		return
	}

	ref, err := s.exporter.ExportBalanceSheet(r.Context(), view.BalanceSheet)
	if err != nil {
		s.logServiceError(r, "Balance sheet export failed", err, log.OpExport, "")
		s.respondError(w, r, http.StatusBadGateway, "export failed")
		return
	}
	atomic.AddInt64(&s.appMetrics.exports, 1)

	if isHTMX(r) {
		NewHTMXResponse().
			TriggerSuccessNotification("Exported to " + ref).
			BodyHTML(`<div class="success">Exported ` + template.HTMLEscapeString(ref) + `</div>`).
			Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ref": ref, "rows": view.Shown()})
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeJSONError(w, http.StatusNotImplemented, "snapshots are not configured")
		return
	}
	limit := ParseLimit(r.URL.Query(), defaultSnapshotLimit, maxSnapshotLimit)
	snaps, err := s.snapshots.ListSnapshots(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, "Failed to list snapshots", err, log.OpSnapshot, "")
		return
	}
	if snaps == nil {
		snaps = []core.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

// respondError answers htmx requests with an HTML fragment and everything
// else with JSON.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if isHTMX(r) {
		ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
		return
	}
	writeJSONError(w, status, msg)
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error, op, id string) {
	status := statusFor(err)
	s.logServiceError(r, msg, err, op, id)
	writeJSONError(w, status, publicMessage(err, status))
}

func (s *Server) logServiceError(r *http.Request, msg string, err error, op, id string) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	args := []any{log.FieldError, err, log.FieldOperation, op, "error_type", errorType(err)}
	if id != "" {
		args = append(args, log.FieldHoldingID, id)
	}
	if statusFor(err) >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, msg, args...)
		return
	}
	logger.WarnContext(ctx, msg, args...)
}
