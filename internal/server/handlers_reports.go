package server

import (
	"net/http"

	"github.com/ashita-ai/manabi/internal/model"
)

// reportResult pairs a written report with the recomputed school view.
type reportResult struct {
	Report model.ICTReport  `json:"report"`
	School model.SchoolView `json:"school"`
}

// HandleCreateReport handles POST /v1/schools/{school_id}/reports (field_officer+).
func (h *Handlers) HandleCreateReport(w http.ResponseWriter, r *http.Request) {
	schoolID, err := pathUUID(r, "school_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	var report model.ICTReport
	if err := decodeJSON(w, r, &report, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	created, v, err := h.schools.CreateReport(r.Context(), schoolID, report)
	if err != nil {
		h.writeServiceError(w, r, "create report", err)
		return
	}
	w.Header().Set("Location", "/v1/reports/"+created.ID.String())
	writeJSON(w, r, http.StatusCreated, reportResult{Report: created, School: v})
}

// HandleListReports handles GET /v1/schools/{school_id}/reports. Reports are
// ordered oldest first.
func (h *Handlers) HandleListReports(w http.ResponseWriter, r *http.Request) {
	schoolID, err := pathUUID(r, "school_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	reports, err := h.schools.ListReports(r.Context(), schoolID)
	if err != nil {
		h.writeServiceError(w, r, "list reports", err)
		return
	}
	writeList(w, r, reports, len(reports), len(reports), len(reports), 0)
}

// HandleGetReport handles GET /v1/reports/{report_id}.
func (h *Handlers) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "report_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	report, err := h.schools.GetReport(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "get report", err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

// HandleUpdateReport handles PUT /v1/reports/{report_id} (field_officer+).
func (h *Handlers) HandleUpdateReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "report_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	var report model.ICTReport
	if err := decodeJSON(w, r, &report, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	updated, v, err := h.schools.UpdateReport(r.Context(), id, report)
	if err != nil {
		h.writeServiceError(w, r, "update report", err)
		return
	}
	writeJSON(w, r, http.StatusOK, reportResult{Report: updated, School: v})
}

// HandleDeleteReport handles DELETE /v1/reports/{report_id} (field_officer+)
// and returns the school view recomputed without the report.
func (h *Handlers) HandleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "report_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	v, err := h.schools.DeleteReport(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "delete report", err)
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}
