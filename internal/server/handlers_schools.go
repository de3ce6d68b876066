package server

import (
	"net/http"
	"strings"

	"github.com/ashita-ai/manabi/internal/model"
)

// HandleCreateSchool handles POST /v1/schools (field_officer+).
func (h *Handlers) HandleCreateSchool(w http.ResponseWriter, r *http.Request) {
	var school model.School
	if err := decodeJSON(w, r, &school, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	v, err := h.schools.CreateSchool(r.Context(), school)
	if err != nil {
		h.writeServiceError(w, r, "create school", err)
		return
	}
	w.Header().Set("Location", "/v1/schools/"+v.ID.String())
	writeJSON(w, r, http.StatusCreated, v)
}

// HandleListSchools handles GET /v1/schools. Filters: district,
// environment, search (name substring).
func (h *Handlers) HandleListSchools(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := queryPage(r, 50)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	q := r.URL.Query()
	filter := model.SchoolFilter{
		District:    strings.TrimSpace(q.Get("district")),
		Environment: model.Environment(q.Get("environment")),
		Search:      strings.TrimSpace(q.Get("search")),
	}
	switch filter.Environment {
	case "", model.EnvironmentUrban, model.EnvironmentRural, model.EnvironmentPeriUrban:
	default:
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "environment must be one of Urban, Rural, Peri-urban")
		return
	}

	views, total, err := h.schools.ListSchools(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeServiceError(w, r, "list schools", err)
		return
	}
	writeList(w, r, views, len(views), total, limit, offset)
}

// HandleGetSchool handles GET /v1/schools/{school_id}.
func (h *Handlers) HandleGetSchool(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "school_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	v, err := h.schools.GetSchool(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "get school", err)
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

// HandleUpdateSchool handles PUT /v1/schools/{school_id} (field_officer+).
// The body replaces the whole profile; omitted sections become absent.
func (h *Handlers) HandleUpdateSchool(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "school_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	var school model.School
	if err := decodeJSON(w, r, &school, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	v, err := h.schools.UpdateSchool(r.Context(), id, school)
	if err != nil {
		h.writeServiceError(w, r, "update school", err)
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

// HandleDeleteSchool handles DELETE /v1/schools/{school_id} (field_officer+).
func (h *Handlers) HandleDeleteSchool(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "school_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	if err := h.schools.DeleteSchool(r.Context(), id); err != nil {
		h.writeServiceError(w, r, "delete school", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSchoolMaturity handles GET /v1/schools/{school_id}/maturity.
func (h *Handlers) HandleSchoolMaturity(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "school_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	m, err := h.schools.Maturity(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "compute maturity", err)
		return
	}
	writeJSON(w, r, http.StatusOK, m)
}

// HandleSchoolReadiness handles GET /v1/schools/{school_id}/readiness.
func (h *Handlers) HandleSchoolReadiness(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "school_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	rd, err := h.schools.Readiness(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "compute readiness", err)
		return
	}
	writeJSON(w, r, http.StatusOK, rd)
}

// HandleSchoolTrend handles GET /v1/schools/{school_id}/trend.
func (h *Handlers) HandleSchoolTrend(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "school_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	points, err := h.schools.Trend(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "compute trend", err)
		return
	}
	writeJSON(w, r, http.StatusOK, points)
}

// HandleSimilarSchools handles GET /v1/schools/{school_id}/similar.
func (h *Handlers) HandleSimilarSchools(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "school_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", 5)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}
	similar, err := h.schools.Similar(r.Context(), id, limit)
	if err != nil {
		h.writeServiceError(w, r, "find similar schools", err)
		return
	}
	writeJSON(w, r, http.StatusOK, similar)
}
