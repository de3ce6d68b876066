package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/manabi/internal/model"
	"github.com/ashita-ai/manabi/internal/service/schools"
)

// HandleSummary handles GET /v1/summary.
func (h *Handlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	stats, err := h.schools.Summary(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "summary", err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

// HandleCompare handles GET /v1/compare?ids=a,b[,c...].
func (h *Handlers) HandleCompare(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "ids is required")
		return
	}
	parts := strings.Split(raw, ",")
	if len(parts) > schools.MaxCompare*2 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput,
			fmt.Sprintf("at most %d schools can be compared", schools.MaxCompare))
		return
	}
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		id, err := uuid.Parse(strings.TrimSpace(p))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid school id: "+p)
			return
		}
		ids = append(ids, id)
	}

	cmp, err := h.schools.Compare(r.Context(), ids)
	if err != nil {
		h.writeServiceError(w, r, "compare schools", err)
		return
	}
	writeJSON(w, r, http.StatusOK, cmp)
}

// errClientGone stops an export whose client disconnected.
var errClientGone = errors.New("client disconnected")

// HandleExportSchools handles GET /v1/export/schools. Streams every school
// with its maturity and report-only readiness as NDJSON.
func (h *Handlers) HandleExportSchools(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("manabi-schools-%s.ndjson", time.Now().UTC().Format("20060102-150405"))

	encoder := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	started := false
	rows := 0

	err := h.schools.Export(r.Context(), func(row schools.ExportRow) error {
		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if err := encoder.Encode(row); err != nil {
			return errClientGone
		}
		rows++
		if flusher != nil && rows%100 == 0 {
			flusher.Flush()
		}
		return nil
	})
	switch {
	case errors.Is(err, errClientGone):
		return
	case err != nil && !started:
		h.writeServiceError(w, r, "export schools", err)
		return
	case err != nil:
		h.logger.Error("export aborted mid-stream", "error", err, "rows", rows)
		return
	}
	if !started {
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		w.WriteHeader(http.StatusOK)
	}
	if flusher != nil {
		flusher.Flush()
	}
}
