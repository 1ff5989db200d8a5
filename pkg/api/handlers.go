package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/qaforge/reportoor/pkg/report"
)

// errorResponse is a standard error payload.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// handleHealth returns server health status.
func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// scopeFromQuery reads the optional project_id query parameter.
func scopeFromQuery(r *http.Request) (report.Scope, error) {
	raw := r.URL.Query().Get("project_id")
	if raw == "" {
		return report.Scope{}, nil
	}

	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return report.Scope{}, fmt.Errorf("invalid project_id %q: %w", raw, err)
	}

	pid := uint(id)

	return report.Scope{ProjectID: &pid}, nil
}

// dimensionInfo is the wire shape of one dimension descriptor.
type dimensionInfo struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Key         string `json:"key"`
	MultiValued bool   `json:"multi_valued"`
}

// handleListDimensions lists the dimensions available under the requested
// scope. The project dimension only appears in cross-project mode.
func (s *server) handleListDimensions(
	w http.ResponseWriter, r *http.Request,
) {
	scope, err := scopeFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

		return
	}

	dims := report.DimensionsForScope(scope)
	infos := make([]dimensionInfo, 0, len(dims))

	for _, d := range dims {
		infos = append(infos, dimensionInfo{
			ID:          d.ID,
			Label:       d.Label,
			Key:         d.Key,
			MultiValued: d.MultiValued,
		})
	}

	writeJSON(w, http.StatusOK, infos)
}

// metricInfo is the wire shape of one metric descriptor.
type metricInfo struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	ValueKey string `json:"value_key"`
	Entity   string `json:"entity"`
}

// handleListMetrics lists the registered metrics.
func (s *server) handleListMetrics(w http.ResponseWriter, _ *http.Request) {
	metrics := report.Metrics()
	infos := make([]metricInfo, 0, len(metrics))

	for _, m := range metrics {
		infos = append(infos, metricInfo{
			ID:       m.ID,
			Label:    m.Label,
			ValueKey: m.ValueKey,
			Entity:   string(m.Entity),
		})
	}

	writeJSON(w, http.StatusOK, infos)
}

// handleDimensionValues enumerates the candidate values of one dimension
// under the requested scope and date range.
func (s *server) handleDimensionValues(
	w http.ResponseWriter, r *http.Request,
) {
	scope, err := scopeFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

		return
	}

	dim, err := report.LookupDimension(chi.URLParam(r, "id"), scope)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

		return
	}

	dateRange := &report.DateRange{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}

	filter, err := report.BuildDateFilter(dateRange, "")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

		return
	}

	values, err := dim.Values(r.Context(), s.store, scope, filter)
	if err != nil {
		s.log.WithError(err).Error("Failed to enumerate dimension values")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"enumerating dimension values"})

		return
	}

	writeJSON(w, http.StatusOK, values)
}

// handleRunReport computes one report. Unknown dimension or metric ids are
// client errors; an empty metric selection means there is nothing to
// render; engine and data source failures surface as server errors rather
// than partial results.
func (s *server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	var req report.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{"invalid request body: " + err.Error()})

		return
	}

	result, err := s.engine.Run(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, report.ErrEmptySelection):
			writeJSON(w, http.StatusUnprocessableEntity,
				errorResponse{err.Error()})

		case errors.Is(err, report.ErrUnknownDimension),
			errors.Is(err, report.ErrUnknownMetric),
			errors.Is(err, report.ErrBadDate):
			writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

		case errors.Is(err, report.ErrRowLimit):
			writeJSON(w, http.StatusRequestEntityTooLarge,
				errorResponse{err.Error()})

		default:
			s.log.WithError(err).Error("Report run failed")
			writeJSON(w, http.StatusInternalServerError,
				errorResponse{"running report"})
		}

		return
	}

	writeJSON(w, http.StatusOK, result)
}
