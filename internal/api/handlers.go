package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/windcover/internal/store"
	"github.com/sells-group/windcover/internal/wind"
)

// EvaluateRequest is the body of POST /v1/evaluate. Range bounds accept
// YYYY-MM-DD or RFC3339; the end is exclusive.
type EvaluateRequest struct {
	Point    wind.Point           `json:"point"`
	Range    RangeRequest         `json:"range"`
	Scenario *wind.ScenarioParams `json:"scenario,omitempty"`
	Turbine  *wind.TurbineConfig  `json:"turbine,omitempty"`
	Filter   *wind.BuildingFilter `json:"filter,omitempty"`
}

// RangeRequest is a date range as sent by clients.
type RangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CoverageRequest is the body of POST /v1/evaluations/{id}/coverage. Unset
// scenario fields keep the saved evaluation's values.
type CoverageRequest struct {
	Scenario wind.ScenarioParams `json:"scenario"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// query builds a wind.Query from the request and the server defaults.
func (s *Server) query(req EvaluateRequest) (wind.Query, error) {
	r, err := wind.ParseRange(req.Range.Start, req.Range.End, s.defaults.Location)
	if err != nil {
		return wind.Query{}, err
	}
	q := wind.Query{
		Point:    req.Point,
		Range:    r,
		Turbine:  s.defaults.Turbine,
		Scenario: s.defaults.Scenario,
		Filter:   s.defaults.Filter,
	}
	if req.Scenario != nil {
		q.Scenario = req.Scenario.Merge(s.defaults.Scenario)
	}
	if req.Turbine != nil {
		q.Turbine = req.Turbine.Merge(s.defaults.Turbine)
	}
	if req.Filter != nil {
		q.Filter = req.Filter.Merge(s.defaults.Filter)
	}
	return q, nil
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { s.metrics.EvaluationDuration.Observe(time.Since(start).Seconds()) }()

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.Evaluations.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	q, err := s.query(req)
	if err == nil {
		var eval *wind.Evaluation
		eval, err = s.eval.Evaluate(r.Context(), q)
		if err == nil && s.store != nil {
			err = s.store.SaveEvaluation(r.Context(), eval)
		}
		if err == nil {
			s.metrics.Evaluations.WithLabelValues("ok").Inc()
			writeJSON(w, http.StatusOK, eval)
			return
		}
	}

	_, label := statusFor(err)
	s.metrics.Evaluations.WithLabelValues(label).Inc()
	writeError(w, r, err)
}

func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	eval, err := s.store.GetEvaluation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	filter, err := listFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	evals, err := s.store.ListEvaluations(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if evals == nil {
		evals = []wind.Evaluation{}
	}
	writeJSON(w, http.StatusOK, evals)
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var req CoverageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	eval, err := s.store.GetEvaluation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := wind.Recompute(eval, req.Scenario.Merge(eval.Scenario), s.defaults.Quality)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.metrics.Recomputes.Inc()
	writeJSON(w, http.StatusOK, out.Coverage)
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "evaluation storage is disabled"})
		return false
	}
	return true
}

func listFilter(r *http.Request) (store.EvaluationFilter, error) {
	var f store.EvaluationFilter
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, eris.Errorf("invalid limit %q", v)
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, eris.Errorf("invalid offset %q", v)
		}
		f.Offset = n
	}
	if v := q.Get("since"); v != "" {
		t, err := wind.ParseDate(v, time.UTC)
		if err != nil {
			return f, eris.Errorf("invalid since %q", v)
		}
		f.Since = t
	}
	return f, nil
}
