package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/windcover/internal/store"
	"github.com/sells-group/windcover/internal/wind"
)

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to HTTP status codes and a metrics label.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, wind.ErrInvalidScenario),
		errors.Is(err, wind.ErrInvalidQuery),
		errors.Is(err, wind.ErrInvalidTurbine):
		return http.StatusBadRequest, "invalid"
	case errors.Is(err, wind.ErrNoWindData):
		return http.StatusNotFound, "no_data"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "error"
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // response write errors are not recoverable
	json.NewEncoder(w).Encode(data)
}

// writeError renders err with the mapped status. Server errors are logged and
// their detail withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := statusFor(err)
	msg := err.Error()
	switch {
	case errors.Is(err, wind.ErrNoWindData):
		msg = "no wind data available"
	case errors.Is(err, store.ErrNotFound):
		msg = "evaluation not found"
	case status == http.StatusInternalServerError:
		zap.L().Error("api: request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}
