package functions

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/auth"
	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/period"
	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/sales"
	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/store"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// getPeriodQuery reads the "period" query parameter.
// Default value is the current month, which is what the sales dashboard opens with.
func getPeriodQuery(u *url.URL) (period.Period, error) {
	v := u.Query().Get("period")
	if v == "" {
		slog.Info("period is empty, using month", slog.Group("getPeriodQuery"))
		return period.Month, nil
	}
	p, err := period.Parse(v)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return p, nil
}

// getRequiredQuery returns the trimmed value of key or a bad request error.
func getRequiredQuery(u *url.URL, key string) (string, error) {
	v := strings.TrimSpace(u.Query().Get(key))
	if v == "" {
		return "", badRequest("%s is required", key)
	}
	return v, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", slog.Group("writeJSON", "error", err))
	}
}

// statusFor maps an error to the response status. Only AuthError asks the caller to act.
func statusFor(err error) int {
	var authErr *auth.AuthError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, period.ErrUnknownPeriod),
		errors.Is(err, sales.ErrMissingVideoID):
		return http.StatusBadRequest
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError logs err under the operation group and responds with its status.
func writeError(w http.ResponseWriter, group string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", slog.Group(group, "status", status, "error", err))
	} else {
		slog.Warn("Request rejected", slog.Group(group, "status", status, "error", err))
	}
	http.Error(w, err.Error(), status)
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}
