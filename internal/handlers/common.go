package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/TaFhiM12/EarnSphereX-server/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// pathID parses the {id} path segment as a UUID.
func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}

// pagination reads ?page and ?limit with 1-based pages.
func pagination(r *http.Request, defaultLimit int) (page, limit, offset int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return page, limit, (page - 1) * limit
}

// writeServiceError maps economy sentinel errors to HTTP statuses. Anything
// unrecognized is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound) || errors.Is(err, pgx.ErrNoRows):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, services.ErrTaskFull):
		writeError(w, http.StatusConflict, "task has no remaining worker slots")
	case errors.Is(err, services.ErrAlreadyDecided):
		writeError(w, http.StatusConflict, "already decided")
	case errors.Is(err, services.ErrInsufficientCoins):
		writeError(w, http.StatusConflict, "insufficient coins")
	case errors.Is(err, services.ErrBelowMinimum):
		writeError(w, http.StatusBadRequest, "minimum withdrawal is 200 coins")
	case errors.Is(err, services.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "invalid role")
	case errors.Is(err, services.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "amount must be positive")
	default:
		log.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
