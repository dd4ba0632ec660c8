package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// ParseID extracts and validates a UUID from the request path. Returns the ID
// and a boolean indicating success.
func ParseID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	pathValueID := r.PathValue("id")
	id, err := uuid.Parse(pathValueID)
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid ID: %s", pathValueID))
		return uuid.Nil, false
	}
	return id, true
}

// ParseIntID extracts and validates a positive integer identifier from the
// given path parameter. Returns the ID and a boolean indicating success.
func ParseIntID(w http.ResponseWriter, r *http.Request, logger *slog.Logger, param string) (int64, bool) {
	raw := r.PathValue(param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s: %s", param, raw))
		return 0, false
	}
	return id, true
}

// GetUserID retrieves the authenticated principal's ID from the request
// context, responding 401 when it is absent.
func GetUserID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	userID, ok := UserID(r.Context())
	if !ok {
		RespondError(w, logger, http.StatusUnauthorized, "Unauthorized: Missing or invalid user ID")
		return uuid.Nil, false
	}
	return userID, true
}

// GetSessionID retrieves the cart session ID from the request context,
// responding 500 when the session middleware is not wired.
func GetSessionID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	sessionID, ok := SessionID(r.Context())
	if !ok || sessionID == "" {
		logger.Error("Session middleware is not configured")
		RespondError(w, logger, http.StatusInternalServerError, "Session is not configured")
		return "", false
	}
	return sessionID, true
}
