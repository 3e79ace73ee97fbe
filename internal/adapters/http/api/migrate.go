// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// migrateResponse reports how many rows a migration moved.
type migrateResponse struct {
	Migrated int `json:"migrated"`
}

// MigrateHandler handles archive migration triggers.
type MigrateHandler struct {
	deps Dependencies
}

// NewMigrateHandler creates a new migrate handler.
func NewMigrateHandler(deps Dependencies) *MigrateHandler {
	return &MigrateHandler{deps: deps}
}

// HandlePostMigrate handles POST /migrate requests.
func (h *MigrateHandler) HandlePostMigrate(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_migrate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	moved, err := h.deps.Migrate(r.Context())
	if err != nil {
		if h.deps.IsRetryable(err) {
			writeError(w, http.StatusServiceUnavailable, Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, Wrap(op, err))
		return
	}

	writeJSON(w, http.StatusOK, migrateResponse{Migrated: moved})
}
