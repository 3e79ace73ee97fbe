// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/passlog/internal/domain/types"
)

// TransitionsHandler handles Out/Back transition requests.
type TransitionsHandler struct {
	deps Dependencies
}

// NewTransitionsHandler creates a new transitions handler.
func NewTransitionsHandler(deps Dependencies) *TransitionsHandler {
	return &TransitionsHandler{deps: deps}
}

// HandlePostTransition handles POST /transitions requests.
func (h *TransitionsHandler) HandlePostTransition(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_transition"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}

	caller := r.Header.Get(callerHeader)

	result, err := h.deps.Record(r.Context(), caller, types.TransitionRequest{
		RequestID:     req.RequestID,
		MemberID:      req.MemberID,
		Category:      req.Category,
		Action:        req.Action,
		ForceOverride: req.ForceOverride,
		Period:        req.Period,
		Notes:         req.Notes,
	})
	if err != nil {
		switch {
		case h.deps.IsMemberNotFound(err):
			writeError(w, http.StatusNotFound, Wrap(op, err))
		case h.deps.IsRetryable(err):
			writeError(w, http.StatusServiceUnavailable, Wrap(op, err))
		default:
			writeError(w, http.StatusInternalServerError, Wrap(op, err))
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}
