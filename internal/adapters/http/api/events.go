// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"

	"github.com/okian/passlog/internal/domain/model"
)

// eventsResponse is the read shape for a partition listing.
type eventsResponse struct {
	Partition string        `json:"partition"`
	Events    []model.Event `json:"events"`
}

// EventsHandler handles partition listing requests.
type EventsHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies, maxLimit int) *EventsHandler {
	return &EventsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetEvents handles GET /events?partition=NAME&limit=N requests.
func (h *EventsHandler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_events"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	partition := r.URL.Query().Get("partition")
	switch partition {
	case string(model.PartitionFirstHalf), string(model.PartitionSecondHalf), string(model.PartitionArchive):
	default:
		writeError(w, http.StatusBadRequest, NewKind(op, ErrBadRequest))
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	if h.maxLimit > 0 && (limit == 0 || limit > h.maxLimit) {
		limit = h.maxLimit
	}

	events, err := h.deps.ListEvents(r.Context(), partition, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, Wrap(op, err))
		return
	}
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, eventsResponse{Partition: partition, Events: events})
}
