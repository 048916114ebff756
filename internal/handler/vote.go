package handler

import (
	"net/http"

	"github.com/sakif/devforum/internal/service"
)

// VoteHandler exposes the vote endpoints.
//
//	POST /api/votes       → HandleCast  (auth) — upsert with toggle semantics
//	GET  /api/votes/state → HandleState (auth) — the caller's vote on one target
type VoteHandler struct {
	votes *service.VoteService
}

// NewVoteHandler creates a VoteHandler.
func NewVoteHandler(votes *service.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// HandleCast applies a vote. Casting the same vote twice toggles it off;
// casting the opposite vote flips it. The response carries the caller's
// resulting vote state.
func (h *VoteHandler) HandleCast(w http.ResponseWriter, r *http.Request) {
	var in service.VoteInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	state, err := h.votes.Cast(r.Context(), callerID(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, state)
}

// HandleState returns whether the caller has upvoted or downvoted the
// target named by the actionId and actionType query parameters.
func (h *VoteHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state, err := h.votes.State(r.Context(), callerID(r), q.Get("actionId"), q.Get("actionType"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, state)
}
