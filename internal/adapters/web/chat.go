package web

import (
	"net/http"
)

// chatWithData handles POST /chat-with-data. It is a pure forwarding
// boundary: the question goes upstream unmodified and the upstream
// response comes back with its original status. The only local decision
// is rejecting an empty question before any network call.
func (h *Handler) chatWithData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Question == "" {
		writeError(w, r, "Question is required", "", http.StatusBadRequest)
		return
	}

	res, err := h.chat.ChatWithData(r.Context(), req.Question)
	if err != nil {
		h.log.Error().Err(err).Msg("chat upstream unreachable")
		writeError(w, r, "Failed to connect to Vanna AI", err.Error(), http.StatusInternalServerError)
		return
	}

	if !res.OK() {
		h.log.Error().Int("status", res.StatusCode).Msg("chat upstream returned error")
		writeError(w, r, "Vanna AI request failed", string(res.Body), res.StatusCode)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Body)
}
