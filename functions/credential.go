package functions

import (
	"net/http"
	"strings"
)

// Credential stores the refresh token obtained when a channel owner completes the consent
// screen. A new token replaces the previous one.
func (h *Handlers) Credential(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req CredentialRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "credential", err)
		return
	}
	channelID, refreshToken := strings.TrimSpace(req.ChannelID), strings.TrimSpace(req.RefreshToken)
	if channelID == "" || refreshToken == "" {
		writeError(w, "credential", badRequest("channelId and refreshToken are required"))
		return
	}

	if err := h.Credentials.SaveCredential(r.Context(), channelID, refreshToken); err != nil {
		writeError(w, "credential", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
