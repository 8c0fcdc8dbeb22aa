package functions

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/ingest"
)

// Sync ingests the analytics of one channel. It is triggered by Cloud Scheduler, which
// only sees the status code: a 401 means the channel owner has to authorize again.
func (h *Handlers) Sync(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	ctx := r.Context()

	var req SyncRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "sync", err)
		return
	}
	req.ChannelID = strings.TrimSpace(req.ChannelID)
	if req.ChannelID == "" {
		writeError(w, "sync", badRequest("channelId is required"))
		return
	}

	res, err := h.Syncer.Sync(ctx, ingest.SyncRequest{
		ChannelID: req.ChannelID,
		VideoIDs:  req.VideoIDs,
		DeepDive:  req.DeepDive,
	})
	if err != nil {
		writeError(w, "sync", err)
		return
	}

	writeJSON(w, http.StatusOK, SyncResponse{Success: true, ProcessedCount: res.ProcessedCount})
	slog.Info("sync", slog.Group("sync", "channelId", req.ChannelID, "processed", res.ProcessedCount))
}
