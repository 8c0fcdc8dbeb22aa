package functions

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/store"
)

// Dashboard lists the stored videos of a channel, most watched first.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	channelID, err := getRequiredQuery(r.URL, "channelId")
	if err != nil {
		writeError(w, "dashboard", err)
		return
	}

	videos, err := h.Videos.ListVideosByChannel(r.Context(), channelID)
	if err != nil {
		writeError(w, "dashboard", err)
		return
	}

	summaries := make([]VideoSummary, 0, len(videos))
	for _, v := range videos {
		summaries = append(summaries, newVideoSummary(v))
	}
	writeJSON(w, http.StatusOK, summaries)
}

// VideoDetail returns the deep dive data of one video: its retention curve and traffic rows.
func (h *Handlers) VideoDetail(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	videoID, err := getRequiredQuery(r.URL, "videoId")
	if err != nil {
		writeError(w, "videoDetail", err)
		return
	}

	detail := VideoDetail{
		VideoID:   videoID,
		Retention: []store.RetentionPoint{},
		Traffic:   []store.TrafficSourceRow{},
	}
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		points, err := h.Videos.RetentionByVideo(ctx, videoID)
		if err != nil {
			return err
		}
		if points != nil {
			detail.Retention = points
		}
		return nil
	})
	g.Go(func() error {
		rows, err := h.Videos.TrafficByVideo(ctx, videoID)
		if err != nil {
			return err
		}
		if rows != nil {
			detail.Traffic = rows
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		writeError(w, "videoDetail", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
