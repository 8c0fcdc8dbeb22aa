package functions

import (
	"net/http"
)

const (
	viewRanking   = "ranking"
	viewSummary   = "summary"
	viewDashboard = "dashboard"
)

// Sales answers the revenue attribution views for a period.
func (h *Handlers) Sales(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	ctx := r.Context()

	p, err := getPeriodQuery(r.URL)
	if err != nil {
		writeError(w, "sales", err)
		return
	}

	switch view := r.URL.Query().Get("view"); view {
	case "", viewRanking:
		ranking, err := h.Reports.Rank(ctx, p)
		if err != nil {
			writeError(w, "sales", err)
			return
		}
		writeJSON(w, http.StatusOK, ranking)
	case viewSummary:
		summary, err := h.Reports.Summary(ctx, p)
		if err != nil {
			writeError(w, "sales", err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	case viewDashboard:
		dashboard, err := h.Reports.Dashboard(ctx, p)
		if err != nil {
			writeError(w, "sales", err)
			return
		}
		writeJSON(w, http.StatusOK, dashboard)
	default:
		writeError(w, "sales", badRequest("unknown view %q", view))
	}
}

// SalesDeals lists the deals attributed to one video.
func (h *Handlers) SalesDeals(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	videoID, err := getRequiredQuery(r.URL, "videoId")
	if err != nil {
		writeError(w, "salesDeals", err)
		return
	}

	deals, err := h.Reports.DealsByVideo(r.Context(), videoID)
	if err != nil {
		writeError(w, "salesDeals", err)
		return
	}
	writeJSON(w, http.StatusOK, deals)
}
