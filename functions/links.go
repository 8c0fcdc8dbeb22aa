package functions

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/store"
)

// Links manages the tracking links whose UTM content attributes deals to videos.
func (h *Handlers) Links(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost, http.MethodDelete) {
		return
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		links, err := h.LinkStore.ListLinks(ctx)
		if err != nil {
			writeError(w, "links", err)
			return
		}
		writeJSON(w, http.StatusOK, links)

	case http.MethodPost:
		var req LinkRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, "links", err)
			return
		}
		link, err := newLink(req)
		if err != nil {
			writeError(w, "links", err)
			return
		}
		if err := h.LinkStore.SaveLink(ctx, link); err != nil {
			writeError(w, "links", err)
			return
		}
		writeJSON(w, http.StatusCreated, link)

	case http.MethodDelete:
		raw, err := getRequiredQuery(r.URL, "id")
		if err != nil {
			writeError(w, "links", err)
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, "links", badRequest("invalid id %q", raw))
			return
		}
		if err := h.LinkStore.DeleteLink(ctx, id); err != nil {
			writeError(w, "links", err)
			return
		}
		writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
	}
}

// newLink validates a link request. The UTM content is stored as typed; matching
// normalizes it later.
func newLink(req LinkRequest) (*store.Link, error) {
	utm := strings.TrimSpace(req.UTMContent)
	if utm == "" {
		return nil, badRequest("utmContent is required")
	}
	if req.URL != "" {
		u, err := url.Parse(req.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, badRequest("invalid url %q", req.URL)
		}
	}
	return &store.Link{
		VideoID:    strings.TrimSpace(req.VideoID),
		UTMContent: utm,
		Title:      strings.TrimSpace(req.Title),
		URL:        req.URL,
	}, nil
}
