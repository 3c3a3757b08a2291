// Package api registers the HTTP endpoints: extraction, proxying, and
// service introspection.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"video-extractor-go/pkg/appctx"
	"video-extractor-go/pkg/httpclient"
	"video-extractor-go/pkg/services"
	"video-extractor-go/pkg/types"
)

// Handler serves the HTTP API.
type Handler struct {
	ctx *appctx.Context
}

// New creates the API handler.
func New(ctx *appctx.Context) *Handler {
	return &Handler{ctx: ctx}
}

// RegisterRoutes attaches all endpoints to the router.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /api/extract", h.handleExtract)
	mux.HandleFunc("POST /extract", h.handleExtract)
	mux.HandleFunc("GET /api/extract", h.handleExtractGet)
	mux.HandleFunc("GET /api/players", h.handlePlayers)
	mux.HandleFunc("GET /proxy", h.handleProxy)
	mux.HandleFunc("GET /fetch", h.handleFetch)
	mux.HandleFunc("GET /health", h.handleHealth)
}

type extractRequest struct {
	URL     string `json:"url"`
	Referer string `json:"referer"`
}

type extractResponse struct {
	OK       bool                `json:"ok"`
	Error    string              `json:"error,omitempty"`
	PageInfo *types.PageInfo     `json:"pageInfo,omitempty"`
	Sources  []types.MediaSource `json:"sources,omitempty"`
}

// handleExtract runs an extraction for a JSON body request. The
// response is always 200; failures are reported in the envelope so
// player frontends handle one response shape.
func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusOK, extractResponse{OK: false, Error: "missing or invalid url"})
		return
	}
	h.runExtract(w, r, req.URL, req.Referer)
}

// handleExtractGet is the query-parameter variant.
func (h *Handler) handleExtractGet(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, "url parameter is required")
		return
	}
	h.runExtract(w, r, target, r.URL.Query().Get("referer"))
}

func (h *Handler) runExtract(w http.ResponseWriter, r *http.Request, target, referer string) {
	result, err := h.ctx.Extract.Extract(r.Context(), target, referer)
	if err != nil {
		h.ctx.Log.Warn("extraction failed", "url", target, "error", err)
		writeJSON(w, http.StatusOK, extractResponse{OK: false, Error: err.Error()})
		return
	}

	sources := result.Sources
	if sources == nil {
		sources = []types.MediaSource{}
	}
	writeJSON(w, http.StatusOK, extractResponse{
		OK:       true,
		PageInfo: &result.PageInfo,
		Sources:  sources,
	})
}

// handlePlayers lists the registered host extractors in match order.
func (h *Handler) handlePlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"players": h.ctx.Registry.Names(),
	})
}

// handleProxy relays remote media through this origin. Playlists are
// rewritten so every URI comes back through the proxy; everything else
// streams through with range support.
func (h *Handler) handleProxy(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, "url parameter is required")
		return
	}

	referer := h.ctx.Proxy.ResolveReferer(target, r.URL.Query().Get("referer"))

	if h.ctx.Proxy.IsPlaylist(target, r.URL.Query().Get("type")) {
		pl, err := h.ctx.Proxy.HandlePlaylist(r.Context(), target, referer)
		if err != nil {
			h.writeUpstreamError(w, target, err)
			return
		}
		writePlaylist(w, pl)
		return
	}

	stream, pl, err := h.ctx.Proxy.HandleStream(r.Context(), target, referer, r.Header.Get("Range"))
	if err != nil {
		h.writeUpstreamError(w, target, err)
		return
	}
	if pl != nil {
		writePlaylist(w, pl)
		return
	}
	defer stream.Body.Close()

	w.Header().Set("Content-Type", stream.ContentType)
	w.Header().Set("Accept-Ranges", stream.AcceptRanges)
	if stream.ContentLength != "" {
		w.Header().Set("Content-Length", stream.ContentLength)
	}
	if stream.ContentRange != "" {
		w.Header().Set("Content-Range", stream.ContentRange)
	}
	if stream.Disposition != "" {
		w.Header().Set("Content-Disposition", stream.Disposition)
	}
	w.WriteHeader(stream.Status)

	// Copy errors after headers usually mean the client went away.
	if _, err := io.Copy(w, stream.Body); err != nil {
		h.ctx.Log.Debug("stream copy ended", "url", target, "error", err)
	}
}

// handleFetch returns the raw upstream page text, mainly for debugging
// extractor patterns.
func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, "url parameter is required")
		return
	}

	res, err := h.ctx.Extract.Fetch(r.Context(), target, r.URL.Query().Get("referer"))
	if err != nil {
		h.writeUpstreamError(w, target, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, res)
}

// handleHealth reports liveness.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"uptimeSeconds": int(time.Since(h.ctx.StartedAt).Seconds()),
		"port":          h.ctx.Config.Port,
	})
}

// writeUpstreamError reports a failed upstream request: 400 when the
// caller handed us an unusable target URL, 502 for everything else.
func (h *Handler) writeUpstreamError(w http.ResponseWriter, target string, err error) {
	h.ctx.Log.Warn("upstream request failed", "url", target, "error", err)
	status := http.StatusBadGateway
	if errors.Is(err, httpclient.ErrInvalidURL) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"url":   target,
	})
}

func writePlaylist(w http.ResponseWriter, pl *services.PlaylistResponse) {
	contentType := pl.ContentType
	if contentType == "" {
		contentType = "application/vnd.apple.mpegurl"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(pl.Status)
	io.WriteString(w, pl.Body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
