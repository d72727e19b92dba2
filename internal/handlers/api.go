package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jwebster45206/memory-gate/internal/session"
	"github.com/jwebster45206/memory-gate/internal/site"
)

const maxUnlockBody = 64 << 10

// GalleryResponse is the JSON home view.
type GalleryResponse struct {
	VisitorID string `json:"visitor_id"`
	site.HomeView
}

// SectionResponse is the JSON section view.
type SectionResponse struct {
	site.SectionView
	Photo int `json:"photo"`
}

type UnlockRequest struct {
	Scope  string `json:"scope"`
	Answer string `json:"answer"`
}

type UnlockResponse struct {
	Scope        string `json:"scope"`
	Unlocked     bool   `json:"unlocked"`
	Wrong        bool   `json:"wrong"`
	ClearAfterMS int64  `json:"clear_after_ms"`
}

// GalleryHandler serves the home view as JSON.
// GET /v1/gallery
type GalleryHandler struct {
	site   *site.Site
	logger *slog.Logger
}

func NewGalleryHandler(s *site.Site, logger *slog.Logger) *GalleryHandler {
	return &GalleryHandler{site: s, logger: logger}
}

func (h *GalleryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for gallery endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}
	if err := h.site.LoadErr(); err != nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, err.Error())
		return
	}

	visitorID := session.Resolve(w, r)
	view, err := h.site.Home(r.Context(), visitorID)
	if err != nil {
		h.logger.Error("Failed to build gallery view", "visitor_id", visitorID, "error", err)
		status, msg := errorStatus(err)
		writeError(w, h.logger, status, msg)
		return
	}

	w.Header().Set(session.HeaderName, visitorID.String())
	writeJSON(w, h.logger, http.StatusOK, GalleryResponse{VisitorID: visitorID.String(), HomeView: view})
}

// SectionsHandler serves one section as JSON.
// GET /v1/sections/{id}?photo=N
type SectionsHandler struct {
	site   *site.Site
	logger *slog.Logger
}

func NewSectionsHandler(s *site.Site, logger *slog.Logger) *SectionsHandler {
	return &SectionsHandler{site: s, logger: logger}
}

func (h *SectionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for sections endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sections"), "/")
	if id == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Section ID is required")
		return
	}
	photo := parsePhoto(r)

	visitorID := session.Resolve(w, r)
	view, err := h.site.Section(r.Context(), visitorID, id, photo)
	if err != nil {
		status, msg := errorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to build section view", "visitor_id", visitorID, "section", id, "error", err)
		}
		writeError(w, h.logger, status, msg)
		return
	}

	w.Header().Set(session.HeaderName, visitorID.String())
	writeJSON(w, h.logger, http.StatusOK, SectionResponse{SectionView: view, Photo: view.Carousel.Index})
}

// UnlockHandler accepts answers as JSON.
// POST /v1/unlock
type UnlockHandler struct {
	site   *site.Site
	logger *slog.Logger
}

func NewUnlockHandler(s *site.Site, logger *slog.Logger) *UnlockHandler {
	return &UnlockHandler{site: s, logger: logger}
}

func (h *UnlockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for unlock endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req UnlockRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUnlockBody)).Decode(&req); err != nil {
		h.logger.Debug("Invalid unlock request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	req.Scope = strings.TrimSpace(req.Scope)
	if req.Scope == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Scope is required")
		return
	}

	visitorID := session.Resolve(w, r)
	outcome, err := h.site.Submit(r.Context(), visitorID, req.Scope, req.Answer)
	if err != nil {
		status, msg := errorStatus(err)
		writeError(w, h.logger, status, msg)
		return
	}

	w.Header().Set(session.HeaderName, visitorID.String())
	writeJSON(w, h.logger, http.StatusOK, UnlockResponse{
		Scope:        outcome.Scope,
		Unlocked:     outcome.Unlocked,
		Wrong:        outcome.Wrong,
		ClearAfterMS: outcome.ClearAfter.Milliseconds(),
	})
}

func parsePhoto(r *http.Request) int {
	photo, err := strconv.Atoi(r.URL.Query().Get("photo"))
	if err != nil {
		return 0
	}
	return photo
}
