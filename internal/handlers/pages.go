package handlers

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jwebster45206/memory-gate/internal/session"
	"github.com/jwebster45206/memory-gate/internal/site"
	"github.com/jwebster45206/memory-gate/pkg/gallery"
	"github.com/jwebster45206/memory-gate/pkg/unlock"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = map[string]*template.Template{
	"home":    parsePage("home.html"),
	"section": parsePage("section.html"),
	"error":   parsePage("error.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/"+name))
}

type homePage struct {
	site.HomeView
	Wrong     string
	FlagStyle template.CSS
}

type sectionPage struct {
	site.SectionView
	Wrong     bool
	FlagStyle template.CSS
}

type errorPage struct {
	Message string
	Home    bool
}

// PagesHandler serves the server-rendered gallery.
// Routes:
// GET /                       - Entry gate or section cards
// GET /sections/{id}?photo=N  - Section gate or its images
// POST /unlock                - Form submission (scope, answer, return)
type PagesHandler struct {
	site       *site.Site
	wrongDelay time.Duration
	logger     *slog.Logger
}

func NewPagesHandler(s *site.Site, wrongDelay time.Duration, logger *slog.Logger) *PagesHandler {
	if wrongDelay <= 0 {
		wrongDelay = unlock.DefaultWrongAnswerDelay
	}
	return &PagesHandler{
		site:       s,
		wrongDelay: wrongDelay,
		logger:     logger,
	}
}

func (h *PagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/":
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			h.methodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleHome(w, r)

	case r.URL.Path == "/unlock":
		if r.Method != http.MethodPost {
			h.methodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleUnlock(w, r)

	case strings.HasPrefix(r.URL.Path, "/sections/"):
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			h.methodNotAllowed(w, http.MethodGet)
			return
		}
		id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/sections/"), "/")
		h.handleSection(w, r, id)

	default:
		h.renderError(w, http.StatusNotFound, "Page not found.", true)
	}
}

func (h *PagesHandler) handleHome(w http.ResponseWriter, r *http.Request) {
	if err := h.site.LoadErr(); err != nil {
		h.renderError(w, http.StatusServiceUnavailable, loadFailureMessage(err), false)
		return
	}

	visitorID := session.Resolve(w, r)
	view, err := h.site.Home(r.Context(), visitorID)
	if err != nil {
		h.logger.Error("Failed to build home view", "visitor_id", visitorID, "error", err)
		h.renderError(w, http.StatusInternalServerError, "Something went wrong. Please try again.", false)
		return
	}

	h.render(w, http.StatusOK, "home", homePage{
		HomeView:  view,
		Wrong:     r.URL.Query().Get("wrong"),
		FlagStyle: h.flagStyle(),
	})
}

func (h *PagesHandler) handleSection(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.site.LoadErr(); err != nil {
		h.renderError(w, http.StatusServiceUnavailable, loadFailureMessage(err), false)
		return
	}

	visitorID := session.Resolve(w, r)
	view, err := h.site.Section(r.Context(), visitorID, id, parsePhoto(r))
	if errors.Is(err, site.ErrWarming) {
		h.renderWarming(w)
		return
	}
	if err != nil {
		switch status, msg := errorStatus(err); status {
		case http.StatusForbidden:
			http.Redirect(w, r, "/", http.StatusSeeOther)
		case http.StatusNotFound:
			h.renderError(w, status, msg+".", true)
		default:
			h.logger.Error("Failed to build section view", "visitor_id", visitorID, "section", id, "error", err)
			h.renderError(w, http.StatusInternalServerError, "Something went wrong. Please try again.", true)
		}
		return
	}

	h.render(w, http.StatusOK, "section", sectionPage{
		SectionView: view,
		Wrong:       r.URL.Query().Get("wrong") == id,
		FlagStyle:   h.flagStyle(),
	})
}

func (h *PagesHandler) handleUnlock(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUnlockBody)
	if err := r.ParseForm(); err != nil {
		h.renderError(w, http.StatusBadRequest, "Invalid form submission.", true)
		return
	}
	scope := strings.TrimSpace(r.PostForm.Get("scope"))
	if scope == "" {
		h.renderError(w, http.StatusBadRequest, "Invalid form submission.", true)
		return
	}
	returnTo := safeReturn(r.PostForm.Get("return"))

	visitorID := session.Resolve(w, r)
	outcome, err := h.site.Submit(r.Context(), visitorID, scope, r.PostForm.Get("answer"))
	if errors.Is(err, site.ErrWarming) {
		http.Redirect(w, r, returnTo, http.StatusSeeOther)
		return
	}
	if err != nil {
		switch status, msg := errorStatus(err); status {
		case http.StatusForbidden:
			http.Redirect(w, r, "/", http.StatusSeeOther)
		case http.StatusServiceUnavailable:
			h.renderError(w, status, loadFailureMessage(h.site.LoadErr()), false)
		case http.StatusNotFound:
			h.renderError(w, status, msg+".", true)
		default:
			h.renderError(w, status, "Something went wrong. Please try again.", true)
		}
		return
	}

	switch {
	case outcome.Wrong:
		http.Redirect(w, r, withQuery(returnTo, "wrong", scope), http.StatusSeeOther)
	case scope == gallery.EntryScope:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/sections/"+url.PathEscape(scope), http.StatusSeeOther)
	}
}

func (h *PagesHandler) flagStyle() template.CSS {
	return template.CSS(fmt.Sprintf("animation-duration: %dms", h.wrongDelay.Milliseconds()))
}

func (h *PagesHandler) render(w http.ResponseWriter, status int, page string, data any) {
	var buf bytes.Buffer
	if err := pageTemplates[page].ExecuteTemplate(&buf, "base", data); err != nil {
		h.logger.Error("Failed to render page", "page", page, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Debug("Failed to write page", "page", page, "error", err)
	}
}

// renderWarming shows the home page's warming state, which refreshes
// the current URL until the preload finishes.
func (h *PagesHandler) renderWarming(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "2")
	h.render(w, http.StatusServiceUnavailable, "home", homePage{
		HomeView: site.HomeView{Warming: true, Sections: []site.SectionCard{}},
	})
}

func (h *PagesHandler) renderError(w http.ResponseWriter, status int, msg string, home bool) {
	h.render(w, status, "error", errorPage{Message: msg, Home: home})
}

func (h *PagesHandler) methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	h.renderError(w, http.StatusMethodNotAllowed, "Method not allowed.", true)
}

func loadFailureMessage(err error) string {
	return "The gallery could not be loaded: " + err.Error()
}

// safeReturn keeps redirects on this site.
func safeReturn(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
		return "/"
	}
	return p
}

func withQuery(p, key, value string) string {
	u, err := url.Parse(p)
	if err != nil {
		return "/"
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
