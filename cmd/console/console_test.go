package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAPIClient(srv.Client(), srv.URL+"/", uuid.New())
}

func TestAPIClient_Unlock(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/unlock" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Visitor-ID") == "" {
			t.Error("missing visitor header")
		}
		var req UnlockRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(UnlockResponse{Scope: req.Scope, Wrong: req.Answer != "yes", Unlocked: req.Answer == "yes", ClearAfterMS: 900})
	})

	resp, err := api.unlock("entry", "no")
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if !resp.Wrong || resp.ClearAfterMS != 900 {
		t.Errorf("response = %+v", resp)
	}

	resp, err = api.unlock("entry", "yes")
	if err != nil || !resp.Unlocked {
		t.Errorf("response = %+v, err = %v", resp, err)
	}
}

func TestAPIClient_ErrorResponse(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "questions.json 404"})
	})

	_, err := api.getGallery()
	if err == nil || !strings.Contains(err.Error(), "questions.json 404") {
		t.Fatalf("expected API error, got %v", err)
	}

	msg := NewConsoleUI(&ConsoleConfig{VisitorID: uuid.New()}, api).loadGallery()()
	gm, ok := msg.(galleryMsg)
	if !ok || gm.err != nil || gm.gallery.Error != "questions.json 404" {
		t.Errorf("503 should become a gallery error view, got %+v", msg)
	}
}

func TestReadSSE(t *testing.T) {
	stream := "event: connected\ndata: {\"message\":\"hi\"}\n\n: keepalive\n\nevent: gate.unlocked\ndata: {\"scope\":\"3rd\"}\n\n"
	ch := make(chan SSEEvent, 4)

	if err := readSSE(context.Background(), strings.NewReader(stream), ch); err != nil {
		t.Fatalf("readSSE: %v", err)
	}
	close(ch)

	var got []SSEEvent
	for ev := range ch {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[1].Type != "gate.unlocked" || got[1].Data["scope"] != "3rd" {
		t.Errorf("second event = %+v", got[1])
	}
}

func TestConsoleUI_WrongFlagClears(t *testing.T) {
	m := NewConsoleUI(&ConsoleConfig{VisitorID: uuid.New()}, nil)
	m.loading = false
	m.gallery = &GalleryResponse{EntryQuestion: "When?"}

	model, cmd := m.Update(unlockMsg{response: &UnlockResponse{Scope: "entry", Wrong: true, ClearAfterMS: 1}})
	m = model.(ConsoleUI)
	if !m.wrong || cmd == nil {
		t.Fatal("wrong answer should raise the flag and schedule a clear")
	}

	// A stale tick from an earlier wrong answer is ignored
	model, _ = m.Update(clearWrongMsg{seq: m.wrongSeq - 1})
	m = model.(ConsoleUI)
	if !m.wrong {
		t.Error("stale clear should not lower the flag")
	}

	model, _ = m.Update(clearWrongMsg{seq: m.wrongSeq})
	m = model.(ConsoleUI)
	if m.wrong {
		t.Error("flag should clear")
	}
}

func TestConsoleUI_Navigation(t *testing.T) {
	m := NewConsoleUI(&ConsoleConfig{VisitorID: uuid.New()}, nil)
	model, _ := m.Update(galleryMsg{gallery: &GalleryResponse{
		EntryUnlocked: true,
		Sections: []SectionCard{
			{ID: "3rd", Title: "3rd Semester", Unlocked: true, ImageCount: 2},
			{ID: "5th", Title: "5th Semester", Question: "Cafe?"},
		},
	}})
	m = model.(ConsoleUI)

	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = model.(ConsoleUI)
	if m.selected != 1 {
		t.Errorf("selected = %d, want 1", m.selected)
	}

	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = model.(ConsoleUI)
	if m.selected != 1 {
		t.Errorf("cursor should stop at the last section, got %d", m.selected)
	}

	model, _ = m.Update(sectionMsg{section: &SectionResponse{ID: "3rd", Title: "3rd Semester", Unlocked: true, Images: []string{"a.jpg", "b.jpg"}}})
	m = model.(ConsoleUI)
	if m.screen != screenSection || m.inputVisible() {
		t.Error("unlocked section should show images without an input")
	}

	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = model.(ConsoleUI)
	if m.screen != screenGallery || m.showQuitModal {
		t.Error("Esc on a section should return to the gallery")
	}
}

func TestConsoleUI_WarmingRetries(t *testing.T) {
	m := NewConsoleUI(&ConsoleConfig{VisitorID: uuid.New()}, nil)
	model, cmd := m.Update(galleryMsg{gallery: &GalleryResponse{Warming: true, Sections: []SectionCard{}}})
	m = model.(ConsoleUI)
	if cmd == nil {
		t.Fatal("a warming gallery should schedule a reload")
	}
	if m.inputVisible() {
		t.Error("no gate input while warming")
	}

	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = model.(ConsoleUI)
	if m.loading {
		t.Error("Enter while warming should not submit")
	}

	model, _ = m.Update(galleryMsg{gallery: &GalleryResponse{EntryQuestion: "When?", Sections: []SectionCard{}}})
	m = model.(ConsoleUI)
	if !m.inputVisible() {
		t.Error("entry gate should show once warming ends")
	}
}
