package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/memory-gate/pkg/gallery"
	"github.com/muesli/reflow/wordwrap"
)

const (
	PlaceHolderText = "Type your answer here..."
	entryScope      = gallery.EntryScope
	warmingRetry    = 2 * time.Second
)

type screen int

const (
	screenGallery screen = iota
	screenSection
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config   *ConsoleConfig
	api      *APIClient
	gallery  *GalleryResponse
	section  *SectionResponse
	screen   screen
	selected int

	viewport viewport.Model
	textarea textarea.Model
	ready    bool
	width    int
	height   int
	err      error
	loading  bool
	status   string

	// Wrong-answer flag; wrongSeq discards stale clear ticks
	wrong    bool
	wrongSeq int

	showQuitModal bool

	events       chan SSEEvent
	eventsCtx    context.Context
	cancelEvents context.CancelFunc
}

type galleryMsg struct {
	gallery *GalleryResponse
	err     error
}

type sectionMsg struct {
	section *SectionResponse
	err     error
}

type unlockMsg struct {
	response *UnlockResponse
	err      error
}

type reloadGalleryMsg struct{}

type clearWrongMsg struct {
	seq int
}

type sseMsg struct {
	event SSEEvent
}

type copiedMsg struct {
	url string
	err error
}

var (
	panelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(3).
			PaddingRight(3)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	unlockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	lockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	questionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("205")).
			Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, api *APIClient) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	vp := viewport.New(50, 20)
	vp.MouseWheelEnabled = true

	ctx, cancel := context.WithCancel(context.Background())

	return ConsoleUI{
		config:       cfg,
		api:          api,
		textarea:     ta,
		viewport:     vp,
		loading:      true,
		events:       make(chan SSEEvent, 8),
		eventsCtx:    ctx,
		cancelEvents: cancel,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.loadGallery(), m.listenEvents(), m.waitForEvent())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.viewport, vpCmd = m.viewport.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.width - 6 // Account for left(3) + right(3) padding
		m.viewport.Height = m.height - 7
		m.textarea.SetWidth(m.width - 8)
		m.ready = true
		m.writeContent()

	case tea.KeyMsg:
		if model, cmd, handled := m.handleKey(msg); handled {
			return model, cmd
		}

	case galleryMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.gallery = msg.gallery
			if m.selected >= len(m.gallery.Sections) {
				m.selected = 0
			}
		}
		m.writeContent()
		if msg.err == nil && m.gallery.Warming {
			return m, tea.Tick(warmingRetry, func(time.Time) tea.Msg { return reloadGalleryMsg{} })
		}
		return m, nil

	case reloadGalleryMsg:
		return m, m.loadGallery()

	case sectionMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.section = msg.section
			m.screen = screenSection
			if m.section.Unlocked {
				m.textarea.Blur()
			} else {
				m.textarea.Focus()
			}
		}
		m.writeContent()
		return m, nil

	case unlockMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.writeContent()
			return m, nil
		}
		m.err = nil
		if msg.response.Wrong {
			m.wrong = true
			m.wrongSeq++
			m.writeContent()
			return m, clearWrongAfter(time.Duration(msg.response.ClearAfterMS)*time.Millisecond, m.wrongSeq)
		}
		m.wrong = false
		m.status = "Unlocked!"
		m.loading = true
		if m.screen == screenSection && m.section != nil {
			return m, tea.Batch(m.loadGallery(), m.loadSection(m.section.ID, 0))
		}
		return m, m.loadGallery()

	case clearWrongMsg:
		if msg.seq == m.wrongSeq {
			m.wrong = false
			m.writeContent()
		}
		return m, nil

	case sseMsg:
		if msg.event.Type == "gate.unlocked" {
			if scope, ok := msg.event.Data["scope"].(string); ok {
				m.status = fmt.Sprintf("Unlocked %s", scope)
			}
			return m, tea.Batch(m.loadGallery(), m.waitForEvent())
		}
		return m, m.waitForEvent()

	case copiedMsg:
		if msg.err != nil {
			m.status = "Copy failed: " + msg.err.Error()
		} else {
			m.status = "Copied " + msg.url
		}
		return m, nil
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

// handleKey processes navigation keys. Unhandled keys fall through to the
// textarea and viewport.
func (m ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.showQuitModal = true
		return m, nil, true
	case tea.KeyEsc:
		if m.screen == screenSection {
			m.screen = screenGallery
			m.section = nil
			m.wrong = false
			m.status = ""
			m.textarea.Reset()
			m.textarea.Focus()
			m.writeContent()
			return m, nil, true
		}
		m.showQuitModal = true
		return m, nil, true
	}

	if m.loading {
		return m, nil, true
	}

	switch m.screen {
	case screenSection:
		return m.handleSectionKey(msg)
	default:
		return m.handleGalleryKey(msg)
	}
}

func (m ConsoleUI) handleGalleryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if m.gallery == nil || m.gallery.Error != "" || m.gallery.Warming {
		return m, nil, false
	}

	if !m.gallery.EntryUnlocked {
		if msg.Type == tea.KeyEnter {
			return m.submit(entryScope)
		}
		return m, nil, false
	}

	switch msg.Type {
	case tea.KeyUp:
		if m.selected > 0 {
			m.selected--
			m.wrong = false
			m.writeContent()
		}
		return m, nil, true
	case tea.KeyDown:
		if m.selected < len(m.gallery.Sections)-1 {
			m.selected++
			m.wrong = false
			m.writeContent()
		}
		return m, nil, true
	case tea.KeyEnter:
		if len(m.gallery.Sections) == 0 {
			return m, nil, true
		}
		card := m.gallery.Sections[m.selected]
		if card.Unlocked && strings.TrimSpace(m.textarea.Value()) == "" {
			m.loading = true
			m.status = ""
			return m, m.loadSection(card.ID, 0), true
		}
		return m.submit(card.ID)
	}
	return m, nil, false
}

func (m ConsoleUI) handleSectionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if m.section == nil {
		return m, nil, false
	}

	if !m.section.Unlocked {
		if msg.Type == tea.KeyEnter {
			return m.submit(m.section.ID)
		}
		return m, nil, false
	}

	carousel := gallery.NewCarousel(m.section.Photo, len(m.section.Images))
	switch msg.Type {
	case tea.KeyLeft:
		m.loading = true
		return m, m.loadSection(m.section.ID, carousel.Prev()), true
	case tea.KeyRight:
		m.loading = true
		return m, m.loadSection(m.section.ID, carousel.Next()), true
	}

	if msg.String() == "c" && len(m.section.Images) > 0 {
		return m, copyURL(m.section.Images[carousel.Index]), true
	}
	return m, nil, false
}

func (m ConsoleUI) submit(scope string) (tea.Model, tea.Cmd, bool) {
	input := strings.TrimSpace(m.textarea.Value())
	m.textarea.Reset()
	m.loading = true
	m.status = ""
	return m, m.sendAnswer(scope, input), true
}

// writeContent rebuilds the viewport for the current screen and width
func (m *ConsoleUI) writeContent() {
	width := m.viewport.Width
	if width <= 0 {
		width = 50
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("MEMORIES") + "\n\n")

	if m.err != nil {
		content.WriteString(errorStyle.Render(wordwrap.String("Error: "+m.err.Error(), width)) + "\n\n")
	}

	if m.gallery == nil {
		if m.loading {
			content.WriteString(loadingStyle.Render("Loading gallery...") + "\n")
		}
		m.viewport.SetContent(content.String())
		return
	}

	if m.gallery.Error != "" {
		content.WriteString(errorStyle.Render(wordwrap.String("The gallery could not be loaded: "+m.gallery.Error, width)) + "\n")
		m.viewport.SetContent(content.String())
		return
	}

	if m.screen == screenSection && m.section != nil {
		m.writeSection(&content, width)
	} else {
		m.writeGallery(&content, width)
	}

	if m.wrong {
		content.WriteString("\n" + errorStyle.Render("Not quite. Try again.") + "\n")
	}
	m.viewport.SetContent(content.String())
}

func (m *ConsoleUI) writeGallery(content *strings.Builder, width int) {
	if m.gallery.Warming {
		content.WriteString(loadingStyle.Render("Getting the photos ready...") + "\n")
		return
	}

	if !m.gallery.EntryUnlocked {
		content.WriteString(questionStyle.Render(wordwrap.String(m.gallery.EntryQuestion, width)) + "\n")
		return
	}

	for i, card := range m.gallery.Sections {
		var line string
		if card.Unlocked {
			line = unlockedStyle.Render(fmt.Sprintf("● %s (%d photos)", card.Title, card.ImageCount))
		} else {
			line = lockedStyle.Render(fmt.Sprintf("○ %s", card.Title))
		}
		if i == m.selected {
			line = selectedStyle.Render("▶") + " " + line
		} else {
			line = "  " + line
		}
		content.WriteString(line + "\n")
	}

	if len(m.gallery.Sections) > 0 {
		card := m.gallery.Sections[m.selected]
		content.WriteString("\n" + separatorStyle.Render(strings.Repeat("─", max(width-6, 1))) + "\n\n")
		if card.Unlocked {
			content.WriteString("Press Enter to view " + card.Title + ".\n")
		} else {
			content.WriteString(questionStyle.Render(wordwrap.String(card.Question, width)) + "\n")
		}
	}
}

func (m *ConsoleUI) writeSection(content *strings.Builder, width int) {
	content.WriteString(titleStyle.Render(m.section.Title) + "\n\n")

	if !m.section.Unlocked {
		content.WriteString(questionStyle.Render(wordwrap.String(m.section.Question, width)) + "\n")
		return
	}
	if len(m.section.Images) == 0 {
		content.WriteString("No photos here yet.\n")
		return
	}

	carousel := gallery.NewCarousel(m.section.Photo, len(m.section.Images))
	content.WriteString(fmt.Sprintf("%d / %d\n\n", carousel.Position(), carousel.Count))
	for i, img := range m.section.Images {
		line := wordwrap.String(img, width-2)
		if i == carousel.Index {
			content.WriteString(selectedStyle.Render("▶") + " " + line + "\n")
		} else {
			content.WriteString("  " + line + "\n")
		}
	}
}

func (m ConsoleUI) helpLine() string {
	switch {
	case m.screen == screenSection && m.section != nil && m.section.Unlocked:
		return "←/→ photos • c copy URL • Esc back • Ctrl+C quit"
	case m.screen == screenSection:
		return "Enter answer • Esc back • Ctrl+C quit"
	case m.gallery != nil && m.gallery.EntryUnlocked:
		return "↑/↓ select • Enter open or answer • Ctrl+C quit"
	default:
		return "Enter answer • Ctrl+C quit"
	}
}

func (m ConsoleUI) inputVisible() bool {
	if m.gallery == nil || m.gallery.Error != "" || m.gallery.Warming {
		return false
	}
	if m.screen == screenSection {
		return m.section != nil && !m.section.Unlocked
	}
	return true
}

func (m ConsoleUI) loadGallery() tea.Cmd {
	return func() tea.Msg {
		g, err := m.api.getGallery()
		// 503 carries the load failure for display
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
			return galleryMsg{&GalleryResponse{Error: apiErr.Message}, nil}
		}
		return galleryMsg{g, err}
	}
}

func (m ConsoleUI) loadSection(id string, photo int) tea.Cmd {
	return func() tea.Msg {
		s, err := m.api.getSection(id, photo)
		return sectionMsg{s, err}
	}
}

func (m ConsoleUI) sendAnswer(scope, input string) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.api.unlock(scope, input)
		return unlockMsg{resp, err}
	}
}

func (m ConsoleUI) listenEvents() tea.Cmd {
	return func() tea.Msg {
		// Only the Redis-backed service streams events; other errors are ignored
		_ = m.api.listenToSSE(m.eventsCtx, m.events)
		return nil
	}
}

func (m ConsoleUI) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-m.events:
			return sseMsg{ev}
		case <-m.eventsCtx.Done():
			return nil
		}
	}
}

func clearWrongAfter(d time.Duration, seq int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearWrongMsg{seq: seq}
	})
}

func copyURL(url string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{url: url, err: clipboard.WriteAll(url)}
	}
}

func (m ConsoleUI) quit() (tea.Model, tea.Cmd) {
	m.cancelEvents()
	return m, tea.Quit
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m.quit()
		default:
			switch msg.String() {
			case "y", "Y":
				return m.quit()
			case "n", "N":
				m.showQuitModal = false
				if m.inputVisible() {
					m.textarea.Focus()
					return m, textarea.Blink
				}
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Your unlocks are kept for visitor " + m.config.VisitorID.String()[:8] + "...")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	parts := []string{m.viewport.View(), ""}
	if m.inputVisible() {
		parts = append(parts,
			separatorStyle.Render(strings.Repeat("─", max(m.width-8, 1))),
			m.textarea.View(),
		)
	}
	status := m.status
	if m.loading {
		status = loadingStyle.Render("Working...")
	}
	parts = append(parts, status, promptStyle.Render(m.helpLine()))

	return panelStyle.Width(m.width).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
