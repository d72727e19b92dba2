// Package site owns the loaded gallery, the visitor unlock store and the
// gate evaluator, and builds the views the handlers render.
package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/memory-gate/internal/logger"
	"github.com/jwebster45206/memory-gate/internal/preload"
	"github.com/jwebster45206/memory-gate/internal/services/events"
	"github.com/jwebster45206/memory-gate/internal/storage"
	"github.com/jwebster45206/memory-gate/pkg/answer"
	"github.com/jwebster45206/memory-gate/pkg/gallery"
	"github.com/jwebster45206/memory-gate/pkg/unlock"
)

// ErrUnavailable is returned by every operation when the configuration
// failed to load.
var ErrUnavailable = errors.New("gallery unavailable")

// ErrWarming is returned while images are still preloading.
var ErrWarming = errors.New("gallery is warming up")

// Params configures a Site.
type Params struct {
	// Config is the loaded gallery. Leave nil and set LoadErr when
	// loading failed.
	Config  *gallery.Config
	LoadErr error

	Store            storage.UnlockStore
	Matcher          answer.Matcher
	WrongAnswerDelay time.Duration
	Events           events.Publisher
	Logger           *slog.Logger

	// WaitForPreload keeps the site in its warming state until Preload
	// completes.
	WaitForPreload bool
}

// Site is the single gallery instance owned by the application root.
type Site struct {
	config    *gallery.Config
	loadErr   error
	store     storage.UnlockStore
	evaluator *unlock.Evaluator
	events    events.Publisher
	logger    *slog.Logger
	ready     atomic.Bool
}

// New creates a Site.
func New(p Params) *Site {
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.Events == nil {
		p.Events = events.Nop{}
	}
	if p.Config == nil && p.LoadErr == nil {
		p.LoadErr = errors.New("no gallery configuration")
	}

	s := &Site{
		config:  p.Config,
		loadErr: p.LoadErr,
		store:   p.Store,
		events:  p.Events,
		logger:  p.Logger,
	}
	if p.Config != nil {
		s.evaluator = unlock.NewEvaluator(p.Config, p.Matcher, p.WrongAnswerDelay)
	}
	s.ready.Store(!p.WaitForPreload || p.LoadErr != nil)
	return s
}

// LoadErr returns the configuration load failure, if any.
func (s *Site) LoadErr() error {
	return s.loadErr
}

// Ready reports whether image preloading has finished.
func (s *Site) Ready() bool {
	return s.ready.Load()
}

// Store returns the unlock store.
func (s *Site) Store() storage.UnlockStore {
	return s.store
}

// Preload warms every image URL and then marks the site ready. If ctx
// ends first the site stays in its warming state.
func (s *Site) Preload(ctx context.Context, w *preload.Warmer) {
	if s.config == nil || s.ready.Load() {
		return
	}

	start := time.Now()
	res, err := w.Warm(ctx, s.config.AllImages())
	if err != nil {
		s.logger.Info("Image preload interrupted", "error", err, "loaded", res.Loaded)
		return
	}

	s.logger.Info("Image preload complete",
		"total", res.Total,
		"loaded", res.Loaded,
		"failed", res.Failed,
		"skipped", res.Skipped,
		"duration", time.Since(start),
	)
	s.ready.Store(true)
}

// SectionCard is one section as listed on the home view.
type SectionCard struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Question   string `json:"question,omitempty"`
	Unlocked   bool   `json:"unlocked"`
	ImageCount int    `json:"image_count"`
}

// HomeView is the landing page: the entry gate or the section cards.
type HomeView struct {
	Error         string        `json:"error,omitempty"`
	Warming       bool          `json:"warming"`
	EntryUnlocked bool          `json:"entry_unlocked"`
	EntryQuestion string        `json:"entry_question,omitempty"`
	Sections      []SectionCard `json:"sections"`
}

// SectionView is one section page.
type SectionView struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Question string           `json:"question,omitempty"`
	Unlocked bool             `json:"unlocked"`
	Images   []string         `json:"images"`
	Carousel gallery.Carousel `json:"-"`
}

// Featured returns the carousel's current image URL.
func (v SectionView) Featured() string {
	if len(v.Images) == 0 {
		return ""
	}
	return v.Images[v.Carousel.Index]
}

// Home builds the landing view. A load failure yields a view with the
// error and no sections rather than an error return. While warming the
// view reveals nothing.
func (s *Site) Home(ctx context.Context, visitorID uuid.UUID) (HomeView, error) {
	view := HomeView{Sections: []SectionCard{}}
	if s.loadErr != nil {
		view.Error = s.loadErr.Error()
		return view, nil
	}
	if !s.ready.Load() {
		view.Warming = true
		return view, nil
	}

	st, err := s.state(ctx, visitorID)
	if err != nil {
		return HomeView{}, err
	}

	view.EntryUnlocked = st.IsUnlocked(gallery.EntryScope)
	if !view.EntryUnlocked {
		view.EntryQuestion = s.config.Questions.EntryQuestion.Question
		return view, nil
	}

	for _, sec := range s.config.Questions.Sections {
		card := SectionCard{
			ID:       sec.ID,
			Title:    sec.Title,
			Unlocked: st.IsUnlocked(sec.ID),
		}
		if card.Unlocked {
			card.ImageCount = len(s.config.Images.Images(sec.ID))
		} else {
			card.Question = sec.Question.Question
		}
		view.Sections = append(view.Sections, card)
	}
	return view, nil
}

// Section builds one section page. photo selects the featured image.
func (s *Site) Section(ctx context.Context, visitorID uuid.UUID, id string, photo int) (SectionView, error) {
	if s.loadErr != nil {
		return SectionView{}, fmt.Errorf("%w: %v", ErrUnavailable, s.loadErr)
	}
	if !s.ready.Load() {
		return SectionView{}, ErrWarming
	}

	sec, ok := s.config.Section(id)
	if !ok {
		return SectionView{}, unlock.ErrUnknownSection
	}

	st, err := s.state(ctx, visitorID)
	if err != nil {
		return SectionView{}, err
	}
	if !st.IsUnlocked(gallery.EntryScope) {
		return SectionView{}, unlock.ErrEntryLocked
	}

	view := SectionView{ID: sec.ID, Title: sec.Title, Images: []string{}}
	if !st.IsUnlocked(sec.ID) {
		view.Question = sec.Question.Question
		return view, nil
	}

	view.Unlocked = true
	view.Images = s.config.Images.Images(sec.ID)
	view.Carousel = gallery.NewCarousel(photo, len(view.Images))
	return view, nil
}

// Submit checks an answer for scope and records a successful unlock.
func (s *Site) Submit(ctx context.Context, visitorID uuid.UUID, scope, input string) (unlock.Outcome, error) {
	if s.loadErr != nil {
		return unlock.Outcome{Scope: scope}, fmt.Errorf("%w: %v", ErrUnavailable, s.loadErr)
	}
	if !s.ready.Load() {
		return unlock.Outcome{Scope: scope}, ErrWarming
	}

	var outcome unlock.Outcome
	st, err := s.store.Update(ctx, visitorID, func(st *unlock.State) (bool, error) {
		o, err := s.evaluator.Submit(st, scope, input)
		if err != nil {
			return false, err
		}
		outcome = o
		return o.Changed, nil
	})
	if err != nil {
		if errors.Is(err, unlock.ErrUnknownSection) || errors.Is(err, unlock.ErrEntryLocked) {
			return unlock.Outcome{Scope: scope}, err
		}
		logger.WithError(logger.WithVisitor(s.logger, visitorID.String()), err).Error("Failed to update unlock state", "scope", scope)
		return unlock.Outcome{Scope: scope}, fmt.Errorf("failed to update unlock state: %w", err)
	}

	log := logger.WithVisitor(s.logger, visitorID.String())
	switch {
	case outcome.Changed:
		log.Info("Gate unlocked", "scope", scope)
		if err := s.events.PublishGateUnlocked(ctx, visitorID, scope, st.UnlockedSections()); err != nil {
			log.Warn("Failed to publish unlock event", "error", err)
		}
	case outcome.Wrong:
		log.Debug("Wrong answer", "scope", scope)
		if err := s.events.PublishGateWrong(ctx, visitorID, scope, outcome.ClearAfter.Milliseconds()); err != nil {
			log.Warn("Failed to publish wrong-answer event", "error", err)
		}
	}
	return outcome, nil
}

func (s *Site) state(ctx context.Context, visitorID uuid.UUID) (*unlock.State, error) {
	st, err := s.store.Load(ctx, visitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unlock state: %w", err)
	}
	if st == nil {
		st = unlock.NewState(visitorID)
	}
	return st, nil
}
