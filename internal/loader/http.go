package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jwebster45206/memory-gate/pkg/gallery"
	"golang.org/x/sync/errgroup"
)

const (
	documentPath     = "/security/"
	maxDocumentBytes = 4 << 20
)

// StatusError reports a non-success response for one document.
type StatusError struct {
	Document   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %d", e.Document, e.StatusCode)
}

// HTTPSource fetches both documents from <baseURL>/security/. The two
// requests run concurrently and both must succeed.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates a runtime-fetch source. A nil client means
// http.DefaultClient.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (h *HTTPSource) Name() string { return "http:" + h.baseURL }

func (h *HTTPSource) Load(ctx context.Context) (*gallery.Config, error) {
	var questions, images []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		questions, err = h.fetch(gctx, QuestionsFile)
		return err
	})
	g.Go(func() error {
		var err error
		images, err = h.fetch(gctx, ImagesFile)
		return err
	})
	// One failure fails the whole load; there is no partial config
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Decode(questions, images)
}

func (h *HTTPSource) fetch(ctx context.Context, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+documentPath+name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", name, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", name, err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Document: name, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return body, nil
}
