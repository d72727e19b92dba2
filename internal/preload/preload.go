package preload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds in-flight image requests when none is given.
const DefaultConcurrency = 8

// Result summarises a warm-up run.
type Result struct {
	Total   int `json:"total"`
	Loaded  int `json:"loaded"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Warmer fetches image URLs ahead of first view so caches in front of the
// image host are hot.
type Warmer struct {
	client      *http.Client
	baseURL     *url.URL
	concurrency int
	logger      *slog.Logger
}

// NewWarmer creates a Warmer. Relative URLs are resolved against baseURL;
// when baseURL is empty they are skipped.
func NewWarmer(client *http.Client, baseURL string, concurrency int, logger *slog.Logger) (*Warmer, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Warmer{client: client, concurrency: concurrency, logger: logger}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil || !u.IsAbs() {
			return nil, fmt.Errorf("invalid public base URL %q", baseURL)
		}
		w.baseURL = u
	}
	return w, nil
}

// Warm requests every URL, tolerating individual failures. It returns
// ctx.Err() if the context ends before all requests finish.
func (w *Warmer) Warm(ctx context.Context, urls []string) (Result, error) {
	res := Result{Total: len(urls)}
	var loaded, failed, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for _, raw := range urls {
		target, ok := w.resolve(raw)
		if !ok {
			skipped.Add(1)
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := w.fetch(gctx, target); err != nil {
				failed.Add(1)
				w.logger.Debug("Image preload failed", "url", target, "error", err)
				return nil
			}
			loaded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	res.Loaded = int(loaded.Load())
	res.Failed = int(failed.Load())
	res.Skipped = int(skipped.Load())

	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func (w *Warmer) resolve(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		return "", false
	}
	if u.IsAbs() {
		return u.String(), u.Scheme == "http" || u.Scheme == "https"
	}
	if w.baseURL == nil {
		return "", false
	}
	return w.baseURL.ResolveReference(u).String(), true
}

func (w *Warmer) fetch(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
