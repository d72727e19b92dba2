package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// SectionCard mirrors one entry of the gallery response.
type SectionCard struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Question   string `json:"question,omitempty"`
	Unlocked   bool   `json:"unlocked"`
	ImageCount int    `json:"image_count"`
}

// GalleryResponse mirrors GET /v1/gallery.
type GalleryResponse struct {
	VisitorID     string        `json:"visitor_id"`
	Error         string        `json:"error,omitempty"`
	Warming       bool          `json:"warming"`
	EntryUnlocked bool          `json:"entry_unlocked"`
	EntryQuestion string        `json:"entry_question,omitempty"`
	Sections      []SectionCard `json:"sections"`
}

// SectionResponse mirrors GET /v1/sections/{id}.
type SectionResponse struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Question string   `json:"question,omitempty"`
	Unlocked bool     `json:"unlocked"`
	Images   []string `json:"images"`
	Photo    int      `json:"photo"`
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

// APIClient talks to the gallery JSON API as one visitor.
type APIClient struct {
	client    *http.Client
	baseURL   string
	visitorID uuid.UUID
}

func NewAPIClient(client *http.Client, baseURL string, visitorID uuid.UUID) *APIClient {
	return &APIClient{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		visitorID: visitorID,
	}
}

func (a *APIClient) testConnection() bool {
	resp, err := a.client.Get(a.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	// A degraded service still answers; the gallery view reports why
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusServiceUnavailable
}

func (a *APIClient) getGallery() (*GalleryResponse, error) {
	var gallery GalleryResponse
	if err := a.do(http.MethodGet, "/v1/gallery", nil, &gallery); err != nil {
		return nil, fmt.Errorf("failed to get gallery: %w", err)
	}
	return &gallery, nil
}

func (a *APIClient) getSection(id string, photo int) (*SectionResponse, error) {
	path := fmt.Sprintf("/v1/sections/%s?photo=%d", url.PathEscape(id), photo)
	var section SectionResponse
	if err := a.do(http.MethodGet, path, nil, &section); err != nil {
		return nil, fmt.Errorf("failed to get section: %w", err)
	}
	return &section, nil
}

func (a *APIClient) unlock(scope, answer string) (*UnlockResponse, error) {
	var resp UnlockResponse
	if err := a.do(http.MethodPost, "/v1/unlock", UnlockRequest{Scope: scope, Answer: answer}, &resp); err != nil {
		return nil, fmt.Errorf("unlock request failed: %w", err)
	}
	return &resp, nil
}

func (a *APIClient) do(method, path string, reqBody, out any) error {
	var body io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Visitor-ID", a.visitorID.String())
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errorResp.Error}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// APIError is a non-200 response carrying an ErrorResponse body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// SSEEvent represents an event from the SSE stream
type SSEEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// listenToSSE connects to the visitor's event stream and forwards events
// to eventChan until ctx ends or the stream closes.
func (a *APIClient) listenToSSE(ctx context.Context, eventChan chan<- SSEEvent) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/events/%s", a.baseURL, a.visitorID), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// The stream outlives the client's request timeout
	streamClient := &http.Client{Transport: a.client.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SSE: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SSE connection failed with status %d", resp.StatusCode)
	}

	return readSSE(ctx, resp.Body, eventChan)
}

func readSSE(ctx context.Context, r io.Reader, eventChan chan<- SSEEvent) error {
	scanner := bufio.NewScanner(r)
	var currentEvent SSEEvent

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			// Empty line signals end of event
			if currentEvent.Type != "" {
				select {
				case eventChan <- currentEvent:
				case <-ctx.Done():
					return ctx.Err()
				}
				currentEvent = SSEEvent{}
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			currentEvent.Type = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			var data map[string]any
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &data); err == nil {
				currentEvent.Data = data
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading SSE stream: %w", err)
	}
	return nil
}
