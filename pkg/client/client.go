package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opennotebook/workshop/pkg/models"
)

const defaultPollInterval = 3 * time.Second

// Client talks to a workshop server over HTTP.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. The client used for
// streaming must not set a global timeout or long sessions get cut off.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPollInterval changes how often the polling fallback re-fetches the
// session.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) { c.pollInterval = interval }
}

// NewClient returns a client for the given base URL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{},
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return readAPIError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Message != "" {
		apiErr.Message = payload.Message
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// CreateSession starts a session in the background and returns it in the
// created state. Use GetSession or RunSession to follow progress.
func (c *Client) CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	var session models.Session
	if err := c.do(ctx, http.MethodPost, "/api/v1/workshops/sessions", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession fetches a session with its full transcript.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	if err := c.do(ctx, http.MethodGet, "/api/v1/workshops/sessions/"+sessionID, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetReport fetches the markdown report of a completed session.
func (c *Client) GetReport(ctx context.Context, sessionID string) (*models.Report, error) {
	var report models.Report
	if err := c.do(ctx, http.MethodGet, "/api/v1/workshops/sessions/"+sessionID+"/report", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// DeleteSession removes a session and its turns.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/workshops/sessions/"+sessionID, nil, nil)
}

// ListTemplates fetches the available workshop templates.
func (c *Client) ListTemplates(ctx context.Context) ([]models.Template, error) {
	var resp struct {
		Templates []models.Template `json:"templates"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/workshops/templates", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Templates, nil
}

// ListNotebookSessions fetches session summaries for a notebook, newest
// first. limit <= 0 means no limit.
func (c *Client) ListNotebookSessions(ctx context.Context, notebookID string, limit int) ([]models.Session, error) {
	path := "/api/v1/workshops/notebooks/" + notebookID + "/sessions"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var resp struct {
		Sessions []models.Session `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// StreamSession starts a session over the streaming endpoint and follows
// the event stream, calling onUpdate after every applied event. After a
// clean session_complete the persisted transcript is re-fetched so the
// returned view matches the server exactly. If the stream drops before a
// terminal event, the partial view is returned together with an error
// wrapping ErrStreamInterrupted; callers recover with PollSession.
func (c *Client) StreamSession(ctx context.Context, req models.CreateSessionRequest, onUpdate func(*SessionView)) (*SessionView, error) {
	view := NewSessionView()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/workshops/sessions/stream", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	if err := consumeStream(resp.Body, view, onUpdate); err != nil {
		return view, err
	}

	if view.Phase == PhaseCompleted && view.SessionID != "" {
		session, err := c.GetSession(ctx, view.SessionID)
		if err != nil {
			return view, fmt.Errorf("fetching final session state: %w", err)
		}
		view.ApplySession(session)
		if onUpdate != nil {
			onUpdate(view)
		}
	}
	return view, nil
}

// RunSession follows a session to a terminal state: StreamSession first,
// and if the stream drops mid-session, a transparent fallback to
// PollSession on the same view.
func (c *Client) RunSession(ctx context.Context, req models.CreateSessionRequest, onUpdate func(*SessionView)) (*SessionView, error) {
	view, err := c.StreamSession(ctx, req, onUpdate)
	switch {
	case err == nil:
		return view, nil
	case errors.Is(err, ErrStreamInterrupted) && view != nil && view.SessionID != "":
		if pollErr := c.PollSession(ctx, view, onUpdate); pollErr != nil {
			return view, pollErr
		}
		return view, nil
	default:
		return view, err
	}
}
