// Package client calls the GymMate AI proxy routes on behalf of a UI or CLI.
// Every operation degrades to a user-facing message instead of surfacing transport errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gymmate-backend/internal/models"
)

const (
	ApologyMessage             = "Pulse is unavailable right now. Please check your network and try again."
	ImageAnalysisFailedMessage = "Image analysis failed. Please try again with a clearer photo."
	FoodScanFailedMessage      = "Food scan failed. Try better lighting and a closer shot."
)

const DefaultTimeout = 60 * time.Second

const (
	pulseChatPath    = "/api/pulse-chat"
	analyzeImagePath = "/api/analyze-image"
	foodScanPath     = "/api/food-scan"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the HTTP client, including its timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request, streamed bodies included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithToken sends a bearer token so the caller's plan quotas apply.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is a non-2xx answer from the proxy.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
	Raw        string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("proxy returned %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("proxy returned %d", e.StatusCode)
}

// UserError carries a message fit for the end user; Err keeps the cause.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Err }

// AnalyzeImage returns the model's description of image, or ImageAnalysisFailedMessage.
func (c *Client) AnalyzeImage(ctx context.Context, image, prompt string) string {
	var out models.AnalyzeImageResponse
	err := c.postJSON(ctx, analyzeImagePath, models.AnalyzeImageRequest{Base64Image: image, Prompt: prompt}, &out)
	if err != nil {
		c.logger.WarnContext(ctx, "analyze image failed", "error", err)
		return ImageAnalysisFailedMessage
	}
	return out.Text
}

// ScanFood returns the nutrition estimate for image. Failures are a *UserError.
func (c *Client) ScanFood(ctx context.Context, image string) (*models.NutritionRecord, error) {
	var out struct {
		Data *models.NutritionRecord `json:"data"`
	}
	err := c.postJSON(ctx, foodScanPath, models.FoodScanRequest{Base64Image: image}, &out)
	if err == nil && out.Data == nil {
		err = fmt.Errorf("response has no data")
	}
	if err != nil {
		c.logger.WarnContext(ctx, "food scan failed", "error", err)
		return nil, &UserError{Message: FoodScanFailedMessage, Err: err}
	}
	return out.Data, nil
}

func (c *Client) newRequest(ctx context.Context, path string, body interface{}) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	req, err := c.newRequest(ctx, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readStatusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func readStatusError(resp *http.Response) error {
	se := &StatusError{StatusCode: resp.StatusCode}
	var env models.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err == nil {
		se.Code = env.Error.Code
		se.Message = env.Error.Message
		se.Raw = env.Error.Raw
	}
	return se
}
