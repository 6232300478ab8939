package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tbourn/rehab-plan-backend/internal/domain"
)

const systemPrompt = `You are a physiotherapy assistant. Build a short home exercise session
using ONLY the exercises in the provided shortlist, referenced by exercise_id.
Keep sets between 1 and 10 and reps between 0 and 50. Be conservative when
pain is high or the trend is worsening. Add a brief, encouraging coaching
message and any cautions. Do not diagnose.`

// Config configures the OpenAI-backed gateway.
type Config struct {
	Enabled     bool
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	// HTTPClient overrides the default client. Tests only.
	HTTPClient *http.Client
}

// HTTPError is a non-2xx answer from the upstream API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

// Client talks to the OpenAI Responses API with structured output.
type Client struct {
	cfg  Config
	http *http.Client
}

var _ Augmenter = (*Client)(nil)

// New returns a Client. It performs no I/O.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{cfg: cfg, http: hc}
}

// Enabled implements Augmenter.
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.Enabled && strings.TrimSpace(c.cfg.APIKey) != ""
}

// Model implements Augmenter.
func (c *Client) Model() string { return c.cfg.Model }

// Timeout reports the hard limit applied to each call.
func (c *Client) Timeout() time.Duration { return c.cfg.Timeout }

// Augment implements Augmenter.
func (c *Client) Augment(ctx context.Context, shortlist []domain.ShortlistItem, uc UserContext) Result {
	if !c.Enabled() {
		return Skipped()
	}
	if len(shortlist) == 0 {
		return Failed(fmt.Errorf("%w: empty shortlist", ErrFailure))
	}

	start := time.Now()
	tctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	res := c.augment(tctx, shortlist, uc)
	if res.Status == domain.AIStatusFailed && errors.Is(tctx.Err(), context.DeadlineExceeded) {
		res = Failed(fmt.Errorf("%w after %s", ErrTimeout, c.cfg.Timeout))
	}
	res.Latency = time.Since(start)
	return res
}

func (c *Client) augment(ctx context.Context, shortlist []domain.ShortlistItem, uc UserContext) Result {
	user, err := json.Marshal(struct {
		Context   UserContext            `json:"context"`
		Shortlist []domain.ShortlistItem `json:"shortlist"`
	}{uc, shortlist})
	if err != nil {
		return Failed(fmt.Errorf("%w: encode prompt: %v", ErrFailure, err))
	}

	req := responsesRequest{
		Model:           c.cfg.Model,
		Instructions:    systemPrompt,
		Input:           []inputMessage{{Role: "user", Content: string(user)}},
		Temperature:     &c.cfg.Temperature,
		MaxOutputTokens: c.cfg.MaxTokens,
	}
	req.Text.Format = map[string]any{
		"type":   "json_schema",
		"name":   "rehab_plan",
		"schema": contentSchema(),
		"strict": true,
	}

	var resp responsesResponse
	if err := c.doOnce(ctx, http.MethodPost, "/v1/responses", &req, &resp); err != nil {
		return Failed(fmt.Errorf("%w: %w", ErrFailure, err))
	}
	if resp.Refusal != "" {
		return Failed(fmt.Errorf("%w: model refused: %s", ErrFailure, resp.Refusal))
	}
	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return Failed(fmt.Errorf("%w: no output_text in response", ErrSchemaMismatch))
	}

	var content Content
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&content); err != nil {
		return Failed(fmt.Errorf("%w: %v", ErrSchemaMismatch, err))
	}
	if err := Validate(content, shortlist); err != nil {
		return Failed(err)
	}
	return Succeeded(content)
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}
	return json.Unmarshal(raw, out)
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model        string         `json:"model"`
	Instructions string         `json:"instructions,omitempty"`
	Input        []inputMessage `json:"input"`
	Text         struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text"`
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"max_output_tokens,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" {
				out.WriteString(c.Text)
			}
		}
	}
	return out.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
