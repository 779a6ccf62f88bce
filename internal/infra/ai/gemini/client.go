package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/bryanwahyu/pitchlens/internal/domain/generation"
)

const (
	defaultModel    = "gemini-1.5-flash"
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1/models/%s:generateContent"
)

type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	endpoint   string
}

func NewClient(apiKey, model, endpoint string) *Client {
	if model == "" {
		model = defaultModel
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf(defaultEndpoint, model)
	}
	return &Client{
		httpClient: &http.Client{},
		apiKey:     apiKey,
		model:      model,
		endpoint:   endpoint,
	}
}

// Wire types for the generateContent envelope. Only the content field is
// assumed; everything else the backend sends is ignored.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

// Generate sends one prompt, no retry. Deadline comes from ctx.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode generation request: %w", err)
	}

	url := c.endpoint
	if c.apiKey != "" {
		url = fmt.Sprintf("%s?key=%s", c.endpoint, c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("generation endpoint returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrMalformedResponse, err)
	}

	// Absence of candidates is a failure, not an empty success.
	if len(out.Candidates) == 0 {
		return "", fmt.Errorf("%w: missing candidates", generation.ErrMalformedResponse)
	}
	parts := out.Candidates[0].Content.Parts
	if len(parts) == 0 || strings.TrimSpace(parts[0].Text) == "" {
		return "", fmt.Errorf("%w: candidate has no text content", generation.ErrMalformedResponse)
	}
	return parts[0].Text, nil
}
