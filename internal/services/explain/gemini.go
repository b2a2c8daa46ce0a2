package explain

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned before any request when no key is configured.
var ErrMissingAPIKey = errors.New("gemini api key is not set (GEMINI_API_KEY)")

// GeminiConfig holds the generateContent endpoint settings.
type GeminiConfig struct {
	BaseURL  string
	Model    string
	APIKey   string
	Timeout  time.Duration
	Attempts int
}

// GeminiClient calls the Gemini REST generateContent endpoint.
type GeminiClient struct {
	base     *httpServiceBase
	model    string
	apiKey   string
	attempts int
}

func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiClient{
		base:     newHTTPServiceBase(cfg.BaseURL, cfg.Timeout),
		model:    model,
		apiKey:   cfg.APIKey,
		attempts: cfg.Attempts,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Model returns the model name used for requests.
func (c *GeminiClient) Model() string { return c.model }

// Generate sends prompt as a single user turn and returns the text of the
// first candidate, all parts joined.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	req := generateRequest{Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}}}
	var resp generateResponse
	path := "/v1beta/models/" + url.PathEscape(c.model) + ":generateContent"
	if err := c.base.postJSONWithRetry(ctx, path, map[string]string{"x-goog-api-key": c.apiKey}, req, &resp, c.attempts); err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini generate: prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", errors.New("gemini generate: no candidates returned")
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("gemini generate: empty response (finish reason %q)", resp.Candidates[0].FinishReason)
	}
	return text, nil
}
