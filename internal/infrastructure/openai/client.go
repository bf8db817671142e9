package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nutriplan/backend/internal/domain"
)

// DefaultBaseURL is the OpenAI API root
const DefaultBaseURL = "https://api.openai.com"

// Client calls the OpenAI Responses API and implements the TextGenerator
// port. Timeouts here surface as ordinary call failures; the planner's own
// retry decides what happens next.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates an OpenAI client
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	// Plan generations are slow, low-volume calls; 1 rps with a small burst
	// keeps redelivered jobs from hammering the provider.
	limiter := rate.NewLimiter(rate.Limit(1), 4)

	return &Client{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: limiter,
	}
}

// SetDebug enables request/response logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

type responsesRequest struct {
	Model        string `json:"model"`
	Instructions string `json:"instructions"`
	Input        string `json:"input"`
}

type responsesResponse struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateText runs one text-generation call and returns the output text
func (c *Client) GenerateText(ctx context.Context, params domain.GenerateTextParams) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(responsesRequest{
		Model:        params.Model,
		Instructions: params.Instructions,
		Input:        params.Input,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/responses", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	if c.debug {
		log.Printf("[OPENAI] POST /v1/responses model=%s input=%d bytes", params.Model, len(params.Input))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(raw)
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
		return "", fmt.Errorf("openai returned status %d: %s", resp.StatusCode, snippet)
	}

	var parsed responsesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai error: %s", parsed.Error.Message)
	}

	text := parsed.OutputText
	if text == "" {
		var sb strings.Builder
		for _, item := range parsed.Output {
			if item.Type != "message" {
				continue
			}
			for _, content := range item.Content {
				if content.Type == "output_text" {
					sb.WriteString(content.Text)
				}
			}
		}
		text = sb.String()
	}

	if strings.TrimSpace(text) == "" {
		return "", domain.ErrNoUsableText
	}

	if c.debug {
		log.Printf("[OPENAI] response: %d bytes of text", len(text))
	}
	return text, nil
}
