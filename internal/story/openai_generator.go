package story

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vsheahan/local-story-weaver/internal/config"
	"github.com/vsheahan/local-story-weaver/pkg/logger"
)

// openaiGenerator produces narratives with an OpenAI-compatible
// chat-completions endpoint.
type openaiGenerator struct {
	cfg    config.OpenAI
	logger *logger.Logger
	client *http.Client
}

// NewOpenAIGenerator creates an OpenAI-backed story generator.
func NewOpenAIGenerator(cfg config.OpenAI, log *logger.Logger) Generator {
	return &openaiGenerator{
		cfg:    cfg,
		logger: log,
		client: &http.Client{Timeout: 90 * time.Second},
	}
}

func (g *openaiGenerator) Name() string {
	return "openai"
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
}

func (g *openaiGenerator) Generate(ctx context.Context, dayCtx *DayContext) (*Narrative, error) {
	prompt := BuildStoryPrompt(dayCtx)

	payload := openaiRequest{
		Model: g.cfg.Model,
		Messages: []openaiMessage{
			{Role: "user", Content: prompt},
		},
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	apiURL := fmt.Sprintf("%s/chat/completions", g.cfg.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("received non-OK response from OpenAI API: %d - %s", resp.StatusCode, string(body))
	}

	var apiResp openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in OpenAI response")
	}

	payloadText, ok := parseNarrativeJSON(apiResp.Choices[0].Message.Content)
	if !ok {
		return nil, fmt.Errorf("openai response is not JSON")
	}

	var narrative Narrative
	if err := json.Unmarshal([]byte(payloadText), &narrative); err != nil {
		return nil, fmt.Errorf("failed to unmarshal narrative from OpenAI response: %w", err)
	}
	if narrative.Title == "" || narrative.Body == "" {
		return nil, fmt.Errorf("openai narrative is missing a title or body")
	}

	return &narrative, nil
}
