package story

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vsheahan/local-story-weaver/internal/config"
	"github.com/vsheahan/local-story-weaver/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// geminiGenerator produces narratives with the Google Gemini API.
type geminiGenerator struct {
	cfg            config.Gemini
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiGenerator creates a Gemini-backed story generator.
func NewGeminiGenerator(cfg config.Gemini, log *logger.Logger, genAiClient *genai.Client) Generator {
	secondsPerRequest := time.Minute / time.Duration(cfg.MaxRequestPerMinute)
	return &geminiGenerator{
		cfg:            cfg,
		logger:         log,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		genAiClient:    genAiClient,
	}
}

func (g *geminiGenerator) Name() string {
	return "gemini"
}

// Generate builds the prompt, calls the model with a bounded timeout, and
// parses the JSON narrative out of the response.
func (g *geminiGenerator) Generate(ctx context.Context, dayCtx *DayContext) (*Narrative, error) {
	if err := g.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	prompt := BuildStoryPrompt(dayCtx)
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}

	reqCtx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()

	resp, err := g.genAiClient.Models.GenerateContent(reqCtx, g.cfg.Model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	g.logger.Debug("Gemini response received", logger.IntField("length", len(text)))

	payload, ok := parseNarrativeJSON(text)
	if !ok {
		return nil, fmt.Errorf("gemini response is not JSON")
	}

	var narrative Narrative
	if err := json.Unmarshal([]byte(payload), &narrative); err != nil {
		return nil, fmt.Errorf("failed to unmarshal narrative from Gemini response: %w", err)
	}
	if narrative.Title == "" || narrative.Body == "" {
		return nil, fmt.Errorf("gemini narrative is missing a title or body")
	}

	return &narrative, nil
}
