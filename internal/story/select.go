package story

import (
	"github.com/vsheahan/local-story-weaver/internal/config"
	"github.com/vsheahan/local-story-weaver/pkg/logger"

	"google.golang.org/genai"
)

// SelectGenerator picks the configured generator chain: when model-backed
// generation is enabled and the chosen provider has an API key, the model
// generator wrapped with the template fallback; otherwise the bare template
// generator. genAiClient may be nil when Gemini is not configured.
func SelectGenerator(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) Generator {
	fallback := NewTemplateGenerator()

	if !cfg.Story.UseModelGeneration {
		return fallback
	}

	switch cfg.AI.Provider {
	case "openai":
		if cfg.OpenAI.APIKey != "" {
			return WithFallback(NewOpenAIGenerator(cfg.OpenAI, log), fallback, log)
		}
	default:
		if cfg.Gemini.APIKey != "" && genAiClient != nil {
			return WithFallback(NewGeminiGenerator(cfg.Gemini, log, genAiClient), fallback, log)
		}
	}

	log.Warn("Model generation enabled but no provider is configured, using template generator")
	return fallback
}
