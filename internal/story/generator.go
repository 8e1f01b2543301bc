package story

import (
	"context"
	"fmt"
	"strings"

	"github.com/vsheahan/local-story-weaver/pkg/logger"
)

// Narrative is one generated story: a title and a body.
type Narrative struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Generator produces a narrative from a day's context. Implementations are
// interchangeable; callers never branch on which one they hold.
type Generator interface {
	Generate(ctx context.Context, dayCtx *DayContext) (*Narrative, error)
	Name() string
}

// WithFallback decorates a primary generator so that any failure falls
// through to the fallback, which must succeed unconditionally. Callers are
// never aware which generator produced the output.
func WithFallback(primary, fallback Generator, log *logger.Logger) Generator {
	return &fallbackGenerator{primary: primary, fallback: fallback, logger: log}
}

type fallbackGenerator struct {
	primary  Generator
	fallback Generator
	logger   *logger.Logger
}

func (g *fallbackGenerator) Name() string {
	return g.primary.Name()
}

func (g *fallbackGenerator) Generate(ctx context.Context, dayCtx *DayContext) (*Narrative, error) {
	narrative, err := g.primary.Generate(ctx, dayCtx)
	if err == nil {
		return narrative, nil
	}

	g.logger.Warn("Primary story generator failed, using fallback",
		logger.StringField("generator", g.primary.Name()),
		logger.ErrorField(err),
	)
	return g.fallback.Generate(ctx, dayCtx)
}

// TemplateGenerator builds a story from fixed templates keyed by season,
// weather, and tide. It is deterministic and has no failure mode.
type TemplateGenerator struct{}

// NewTemplateGenerator creates a TemplateGenerator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) Name() string {
	return "template"
}

var seasonOpenings = map[string]string{
	"Winter": "The cold has settled in along the coast, and the town moves a little slower for it.",
	"Spring": "The thaw is on and the marshes are waking, green creeping back along the riverbanks.",
	"Summer": "The long days have arrived, and the town hums with the easy business of summer.",
	"Autumn": "The light has gone gold and the air carries the first real bite of the season.",
}

var conditionLines = map[string]string{
	"Clear":        "Overhead the sky is clear from one horizon to the other.",
	"Clouds":       "A gray ceiling of cloud hangs over the rooftops.",
	"Rain":         "Rain works at the windows and keeps most folks indoors.",
	"Drizzle":      "A fine drizzle softens the edges of everything.",
	"Snow":         "Snow is falling, hushing the streets under a white blanket.",
	"Thunderstorm": "Thunder rolls somewhere out over the water.",
	"Mist":         "Mist drifts up from the river and blurs the streetlights.",
	"Fog":          "Fog has swallowed the far bank of the river whole.",
}

var tideLines = map[string]string{
	"rising":    "Down at the water the tide is coming in, inch by patient inch.",
	"falling":   "Down at the water the tide is slipping back out, uncovering the flats.",
	"high tide": "The river sits brim-full at high tide, pressing against the pilings.",
	"low tide":  "The tide is out, and the mudflats stretch wide and glistening.",
}

// Generate assembles the deterministic story for the day.
func (g *TemplateGenerator) Generate(_ context.Context, dayCtx *DayContext) (*Narrative, error) {
	var paragraphs []string

	opening, ok := seasonOpenings[dayCtx.Season]
	if !ok {
		opening = "Another day unfolds along the coast."
	}
	paragraphs = append(paragraphs, fmt.Sprintf("%s, %s %d. %s",
		dayCtx.DayOfWeek, dayCtx.MonthName, dayCtx.Date.Day(), opening))

	if line, ok := conditionLines[dayCtx.Weather.Condition]; ok {
		paragraphs = append(paragraphs, line)
	} else if dayCtx.Weather.Summary != "" && dayCtx.Weather.Summary != Unavailable {
		paragraphs = append(paragraphs, fmt.Sprintf("The day's weather: %s.", dayCtx.Weather.Summary))
	}

	if line, ok := tideLines[dayCtx.Tide.State]; ok {
		paragraphs = append(paragraphs, line)
	}

	for _, item := range dayCtx.NewsItems {
		paragraphs = append(paragraphs, fmt.Sprintf(
			"Word around town turns to the news: %s.", strings.TrimRight(item.Headline, ".")))
	}

	paragraphs = append(paragraphs,
		"And so the day goes into the book, one more small chapter in the town's long story.")

	title := fmt.Sprintf("A %s %s in %s", dayCtx.Season, dayCtx.DayOfWeek, dayCtx.Location)

	return &Narrative{
		Title: title,
		Body:  strings.Join(paragraphs, "\n\n"),
	}, nil
}
