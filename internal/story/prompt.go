package story

import (
	"fmt"
	"strings"
)

// BuildStoryPrompt weaves the day's context into one model instruction. The
// model must answer with strict JSON so the response can be parsed without
// heuristics.
func BuildStoryPrompt(dayCtx *DayContext) string {
	var newsBuilder strings.Builder
	if len(dayCtx.NewsItems) == 0 {
		newsBuilder.WriteString("(no local news today)\n")
	}
	for i, item := range dayCtx.NewsItems {
		newsBuilder.WriteString(fmt.Sprintf("%d. Headline: %q\n   Summary: %s\n",
			i+1, item.Headline, item.Summary))
	}

	promptTemplate := `You are the narrator of a gentle, literary serial about daily life in %s.
Write today's short chapter from the following real conditions.

Date: %s, %s %d
Season: %s
Weather: %s
Tide: %s
Local news:
%s
Guidelines:
- 150 to 250 words, warm and observational, present tense.
- Weave in the weather and the tide naturally; never list them.
- If news is given, fold it into the town's day without editorializing.
- No violence, politics, or named private individuals.

Respond with JSON only, no markdown fences, in exactly this shape:
{"title": "...", "body": "..."}`

	return fmt.Sprintf(promptTemplate,
		dayCtx.Location,
		dayCtx.DayOfWeek, dayCtx.MonthName, dayCtx.Date.Day(),
		dayCtx.Season,
		dayCtx.Weather.Summary,
		dayCtx.Tide.Summary,
		newsBuilder.String(),
	)
}

// parseNarrativeJSON strips optional markdown code fences and decodes the
// model's {"title": ..., "body": ...} payload.
func parseNarrativeJSON(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.Trim(trimmed, "`")
	trimmed = strings.TrimPrefix(trimmed, "json")
	trimmed = strings.TrimSpace(trimmed)
	if !strings.HasPrefix(trimmed, "{") {
		return trimmed, false
	}
	return trimmed, true
}
