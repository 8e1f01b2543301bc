package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/vsheahan/local-story-weaver/internal/entity"
	"github.com/vsheahan/local-story-weaver/pkg/common"
)

// FormatChapterNotification renders the Markdown message sent after a
// chapter is generated. The body is previewed, not sent in full, to stay
// well inside Telegram's message limit.
func FormatChapterNotification(chapter *entity.StoryChapter) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📖 *%s*\n", chapter.Title))
	b.WriteString(fmt.Sprintf("🗓 %s (%s, %s)\n", chapter.Date().Format(common.DateFormat), chapter.DayOfWeek, chapter.Season))

	if chapter.WeatherSummary != "" {
		b.WriteString(fmt.Sprintf("🌤 %s\n", chapter.WeatherSummary))
	}
	if chapter.TideState != "" {
		b.WriteString(fmt.Sprintf("🌊 tide %s\n", chapter.TideState))
	}
	b.WriteString(fmt.Sprintf("📰 %d news item(s) woven in\n\n", len(chapter.UsedNewsItemIDs)))

	preview := chapter.Body
	if idx := strings.Index(preview, "\n\n"); idx > 0 {
		preview = preview[:idx]
	}
	b.WriteString(preview)

	return b.String()
}

// FormatGenerationFailure renders the failure alert for a generation run.
func FormatGenerationFailure(date time.Time, err error) string {
	return fmt.Sprintf("⚠️ Story generation failed for %s\n`%v`", date.Format(common.DateFormat), err)
}
