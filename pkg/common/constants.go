package common

const (
	// DateFormat is the canonical YYYY-MM-DD layout used for chapter dates
	// in URLs, cache keys, and log fields.
	DateFormat = "2006-01-02"

	// RedisKeyLatestChapter caches the most recent chapter response.
	RedisKeyLatestChapter = "story:latest"
)
