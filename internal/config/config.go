package config

import (
	"time"

	"github.com/vsheahan/local-story-weaver/pkg/config"
)

// Sensitive-topic keyword groups and categories pruned from the feed when no
// explicit lists are configured: obituaries and deaths, crime-log language,
// electoral politics.
var (
	defaultExcludedKeywords = []string{
		"obituary", "obituaries", "death", "dies", "died",
		"memorial", "funeral", "passed away", "in memoriam",
		"police log", "arrest", "charged with", "fatal",
		"campaign", "election", "candidate", "endorsement", "endorses",
		"democrat", "republican", "congressional", "senator", "governor",
		"ballot", "vote", "voting", "primary", "caucus", "political",
	}
	defaultExcludedCategories = []string{
		"obituaries", "police", "crime",
		"politics", "election", "elections",
	}
)

// News holds news ingestion configuration.
type News struct {
	FeedURL            string        `mapstructure:"feed_url"`
	LocaleName         string        `mapstructure:"locale_name"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout"`
	MaxItemsPerFetch   int           `mapstructure:"max_items_per_fetch"`
	SummaryMaxLength   int           `mapstructure:"summary_max_length"`
	HeadlineMaxLength  int           `mapstructure:"headline_max_length"`
	AuthorMaxLength    int           `mapstructure:"author_max_length"`
	ExcludedKeywords   []string      `mapstructure:"excluded_keywords"`
	ExcludedCategories []string      `mapstructure:"excluded_categories"`
}

// Story holds story generation configuration.
type Story struct {
	LocationName           string `mapstructure:"location_name"`
	SiteURL                string `mapstructure:"site_url"`
	MaxNewsItems           int    `mapstructure:"max_news_items"`
	NewsPrefetchLimit      int    `mapstructure:"news_prefetch_limit"`
	UsedNewsLookbackDays   int    `mapstructure:"used_news_lookback_days"`
	GenerationHour         int    `mapstructure:"generation_hour"`
	UseModelGeneration     bool   `mapstructure:"use_model_generation"`
	EnableManualGeneration bool   `mapstructure:"enable_manual_generation"`
}

// Weather holds the configuration for the weather provider.
type Weather struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Latitude  float64       `mapstructure:"latitude"`
	Longitude float64       `mapstructure:"longitude"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Tide holds the configuration for the NOAA tide provider.
type Tide struct {
	StationID string        `mapstructure:"station_id"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// OpenAI holds the configuration for the OpenAI API.
type OpenAI struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// AI selects the model provider used by the primary story generator.
type AI struct {
	Provider string `mapstructure:"provider"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Scheduler holds the cron expressions for the background jobs.
type Scheduler struct {
	Enabled         bool   `mapstructure:"enabled"`
	NewsRefreshSpec string `mapstructure:"news_refresh_spec"`
	GenerationSpec  string `mapstructure:"generation_spec"`
	TimeZone        string `mapstructure:"time_zone"`
}

// Admin holds administrative endpoint protection settings.
type Admin struct {
	APIKey string `mapstructure:"api_key"`
}

// Config holds the full configuration for the story weaver service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	API       config.API      `mapstructure:"api"`
	News      News            `mapstructure:"news"`
	Story     Story           `mapstructure:"story"`
	Weather   Weather         `mapstructure:"weather"`
	Tide      Tide            `mapstructure:"tide"`
	Gemini    Gemini          `mapstructure:"gemini"`
	OpenAI    OpenAI          `mapstructure:"openai"`
	AI        AI              `mapstructure:"ai"`
	Telegram  Telegram        `mapstructure:"telegram"`
	Scheduler Scheduler       `mapstructure:"scheduler"`
	Admin     Admin           `mapstructure:"admin"`
}

// Load loads the service configuration from the given path and applies
// defaults for unset values.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.News.FeedURL == "" {
		c.News.FeedURL = "https://ipswichlocalnews.com/feed/"
	}
	if c.News.LocaleName == "" {
		c.News.LocaleName = "Ipswich"
	}
	if c.Story.LocationName == "" {
		c.Story.LocationName = "Ipswich"
	}
	if c.News.FetchTimeout == 0 {
		c.News.FetchTimeout = 15 * time.Second
	}
	if c.News.MaxItemsPerFetch == 0 {
		c.News.MaxItemsPerFetch = 10
	}
	if c.News.SummaryMaxLength == 0 {
		c.News.SummaryMaxLength = 500
	}
	if c.News.HeadlineMaxLength == 0 {
		c.News.HeadlineMaxLength = 500
	}
	if c.News.AuthorMaxLength == 0 {
		c.News.AuthorMaxLength = 200
	}
	if c.Story.MaxNewsItems == 0 {
		c.Story.MaxNewsItems = 1
	}
	if c.Story.NewsPrefetchLimit == 0 {
		c.Story.NewsPrefetchLimit = 50
	}
	if c.Story.UsedNewsLookbackDays == 0 {
		c.Story.UsedNewsLookbackDays = 7
	}
	if c.Story.GenerationHour == 0 {
		c.Story.GenerationHour = 9
	}
	if len(c.News.ExcludedKeywords) == 0 {
		c.News.ExcludedKeywords = defaultExcludedKeywords
	}
	if len(c.News.ExcludedCategories) == 0 {
		c.News.ExcludedCategories = defaultExcludedCategories
	}
	if c.Weather.Timeout == 0 {
		c.Weather.Timeout = 10 * time.Second
	}
	if c.Tide.Timeout == 0 {
		c.Tide.Timeout = 10 * time.Second
	}
	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = "https://api.openweathermap.org/data/2.5"
	}
	if c.Tide.BaseURL == "" {
		c.Tide.BaseURL = "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"
	}
	if c.Gemini.MaxRequestPerMinute == 0 {
		c.Gemini.MaxRequestPerMinute = 10
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
}
