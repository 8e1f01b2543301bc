package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/vsheahan/local-story-weaver/internal/config"
	"github.com/vsheahan/local-story-weaver/pkg/logger"

	gocache "github.com/patrickmn/go-cache"
)

// Snapshot is the small weather value consumed by story generation.
type Snapshot struct {
	Summary     string  `json:"summary"`
	Condition   string  `json:"condition"`
	Temperature float64 `json:"temperature"`
}

// Provider returns current conditions for the configured location.
type Provider interface {
	Current(ctx context.Context, date time.Time) (*Snapshot, error)
}

// NewClient creates an OpenWeatherMap-backed provider. Responses are cached
// per calendar date so repeated context builds within a day do not hit the
// API again.
func NewClient(cfg config.Weather, log *logger.Logger) Provider {
	return &client{
		cfg:        cfg,
		logger:     log,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      gocache.New(30*time.Minute, time.Hour),
	}
}

type client struct {
	cfg        config.Weather
	logger     *logger.Logger
	httpClient *http.Client
	cache      *gocache.Cache
}

type owmResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

// Current fetches current conditions for the configured coordinates.
func (c *client) Current(ctx context.Context, date time.Time) (*Snapshot, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("weather API key is not configured")
	}

	cacheKey := date.Format("2006-01-02")
	if cached, found := c.cache.Get(cacheKey); found {
		snapshot := cached.(Snapshot)
		return &snapshot, nil
	}

	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%f", c.cfg.Latitude))
	query.Set("lon", fmt.Sprintf("%f", c.cfg.Longitude))
	query.Set("units", "imperial")
	query.Set("appid", c.cfg.APIKey)
	apiURL := fmt.Sprintf("%s/weather?%s", c.cfg.BaseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var body owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}

	snapshot := Snapshot{Temperature: body.Main.Temp}
	if len(body.Weather) > 0 {
		snapshot.Condition = body.Weather[0].Main
		snapshot.Summary = fmt.Sprintf("%s, %.0f°F", body.Weather[0].Description, body.Main.Temp)
	} else {
		snapshot.Summary = fmt.Sprintf("%.0f°F", body.Main.Temp)
	}

	c.cache.Set(cacheKey, snapshot, gocache.DefaultExpiration)
	return &snapshot, nil
}
