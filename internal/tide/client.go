package tide

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vsheahan/local-story-weaver/internal/config"
	"github.com/vsheahan/local-story-weaver/pkg/logger"

	gocache "github.com/patrickmn/go-cache"
)

// Snapshot is the small tide value consumed by story generation.
type Snapshot struct {
	State   string `json:"state"`
	Summary string `json:"summary"`
}

// Provider returns the tide state for the configured station.
type Provider interface {
	Current(ctx context.Context, date time.Time) (*Snapshot, error)
}

// NewClient creates a NOAA tides-and-currents backed provider. Predictions
// for a date are cached so repeated context builds do not refetch them.
func NewClient(cfg config.Tide, log *logger.Logger) Provider {
	return &client{
		cfg:        cfg,
		logger:     log,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      gocache.New(time.Hour, 2*time.Hour),
	}
}

type client struct {
	cfg        config.Tide
	logger     *logger.Logger
	httpClient *http.Client
	cache      *gocache.Cache
}

type noaaPrediction struct {
	Time  string `json:"t"`
	Value string `json:"v"`
	Type  string `json:"type"`
}

type noaaResponse struct {
	Predictions []noaaPrediction `json:"predictions"`
}

// Current fetches the day's high/low predictions and derives a state label
// plus a human summary for the given date.
func (c *client) Current(ctx context.Context, date time.Time) (*Snapshot, error) {
	cacheKey := date.Format("20060102")
	if cached, found := c.cache.Get(cacheKey); found {
		snapshot := cached.(Snapshot)
		return &snapshot, nil
	}

	query := url.Values{}
	query.Set("station", c.cfg.StationID)
	query.Set("begin_date", date.Format("20060102"))
	query.Set("end_date", date.Format("20060102"))
	query.Set("product", "predictions")
	query.Set("datum", "MLLW")
	query.Set("interval", "hilo")
	query.Set("units", "english")
	query.Set("time_zone", "lst_ldt")
	query.Set("format", "json")
	apiURL := fmt.Sprintf("%s?%s", c.cfg.BaseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tide request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tide predictions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tide API returned status %d", resp.StatusCode)
	}

	var body noaaResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode tide response: %w", err)
	}
	if len(body.Predictions) == 0 {
		return nil, fmt.Errorf("tide API returned no predictions")
	}

	snapshot := derive(body.Predictions, date)
	c.cache.Set(cacheKey, snapshot, gocache.DefaultExpiration)
	return &snapshot, nil
}

// derive picks the prediction nearest the given moment and labels the tide
// state relative to it: at a turning point within an hour, "high tide" or
// "low tide"; otherwise rising toward a high or falling toward a low.
func derive(predictions []noaaPrediction, at time.Time) Snapshot {
	const layout = "2006-01-02 15:04"

	var next *noaaPrediction
	var nextTime time.Time
	for i := range predictions {
		t, err := time.ParseInLocation(layout, predictions[i].Time, at.Location())
		if err != nil {
			continue
		}
		if t.After(at) {
			next = &predictions[i]
			nextTime = t
			break
		}
	}

	if next == nil {
		last := predictions[len(predictions)-1]
		return Snapshot{
			State:   stateLabel(last.Type),
			Summary: fmt.Sprintf("around %s", strings.ToLower(stateLabel(last.Type))),
		}
	}

	untilNext := nextTime.Sub(at)
	if untilNext <= time.Hour {
		return Snapshot{
			State:   stateLabel(next.Type),
			Summary: fmt.Sprintf("near %s at %s", strings.ToLower(stateLabel(next.Type)), nextTime.Format("3:04 PM")),
		}
	}

	if strings.EqualFold(next.Type, "H") {
		return Snapshot{
			State:   "rising",
			Summary: fmt.Sprintf("rising toward high tide at %s", nextTime.Format("3:04 PM")),
		}
	}
	return Snapshot{
		State:   "falling",
		Summary: fmt.Sprintf("falling toward low tide at %s", nextTime.Format("3:04 PM")),
	}
}

func stateLabel(predictionType string) string {
	if strings.EqualFold(predictionType, "H") {
		return "high tide"
	}
	return "low tide"
}
