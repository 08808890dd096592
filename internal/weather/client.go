package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/brindlewood/storefront-api/internal/logger"
	"github.com/brindlewood/storefront-api/internal/models"
)

const (
	cacheTTL       = 10 * time.Minute
	requestTimeout = 5 * time.Second
)

// Client looks up current conditions from an Open-Meteo-compatible endpoint.
// Results are cached per rounded coordinate pair so a burst of storefront
// requests from one city costs one upstream call.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *cache.Cache
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		cache:   cache.New(cacheTTL, cacheTTL*2),
	}
}

type currentWeather struct {
	Temperature float64 `json:"temperature"`
	WeatherCode int     `json:"weathercode"`
}

type forecastResponse struct {
	CurrentWeather *currentWeather `json:"current_weather"`
}

// Current resolves conditions for a coordinate pair. Coordinates are rounded
// to one decimal (about 11km) before keying; visitors in the same area share
// a lookup.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*models.Weather, error) {
	rlat := math.Round(lat*10) / 10
	rlon := math.Round(lon*10) / 10
	key := fmt.Sprintf("%.1f,%.1f", rlat, rlon)

	if cached, found := c.cache.Get(key); found {
		if w, ok := cached.(*models.Weather); ok {
			return w, nil
		}
	}

	w, err := c.fetch(ctx, rlat, rlon)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, w, cache.DefaultExpiration)
	return w, nil
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (*models.Weather, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.1f", lat))
	params.Set("longitude", fmt.Sprintf("%.1f", lon))
	params.Set("current_weather", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building weather request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var forecast forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return nil, fmt.Errorf("decoding weather response: %w", err)
	}
	if forecast.CurrentWeather == nil {
		return nil, fmt.Errorf("weather response missing current_weather block")
	}

	w := &models.Weather{
		Condition:   conditionForCode(forecast.CurrentWeather.WeatherCode),
		Temperature: bandForTemperature(forecast.CurrentWeather.Temperature),
	}

	logger.Debug("Weather resolved", logger.Fields{
		"lat":       lat,
		"lon":       lon,
		"condition": string(w.Condition),
		"band":      string(w.Temperature),
	})

	return w, nil
}

// conditionForCode buckets WMO weather interpretation codes. Codes outside
// the table land on cloudy, the neutral bucket.
func conditionForCode(code int) models.WeatherCondition {
	switch {
	case code == 0 || code == 1:
		return models.WeatherSunny
	case code >= 2 && code <= 3:
		return models.WeatherCloudy
	case code == 45 || code == 48:
		return models.WeatherCloudy
	case code >= 51 && code <= 67:
		return models.WeatherRainy
	case code >= 71 && code <= 77:
		return models.WeatherSnowy
	case code >= 80 && code <= 82:
		return models.WeatherRainy
	case code == 85 || code == 86:
		return models.WeatherSnowy
	case code >= 95 && code <= 99:
		return models.WeatherStormy
	default:
		return models.WeatherCloudy
	}
}

func bandForTemperature(celsius float64) models.TemperatureBand {
	switch {
	case celsius >= 27:
		return models.TemperatureHot
	case celsius >= 18:
		return models.TemperatureWarm
	case celsius >= 8:
		return models.TemperatureCool
	default:
		return models.TemperatureCold
	}
}
