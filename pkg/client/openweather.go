package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bobby-s-dev/cloudburst/internal/models"
	"go.uber.org/zap"
)

const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5"

type OpenWeatherClient struct {
	*BaseClient
	apiKey  string
	baseURL string
	logger  *zap.Logger
}

type OpenWeatherCurrentResponse struct {
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  float64 `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Visibility int `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Dt  int64 `json:"dt"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Name string `json:"name"`
	// cod is a number on /weather but a string on /forecast
	Cod json.RawMessage `json:"cod"`
}

type OpenWeatherForecastItem struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		Pressure float64 `json:"pressure"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Rain *struct {
		ThreeHour *float64 `json:"3h"`
	} `json:"rain"`
	DtTxt string `json:"dt_txt"`
}

type OpenWeatherForecastResponse struct {
	Cod  json.RawMessage           `json:"cod"`
	Cnt  int                       `json:"cnt"`
	List []OpenWeatherForecastItem `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
}

func NewOpenWeatherClient(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	return &OpenWeatherClient{
		BaseClient: NewBaseClient("openweather", config, logger),
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

func (c *OpenWeatherClient) endpoint(path, place string) string {
	q := url.Values{}
	q.Set("q", place)
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)
	return fmt.Sprintf("%s/%s?%s", c.baseURL, path, q.Encode())
}

// GetCurrentWeather fetches current conditions for a free-form place name
// such as "Paris" or "Paris,FR".
func (c *OpenWeatherClient) GetCurrentWeather(ctx context.Context, place string) (*models.CurrentConditions, error) {
	data, err := c.Get(ctx, c.endpoint("weather", place))
	if err != nil {
		return nil, classify("current weather", place, err)
	}

	var response OpenWeatherCurrentResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse current weather: %v", models.ErrTransient, err)
	}
	if err := checkCod(response.Cod, place); err != nil {
		return nil, err
	}

	current := &models.CurrentConditions{
		PlaceName:    response.Name,
		CountryCode:  response.Sys.Country,
		TemperatureC: response.Main.Temp,
		FeelsLikeC:   response.Main.FeelsLike,
		HumidityPct:  response.Main.Humidity,
		PressureHpa:  response.Main.Pressure,
		WindSpeedMs:  response.Wind.Speed,
		WindDirDeg:   response.Wind.Deg,
		VisibilityM:  response.Visibility,
		Sunrise:      time.Unix(response.Sys.Sunrise, 0).UTC(),
		Sunset:       time.Unix(response.Sys.Sunset, 0).UTC(),
		ObservedAt:   time.Unix(response.Dt, 0).UTC(),
	}
	if len(response.Weather) > 0 {
		current.Description = response.Weather[0].Description
		current.Icon = response.Weather[0].Icon
	}

	return current, nil
}

// GetForecast fetches the 3-hour-step forecast and normalizes it.
func (c *OpenWeatherClient) GetForecast(ctx context.Context, place string) (*models.Forecast, error) {
	data, err := c.Get(ctx, c.endpoint("forecast", place))
	if err != nil {
		return nil, classify("forecast", place, err)
	}

	var response OpenWeatherForecastResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse forecast: %v", models.ErrTransient, err)
	}
	if err := checkCod(response.Cod, place); err != nil {
		return nil, err
	}

	c.logger.Debug("Forecast received",
		zap.String("place", place),
		zap.Int("samples", len(response.List)))

	return &models.Forecast{
		City:    response.City.Name,
		Samples: NormalizeForecast(response.List),
	}, nil
}

// NormalizeForecast maps provider items to samples. A bucket without a
// rain volume counts as 0mm.
func NormalizeForecast(items []OpenWeatherForecastItem) []models.ForecastSample {
	samples := make([]models.ForecastSample, 0, len(items))
	for _, item := range items {
		var rain float64
		if item.Rain != nil && item.Rain.ThreeHour != nil {
			rain = *item.Rain.ThreeHour
		}
		samples = append(samples, models.ForecastSample{
			Timestamp:         time.Unix(item.Dt, 0).UTC(),
			TemperatureC:      item.Main.Temp,
			HumidityPct:       item.Main.Humidity,
			PressureHpa:       item.Main.Pressure,
			PrecipitationMm3h: rain,
		})
	}
	return samples
}

func classify(what, place string, err error) error {
	if StatusCode(err) == http.StatusNotFound {
		return fmt.Errorf("%w: %s for %q", models.ErrNotFound, what, place)
	}
	return fmt.Errorf("%w: failed to fetch %s: %w", models.ErrTransient, what, err)
}

func checkCod(raw json.RawMessage, place string) error {
	if len(raw) == 0 {
		return nil
	}
	cod := strings.Trim(string(raw), `"`)
	switch cod {
	case "200":
		return nil
	case "404":
		return fmt.Errorf("%w: %q", models.ErrNotFound, place)
	}
	return fmt.Errorf("%w: API error: %s", models.ErrTransient, cod)
}
