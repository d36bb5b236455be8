package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const DefaultWeatherAPIURL = "https://api.weatherapi.com/v1"

// WeatherAPIClient reads current conditions from WeatherAPI.com. It feeds
// the notification poller only.
type WeatherAPIClient struct {
	*BaseClient
	apiKey  string
	baseURL string
}

type WeatherAPICurrentResponse struct {
	Location struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC     float64 `json:"temp_c"`
		Condition struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

// Condition is a short textual summary of the weather at a place.
type Condition struct {
	Text  string
	TempC float64
}

func NewWeatherAPIClient(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) *WeatherAPIClient {
	if baseURL == "" {
		baseURL = DefaultWeatherAPIURL
	}
	return &WeatherAPIClient{
		BaseClient: NewBaseClient("weatherapi", config, logger),
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *WeatherAPIClient) GetCondition(ctx context.Context, city string) (*Condition, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("q", city)
	q.Set("aqi", "no")

	data, err := c.Get(ctx, fmt.Sprintf("%s/current.json?%s", c.baseURL, q.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch condition: %w", err)
	}

	var response WeatherAPICurrentResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse condition response: %w", err)
	}

	return &Condition{
		Text:  response.Current.Condition.Text,
		TempC: response.Current.TempC,
	}, nil
}
