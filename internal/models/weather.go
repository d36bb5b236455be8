package models

import (
	"time"
)

// ForecastSample is one normalized 3-hour step of the provider forecast.
type ForecastSample struct {
	Timestamp         time.Time `json:"timestamp"`
	TemperatureC      float64   `json:"temperature_c"`
	HumidityPct       int       `json:"humidity_pct"`
	PressureHpa       float64   `json:"pressure_hpa"`
	PrecipitationMm3h float64   `json:"precipitation_mm_3h"`
}

type CurrentConditions struct {
	PlaceName    string    `json:"place_name"`
	CountryCode  string    `json:"country_code"`
	TemperatureC float64   `json:"temperature_c"`
	FeelsLikeC   float64   `json:"feels_like_c"`
	HumidityPct  int       `json:"humidity_pct"`
	PressureHpa  float64   `json:"pressure_hpa"`
	WindSpeedMs  float64   `json:"wind_speed_ms"`
	WindDirDeg   float64   `json:"wind_dir_deg"`
	VisibilityM  int       `json:"visibility_m"`
	Sunrise      time.Time `json:"sunrise"`
	Sunset       time.Time `json:"sunset"`
	ObservedAt   time.Time `json:"observed_at"`
	Description  string    `json:"description"`
	Icon         string    `json:"icon"`
}

type Forecast struct {
	City    string           `json:"city"`
	Samples []ForecastSample `json:"samples"`
}

// ChartPoint is one point of the temperature/precipitation chart.
type ChartPoint struct {
	Time   time.Time `json:"time"`
	Temp   float64   `json:"temp"`
	RainMm float64   `json:"rain"`
}

// Snapshot is a previously served result handed back by the client for
// re-evaluation without a fresh fetch.
type Snapshot struct {
	Current *CurrentConditions `json:"current,omitempty"`
	Samples []ForecastSample   `json:"samples"`
}
