package services

import (
	"context"
	"time"

	"github.com/bobby-s-dev/cloudburst/internal/models"
	"github.com/bobby-s-dev/cloudburst/internal/observability"
	"github.com/bobby-s-dev/cloudburst/internal/preferences"
	"github.com/bobby-s-dev/cloudburst/internal/risk"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	chartPoints    = 16
	nearTermPoints = 6
)

// Display carries the current readings converted to the requested unit.
type Display struct {
	Units       preferences.Units `json:"units"`
	Temperature float64           `json:"temperature"`
	FeelsLike   float64           `json:"feels_like"`
}

type Analytics struct {
	Current     *models.CurrentConditions `json:"current"`
	Display     Display                   `json:"display"`
	NearTerm    []models.ForecastSample   `json:"near_term"`
	Samples     []models.ForecastSample   `json:"samples"`
	Chart       []models.ChartPoint       `json:"chart"`
	Risk        models.RiskAssessment     `json:"risk"`
	ImageURL    string                    `json:"image_url,omitempty"`
	LastUpdated time.Time                 `json:"last_updated"`
}

// Dashboard assembles the analytics view from a fresh retrieval.
type Dashboard struct {
	retriever *Retriever
	evaluator *risk.Evaluator
	images    ImageSearcher
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewDashboard wires the pieces together. images may be nil.
func NewDashboard(retriever *Retriever, evaluator *risk.Evaluator, images ImageSearcher, clock clockwork.Clock, metrics *observability.Metrics, logger *zap.Logger) *Dashboard {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Dashboard{
		retriever: retriever,
		evaluator: evaluator,
		images:    images,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
	}
}

func (d *Dashboard) Retriever() *Retriever { return d.retriever }

func (d *Dashboard) Analyze(ctx context.Context, sessionKey, place string, prefs preferences.Preferences) (*Analytics, error) {
	current, samples, err := d.retriever.Search(ctx, sessionKey, place)
	if err != nil {
		return nil, err
	}

	assessment := d.Evaluate(models.Snapshot{Current: current, Samples: samples})

	result := &Analytics{
		Current: current,
		Display: Display{
			Units:       prefs.Units,
			Temperature: prefs.Units.Temperature(current.TemperatureC),
			FeelsLike:   prefs.Units.Temperature(current.FeelsLikeC),
		},
		NearTerm:    head(samples, nearTermPoints),
		Samples:     samples,
		Chart:       BuildChart(samples, chartPoints, prefs.Units),
		Risk:        assessment,
		LastUpdated: d.clock.Now().UTC(),
	}

	if d.images != nil {
		url, err := d.images.SearchImage(ctx, place)
		if err != nil {
			d.logger.Debug("Image lookup failed, serving without background",
				zap.String("place", place),
				zap.Error(err))
		} else {
			result.ImageURL = url
		}
	}

	return result, nil
}

// Evaluate scores a snapshot, fresh or rehydrated.
func (d *Dashboard) Evaluate(snapshot models.Snapshot) models.RiskAssessment {
	assessment := d.evaluator.Evaluate(snapshot.Current, snapshot.Samples)
	if len(snapshot.Samples) > 0 {
		d.metrics.RiskPercent.Observe(float64(assessment.Percent))
	}
	return assessment
}

// BuildChart takes the first points samples, temperatures to one decimal.
func BuildChart(samples []models.ForecastSample, points int, units preferences.Units) []models.ChartPoint {
	window := head(samples, points)
	chart := make([]models.ChartPoint, 0, len(window))
	for _, s := range window {
		chart = append(chart, models.ChartPoint{
			Time:   s.Timestamp,
			Temp:   units.Temperature(s.TemperatureC),
			RainMm: s.PrecipitationMm3h,
		})
	}
	return chart
}

func head(samples []models.ForecastSample, n int) []models.ForecastSample {
	if len(samples) > n {
		return samples[:n]
	}
	if samples == nil {
		return []models.ForecastSample{}
	}
	return samples
}
