package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bobby-s-dev/cloudburst/internal/models"
	"github.com/bobby-s-dev/cloudburst/internal/observability"
	"go.uber.org/zap"
)

type WeatherProvider interface {
	GetCurrentWeather(ctx context.Context, place string) (*models.CurrentConditions, error)
	GetForecast(ctx context.Context, place string) (*models.Forecast, error)
}

// Retriever fetches the current conditions and the forecast for a place.
// Nothing is cached: every call goes to the provider.
type Retriever struct {
	provider WeatherProvider
	tracker  *SearchTracker
	metrics  *observability.Metrics
	logger   *zap.Logger
	timeout  time.Duration
}

func NewRetriever(provider WeatherProvider, timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Retriever {
	return &Retriever{
		provider: provider,
		tracker:  NewSearchTracker(),
		metrics:  metrics,
		logger:   logger,
		timeout:  timeout,
	}
}

// FetchWeather issues both provider calls concurrently and waits for both.
// If either fails the whole fetch fails and nothing partial is returned.
func (r *Retriever) FetchWeather(ctx context.Context, place string) (*models.CurrentConditions, []models.ForecastSample, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return nil, nil, fmt.Errorf("%w: place is required", models.ErrValidation)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	// the first failure cancels the sibling call
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	startTime := time.Now()

	var (
		wg          sync.WaitGroup
		current     *models.CurrentConditions
		forecast    *models.Forecast
		currentErr  error
		forecastErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		current, currentErr = r.provider.GetCurrentWeather(ctx, place)
		if currentErr != nil {
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		forecast, forecastErr = r.provider.GetForecast(ctx, place)
		if forecastErr != nil {
			cancel()
		}
	}()
	wg.Wait()

	r.metrics.WeatherFetchDuration.Observe(time.Since(startTime).Seconds())

	if err := firstCause(currentErr, forecastErr); err != nil {
		r.metrics.WeatherFetches.WithLabelValues(outcome(err)).Inc()
		r.logger.Warn("Weather fetch failed",
			zap.String("place", place),
			zap.Duration("duration", time.Since(startTime)),
			zap.Error(err))
		return nil, nil, err
	}

	r.metrics.WeatherFetches.WithLabelValues("success").Inc()
	r.logger.Info("Weather fetch completed",
		zap.String("place", place),
		zap.Int("samples", len(forecast.Samples)),
		zap.Duration("duration", time.Since(startTime)))

	return current, forecast.Samples, nil
}

// Search is FetchWeather with latest-wins semantics per session key: an
// older search still in flight is cancelled, and a result that completes
// after a newer search began is discarded with ErrSuperseded.
func (r *Retriever) Search(ctx context.Context, sessionKey, place string) (*models.CurrentConditions, []models.ForecastSample, error) {
	ctx, ticket := r.tracker.Begin(ctx, sessionKey)
	defer r.tracker.Done(ticket)

	current, samples, err := r.FetchWeather(ctx, place)
	if !r.tracker.IsLatest(ticket) {
		r.metrics.WeatherFetches.WithLabelValues("superseded").Inc()
		r.logger.Debug("Discarding superseded search",
			zap.String("session", sessionKey),
			zap.String("place", place))
		return nil, nil, models.ErrSuperseded
	}
	return current, samples, err
}

// firstCause prefers a not-found over the cancellation it triggered in the
// sibling call.
func firstCause(errs ...error) error {
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, models.ErrNotFound) {
			return err
		}
		if first == nil || errors.Is(first, context.Canceled) {
			first = err
		}
	}
	return first
}

func outcome(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	default:
		return "transient"
	}
}
