// Package risk scores short-term cloudburst likelihood from a normalized
// forecast and derives the insight sentences shown next to the score.
package risk

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"github.com/bobby-s-dev/cloudburst/internal/models"
)

const (
	scoreWindow    = 24
	pressureWindow = 8
	humidityWindow = 12

	jitterSpan   = 8
	jitterOffset = 4
)

// Source draws the jitter term. Intn must return a value in [0, n).
type Source interface {
	Intn(n int) int
}

type globalSource struct{}

// math/rand's top-level functions are safe for concurrent use.
func (globalSource) Intn(n int) int { return rand.Intn(n) }

// FixedSource always yields the same draw. Useful to pin jitter in tests and tools.
type FixedSource int

func (f FixedSource) Intn(n int) int {
	v := int(f)
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

type Evaluator struct {
	source Source
}

// NewEvaluator returns an evaluator drawing jitter from src, or from
// math/rand when src is nil.
func NewEvaluator(src Source) *Evaluator {
	if src == nil {
		src = globalSource{}
	}
	return &Evaluator{source: src}
}

// Evaluate computes the risk percent, its band and the insight list.
// current may be nil, in which case no pressure insight is produced.
func (e *Evaluator) Evaluate(current *models.CurrentConditions, samples []models.ForecastSample) models.RiskAssessment {
	if len(samples) == 0 {
		return models.RiskAssessment{Percent: 0, Band: models.BandLow, Insights: []string{}}
	}

	jitter := e.source.Intn(jitterSpan) - jitterOffset
	percent := Finalize(Accumulate(samples), jitter)

	return models.RiskAssessment{
		Percent:  percent,
		Band:     BandFor(percent),
		Insights: Insights(current, samples),
	}
}

// Accumulate scans the leading window and returns the pre-jitter score.
// The running score never decreases.
func Accumulate(samples []models.ForecastSample) int {
	score := 0
	for _, s := range leading(samples, scoreWindow) {
		rain := s.PrecipitationMm3h

		switch {
		case rain >= 50:
			score = max(score, 85)
		case rain >= 25:
			score = max(score, 65)
		case rain >= 10:
			score = max(score, 40)
		case rain > 0:
			score = max(score, 15)
		}

		if s.HumidityPct >= 85 && rain >= 10 {
			score = max(score, min(95, score+5))
		} else if s.HumidityPct >= 75 && rain >= 5 {
			score = max(score, min(85, score+3))
		}

		// a zero pressure means the provider omitted it
		if s.PressureHpa > 0 && s.PressureHpa < 1005 && rain >= 5 {
			score = max(score, min(95, score+5))
		}
	}
	return score
}

// Finalize applies the jitter, clamps to [0,100] and lifts values sitting
// just above the band boundaries.
func Finalize(score, jitter int) int {
	final := max(0, min(100, score+jitter))
	if final > 75 {
		final = max(final, 80)
	}
	if final > 50 && final <= 75 {
		final = max(final, 55)
	}
	return final
}

func BandFor(percent int) models.Band {
	switch {
	case percent >= 70:
		return models.BandHigh
	case percent >= 40:
		return models.BandMedium
	default:
		return models.BandLow
	}
}

// Insights is deterministic: pressure, humidity, then peak rain. The peak
// rain sentence is present for any non-empty input.
func Insights(current *models.CurrentConditions, samples []models.ForecastSample) []string {
	insights := []string{}
	if len(samples) == 0 {
		return insights
	}

	if msg, ok := pressureInsight(current, samples); ok {
		insights = append(insights, msg)
	}
	if msg, ok := humidityInsight(samples); ok {
		insights = append(insights, msg)
	}
	return append(insights, peakRainInsight(samples))
}

func pressureInsight(current *models.CurrentConditions, samples []models.ForecastSample) (string, bool) {
	if current == nil {
		return "", false
	}

	window := leading(samples, pressureWindow)
	var total float64
	for _, s := range window {
		total += s.PressureHpa
	}
	avg := roundHalfUp(total / float64(len(window)))
	if avg == 0 {
		return "", false
	}

	switch {
	case current.PressureHpa-avg > 6:
		return "Pressure falling compared to near-term forecast; conditions might destabilize.", true
	case avg-current.PressureHpa > 6:
		return "Current pressure is significantly lower than near-term average; monitor rainfall closely.", true
	}
	return "", false
}

func humidityInsight(samples []models.ForecastSample) (string, bool) {
	window := leading(samples, humidityWindow)
	total := 0
	for _, s := range window {
		total += s.HumidityPct
	}
	avg := roundHalfUp(float64(total) / float64(len(window)))

	switch {
	case avg >= 80:
		return "High humidity in the coming hours raises cloudburst potential.", true
	case avg < 50:
		return "Low humidity, less immediate heavy rain risk.", true
	}
	return "", false
}

func peakRainInsight(samples []models.ForecastSample) string {
	peak := PeakRain(samples)
	switch {
	case peak >= 30:
		return fmt.Sprintf("Significant short-term rainfall expected (peak ~%s mm per 3h).", formatMm(peak))
	case peak >= 10:
		return fmt.Sprintf("Moderate showers expected (peak ~%s mm per 3h).", formatMm(peak))
	default:
		return "No heavy rainfall peaks in the near forecast window."
	}
}

// PeakRain is the largest 3-hour precipitation in the scoring window.
func PeakRain(samples []models.ForecastSample) float64 {
	var peak float64
	for _, s := range leading(samples, scoreWindow) {
		peak = math.Max(peak, s.PrecipitationMm3h)
	}
	return peak
}

func leading(samples []models.ForecastSample, n int) []models.ForecastSample {
	if len(samples) > n {
		return samples[:n]
	}
	return samples
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func formatMm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
