package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bobby-s-dev/cloudburst/internal/config"
	"github.com/bobby-s-dev/cloudburst/internal/models"
	"github.com/bobby-s-dev/cloudburst/internal/preferences"
	"github.com/bobby-s-dev/cloudburst/internal/risk"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var riskCmd = &cobra.Command{
	Use:   "risk <place>",
	Short: "Score the cloudburst risk for a place",
	Long:  `Fetch current conditions and the forecast for a place and print the risk band, percent and insights.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRisk,
}

func init() {
	rootCmd.AddCommand(riskCmd)
}

func runRisk(cmd *cobra.Command, args []string) error {
	cfg, units, err := loadCLIConfig()
	if err != nil {
		return err
	}

	place := strings.Join(args, " ")
	current, samples, err := newRetriever(cfg, zap.L()).FetchWeather(cmd.Context(), place)
	if err != nil {
		return fmt.Errorf("fetching weather for %s: %w", place, err)
	}

	assessment := risk.NewEvaluator(nil).Evaluate(current, samples)

	if jsonFlag {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Current *models.CurrentConditions `json:"current"`
			Risk    models.RiskAssessment     `json:"risk"`
		}{current, assessment})
	}

	printRisk(cmd.OutOrStdout(), current, assessment, units)
	return nil
}

func printRisk(w io.Writer, current *models.CurrentConditions, assessment models.RiskAssessment, units preferences.Units) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	if current.CountryCode != "" {
		fmt.Fprintf(w, "%s, %s\n", current.PlaceName, current.CountryCode)
	} else {
		fmt.Fprintln(w, current.PlaceName)
	}
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintf(w, "%-14s %.1f°%s (feels like %.1f°%s)\n", "Temperature:",
		units.Temperature(current.TemperatureC), units, units.Temperature(current.FeelsLikeC), units)
	if current.Description != "" {
		fmt.Fprintf(w, "%-14s %s\n", "Conditions:", current.Description)
	}
	fmt.Fprintf(w, "%-14s %d%%\n", "Humidity:", current.HumidityPct)
	fmt.Fprintf(w, "%-14s %.0f hPa\n", "Pressure:", current.PressureHpa)
	fmt.Fprintf(w, "%-14s %.1f m/s\n", "Wind:", current.WindSpeedMs)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-14s %d%% (%s)\n", "Risk:", assessment.Percent, assessment.Band)

	for _, insight := range assessment.Insights {
		fmt.Fprintf(w, "  - %s\n", insight)
	}
}

// loadCLIConfig reads the environment and resolves the unit, letting
// --units override DEFAULT_UNITS.
func loadCLIConfig() (*config.Config, preferences.Units, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, "", err
	}

	raw := cfg.Preferences.Units
	if unitsFlag != "" {
		raw = unitsFlag
	}
	units, err := preferences.ParseUnits(raw)
	if err != nil {
		return nil, "", err
	}
	return cfg, units, nil
}
