package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bobby-s-dev/cloudburst/internal/models"
	"github.com/bobby-s-dev/cloudburst/internal/preferences"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast <place>",
	Short: "Print the normalized 3-hour forecast for a place",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runForecast,
}

func init() {
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, args []string) error {
	cfg, units, err := loadCLIConfig()
	if err != nil {
		return err
	}

	place := strings.Join(args, " ")
	_, samples, err := newRetriever(cfg, zap.L()).FetchWeather(cmd.Context(), place)
	if err != nil {
		return fmt.Errorf("fetching forecast for %s: %w", place, err)
	}

	if jsonFlag {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(models.Forecast{City: place, Samples: samples})
	}

	printForecast(cmd.OutOrStdout(), samples, units)
	return nil
}

func printForecast(w io.Writer, samples []models.ForecastSample, units preferences.Units) {
	if len(samples) == 0 {
		fmt.Fprintln(w, "No forecast samples.")
		return
	}

	fmt.Fprintf(w, "%-17s %8s %9s %10s %9s\n", "TIME (UTC)", "TEMP", "HUMIDITY", "PRESSURE", "RAIN/3H")
	fmt.Fprintln(w, strings.Repeat("-", 57))
	for _, s := range samples {
		fmt.Fprintf(w, "%-17s %6.1f°%s %8d%% %6.0f hPa %6.1f mm\n",
			s.Timestamp.UTC().Format("2006-01-02 15:04"),
			units.Temperature(s.TemperatureC), units,
			s.HumidityPct,
			s.PressureHpa,
			s.PrecipitationMm3h)
	}
	fmt.Fprintf(w, "\nTotal: %d samples\n", len(samples))
}
