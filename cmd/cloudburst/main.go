package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bobby-s-dev/cloudburst/internal/config"
	"github.com/bobby-s-dev/cloudburst/internal/observability"
	"github.com/bobby-s-dev/cloudburst/internal/services"
	"github.com/bobby-s-dev/cloudburst/pkg/client"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	unitsFlag string
	jsonFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "cloudburst",
	Short: "Cloudburst - short-term heavy rain risk from the command line",
	Long: `cloudburst fetches current conditions and the 5-day forecast for a place
and scores the likelihood of a cloudburst in the next hours.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&unitsFlag, "units", "u", "", "temperature unit, C or F (default from DEFAULT_UNITS)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "print JSON instead of text")
}

// newRetriever wires the provider from the environment the same way the
// server does.
func newRetriever(cfg *config.Config, logger *zap.Logger) *services.Retriever {
	weather := client.NewOpenWeatherClient(cfg.WeatherAPI.OpenWeatherAPIKey, cfg.WeatherAPI.OpenWeatherURL, cfg.ClientConfig(), logger)
	return services.NewRetriever(weather, cfg.HTTPClient.Timeout, observability.NewMetrics(), logger)
}

func main() {
	logger, err := zap.NewDevelopment(zap.IncreaseLevel(zap.WarnLevel))
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
