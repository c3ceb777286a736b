package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cepro/tariffsensors/api"
	"github.com/cepro/tariffsensors/config"
	dataplatform "github.com/cepro/tariffsensors/data_platform"
	"github.com/cepro/tariffsensors/mqtt"
	"github.com/cepro/tariffsensors/repository"
	"github.com/cepro/tariffsensors/sensor"
	"github.com/cepro/tariffsensors/supabase"
	"github.com/cepro/tariffsensors/telemetry"
	"github.com/spf13/cobra"

	_ "time/tzdata"
)

var (
	configPath string
	verbose    bool

	ratesDate string
	ratesSP   int
)

var rootCmd = &cobra.Command{
	Use:   "tariffsensors",
	Short: "Energy tariff rate, consumption and cost sensors for Home Assistant",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the tariff data and publish the sensors until interrupted",
	RunE:  run,
}

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Print the current rate of each configured meter and exit",
	RunE:  printRates,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	ratesCmd.Flags().StringVar(&ratesDate, "date", "", "evaluate the rates on this date (YYYY-MM-DD) instead of now")
	ratesCmd.Flags().IntVar(&ratesSP, "sp", 1, "settlement period (1-50) of the date to evaluate the rates at")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(ratesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {

	slog.Info("Starting tariff sensors...")

	cfg, err := config.Read(configPath)
	if err != nil {
		return err
	}

	// cancel any open go-routines on ctrl-c or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	repo, err := repository.New(cfg.Repository.Path)
	if err != nil {
		return fmt.Errorf("create repository: %w", err)
	}

	sensors, err := sensor.Restore(a.sensors, repo)
	if err != nil {
		return fmt.Errorf("restore sensors: %w", err)
	}

	metrics := api.NewMetrics()
	listeners := []sensor.Listener{metrics}

	if cfg.Mqtt.Enabled {
		publisher, err := mqtt.NewPublisher(cfg.Mqtt.Url, cfg.Mqtt.ClientID, cfg.Mqtt.Username, os.Getenv("MQTT_PASSWORD"), cfg.Mqtt.DiscoveryPrefix, cfg.Mqtt.BaseTopic)
		if err != nil {
			return fmt.Errorf("create mqtt publisher: %w", err)
		}
		err = publisher.Open(ctx)
		if err != nil {
			return fmt.Errorf("open mqtt publisher: %w", err)
		}
		defer publisher.Close(context.Background())
		listeners = append(listeners, publisher)
	}

	var meterUploads chan<- telemetry.MeterReading
	if cfg.DataPlatform.Enabled {
		supabaseClient := supabase.New(cfg.DataPlatform.Supabase.Url, os.Getenv("SUPABASE_KEY"), os.Getenv("SUPABASE_USER_KEY"), cfg.DataPlatform.Supabase.Schema)
		dataPlatform := dataplatform.New(supabaseClient, repo)
		go dataPlatform.Run(ctx, time.Duration(cfg.DataPlatform.UploadIntervalSecs)*time.Second)

		meterUploads = dataPlatform.MeterReadings
		listeners = append(listeners, sensor.NewReadingForwarder(dataPlatform.SensorReadings))
	}

	a.runCoordinators(ctx)
	a.runLocalMeters(ctx, meterUploads)

	updater := sensor.NewUpdater(sensors, repo, a.clock, listeners...)
	go updater.Run(ctx, time.Duration(cfg.SensorUpdateIntervalSecs)*time.Second)

	slog.Info("Serving API", "addr", cfg.Api.ListenAddr, "sensors", len(sensors))
	err = api.Serve(ctx, cfg.Api.ListenAddr, api.NewRouter(updater, metrics))
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve api: %w", err)
	}

	slog.Info("Exiting")
	return nil
}

func printRates(cmd *cobra.Command, args []string) error {
	cfg, err := config.Read(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	return reportRates(ctx, cfg, ratesDate, ratesSP, cmd.OutOrStdout())
}
