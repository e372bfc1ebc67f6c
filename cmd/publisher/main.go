package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chalosafe/safezone/config"
	"github.com/chalosafe/safezone/module/core/domain"
	"github.com/chalosafe/safezone/pkg/tracker"
)

var (
	source   string
	subjects int
	subject  string
	interval time.Duration
	nmeaFile string
	port     string
	baud     int
	jitter   float64
)

// demoRoute runs from India Gate past the construction zone and back.
var demoRoute = []domain.Coordinate{
	{Lat: 28.6129, Lon: 77.2295},
	{Lat: 28.6050, Lon: 77.2350},
	{Lat: 28.5962, Lon: 77.2410},
	{Lat: 28.5900, Lon: 77.2300},
	{Lat: 28.6129, Lon: 77.2295},
}

var rootCmd = &cobra.Command{
	Use:   "publisher",
	Short: "Publish subject positions to the location topic.",
	Long: `Publishes position samples over MQTT for the monitoring server.

Sources:
  simulated  walk demo routes around central Delhi for --subjects subjects
  nmea       replay a recorded NMEA log from --file
  serial     read a GPS receiver on --port`,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg := config.Load()
		cfg.MQTTClientID = "chalosafe-publisher"

		logger, err := config.NewLogger(cfg.LogLevel, "console", "chalosafe-publisher")
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		client, err := config.NewMQTT(cfg)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)

		providers, closer, err := buildProviders()
		if err != nil {
			return err
		}
		if closer != nil {
			defer func() { _ = closer.Close() }()
		}

		logger.Info("publishing", zap.String("broker", cfg.MQTTBroker), zap.String("source", source), zap.Int("feeds", len(providers)))
		return run(ctx, client, providers, logger)
	},
}

func buildProviders() ([]tracker.Provider, io.Closer, error) {
	switch source {
	case "simulated":
		now := time.Now().UTC()
		providers := make([]tracker.Provider, subjects)
		for i := range providers {
			p := tracker.NewSimulatedProvider(fmt.Sprintf("DT-%04d", 1001+i), demoRoute, now, int64(i+1))
			p.Interval = interval
			p.Jitter = jitter
			p.Loop = true
			p.Steps = 8 + i
			providers[i] = p
		}
		return providers, nil, nil
	case "nmea":
		f, err := os.Open(nmeaFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open nmea log: %w", err)
		}
		return []tracker.Provider{tracker.NewNMEAProvider(subject, f)}, f, nil
	case "serial":
		p, closer, err := tracker.OpenSerial(subject, port, baud)
		if err != nil {
			return nil, nil, err
		}
		return []tracker.Provider{p}, closer, nil
	}
	return nil, nil, fmt.Errorf("unknown source %q", source)
}

// run publishes one sample per feed every interval until every feed is
// exhausted or ctx is done. Serial feeds publish as fast as fixes arrive.
func run(ctx context.Context, client mqtt.Client, providers []tracker.Provider, logger *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	live := providers
	for len(live) > 0 {
		next := live[:0]
		for _, p := range live {
			s, err := p.Next(ctx)
			if errors.Is(err, io.EOF) {
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if err := tracker.Publish(client, s); err != nil {
				logger.Error("publish", zap.String("subject_id", s.SubjectID), zap.Error(err))
			} else {
				logger.Debug("published",
					zap.String("subject_id", s.SubjectID),
					zap.Float64("latitude", s.Position.Lat),
					zap.Float64("longitude", s.Position.Lon),
				)
			}
			next = append(next, p)
		}
		live = next

		if source == "serial" {
			continue
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil
		}
	}
	logger.Info("all feeds exhausted")
	return nil
}

func init() {
	rootCmd.Flags().StringVarP(&source, "source", "s", "simulated", "position source: simulated, nmea or serial")
	rootCmd.Flags().IntVarP(&subjects, "subjects", "n", 3, "number of simulated subjects")
	rootCmd.Flags().StringVar(&subject, "subject", "DT-1001", "subject id for nmea and serial sources")
	rootCmd.Flags().DurationVarP(&interval, "interval", "i", 5*time.Second, "time between samples")
	rootCmd.Flags().StringVarP(&nmeaFile, "file", "f", "", "recorded NMEA log")
	rootCmd.Flags().StringVar(&port, "port", "/dev/ttyUSB0", "GPS serial port")
	rootCmd.Flags().IntVar(&baud, "baud", 9600, "GPS serial baud rate")
	rootCmd.Flags().Float64Var(&jitter, "jitter", 15, "simulated GPS noise in meters")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
