package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chalosafe/safezone/config"
	"github.com/chalosafe/safezone/module/core/domain"
)

const (
	exchangeName = "chalosafe.events"
	queueName    = "safety_alerts"
)

var rootCmd = &cobra.Command{
	Use:   "event_listener",
	Short: "Print safety alerts and emergencies from the broker.",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg := config.Load()
		logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat, "chalosafe-event-listener")
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		conn, err := config.NewRabbitMQ(cfg, "chalosafe-event-listener")
		if err != nil {
			return err
		}
		defer func() { _ = conn.Close() }()

		ch, err := conn.Channel()
		if err != nil {
			return err
		}
		defer func() { _ = ch.Close() }()

		if err := ch.ExchangeDeclare(exchangeName, "fanout", true, false, false, false, nil); err != nil {
			return err
		}
		if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
			return err
		}
		if err := ch.QueueBind(queueName, "", exchangeName, false, nil); err != nil {
			return err
		}

		msgs, err := ch.Consume(queueName, "", true, false, false, false, nil)
		if err != nil {
			return err
		}

		logger.Info("consuming", zap.String("queue", queueName))
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					logger.Warn("delivery channel closed")
					return nil
				}
				handle(logger, msg)
			case <-ctx.Done():
				logger.Info("shutting down")
				return nil
			}
		}
	},
}

func handle(logger *zap.Logger, msg amqp.Delivery) {
	var event domain.EventMessage
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		logger.Warn("undecodable event", zap.Error(err))
		return
	}

	switch {
	case event.Type == domain.EventAlert && event.Alert != nil:
		a := event.Alert
		logger.Warn("safety alert",
			zap.String("subject_id", a.SubjectID),
			zap.String("zone", a.ZoneName),
			zap.String("classification", string(a.ZoneClassification)),
			zap.String("severity", string(a.Severity)),
			zap.Time("at", a.Timestamp),
		)
	case event.Type == domain.EventEmergency && event.Emergency != nil:
		e := event.Emergency
		logger.Error("emergency",
			zap.String("subject_id", e.SubjectID),
			zap.String("message", e.Message),
			zap.Float64("latitude", e.Position.Lat),
			zap.Float64("longitude", e.Position.Lon),
		)
	default:
		logger.Info("unknown event", zap.String("type", string(event.Type)))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
