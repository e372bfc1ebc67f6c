package config

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NewRabbitMQ dials the broker. name shows up as the connection name in the
// management UI.
func NewRabbitMQ(cfg *Config, name string) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(cfg.RabbitMQURL, amqpConfig(cfg, name))
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial %s: %w", name, err)
	}
	return conn, nil
}

func amqpConfig(cfg *Config, name string) amqp.Config {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(name)
	return amqp.Config{
		Heartbeat:  cfg.AMQPHeartbeat,
		Locale:     "en_US",
		Properties: props,
		Dial:       amqp.DefaultDial(10 * time.Second),
	}
}
