package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/common/model"
)

// Config holds all application configuration.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	KafkaBrokers    []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	KafkaTLS        bool     `env:"KAFKA_TLS" envDefault:"true"`
	KafkaCA         string   `env:"KAFKA_CA"`          // PEM file
	KafkaClientCert string   `env:"KAFKA_CLIENT_CERT"` // PEM file
	KafkaClientKey  string   `env:"KAFKA_CLIENT_KEY"`  // PEM file
	KafkaTopic      string   `env:"KAFKA_TOPIC" envDefault:"billing"`
	KafkaGroup      string   `env:"KAFKA_GROUP" envDefault:"dcache-kafka-exporter"`

	MetricPrefix       string   `env:"METRIC_PREFIX" envDefault:"dcache_kafka_"`
	ListenAddr         string   `env:"LISTEN_ADDR" envDefault:"127.0.0.1:19997"`
	EnableMessageCount bool     `env:"ENABLE_MESSAGE_COUNT" envDefault:"false"`
	ShortenedCellNames []string `env:"SHORTENED_CELL_NAMES" envSeparator:","`

	DecodeLogRate  float64 `env:"DECODE_LOG_RATE" envDefault:"10"`
	DecodeLogBurst int     `env:"DECODE_LOG_BURST" envDefault:"100"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports combinations of options that cannot work together.
func (c *Config) Validate() error {
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS must list at least one broker")
	}
	if (c.KafkaClientCert == "") != (c.KafkaClientKey == "") {
		return errors.New("KAFKA_CLIENT_CERT and KAFKA_CLIENT_KEY must be given together")
	}
	if !c.KafkaTLS && (c.KafkaCA != "" || c.KafkaClientCert != "") {
		return errors.New("TLS material given but KAFKA_TLS is disabled")
	}
	// Names outside the classic charset need quoting in the text exposition,
	// which older scrapers reject.
	if !model.LegacyValidation.IsValidMetricName(c.MetricPrefix + "count") {
		return fmt.Errorf("METRIC_PREFIX %q does not form valid metric names", c.MetricPrefix)
	}
	if c.DecodeLogBurst < 1 {
		return errors.New("DECODE_LOG_BURST must be positive")
	}
	return nil
}
