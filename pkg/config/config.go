// Package config loads the application configuration from the environment.
// It owns every component's settings struct so that the components depend
// on config, never the other way around.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	App     AppConfig     `envPrefix:"APP_"`
	Handler HandlerConfig `envPrefix:"HANDLER_"`
	Storage StorageConfig `envPrefix:"STORAGE_"`
	QuestDB QuestDBConfig `envPrefix:"QUESTDB_"`
	Kafka   KafkaConfig   `envPrefix:"KAFKA_"`
	Kabus   KabusConfig   `envPrefix:"KABUS_"`
	Feed    FeedConfig    `envPrefix:"FEED_"`
}

// AppConfig represents the application configuration.
type AppConfig struct {
	Name        string `env:"NAME" envDefault:"minibar"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// HandlerConfig tunes the tick dispatcher.
type HandlerConfig struct {
	// SameTimestampLimit is the duplicate-timestamp streak that forces bar
	// finalization during a stalled feed. Tied to the 1-second polling
	// cadence; raise it if the poll interval shrinks.
	SameTimestampLimit int `env:"SAME_TIMESTAMP_LIMIT" envDefault:"300"`
}

// StorageConfig selects and tunes the persistence sink.
type StorageConfig struct {
	// Driver is "csv" or "questdb".
	Driver string `env:"DRIVER" envDefault:"csv"`
	// CSVDir is the directory holding the per-trading-day files.
	CSVDir string `env:"CSV_DIR" envDefault:"csv"`
	// TickOutput disables the raw tick log when false.
	TickOutput bool `env:"TICK_OUTPUT" envDefault:"true"`
}

// QuestDBConfig is the QuestDB connection configuration.
type QuestDBConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"8812"`
	Database string `env:"DATABASE" envDefault:"qdb"`
	Username string `env:"USERNAME" envDefault:"admin"`
	Password string `env:"PASSWORD" envDefault:"quest"`

	// Connection pool settings
	MaxConns        int32         `env:"MAX_CONNS" envDefault:"4"`
	MinConns        int32         `env:"MIN_CONNS" envDefault:"1"`
	MaxConnLifetime time.Duration `env:"MAX_CONN_LIFETIME" envDefault:"1h"`
	ConnectTimeout  time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// KafkaConfig holds the bar publisher settings.
type KafkaConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	Brokers []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"minute-bars"`
}

// KabusConfig holds the broker API settings.
type KabusConfig struct {
	BaseURL      string `env:"BASE_URL" envDefault:"http://localhost:18080/kabusapi"`
	WebSocketURL string `env:"WS_URL" envDefault:"ws://localhost:18080/kabusapi/websocket"`
	APIPassword  string `env:"API_PASSWORD"`
}

// FeedConfig selects the tick source.
type FeedConfig struct {
	// DummyMode connects to the local dummy tick server and skips broker
	// authentication and symbol registration.
	DummyMode bool   `env:"DUMMY_MODE" envDefault:"false"`
	DummyURL  string `env:"DUMMY_URL" envDefault:"ws://localhost:9000"`
}

// Load loads the configuration from the environment.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.NewErrorDetails(
			fmt.Sprintf("failed to parse config: %v", err),
			string(errors.ConfigLoadError), "")
	}

	return cfg, nil
}
