package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "minibar", cfg.App.Name)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 300, cfg.Handler.SameTimestampLimit)
	assert.Equal(t, "csv", cfg.Storage.Driver)
	assert.True(t, cfg.Storage.TickOutput)
	assert.Equal(t, 8812, cfg.QuestDB.Port)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Feed.DummyMode)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "questdb")
	t.Setenv("HANDLER_SAME_TIMESTAMP_LIMIT", "60")
	t.Setenv("KABUS_API_PASSWORD", "secret")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "questdb", cfg.Storage.Driver)
	assert.Equal(t, 60, cfg.Handler.SameTimestampLimit)
	assert.Equal(t, "secret", cfg.Kabus.APIPassword)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("QUESTDB_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.ErrorCodeEquals(err, errors.ConfigLoadError))
}
