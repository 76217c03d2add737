package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "LOG_LEVEL", "KAFKA_BROKERS", "PORT", "MAX_FILE_SIZE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "ecommerce", cfg.MongoDatabase)
	assert.Equal(t, 15*time.Minute, cfg.CartCacheTTL)
	assert.Equal(t, int64(5<<20), cfg.MaxFileSize)
	assert.Equal(t, 10, cfg.DefaultPageSize)
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.Equal(t, 3, cfg.CartMaxRetries)
	assert.Equal(t, uint32(5), cfg.BreakerFailures)
	assert.Zero(t, cfg.NotificationArchiveInterval)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.True(t, cfg.SeedOnStartup)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("MAX_FILE_SIZE", "512KB")
	t.Setenv("NOTIFICATION_ARCHIVE_INTERVAL", "1h")
	t.Setenv("SEED_ON_STARTUP", "false")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, int64(512<<10), cfg.MaxFileSize)
	assert.Equal(t, time.Hour, cfg.NotificationArchiveInterval)
	assert.False(t, cfg.SeedOnStartup)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoad_ReportsEveryInvalidValue(t *testing.T) {
	t.Setenv("REDIS_DB", "two")
	t.Setenv("REQUEST_TIMEOUT", "soon")
	t.Setenv("MAX_FILE_SIZE", "big")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "REDIS_DB")
	assert.ErrorContains(t, err, "REQUEST_TIMEOUT")
	assert.ErrorContains(t, err, "MAX_FILE_SIZE")
}

func TestLoad_RejectsInconsistentPageSizes(t *testing.T) {
	t.Setenv("DEFAULT_PAGE_SIZE", "50")
	t.Setenv("MAX_PAGE_SIZE", "20")

	_, err := Load()
	assert.ErrorContains(t, err, "page sizes")
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "5MB", want: 5 << 20},
		{in: "512kb", want: 512 << 10},
		{in: "1 GB", want: 1 << 30},
		{in: "2048", want: 2048},
		{in: "100B", want: 100},
		{in: "", wantErr: true},
		{in: "-1MB", wantErr: true},
		{in: "MB", wantErr: true},
		{in: "1.5MB", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
