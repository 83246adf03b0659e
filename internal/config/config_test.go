package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 30, cfg.Salon.SlotStepMinutes)
	assert.Equal(t, 15*time.Minute, cfg.Booking.HoldTimeout.Duration)
	assert.Equal(t, time.Hour, cfg.Booking.CompleteGrace.Duration)
	assert.Equal(t, 24*time.Hour, cfg.Reminders.Lookahead.Duration)
	assert.Equal(t, time.UTC, cfg.Salon.Location())
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := Parse(`
[salon]
timezone = "Europe/Moscow"
slot_step_minutes = 15

[booking]
hold_timeout = "20m"
min_notice_minutes = 60

[kafka]
brokers = ["localhost:9092"]
`)
	require.NoError(t, err)

	assert.Equal(t, "Europe/Moscow", cfg.Salon.Location().String())
	assert.Equal(t, 15, cfg.Salon.SlotStepMinutes)
	assert.Equal(t, 20*time.Minute, cfg.Booking.HoldTimeout.Duration)
	assert.Equal(t, 60, cfg.Booking.MinNoticeMinutes)
	assert.Equal(t, "salon.appointments", cfg.Kafka.Topic)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "bad timezone", data: "[salon]\ntimezone = \"Mars/Base\""},
		{name: "tiny slot step", data: "[salon]\nslot_step_minutes = 1"},
		{name: "bad duration", data: "[booking]\nhold_timeout = \"soon\""},
		{name: "negative notice", data: "[booking]\nmin_notice_minutes = -5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[payments]\nsecret_key = \"from-file\"\n"), 0o600))

	t.Setenv("SALON_STRIPE_SECRET_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Payments.SecretKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, ErrReadConfig)
}
