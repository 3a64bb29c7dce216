package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, BypassOff, cfg.Relay.Mode)
	require.Equal(t, int64(48)<<20, cfg.Delivery.InlineLimitBytes)
	require.Equal(t, 10*time.Minute, cfg.Delivery.FetchTimeout)
	require.Equal(t, 10*time.Minute, cfg.Selection.TTL)
	require.Equal(t, 1000, cfg.Selection.Capacity)
	require.Empty(t, cfg.Kafka.Brokers, "events are off unless brokers are set")
	require.Equal(t, "yt-dlp", cfg.Extractor.BinPath)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "BOT_TOKEN")
}

func TestLoad_RelayModeRequiresCredentials(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("BYPASS_MODE", "relay")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "TG_API_ID")

	t.Setenv("TG_API_ID", "11111")
	t.Setenv("TG_API_HASH", "deadbeef")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, BypassRelay, cfg.Relay.Mode)
	require.Equal(t, 11111, cfg.Relay.APIID)
}

func TestLoad_UnknownBypassMode(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("BYPASS_MODE", "carrier-pigeon")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("INLINE_LIMIT_MB", "20")
	t.Setenv("FETCH_TIMEOUT", "3m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, int64(20)<<20, cfg.Delivery.InlineLimitBytes)
	require.Equal(t, 3*time.Minute, cfg.Delivery.FetchTimeout)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}
