package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SIGNALING_SECRET", "signal")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, TransportSignaling, cfg.TransportProvider)
	assert.Equal(t, 15*time.Minute, cfg.OneSidedWaitTimeout)
	assert.Equal(t, 30*time.Minute, cfg.NoShowTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowOrigins)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TRANSPORT_PROVIDER", "livekit")
	_, err = Load()
	assert.ErrorContains(t, err, "LIVEKIT_API_KEY")

	t.Setenv("TRANSPORT_PROVIDER", "carrier-pigeon")
	_, err = Load()
	assert.ErrorContains(t, err, "unknown TRANSPORT_PROVIDER")
}

func TestLoadClient(t *testing.T) {
	t.Setenv("CONSULT_POLL_INTERVAL", "250ms")
	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.True(t, cfg.EndOnAbandon)
	assert.Zero(t, cfg.RendezvousTimeout)
}
