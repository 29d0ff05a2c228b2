package observability

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preetsinghmakkar/OpenConsult/internal/config"
)

func TestNormalizeEndpoint(t *testing.T) {
	endpoint, insecure := normalizeEndpoint("https://otel.example.com:4318")
	assert.Equal(t, "otel.example.com:4318", endpoint)
	assert.False(t, insecure)

	endpoint, insecure = normalizeEndpoint("collector:4318")
	assert.Equal(t, "collector:4318", endpoint)
	assert.True(t, insecure)
}

func TestSetupWithoutExporter(t *testing.T) {
	shutdown, err := Setup(context.Background(), &config.Config{ServiceName: "openconsult", Environment: "test"}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
