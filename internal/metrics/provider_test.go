package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider("secretstore_test")
	require.NoError(t, err)
	assert.NotNil(t, provider.MeterProvider())

	output := scrape(t, provider)
	assert.Contains(t, output, "go_goroutines")

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestProvider_ShutdownWithoutMeterProvider(t *testing.T) {
	provider := &Provider{}
	assert.NoError(t, provider.Shutdown(context.Background()))
}
