package tracing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewProviderWithoutExporter(t *testing.T) {
	provider, err := NewProvider(nil, Config{ServiceName: "agrimarket", SamplingRatio: 0.5}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, provider)
}

func TestNewProviderRejectsUnknownProtocol(t *testing.T) {
	_, err := NewProvider(nil, Config{Enabled: true, ExporterProtocol: "thrift"}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "unsupported OTLP trace protocol")
}
