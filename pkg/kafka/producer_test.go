package kafka

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
}

func TestNewProducerWiresWriter(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewProducer(WithBrokers([]string{"b1:9092"}), WithCompression("zstd"), WithMetrics(reg))
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, kafka.Zstd, p.writer.Compression)
	assert.IsType(t, &kafka.Hash{}, p.writer.Balancer)
	assert.NotNil(t, p.metrics)
}

func TestEncodeValue(t *testing.T) {
	b, err := encodeValue(map[string]string{"region": "SA1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"region":"SA1"}`, string(b))

	b, err = encodeValue("raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))
}
