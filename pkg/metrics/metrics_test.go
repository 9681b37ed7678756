package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilProviderIsNoop(t *testing.T) {
	var p *Provider
	assert.Nil(t, NewProvider(nil))

	assert.NotPanics(t, func() {
		p.IncrementRunPolls()
		p.IncrementRuns("completed")
		p.IncrementToolCalls("x")
		p.AddCost("gpt-4o", decimal.NewFromFloat(0.5))
		p.IncrementSpeechRequests("ok")
		p.IncrementSpeechBackoffs()
		p.IncrementEncodes("ok")
		p.IncrementMusicRequests("instrumental")
	})
}

func TestProviderCounts(t *testing.T) {
	registry := prometheus.NewRegistry()
	p := NewProvider(registry)
	require.NotNil(t, p)

	p.IncrementRunPolls()
	p.IncrementRunPolls()
	p.IncrementToolCalls("creative_video_creator")
	p.IncrementSpeechBackoffs()
	p.AddCost("gpt-4o", decimal.RequireFromString("0.25"))
	p.AddCost("gpt-4o", decimal.RequireFromString("0.5"))

	assert.Equal(t, 2.0, testutil.ToFloat64(p.runPolls))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.toolCalls.WithLabelValues("creative_video_creator")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.speechBackoffs))
	assert.Equal(t, 0.75, testutil.ToFloat64(p.costUSD.WithLabelValues("gpt-4o")))

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
