// Package metrics exposes prometheus counters for the assistant, speech,
// encoder and music clients. A nil *Provider is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

type Provider struct {
	runPolls       prometheus.Counter
	runs           *prometheus.CounterVec
	toolCalls      *prometheus.CounterVec
	costUSD        *prometheus.CounterVec
	speechRequests *prometheus.CounterVec
	speechBackoffs prometheus.Counter
	encodes        *prometheus.CounterVec
	musicRequests  *prometheus.CounterVec
}

func NewProvider(registry *prometheus.Registry) *Provider {
	if registry == nil {
		return nil
	}

	provider := &Provider{
		runPolls: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "muse_assistant_run_polls_total",
				Help: "Total number of assistant run status polls",
			},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muse_assistant_runs_total",
				Help: "Total number of assistant runs by final status",
			},
			[]string{"status"},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muse_assistant_tool_calls_total",
				Help: "Total number of tool calls resolved by tool name",
			},
			[]string{"tool"},
		),
		costUSD: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muse_assistant_cost_usd_total",
				Help: "Estimated assistant spend in USD by model",
			},
			[]string{"model"},
		),
		speechRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muse_speech_requests_total",
				Help: "Total number of speech synthesis requests by response outcome",
			},
			[]string{"outcome"},
		),
		speechBackoffs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "muse_speech_backoffs_total",
				Help: "Total number of rate-limit backoff sleeps",
			},
		),
		encodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muse_encoder_runs_total",
				Help: "Total number of encoder invocations by outcome",
			},
			[]string{"outcome"},
		),
		musicRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muse_music_requests_total",
				Help: "Total number of music generation requests by mode",
			},
			[]string{"mode"},
		),
	}

	registry.MustRegister(
		provider.runPolls,
		provider.runs,
		provider.toolCalls,
		provider.costUSD,
		provider.speechRequests,
		provider.speechBackoffs,
		provider.encodes,
		provider.musicRequests,
	)

	return provider
}

func (p *Provider) IncrementRunPolls() {
	if p != nil {
		p.runPolls.Inc()
	}
}

func (p *Provider) IncrementRuns(status string) {
	if p != nil {
		p.runs.WithLabelValues(status).Inc()
	}
}

func (p *Provider) IncrementToolCalls(tool string) {
	if p != nil {
		p.toolCalls.WithLabelValues(tool).Inc()
	}
}

func (p *Provider) AddCost(model string, cost decimal.Decimal) {
	if p != nil {
		p.costUSD.WithLabelValues(model).Add(cost.InexactFloat64())
	}
}

func (p *Provider) IncrementSpeechRequests(outcome string) {
	if p != nil {
		p.speechRequests.WithLabelValues(outcome).Inc()
	}
}

func (p *Provider) IncrementSpeechBackoffs() {
	if p != nil {
		p.speechBackoffs.Inc()
	}
}

func (p *Provider) IncrementEncodes(outcome string) {
	if p != nil {
		p.encodes.WithLabelValues(outcome).Inc()
	}
}

func (p *Provider) IncrementMusicRequests(mode string) {
	if p != nil {
		p.musicRequests.WithLabelValues(mode).Inc()
	}
}
