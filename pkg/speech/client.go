// Package speech turns text into an mp3 file through the ElevenLabs
// text-to-speech API, waiting out rate limits and re-encoding the result.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/go-go-golems/muse/pkg/events"
	"github.com/go-go-golems/muse/pkg/helpers"
	"github.com/go-go-golems/muse/pkg/metrics"
)

const (
	DefaultBaseURL        = "https://api.elevenlabs.io"
	DefaultModel          = "eleven_english_v2"
	DefaultInitialBackoff = 2 * time.Second
	DefaultMaxBackoff     = 10 * time.Minute
)

type VoiceSettings struct {
	SimilarityBoost float64 `json:"similarity_boost"`
	Stability       float64 `json:"stability"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		SimilarityBoost: 0.5,
		Stability:       0.5,
		Style:           0.4,
		UseSpeakerBoost: true,
	}
}

type Request struct {
	Text string
	// VoiceID overrides the client's default voice.
	VoiceID  string
	Settings *VoiceSettings
}

type synthesizeRequest struct {
	ModelID       string        `json:"model_id"`
	Text          string        `json:"text"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

type Client struct {
	apiKey         string
	voiceID        string
	baseURL        string
	httpClient     *http.Client
	model          string
	fs             afero.Fs
	outputDir      string
	encoder        Encoder
	sleep          helpers.Sleeper
	initialBackoff time.Duration
	maxBackoff     time.Duration
	sink           events.EventSink
	metrics        *metrics.Provider
}

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithFs sets the filesystem audio is written to. The encoder still works on
// real paths, so a non OS filesystem only makes sense with a fake encoder.
func WithFs(fs afero.Fs) Option {
	return func(c *Client) {
		c.fs = fs
	}
}

func WithOutputDir(dir string) Option {
	return func(c *Client) {
		c.outputDir = dir
	}
}

func WithEncoder(encoder Encoder) Option {
	return func(c *Client) {
		c.encoder = encoder
	}
}

func WithSleeper(s helpers.Sleeper) Option {
	return func(c *Client) {
		c.sleep = s
	}
}

// WithInitialBackoff sets the first rate-limit wait. Non-positive values are
// ignored, a zero wait would never grow towards the ceiling.
func WithInitialBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.initialBackoff = d
		}
	}
}

// WithMaxBackoff sets the ceiling: a rate-limit wait longer than d fails with
// ErrServerBusyTimeout instead of sleeping. Non-positive values are ignored.
func WithMaxBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.maxBackoff = d
		}
	}
}

func WithEventSink(sink events.EventSink) Option {
	return func(c *Client) {
		c.sink = sink
	}
}

func WithMetrics(m *metrics.Provider) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(apiKey, defaultVoiceID string, opts ...Option) *Client {
	c := &Client{
		apiKey:         apiKey,
		voiceID:        defaultVoiceID,
		baseURL:        DefaultBaseURL,
		httpClient:     http.DefaultClient,
		model:          DefaultModel,
		fs:             afero.NewOsFs(),
		encoder:        NewFFmpegEncoder(""),
		sleep:          helpers.Sleep,
		initialBackoff: DefaultInitialBackoff,
		maxBackoff:     DefaultMaxBackoff,
		sink:           events.NewNullSink(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     c.initialBackoff,
		RandomizationFactor: 0,
		Multiplier:          2,
		// keep the generator uncapped below the ceiling so the ceiling check sees
		// the real doubled value
		MaxInterval: 2 * c.maxBackoff,
	}
	b.Reset()
	return b
}

// Synthesize requests audio for req.Text, writes it to the output directory
// and re-encodes it. It returns the path of the re-encoded file.
func (c *Client) Synthesize(ctx context.Context, req Request) (string, error) {
	if req.Text == "" {
		return "", ErrMissingText
	}
	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = c.voiceID
	}
	settings := DefaultVoiceSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}

	body, err := json.Marshal(synthesizeRequest{
		ModelID:       c.model,
		Text:          req.Text,
		VoiceSettings: settings,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal speech request")
	}

	events.Publish(c.sink, events.NewEvent(events.EventTypeSpeechStarted, "", map[string]any{
		"voice_id": voiceID,
		"model":    c.model,
	}))

	audio, err := c.fetch(ctx, voiceID, body)
	if err != nil {
		return "", err
	}

	path := filepath.Join(c.outputDir, ArtifactName(req.Text))
	if c.outputDir != "" {
		if err := c.fs.MkdirAll(c.outputDir, 0o755); err != nil {
			return "", errors.Wrapf(err, "failed to create output directory %s", c.outputDir)
		}
	}
	if err := afero.WriteFile(c.fs, path, audio, 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	log.Debug().Str("path", path).Int("bytes", len(audio)).Msg("speech audio written")
	events.Publish(c.sink, events.NewEvent(events.EventTypeSpeechWritten, "", map[string]any{
		"path":  path,
		"bytes": len(audio),
	}))

	fixed := FixedPath(path)
	if err := c.encoder.Encode(ctx, path, fixed); err != nil {
		c.metrics.IncrementEncodes("failed")
		return "", err
	}
	c.metrics.IncrementEncodes("ok")
	events.Publish(c.sink, events.NewEvent(events.EventTypeSpeechEncoded, "", map[string]any{
		"path": fixed,
	}))

	return fixed, nil
}

// fetch posts body until the backend stops answering 429, or the next wait
// would exceed the ceiling.
func (c *Client) fetch(ctx context.Context, voiceID string, body []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, voiceID)
	b := c.newBackOff()

	for {
		audio, retry, err := c.post(ctx, url, body)
		if err != nil || !retry {
			return audio, err
		}

		wait := b.NextBackOff()
		if wait > c.maxBackoff {
			log.Warn().Dur("wait", wait).Dur("max", c.maxBackoff).Msg("speech server still busy, giving up")
			return nil, errors.Wrapf(ErrServerBusyTimeout, "next wait %s exceeds %s", wait, c.maxBackoff)
		}

		log.Info().Dur("wait", wait).Msg("speech server busy, backing off")
		c.metrics.IncrementSpeechBackoffs()
		events.Publish(c.sink, events.NewEvent(events.EventTypeSpeechRateLimited, "", map[string]any{
			"wait_ms": wait.Milliseconds(),
		}))
		if err := c.sleep(ctx, wait); err != nil {
			return nil, errors.Wrap(err, "interrupted while backing off")
		}
	}
}

// post sends one synthesis request. retry is true when the backend rate
// limited the request.
func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to create speech request")
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to send speech request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.metrics.IncrementSpeechRequests("rate_limited")
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, true, nil
	case !helpers.IsSuccess(resp.StatusCode):
		c.metrics.IncrementSpeechRequests("failed")
		return nil, false, helpers.NewUpstreamError("elevenlabs", resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to read speech response")
	}
	c.metrics.IncrementSpeechRequests("ok")
	return audio, false, nil
}
