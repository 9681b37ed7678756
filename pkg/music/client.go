// Package music composes tracks through a Suno API proxy.
package music

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/muse/pkg/events"
	"github.com/go-go-golems/muse/pkg/helpers"
	"github.com/go-go-golems/muse/pkg/metrics"
)

const DefaultBaseURL = "https://suno-api-mocha-delta.vercel.app"

// Request modes, also used as the metrics label.
const (
	ModeInstrumental = "instrumental"
	ModeLyrics       = "lyrics"
	ModeGenerated    = "generated"
)

var ErrNoClips = errors.New("music backend returned no clips")

type Request struct {
	Text string
	// Lyrics are sung verbatim when Instrumental is false.
	Lyrics       string
	Instrumental bool
	// WriteFile asks for the track to be downloaded. Not supported yet, a
	// warning is logged instead.
	WriteFile bool
}

// GenerateRequest is the body of /api/custom_generate.
type GenerateRequest struct {
	Prompt           string `json:"prompt"`
	Tags             string `json:"tags"`
	Title            string `json:"title"`
	MakeInstrumental bool   `json:"make_instrumental"`
	WaitAudio        bool   `json:"wait_audio"`
}

type Clip struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	ImageURL             string `json:"image_url"`
	Lyric                string `json:"lyric"`
	AudioURL             string `json:"audio_url"`
	VideoURL             string `json:"video_url"`
	CreatedAt            string `json:"created_at"`
	ModelName            string `json:"model_name"`
	Status               string `json:"status"`
	GPTDescriptionPrompt string `json:"gpt_description_prompt"`
	Prompt               string `json:"prompt"`
	Type                 string `json:"type"`
	Tags                 string `json:"tags"`
}

type Result struct {
	AudioURL string
	Prompt   string
	Tags     string
	Title    string
	Clips    []Clip
}

type Client struct {
	lyrics     LyricsWriter
	baseURL    string
	httpClient *http.Client
	sink       events.EventSink
	metrics    *metrics.Provider
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

// NewClient returns a music client. lyrics is only consulted for songs
// that are neither instrumental nor come with lyrics, and may be nil otherwise.
func NewClient(lyrics LyricsWriter, opts ...Option) *Client {
	c := &Client{
		lyrics:     lyrics,
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		sink:       events.NewNullSink(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func mode(req Request) string {
	switch {
	case req.Instrumental:
		return ModeInstrumental
	case req.Lyrics != "":
		return ModeLyrics
	default:
		return ModeGenerated
	}
}

// BuildGenerateRequest maps a Request to the backend body. Songs without
// lyrics get theirs from the LyricsWriter.
func (c *Client) BuildGenerateRequest(ctx context.Context, req Request) (*GenerateRequest, error) {
	ret := &GenerateRequest{
		MakeInstrumental: req.Instrumental,
		WaitAudio:        true,
	}

	switch mode(req) {
	case ModeInstrumental:
		ret.Prompt = " "
		ret.Tags = req.Text
		ret.Title = req.Text
	case ModeLyrics:
		ret.Prompt = req.Lyrics
		ret.Tags = req.Text
		ret.Title = req.Text
	default:
		if c.lyrics == nil {
			return nil, pkgerrors.New("no lyrics writer configured")
		}
		song, err := c.lyrics.WriteLyrics(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		ret.Prompt = song.Lyrics
		ret.Tags = song.Tags()
		ret.Title = song.Title
	}

	return ret, nil
}

// Compose generates a track and returns the first clip's audio URL.
func (c *Client) Compose(ctx context.Context, req Request) (*Result, error) {
	body, err := c.BuildGenerateRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	m := mode(req)
	c.metrics.IncrementMusicRequests(m)
	log.Debug().Str("mode", m).Str("title", body.Title).Str("tags", body.Tags).Msg("composing")
	events.Publish(c.sink, events.NewEvent(events.EventTypeMusicRequested, "", map[string]any{
		"title": body.Title,
		"tags":  body.Tags,
		"mode":  m,
	}))

	clips, err := c.generate(ctx, body)
	if err != nil {
		return nil, err
	}
	if len(clips) == 0 {
		return nil, ErrNoClips
	}

	if req.WriteFile {
		log.Warn().Msg("Oops! File writing is not implemented...")
	}

	events.Publish(c.sink, events.NewEvent(events.EventTypeMusicReady, "", map[string]any{
		"audio_url": clips[0].AudioURL,
		"clips":     len(clips),
	}))

	return &Result{
		AudioURL: clips[0].AudioURL,
		Prompt:   body.Prompt,
		Tags:     body.Tags,
		Title:    body.Title,
		Clips:    clips,
	}, nil
}

func (c *Client) generate(ctx context.Context, body *GenerateRequest) ([]Clip, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to marshal generate request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/custom_generate", bytes.NewReader(b))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create generate request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to send generate request")
	}
	defer resp.Body.Close()

	if !helpers.IsSuccess(resp.StatusCode) {
		return nil, helpers.NewUpstreamError("suno", resp)
	}

	var clips []Clip
	if err := json.NewDecoder(resp.Body).Decode(&clips); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to decode generate response")
	}
	log.Debug().Int("clips", len(clips)).Msg("music generated")
	return clips, nil
}
