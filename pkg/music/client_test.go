package music

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/muse/pkg/assistant"
	"github.com/go-go-golems/muse/pkg/helpers"
)

type fakeAsker struct {
	reply string
	err   error
	reqs  []assistant.Request
}

func (f *fakeAsker) Ask(_ context.Context, req assistant.Request) (*assistant.Result, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &assistant.Result{Reply: f.reply}, nil
}

type sunoServer struct {
	mu     sync.Mutex
	bodies []GenerateRequest
	status int
	clips  string
}

func (s *sunoServer) start(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/custom_generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body GenerateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		s.mu.Lock()
		s.bodies = append(s.bodies, body)
		s.mu.Unlock()

		if s.status != 0 {
			w.WriteHeader(s.status)
		}
		_, _ = w.Write([]byte(s.clips))
	}))
}

const twoClips = `[
	{"id":"a","title":"t","audio_url":"https://cdn.example/a.mp3","status":"complete"},
	{"id":"b","title":"t","audio_url":"https://cdn.example/b.mp3","status":"complete"}
]`

func TestComposeInstrumental(t *testing.T) {
	s := &sunoServer{clips: twoClips}
	server := s.start(t)
	defer server.Close()

	asker := &fakeAsker{}
	c := NewClient(NewAssistantLyricsWriter(asker), WithBaseURL(server.URL))

	res, err := c.Compose(context.Background(), Request{
		Text:         "silly water temple underwater videogame OST",
		Instrumental: true,
		WriteFile:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/a.mp3", res.AudioURL)
	assert.Len(t, res.Clips, 2)

	require.Len(t, s.bodies, 1)
	assert.Equal(t, GenerateRequest{
		Prompt:           " ",
		Tags:             "silly water temple underwater videogame OST",
		Title:            "silly water temple underwater videogame OST",
		MakeInstrumental: true,
		WaitAudio:        true,
	}, s.bodies[0])
	assert.Empty(t, asker.reqs)
}

func TestComposeWithLyrics(t *testing.T) {
	s := &sunoServer{clips: twoClips}
	server := s.start(t)
	defer server.Close()

	c := NewClient(nil, WithBaseURL(server.URL))
	_, err := c.Compose(context.Background(), Request{Text: "sea shanty", Lyrics: "yo ho"})
	require.NoError(t, err)

	require.Len(t, s.bodies, 1)
	assert.Equal(t, GenerateRequest{
		Prompt:    "yo ho",
		Tags:      "sea shanty",
		Title:     "sea shanty",
		WaitAudio: true,
	}, s.bodies[0])
}

func TestComposeGeneratedLyrics(t *testing.T) {
	s := &sunoServer{clips: twoClips}
	server := s.start(t)
	defer server.Close()

	asker := &fakeAsker{
		reply: `{"lyrics":"the fish sing opera","vibe":"dreamy","mood":"absurd","title":"Opera Fish"}`,
	}
	c := NewClient(NewAssistantLyricsWriter(asker), WithBaseURL(server.URL))

	res, err := c.Compose(context.Background(), Request{Text: "underwater opera"})
	require.NoError(t, err)
	assert.Equal(t, "Opera Fish", res.Title)
	assert.Equal(t, "dreamy, absurd", res.Tags)

	require.Len(t, s.bodies, 1)
	assert.Equal(t, GenerateRequest{
		Prompt:    "the fish sing opera",
		Tags:      "dreamy, absurd",
		Title:     "Opera Fish",
		WaitAudio: true,
	}, s.bodies[0])

	require.Len(t, asker.reqs, 1)
	req := asker.reqs[0]
	assert.Equal(t, "gpt-4o", req.Model)
	assert.Equal(t, assistant.ResponseFormatJSONObject, req.ResponseFormat)
	assert.Contains(t, req.Instructions, "creative musician")
	assert.Equal(t, `Return a { lyrics, vibe, mood, title } JSON object based on the user's input: "underwater opera"`, req.Prompt)
}

func TestComposeErrors(t *testing.T) {
	t.Run("no clips", func(t *testing.T) {
		s := &sunoServer{clips: `[]`}
		server := s.start(t)
		defer server.Close()

		c := NewClient(nil, WithBaseURL(server.URL))
		_, err := c.Compose(context.Background(), Request{Text: "x", Instrumental: true})
		assert.True(t, errors.Is(err, ErrNoClips))
	})

	t.Run("upstream failure", func(t *testing.T) {
		s := &sunoServer{status: http.StatusBadGateway, clips: `{"error":"suno is down"}`}
		server := s.start(t)
		defer server.Close()

		c := NewClient(nil, WithBaseURL(server.URL))
		_, err := c.Compose(context.Background(), Request{Text: "x", Instrumental: true})
		assert.True(t, errors.Is(err, helpers.ErrUpstream))
		assert.Contains(t, err.Error(), "suno is down")
	})

	t.Run("lyrics writer failure", func(t *testing.T) {
		c := NewClient(NewAssistantLyricsWriter(&fakeAsker{err: assistant.ErrMissingAssistant}))
		_, err := c.Compose(context.Background(), Request{Text: "x"})
		assert.True(t, errors.Is(err, assistant.ErrMissingAssistant))
	})

	t.Run("reply is not a song", func(t *testing.T) {
		c := NewClient(NewAssistantLyricsWriter(&fakeAsker{reply: "la la la"}))
		_, err := c.Compose(context.Background(), Request{Text: "x"})
		assert.Error(t, err)
	})

	t.Run("no lyrics writer", func(t *testing.T) {
		c := NewClient(nil)
		_, err := c.BuildGenerateRequest(context.Background(), Request{Text: "x"})
		assert.Error(t, err)
	})
}
