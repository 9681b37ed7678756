package music

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/go-go-golems/muse/pkg/assistant"
)

const (
	LyricsModel = "gpt-4o"

	musicianInstructions = "You are a creative musician trained on all of music history. " +
		"Help the user create music with whatever vibes/lyrics they ask for! " +
		"Remember, the maximum song length is 3 minutes, so keep the lyrics to a handful of sentences. " +
		"Also, try to keep the vibe and mood to under one sentence each. " +
		"The title should be 5 words or less. " +
		"Remember, the lyrics should be really weird and borderline crazy. " +
		"Don't go simple on the lyrics, make them memorable because of how wild they are!"
)

// Song is what a LyricsWriter comes up with for a text prompt.
type Song struct {
	Lyrics string `json:"lyrics"`
	Vibe   string `json:"vibe"`
	Mood   string `json:"mood"`
	Title  string `json:"title"`
}

// Tags renders vibe and mood as a comma separated style string.
func (s Song) Tags() string {
	return strings.Join([]string{s.Vibe, s.Mood}, ", ")
}

type LyricsWriter interface {
	WriteLyrics(ctx context.Context, text string) (*Song, error)
}

// Asker is the part of assistant.Runner the lyrics writer needs.
type Asker interface {
	Ask(ctx context.Context, req assistant.Request) (*assistant.Result, error)
}

// AssistantLyricsWriter asks an assistant, primed with a musician persona,
// for a JSON song description.
type AssistantLyricsWriter struct {
	asker Asker
	model string
}

var _ LyricsWriter = (*AssistantLyricsWriter)(nil)

func NewAssistantLyricsWriter(asker Asker) *AssistantLyricsWriter {
	return &AssistantLyricsWriter{asker: asker, model: LyricsModel}
}

func (a *AssistantLyricsWriter) WriteLyrics(ctx context.Context, text string) (*Song, error) {
	res, err := a.asker.Ask(ctx, assistant.Request{
		Model:          a.model,
		Instructions:   musicianInstructions,
		Prompt:         fmt.Sprintf("Return a { lyrics, vibe, mood, title } JSON object based on the user's input: \"%s\"", text),
		ResponseFormat: assistant.ResponseFormatJSONObject,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to write lyrics")
	}

	var song Song
	if err := json.Unmarshal([]byte(res.Reply), &song); err != nil {
		return nil, errors.Wrapf(err, "assistant reply is not a song object: %s", res.Reply)
	}
	return &song, nil
}
