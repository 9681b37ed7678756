package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every muse variable so the host environment cannot leak
// into a test. Empty variables are ignored by viper.
func clearEnv(t *testing.T) {
	for _, key := range []string{
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "ASSISTANT_ID",
		"ELEVENLABS_API_KEY", "ELEVENLABS_VOICE_ID", "ELEVENLABS_BASE_URL", "ELEVENLABS_MODEL",
		"SUNO_BASE_URL", "OUTPUT_DIR", "PRICING_FILE",
		"POLL_INTERVAL", "POLL_TIMEOUT", "MAX_POLLS", "FFMPEG_PATH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-1")
	t.Setenv("ELEVENLABS_VOICE_ID", "voice-1")
	t.Setenv("ELEVENLABS_API_KEY", "xi-1")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("MAX_POLLS", "30")

	v, err := NewViper(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	s, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "sk-1", s.OpenAIAPIKey)
	assert.Equal(t, "voice-1", s.ElevenLabsVoiceID)
	assert.Equal(t, "xi-1", s.ElevenLabsAPIKey)
	assert.Equal(t, 250*time.Millisecond, s.PollInterval)
	assert.Equal(t, 30, s.MaxPolls)
	assert.Equal(t, time.Duration(0), s.PollTimeout)
	assert.Equal(t, "eleven_english_v2", s.ElevenLabsModel)
	assert.Equal(t, "https://suno-api-mocha-delta.vercel.app", s.SunoBaseURL)
	assert.Equal(t, "ffmpeg", s.FFmpegPath)
}

func TestLoadReportsEveryMissingKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("ELEVENLABS_VOICE_ID", "voice-1")

	v, err := NewViper(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	_, err = Load(v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigMissing))

	var missing *MissingConfigError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"OPENAI_API_KEY", "ELEVENLABS_API_KEY"}, missing.Keys)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY, ELEVENLABS_API_KEY")
}

func TestConfigFileAndDotEnv(t *testing.T) {
	clearEnv(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/muse/config.yaml", []byte(`
openai_api_key: sk-file
elevenlabs_voice_id: voice-file
elevenlabs_api_key: xi-file
assistant_id: asst-file
output_dir: /tmp/out
`), 0o644))
	require.NoError(t, afero.WriteFile(fs, DotEnvFile, []byte("ASSISTANT_ID=asst-dotenv\nPOLL_TIMEOUT=5m\n"), 0o644))
	t.Setenv("OPENAI_API_KEY", "sk-env")

	v, err := NewViper(fs, "/etc/muse/config.yaml")
	require.NoError(t, err)
	s, err := Load(v)
	require.NoError(t, err)

	// environment beats .env beats the config file
	assert.Equal(t, "sk-env", s.OpenAIAPIKey)
	assert.Equal(t, "asst-dotenv", s.AssistantID)
	assert.Equal(t, "voice-file", s.ElevenLabsVoiceID)
	assert.Equal(t, "/tmp/out", s.OutputDir)
	assert.Equal(t, 5*time.Minute, s.PollTimeout)
}

func TestMissingExplicitConfigFile(t *testing.T) {
	clearEnv(t)
	_, err := NewViper(afero.NewMemMapFs(), "/nope/config.yaml")
	assert.Error(t, err)
}

func TestLoadRejectsBadPolling(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-1")
	t.Setenv("ELEVENLABS_VOICE_ID", "voice-1")
	t.Setenv("ELEVENLABS_API_KEY", "xi-1")
	t.Setenv("MAX_POLLS", "-1")

	v, err := NewViper(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	_, err = Load(v)
	assert.Error(t, err)
}

func TestPricingTable(t *testing.T) {
	fs := afero.NewMemMapFs()

	s := &Settings{}
	table, err := s.PricingTable(fs)
	require.NoError(t, err)
	assert.True(t, table.Has("gpt-4o"))

	require.NoError(t, afero.WriteFile(fs, "/prices.yaml", []byte("my-model:\n  input: 1\n  output: 2\n"), 0o644))
	s.PricingFile = "/prices.yaml"
	table, err = s.PricingTable(fs)
	require.NoError(t, err)
	assert.Equal(t, []string{"my-model"}, table.Models())

	s.PricingFile = "/missing.yaml"
	_, err = s.PricingTable(fs)
	assert.Error(t, err)
}
