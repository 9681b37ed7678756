// Package config reads muse settings from the environment, an optional
// config file and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/go-go-golems/muse/pkg/pricing"
)

// Keys double as environment variable names once upper-cased.
const (
	KeyOpenAIAPIKey      = "openai_api_key"
	KeyOpenAIBaseURL     = "openai_base_url"
	KeyAssistantID       = "assistant_id"
	KeyElevenLabsAPIKey  = "elevenlabs_api_key"
	KeyElevenLabsVoiceID = "elevenlabs_voice_id"
	KeyElevenLabsBaseURL = "elevenlabs_base_url"
	KeyElevenLabsModel   = "elevenlabs_model"
	KeySunoBaseURL       = "suno_base_url"
	KeyOutputDir         = "output_dir"
	KeyPricingFile       = "pricing_file"
	KeyPollInterval      = "poll_interval"
	KeyPollTimeout       = "poll_timeout"
	KeyMaxPolls          = "max_polls"
	KeyFFmpegPath        = "ffmpeg_path"
)

const DotEnvFile = ".env"

var ErrConfigMissing = errors.New("missing required configuration")

// MissingConfigError lists the required environment variables that are unset.
type MissingConfigError struct {
	Keys []string
}

func (e *MissingConfigError) Error() string {
	if e == nil || len(e.Keys) == 0 {
		return ErrConfigMissing.Error()
	}
	return fmt.Sprintf("%s: %s", ErrConfigMissing, strings.Join(e.Keys, ", "))
}

func (e *MissingConfigError) Is(target error) bool { return target == ErrConfigMissing }

type Settings struct {
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	AssistantID       string
	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	ElevenLabsBaseURL string
	ElevenLabsModel   string
	SunoBaseURL       string
	OutputDir         string
	PricingFile       string
	PollInterval      time.Duration
	PollTimeout       time.Duration
	MaxPolls          int
	FFmpegPath        string
}

var requiredKeys = []string{
	KeyOpenAIAPIKey,
	KeyElevenLabsVoiceID,
	KeyElevenLabsAPIKey,
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyElevenLabsBaseURL, "https://api.elevenlabs.io")
	v.SetDefault(KeyElevenLabsModel, "eleven_english_v2")
	v.SetDefault(KeySunoBaseURL, "https://suno-api-mocha-delta.vercel.app")
	v.SetDefault(KeyPollInterval, time.Second)
	v.SetDefault(KeyPollTimeout, time.Duration(0))
	v.SetDefault(KeyMaxPolls, 0)
	v.SetDefault(KeyFFmpegPath, "ffmpeg")
}

// NewViper returns a viper instance reading, in increasing priority: the
// config file (configPath, or config.* in . and $HOME/.muse), a .env file in
// the working directory, and the process environment.
func NewViper(fs afero.Fs, configPath string) (*viper.Viper, error) {
	v := viper.New()
	v.SetFs(fs)
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to read config file %s", configPath)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.muse")
		err := v.ReadInConfig()
		var notFound viper.ConfigFileNotFoundError
		if err != nil && !errors.As(err, &notFound) {
			return nil, pkgerrors.Wrap(err, "failed to read config file")
		}
	}

	ok, err := afero.Exists(fs, DotEnvFile)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to check for %s", DotEnvFile)
	}
	if ok {
		v.SetConfigFile(DotEnvFile)
		v.SetConfigType("env")
		if err := v.MergeInConfig(); err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to read %s", DotEnvFile)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	log.Debug().Str("config", v.ConfigFileUsed()).Msg("Loaded configuration")
	return v, nil
}

// Load reads Settings from v. All three required secrets are checked so the
// error names every missing one.
func Load(v *viper.Viper) (*Settings, error) {
	var missing []string
	for _, key := range requiredKeys {
		if v.GetString(key) == "" {
			missing = append(missing, strings.ToUpper(key))
		}
	}
	if len(missing) > 0 {
		return nil, &MissingConfigError{Keys: missing}
	}

	s := &Settings{
		OpenAIAPIKey:      v.GetString(KeyOpenAIAPIKey),
		OpenAIBaseURL:     v.GetString(KeyOpenAIBaseURL),
		AssistantID:       v.GetString(KeyAssistantID),
		ElevenLabsAPIKey:  v.GetString(KeyElevenLabsAPIKey),
		ElevenLabsVoiceID: v.GetString(KeyElevenLabsVoiceID),
		ElevenLabsBaseURL: v.GetString(KeyElevenLabsBaseURL),
		ElevenLabsModel:   v.GetString(KeyElevenLabsModel),
		SunoBaseURL:       v.GetString(KeySunoBaseURL),
		OutputDir:         v.GetString(KeyOutputDir),
		PricingFile:       v.GetString(KeyPricingFile),
		PollInterval:      v.GetDuration(KeyPollInterval),
		PollTimeout:       v.GetDuration(KeyPollTimeout),
		MaxPolls:          v.GetInt(KeyMaxPolls),
		FFmpegPath:        v.GetString(KeyFFmpegPath),
	}
	if s.PollInterval <= 0 {
		return nil, pkgerrors.Errorf("%s must be positive, got %s", strings.ToUpper(KeyPollInterval), s.PollInterval)
	}
	if s.MaxPolls < 0 {
		return nil, pkgerrors.Errorf("%s cannot be negative", strings.ToUpper(KeyMaxPolls))
	}

	return s, nil
}

// PricingTable returns the table in PricingFile, or the built-in table when
// no file is configured.
func (s *Settings) PricingTable(fs afero.Fs) (*pricing.Table, error) {
	if s.PricingFile == "" {
		return pricing.DefaultTable(), nil
	}

	f, err := fs.Open(s.PricingFile)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open pricing file %s", s.PricingFile)
	}
	defer f.Close()

	table, err := pricing.LoadTable(f)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to load pricing file %s", s.PricingFile)
	}
	return table, nil
}
