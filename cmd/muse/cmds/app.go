package cmds

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/muse/pkg/assistant"
	"github.com/go-go-golems/muse/pkg/config"
	"github.com/go-go-golems/muse/pkg/events"
	"github.com/go-go-golems/muse/pkg/metrics"
	"github.com/go-go-golems/muse/pkg/music"
	"github.com/go-go-golems/muse/pkg/pricing"
	"github.com/go-go-golems/muse/pkg/speech"
	"github.com/go-go-golems/muse/pkg/tools"
)

// App holds everything a command needs: settings, the progress event router
// and the shared metrics registry.
type App struct {
	Settings *config.Settings
	Fs       afero.Fs
	Pricing  *pricing.Table
	Metrics  *metrics.Provider

	registry    *prometheus.Registry
	router      *events.EventRouter
	metricsAddr string
}

func NewApp(v *viper.Viper, out io.Writer) (*App, error) {
	settings, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	fs := afero.NewOsFs()
	table, err := settings.PricingTable(fs)
	if err != nil {
		return nil, err
	}

	router, err := events.NewEventRouter(events.WithVerbose(v.GetBool("verbose")))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create event router")
	}
	router.AddHandler("printer", events.TopicProgress, events.PrinterFunc(out))

	registry := prometheus.NewRegistry()

	return &App{
		Settings:    settings,
		Fs:          fs,
		Pricing:     table,
		Metrics:     metrics.NewProvider(registry),
		registry:    registry,
		router:      router,
		metricsAddr: v.GetString("metrics-addr"),
	}, nil
}

func (a *App) Sink() events.EventSink {
	return a.router.Sink()
}

func (a *App) Runner() *assistant.Runner {
	backend := assistant.NewOpenAIBackend(
		assistant.NewOpenAIClient(a.Settings.OpenAIAPIKey, a.Settings.OpenAIBaseURL),
	)
	return assistant.NewRunner(backend, a.Pricing, tools.NewDefaultRegistry(),
		assistant.WithDefaultAssistantID(a.Settings.AssistantID),
		assistant.WithPollInterval(a.Settings.PollInterval),
		assistant.WithPollTimeout(a.Settings.PollTimeout),
		assistant.WithMaxPolls(a.Settings.MaxPolls),
		assistant.WithEventSink(a.Sink()),
		assistant.WithMetrics(a.Metrics),
	)
}

func (a *App) SpeechClient() *speech.Client {
	return speech.NewClient(a.Settings.ElevenLabsAPIKey, a.Settings.ElevenLabsVoiceID,
		speech.WithBaseURL(a.Settings.ElevenLabsBaseURL),
		speech.WithModel(a.Settings.ElevenLabsModel),
		speech.WithFs(a.Fs),
		speech.WithOutputDir(a.Settings.OutputDir),
		speech.WithEncoder(speech.NewFFmpegEncoder(a.Settings.FFmpegPath)),
		speech.WithEventSink(a.Sink()),
		speech.WithMetrics(a.Metrics),
	)
}

func (a *App) MusicClient() *music.Client {
	return music.NewClient(music.NewAssistantLyricsWriter(a.Runner()),
		music.WithBaseURL(a.Settings.SunoBaseURL),
		music.WithEventSink(a.Sink()),
		music.WithMetrics(a.Metrics),
	)
}

// Run calls fn once the event router is running, and serves metrics while fn
// runs when --metrics-addr is set.
func (a *App) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	defer func() {
		_ = a.router.Close()
	}()

	eg := errgroup.Group{}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg.Go(func() error {
		defer cancel()
		return a.router.Run(ctx)
	})

	if a.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
		srv := &http.Server{
			Addr:              a.metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		eg.Go(func() error {
			log.Info().Str("addr", a.metricsAddr).Msg("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				cancel()
				return errors.Wrap(err, "metrics server failed")
			}
			return nil
		})
		eg.Go(func() error {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	eg.Go(func() error {
		defer cancel()
		<-a.router.Running()
		return fn(ctx)
	})

	return eg.Wait()
}
