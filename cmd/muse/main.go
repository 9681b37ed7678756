package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/go-go-golems/muse/cmd/muse/cmds"
	"github.com/go-go-golems/muse/pkg/config"
)

var v *viper.Viper

var rootCmd = &cobra.Command{
	Use:   "muse",
	Short: "muse composes music, speech and video ideas from a text prompt",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// reinitialize the logger because we can now parse --log-level and co
		// from the command line flag
		initLogger()

		if v.GetBool("clear") {
			// ANSI: cursor home, clear screen
			fmt.Fprint(os.Stdout, "\033[H\033[2J")
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func initLogger() {
	err := InitLogger(&logConfig{
		Level:      v.GetString("log-level"),
		LogFile:    v.GetString("log-file"),
		LogFormat:  v.GetString("log-format"),
		WithCaller: v.GetBool("with-caller"),
	})
	cobra.CheckErr(err)
}

type logConfig struct {
	WithCaller bool
	Level      string
	LogFormat  string
	LogFile    string
}

func initCommands(rootCmd *cobra.Command, configPath string) error {
	var err error
	v, err = config.NewViper(afero.NewOsFs(), configPath)
	if err != nil {
		return err
	}

	// Bind the variables to the command-line flags
	err = v.BindPFlags(rootCmd.PersistentFlags())
	if err != nil {
		return err
	}

	initLogger()

	rootCmd.AddCommand(
		cmds.NewComposeCommand(v),
		cmds.NewSpeakCommand(v),
		cmds.NewAskCommand(v),
		cmds.NewPricingCommand(v),
	)
	return nil
}

func InitLogger(config *logConfig) error {
	if config.WithCaller {
		log.Logger = log.With().Caller().Logger()
	}
	// default is json
	var logWriter io.Writer
	if config.LogFormat == "text" {
		logWriter = zerolog.ConsoleWriter{Out: os.Stderr}
	} else {
		logWriter = os.Stderr
	}

	if config.LogFile != "" {
		logWriter = io.MultiWriter(
			logWriter,
			zerolog.ConsoleWriter{
				NoColor: true,
				Out: &lumberjack.Logger{
					Filename:   config.LogFile,
					MaxSize:    10, // megabytes
					MaxBackups: 3,
					MaxAge:     28, //days
				},
			})
	}

	log.Logger = log.Output(logWriter)

	switch config.Level {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	}

	return nil
}

func main() {
	rootCmd.PersistentFlags().Bool("with-caller", false, "Log caller")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (json, text)")
	rootCmd.PersistentFlags().String("log-file", "", "Log file (default: stderr)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ./config.yaml or ~/.muse/config.yaml)")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve prometheus metrics on this address (e.g. :9090)")
	rootCmd.PersistentFlags().Bool("clear", false, "Clear the terminal before running")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log event router internals")

	// parse the flags one time just to catch --config
	configFile := ""
	for idx, arg := range os.Args {
		if arg == "--config" && len(os.Args) > idx+1 {
			configFile = os.Args[idx+1]
		}
	}

	if err := initCommands(rootCmd, configFile); err != nil {
		log.Error().Err(err).Msg("failed to initialize")
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
