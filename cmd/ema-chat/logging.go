package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

type logConfig struct {
	WithCaller bool
	Level      string
	LogFormat  string
	LogFile    string
	// Quiet drops the stderr writer, the chat UI owns the terminal.
	Quiet bool
}

func initLogger() {
	err := InitLogger(&logConfig{
		Level:      viper.GetString("log-level"),
		LogFile:    viper.GetString("log-file"),
		LogFormat:  viper.GetString("log-format"),
		WithCaller: viper.GetBool("with-caller"),
	})
	cobra.CheckErr(err)
}

func InitLogger(config *logConfig) error {
	logger := zerolog.New(io.Discard).With().Timestamp().Logger()
	if config.WithCaller {
		logger = logger.With().Caller().Logger()
	}

	// default is json
	var writers []io.Writer
	if !config.Quiet {
		if config.LogFormat == "text" {
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
		} else {
			writers = append(writers, os.Stderr)
		}
	}

	if config.LogFile != "" {
		writers = append(writers, zerolog.ConsoleWriter{
			NoColor: true,
			Out: &lumberjack.Logger{
				Filename:   config.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, //days
			},
		})
	}

	log.Logger = logger.Output(io.MultiWriter(writers...))

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
