package main

import (
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	voicechat "github.com/koscakluka/ema-chat/core"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat (default)",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	config := loadConfig()

	// the UI owns the terminal, logs go to a file only
	logFile := config.LogFile
	if logFile == "" {
		dir, err := dataDir()
		if err != nil {
			return err
		}
		logFile = filepath.Join(dir, "ema-chat.log")
	}
	err := InitLogger(&logConfig{
		Level:      config.LogLevel,
		LogFile:    logFile,
		LogFormat:  config.LogFormat,
		WithCaller: viper.GetBool("with-caller"),
		Quiet:      true,
	})
	if err != nil {
		return err
	}

	devices := openDevices(config.AudioBackend)
	defer devices.Close()

	updates := newSessionUpdates()
	opts := updates.options()
	if devices.player != nil {
		opts = append(opts, voicechat.WithPlayer(devices.player))
	}
	session, closeSession, err := openSession(ctx, config, opts...)
	if err != nil {
		return err
	}
	defer closeSession()

	log.Info().
		Str("backend", config.backendURL()).
		Str("store", config.Store).
		Str("audio", config.AudioBackend).
		Msg("Starting chat")

	program := tea.NewProgram(
		initialModel(ctx, session, devices, updates),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err = program.Run()
	return err
}
