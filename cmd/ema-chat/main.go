package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "ema-chat",
	Short: "ema-chat talks to the voice assistant backend from the terminal",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// reinitialize the logger because we can now parse --log-level and co
		// from the command line flag
		initLogger()
	},
	RunE: runChat,
}

func initConfig(rootCmd *cobra.Command, configPath string) error {
	viper.SetEnvPrefix("ema_chat")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.ema-chat")

		xdgConfigPath, err := os.UserConfigDir()
		if err == nil {
			viper.AddConfigPath(xdgConfigPath + "/ema-chat")
		}
	}

	err := viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// Config file not found; ignore error
	} else if err != nil {
		return err
	}
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return err
	}

	initLogger()

	log.Debug().
		Str("config", viper.ConfigFileUsed()).
		Msg("Loaded configuration")

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()

	// logging flags
	flags.Bool("with-caller", false, "Log caller")
	flags.String("log-level", "info", "Log level (debug, info, warn, error, fatal)")
	flags.String("log-format", "text", "Log format (json, text)")
	flags.String("log-file", "", "Log file (default: ~/.ema-chat/ema-chat.log while the chat UI runs, stderr otherwise)")

	flags.String("config", "", "Path to config file (default ~/.ema-chat/config.yaml)")

	flags.String("host", "", "Host the backend runs on, reached on port 8000 (default localhost)")
	flags.String("backend-url", "", "Full backend base URL, overrides --host")
	flags.Duration("stream-idle-timeout", defaultStreamIdleTimeout, "Abort a response stream after this long without data (0 disables)")

	flags.String("store", "bolt", "Where conversations and settings are kept (bolt, redis, memory)")
	flags.String("store-path", "", "Bolt database file (default ~/.ema-chat/ema-chat.db)")
	flags.String("redis-addr", "localhost:6379", "Redis address for --store redis")
	flags.String("redis-prefix", "", "Redis key prefix for --store redis (default \"ema-chat:\")")

	flags.String("audio-backend", "miniaudio", "Audio device backend (miniaudio, portaudio, none)")
	flags.Duration("playback-settle-delay", defaultPlaybackSettleDelay, "Pause between consecutive voice clips")

	// parse the flags one time just to catch --config
	configFile := ""
	for idx, arg := range os.Args {
		if arg == "--config" && len(os.Args) > idx+1 {
			configFile = os.Args[idx+1]
		} else if value, ok := strings.CutPrefix(arg, "--config="); ok {
			configFile = value
		}
	}

	if err := initConfig(rootCmd, configFile); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		chatCmd,
		sendCmd,
		newConversationsCmd(),
		newConfigCmd(),
	)
}
