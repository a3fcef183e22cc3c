package main

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the client configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "schema",
			Short: "Print the JSON schema of the config file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				schema, err := configSchema()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(append(schema, '\n'))
				return err
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as YAML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if used := viper.ConfigFileUsed(); used != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", used)
				}
				encoder := yaml.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent(2)
				if err := encoder.Encode(newConfigFile(loadConfig())); err != nil {
					return fmt.Errorf("error encoding config: %w", err)
				}
				return encoder.Close()
			},
		},
	)

	return cmd
}

func configSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(Config{})
	schema.Title = "ema-chat configuration"

	raw, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error marshalling schema: %w", err)
	}
	return raw, nil
}

// configFile is Config as written in the YAML file, with durations in
// their string form.
type configFile struct {
	Config              `yaml:",inline"`
	StreamIdleTimeout   string `yaml:"stream-idle-timeout,omitempty"`
	PlaybackSettleDelay string `yaml:"playback-settle-delay,omitempty"`
}

func newConfigFile(config Config) configFile {
	return configFile{
		Config:              config,
		StreamIdleTimeout:   config.StreamIdleTimeout.String(),
		PlaybackSettleDelay: config.PlaybackSettleDelay.String(),
	}
}
