package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/alnah/go-audiobook/internal/config"
)

// envFallbacks maps config keys to the environment variable read when the
// key is not set in the config file.
var envFallbacks = map[string]string{
	config.KeyOutputName: config.EnvOutputName,
	config.KeyBitrate:    config.EnvBitrate,
	config.KeyCodec:      config.EnvCodec,
	config.KeyLogLevel:   config.EnvLogLevel,
}

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/go-audiobook/config.toml.
Some settings can also be provided via environment variables.

Supported settings:
  output-name           Output file name (env: AUDIOBOOK_OUTPUT_NAME)
  bitrate               Merge bitrate, e.g. 64k (env: AUDIOBOOK_BITRATE)
  codec                 Merge encoder, e.g. aac (env: AUDIOBOOK_CODEC)
  extensions            Input extensions, e.g. mp3,flac
  fallback-extensions   Extensions used when none of the above match
  log-level             debug, info, warn, error (env: AUDIOBOOK_LOG_LEVEL)
  log-format            console or json`,
		Example: `  audiobook config set bitrate 96k
  audiobook config get bitrate
  audiobook config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value. An empty value removes the setting.

Values are validated before they are saved.`,
		Example: `  audiobook config set output-name book.m4b
  audiobook config set extensions mp3,m4b
  audiobook config set bitrate ""`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value to stdout, or nothing if not set.`,
		Example: `  audiobook config get bitrate`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows both values from the config file and environment variable fallbacks.`,
		Example: `  audiobook config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if !isValidConfigKey(key) {
		return fmt.Errorf("%w: %q (valid keys: %v)", config.ErrUnknownKey, key, config.Keys)
	}

	if err := config.Save(key, value); err != nil {
		return err
	}

	stored, err := config.Get(key)
	if err != nil {
		return err
	}
	if stored == "" {
		fmt.Fprintf(env.Stderr, "Unset %s\n", key)
	} else {
		fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, stored)
	}
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	if !isValidConfigKey(key) {
		return fmt.Errorf("%w: %q (valid keys: %v)", config.ErrUnknownKey, key, config.Keys)
	}

	value, err := config.Get(key)
	if err != nil {
		return err
	}

	// Check environment variable fallback.
	if value == "" {
		if name, ok := envFallbacks[key]; ok {
			value = env.Getenv(name)
		}
	}

	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	// Add environment variable values for completeness.
	for key, name := range envFallbacks {
		if _, ok := data[key]; ok {
			continue
		}
		if envVal := env.Getenv(name); envVal != "" {
			data[key] = envVal + " (from env)"
		}
	}

	if len(data) == 0 {
		fmt.Fprintln(env.Stdout, "No configuration set.")
		fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range config.Keys {
			fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
		return nil
	}

	// Stable order: the documented key order.
	for _, key := range config.Keys {
		if value, ok := data[key]; ok {
			fmt.Fprintf(env.Stdout, "%s=%s\n", key, value)
		}
	}
	return nil
}

// isValidConfigKey checks if a key is a valid configuration key.
func isValidConfigKey(key string) bool {
	return slices.Contains(config.Keys, key)
}
