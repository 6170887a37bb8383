package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tetsuyaohira/tech-talk-cast/internal/config"
	"github.com/tetsuyaohira/tech-talk-cast/internal/rewrite"
	"github.com/tetsuyaohira/tech-talk-cast/internal/template"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/tech-talk-cast/config.
Settings can also be provided via CAST_* environment variables.

Supported settings:
  output-dir    Default directory for artifacts (env: CAST_OUTPUT_DIR)
  voice         Synthesis voice (env: CAST_VOICE)
  rate          Speaking rate in words per minute (env: CAST_RATE)
  model         Chat model for rewriting (env: CAST_MODEL)
  provider      Rewrite provider, openai or deepseek (env: CAST_PROVIDER)
  style         Narration style (env: CAST_STYLE)
  pause-ms      Silence between chapters (env: CAST_PAUSE_MS)`,
		Example: `  tech-talk-cast config set voice Daniel
  tech-talk-cast config get output-dir
  tech-talk-cast config list`,
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
		Example: `  tech-talk-cast config set output-dir ~/casts
  tech-talk-cast config set provider deepseek`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Get a configuration value",
		Example: `  tech-talk-cast config get voice`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List all configuration values",
		Example: `  tech-talk-cast config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if !config.KnownKey(key) {
		return fmt.Errorf("unknown config key %q (valid keys: %v)", key, config.Keys())
	}

	// Key-specific validation.
	switch key {
	case config.KeyOutputDir:
		expanded := config.ExpandPath(value)
		if err := config.ValidOutputDir(expanded); err != nil {
			return fmt.Errorf("invalid output-dir: %w", err)
		}
		value = expanded
	case config.KeyProvider:
		if _, err := rewrite.ParseProvider(value); err != nil {
			return err
		}
	case config.KeyStyle:
		if _, err := template.ParseName(value); err != nil {
			return err
		}
	}

	if err := config.Save(key, value); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	if !config.KnownKey(key) {
		return fmt.Errorf("unknown config key %q (valid keys: %v)", key, config.Keys())
	}

	value, err := config.Get(key)
	if err != nil {
		return err
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

	if len(data) == 0 {
		fmt.Fprintln(env.Stdout, "No configuration set.")
		fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range config.Keys() {
			fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
		return nil
	}

	// Stable order: recognized keys first, then anything else.
	for _, key := range config.Keys() {
		if value, ok := data[key]; ok {
			fmt.Fprintf(env.Stdout, "%s=%s\n", key, value)
			delete(data, key)
		}
	}
	for key, value := range data {
		fmt.Fprintf(env.Stdout, "%s=%s\n", key, value)
	}
	return nil
}
