package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trussrig/pkg/config"
)

// configCommand creates the config management command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the trussrig config file",
	}

	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configShowCommand())

	return cmd
}

// configInitCommand creates the "config init" subcommand.
func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Long: `Init writes the built-in configuration to path, or to the default config
file when no path is given. The encoding follows the file extension: .yaml
and .yml are written as YAML, anything else as TOML.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configTarget(args)
			if err != nil {
				return err
			}
			if err := config.Default().WriteFile(path, force); err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("config written", "path", path, "format", config.FormatOf(path))
			printSuccess("Wrote default configuration")
			printFile(path)
			printNewline()
			printNextStep("Edit with the truss reloading on save", fmt.Sprintf("%s edit --config %s --watch", appName, path))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

// configPathCommand creates the "config path" subcommand.
func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the default config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Path()
			if err != nil {
				return fmt.Errorf("get config path: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand() *cobra.Command {
	var (
		path   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Show prints the configuration a session would use: the file given with
--config, else the default config file when it exists, else the built-in
defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := config.Format(format)
			if f != config.FormatTOML && f != config.FormatYAML {
				return fmt.Errorf("invalid format: %s (must be 'toml' or 'yaml')", format)
			}
			cfg, src, err := config.Load(path)
			if err != nil {
				return err
			}
			if src == "" {
				src = "built-in defaults"
			}
			loggerFromContext(cmd.Context()).Debug("effective config", "source", src)
			return cfg.Encode(cmd.OutOrStdout(), f)
		},
	}

	cmd.Flags().StringVarP(&path, "config", "c", "", "config file to read")
	cmd.Flags().StringVarP(&format, "format", "f", string(config.FormatTOML), "output encoding: toml, yaml")

	return cmd
}

// configTarget returns the explicit path argument or the default path.
func configTarget(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	path, err := config.Path()
	if err != nil {
		return "", fmt.Errorf("get config path: %w", err)
	}
	return path, nil
}
