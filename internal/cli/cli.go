package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/trussrig/pkg/buildinfo"
	"github.com/matzehuels/trussrig/pkg/config"
	"github.com/matzehuels/trussrig/pkg/connect"
	"github.com/matzehuels/trussrig/pkg/editor"
	"github.com/matzehuels/trussrig/pkg/truss"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "trussrig"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Trussrig edits truss rigs and estimates rope loads",
		Long:         `Trussrig is an interactive editor for a rigging truss hung from ceiling anchors. It keeps attach and load points on the truss, routes ropes to anchors and distributes the load over the ropes.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.solveCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.diagramCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Session Setup
// =============================================================================

// sessionFlags are the flags shared by every command that opens an editor.
type sessionFlags struct {
	config  string
	mass    float64
	pose    string
	connect string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "config file (toml or yaml, default: XDG config dir)")
	cmd.Flags().Float64VarP(&f.mass, "mass", "m", config.DefaultMass, "payload mass in kg")
	cmd.Flags().StringVar(&f.pose, "pose", "", "truss pose mode: locked|free")
	cmd.Flags().StringVar(&f.connect, "connect", "", "rope routing: explicit|nearest")

	_ = cmd.RegisterFlagCompletionFunc("pose", cobra.FixedCompletions(
		[]string{truss.PoseLocked.String(), truss.PoseFree.String()}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("connect", cobra.FixedCompletions(
		[]string{connect.ModeExplicit.String(), connect.ModeNearest.String()}, cobra.ShellCompDirectiveNoFileComp))
}

// apply overrides cfg with the flags the user set.
func (f *sessionFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if f.pose != "" {
		cfg.Solver.PoseMode = f.pose
	}
	if f.connect != "" {
		cfg.Connect.Mode = f.connect
	}
	if cmd.Flags().Changed("mass") {
		cfg.Load.Mass = f.mass
	}
	return cfg.Validate()
}

// openEditor loads the configuration named by f and returns an editor on
// the default layout together with the path of the config file read.
func openEditor(ctx context.Context, cmd *cobra.Command, f *sessionFlags, logger *log.Logger) (*editor.Editor, string, error) {
	cfg, path, err := config.Load(f.config)
	if err != nil {
		return nil, "", err
	}
	if err := f.apply(cmd, cfg); err != nil {
		return nil, "", err
	}
	if path != "" {
		loggerFromContext(ctx).Debug("config loaded", "path", path)
	}
	ed, err := editor.New(cfg, editor.WithLogger(logger))
	if err != nil {
		return nil, "", err
	}
	return ed, path, nil
}
