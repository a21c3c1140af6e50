package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trussrig/pkg/cache"
	"github.com/matzehuels/trussrig/pkg/editor"
	"github.com/matzehuels/trussrig/pkg/render"
	"github.com/matzehuels/trussrig/pkg/render/diagram"
)

const (
	defaultBase     = "rig" // output base name when -o is not given
	defaultPNGScale = 2.0   // PNG resolution multiplier
)

// diagramOpts holds the command-line flags for the diagram command.
type diagramOpts struct {
	session  sessionFlags
	output   string   // output file path (or base path for multiple outputs)
	formats  []string // output formats: "svg", "dot", "pdf", "png", "json"
	detailed bool     // show coordinates in node labels
	noCache  bool     // render without reading or writing the cache
}

// diagramCommand creates the diagram command for rendering the rig.
func (c *CLI) diagramCommand() *cobra.Command {
	var formatsStr string
	opts := diagramOpts{}

	cmd := &cobra.Command{
		Use:   "diagram",
		Short: "Render the rig as a diagram",
		Long: `Diagram recomputes the default layout and draws anchors, attach points
and load points as a Graphviz graph. Rope edges are colored by severity and
labeled with tension and angle.

Use -o - to write a single format to standard output.`,
		Example: `  # SVG diagram next to the current directory
  trussrig diagram

  # DOT source and PNG, with coordinates
  trussrig diagram -f dot,png --detailed -o out/rig`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return runDiagram(cmd, &opts)
		},
	}

	opts.session.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, pdf, png, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show coordinates and chords in labels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the rendered diagram cache")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{"svg", "dot", "pdf", "png", "json"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{"svg"}
	}
	return strings.Split(s, ",")
}

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{"svg": true, "dot": true, "pdf": true, "png": true, "json": true}

// validateFormats checks that all requested formats are valid.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg', 'dot', 'pdf', 'png', or 'json')", f)
		}
	}
	return nil
}

// basePath derives the base output path. A known format extension on
// output is stripped; an empty output uses the default base name.
func basePath(output string) string {
	if output == "" {
		return defaultBase
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath returns the file for format. A single format written to an
// explicit path keeps that path as given.
func outputPath(opts *diagramOpts, format string) string {
	if len(opts.formats) == 1 && opts.output != "" {
		return opts.output
	}
	return basePath(opts.output) + "." + format
}

func runDiagram(cmd *cobra.Command, opts *diagramOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	if opts.output == "-" && len(opts.formats) > 1 {
		return fmt.Errorf("cannot write %d formats to stdout", len(opts.formats))
	}

	ed, _, err := openEditor(ctx, cmd, &opts.session, logger)
	if err != nil {
		return err
	}
	snap := ed.Recompute()
	logRecompute(logger, snap)

	store, err := newCache(opts.noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, format := range opts.formats {
		prog := newProgress(logger)
		path := outputPath(opts, format)
		var sp *spinner
		if path != "-" {
			sp = newSpinner(ctx, os.Stderr, "Rendering "+format)
			sp.Start()
		}
		data, err := renderDiagram(ctx, store, snap, format, opts.detailed)
		if err != nil {
			if sp != nil {
				sp.StopWithError("Rendering " + format + " failed")
			}
			return fmt.Errorf("%s: %w", format, err)
		}
		if sp != nil {
			sp.Stop()
		}
		logger.Debugf("Generated %s: %d bytes", format, len(data))

		if err := writeOutput(cmd.OutOrStdout(), path, data); err != nil {
			return err
		}
		if path != "-" {
			prog.done("Generated %s", path)
		}
	}
	return nil
}

// renderDiagram produces the bytes of one output format. Rendered SVG, PDF
// and PNG output is served from store when the DOT source is unchanged.
func renderDiagram(ctx context.Context, store cache.Cache, snap *editor.Snapshot, format string, detailed bool) ([]byte, error) {
	if format == "json" {
		data, err := json.MarshalIndent(newReport(snap), "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}

	dot := diagram.ToDOT(snap, diagram.Options{Detailed: detailed})
	if format == "dot" {
		return []byte(dot), nil
	}

	logger := loggerFromContext(ctx)
	key := cache.ArtifactKey(dot, format)
	if data, ok, err := store.Get(ctx, key); err != nil {
		logger.Warn("cache read failed", "err", err)
	} else if ok {
		logger.Debug("cache hit", "format", format)
		return data, nil
	}

	data, err := renderArtifact(ctx, dot, format)
	if err != nil {
		return nil, err
	}
	if err := store.Set(ctx, key, data, artifactTTL); err != nil {
		logger.Warn("cache write failed", "err", err)
	}
	return data, nil
}

func renderArtifact(ctx context.Context, dot, format string) ([]byte, error) {
	svg, err := diagram.RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	switch format {
	case "pdf":
		return render.ToPDF(ctx, svg)
	case "png":
		return render.ToPNG(ctx, svg, defaultPNGScale)
	}
	return svg, nil
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
