// Package cli implements the trussrig command line.
//
// Every command starts from the default rig layout, applies the config file
// and the session flags (--mass, --pose, --connect), and recomputes once
// before producing output.
//
// # Commands
//
//   - solve: print rope angles, tensions and severities, or a JSON snapshot
//   - edit: terminal editor that recomputes on every key
//   - diagram: Graphviz diagram as SVG, PDF, PNG, DOT or JSON
//   - config: write, locate and print the config file
//   - cache: clear or locate the rendered diagram cache
//
// # Logging
//
// Logs go to stderr through charmbracelet/log; --verbose (-v) enables the
// debug level, which adds a summary line per recompute. The logger travels
// in the command context.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/trussrig/pkg/editor"
)

// logTimeFormat renders timestamps as "HH:MM:SS.cs", e.g. "14:32:01.45".
const logTimeFormat = "15:04:05.00"

// newLogger creates the CLI logger. Messages below level are dropped.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           level,
	})
}

// progress times one command step, such as a solve or a rendered file.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs the formatted message with the elapsed time rounded to the
// millisecond: "Solved 4 ropes (3ms)".
func (p *progress) done(format string, args ...any) {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	p.logger.Infof("%s (%s)", fmt.Sprintf(format, args...), elapsed)
}

// logRecompute logs the outcome of a recompute at debug level.
func logRecompute(l *log.Logger, snap *editor.Snapshot) {
	l.Debug("recomputed",
		"ropes", len(snap.Ropes),
		"status", snap.Status,
		"load", fmt.Sprintf("%.1fN", snap.TotalLoad),
		"warnings", len(snap.Warnings))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx for the command's run.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the command logger, or log.Default() outside a
// command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
