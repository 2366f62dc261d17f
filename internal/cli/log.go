// Package cli implements the artboard command-line interface.
//
// The commands browse the wrap-around board in the terminal, host it behind
// an HTTP API, precompute layouts and manage the content stores. The CLI is
// built using cobra; logs go through charmbracelet/log.
//
// # Commands
//
//   - view: Interactive terminal viewer (bubbletea)
//   - serve: Headless engine behind an HTTP API
//   - layout: Lay out the content once and write the world as JSON
//   - fetch: Fetch and summarise the content of a source
//   - seed: Load items into SQLite or MongoDB
//   - config: Show or create the configuration file
//   - cache: Manage the response and layout cache
//
// # Logging
//
// --verbose (-v) switches every command to debug level. The root logger
// travels in the command context and each subsystem (engine, http, the
// source kind) logs under its own prefix. The view command owns the
// terminal, so it logs only to the file named by --log-file.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger stamping each line with "15:04:05.00".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// openLogFile appends to path and returns a logger writing there. The
// returned closer releases the file.
func openLogFile(path string, level log.Level) (*log.Logger, io.Closer, error) {
	f, err := os.OpenFile(expandHome(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return newLogger(f, level), f, nil
}

// progress times one phase of a command, such as a fetch or a layout.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time as a "took" field, e.g.
// `INFO Fetched 2400 items took=1.234s`.
func (p *progress) done(msg string, keyvals ...any) {
	took := time.Since(p.start).Round(time.Millisecond)
	p.logger.Info(msg, append(keyvals, "took", took)...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the command logger, or log.Default when the
// context carries none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// component returns the command logger prefixed with name.
func component(ctx context.Context, name string) *log.Logger {
	return loggerFromContext(ctx).WithPrefix(name)
}
