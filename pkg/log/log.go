// Package log renders plan operations and run results on the console,
// mirroring everything into structured zerolog events so the same run
// can be read by humans and by log collectors.
package log

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	opIndent  = 2  // spaces to indent operation entries
	nameWidth = 40 // base width for paths
)

// 🔀 RenameOperation is one rename shown on the console.
type RenameOperation struct {
	From  string // path before, relative to the root
	To    string // path after
	IsDir bool
}

// ✏️ EditOperation is one content edit shown on the console.
type EditOperation struct {
	Path        string
	Occurrences int
}

// 🖥️ Display writes aligned, colorized operation lines to the console.
type Display struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a display writing human output to console.
func New(console io.Writer, zlog zerolog.Logger) *Display {
	return &Display{
		zlog:    zlog,
		console: console,
	}
}

// 📝 formatRename formats one rename for display.
func (d *Display) formatRename(op RenameOperation) string {
	symbol := '→'
	symbolColor := color.FgCyan
	if op.IsDir {
		symbolColor = color.FgMagenta
	}
	return fmt.Sprintf("%*s%s %-*s %s",
		opIndent, "",
		color.New(symbolColor).Sprint(string(symbol)),
		nameWidth, op.From,
		op.To)
}

// 📝 LogRename logs one rename operation.
func (d *Display) LogRename(op RenameOperation) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintln(d.console, d.formatRename(op))

	d.zlog.Info().
		Str("from", op.From).
		Str("to", op.To).
		Bool("is_dir", op.IsDir).
		Msg("rename planned")
}

// 📝 LogEdit logs one content edit.
func (d *Display) LogEdit(op EditOperation) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintf(d.console, "%*s%s %-*s %s\n",
		opIndent, "",
		color.New(color.FgYellow).Sprint("~"),
		nameWidth, op.Path,
		color.New(color.Faint).Sprintf("(%d occurrences)", op.Occurrences))

	d.zlog.Info().
		Str("file", op.Path).
		Int("occurrences", op.Occurrences).
		Msg("content edit planned")
}

// 📝 LogSkip logs an entry that could not be read.
func (d *Display) LogSkip(path string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintf(d.console, "%*s%s %s: %v\n",
		opIndent, "",
		color.New(color.FgYellow).Sprint("!"),
		path, err)

	d.zlog.Warn().Str("path", path).Err(err).Msg("entry skipped")
}

// 📝 LogCollision logs one naming collision.
func (d *Display) LogCollision(description string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintf(d.console, "%s %s\n",
		color.New(color.FgRed, color.Bold).Sprint("collision:"),
		description)

	d.zlog.Error().Str("collision", description).Msg("naming collision")
}

// 📝 Header logs a run header.
func (d *Display) Header(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	name := color.New(color.Bold, color.FgCyan).Sprint("retree")
	fmt.Fprintf(d.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	d.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message.
func (d *Display) Success(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintf(d.console, "%s %s\n", color.New(color.FgGreen).Sprint("✔"), msg)
	d.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message.
func (d *Display) Warning(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintf(d.console, "%s %s\n", color.New(color.FgYellow).Sprint("⚠"), msg)
	d.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message.
func (d *Display) Error(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintf(d.console, "%s %s\n", color.New(color.FgRed).Sprint("✘"), msg)
	d.zlog.Error().Msg(msg)
}

// 📝 Summary logs the final counts of an applied run.
func (d *Display) Summary(edited, filesRenamed, dirsRenamed int) {
	d.Success(fmt.Sprintf("%d files edited, %d files renamed, %d directories renamed",
		edited, filesRenamed, dirsRenamed))
}

// 📝 Newline prints a blank separator line.
func (d *Display) Newline() {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.console)
}
