// Package diffline computes line-oriented diffs between two files and
// renders them for terminal display.
package diffline

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"gitlab.com/tozd/go/errors"
)

// Op is the kind of one diff line.
type Op int

const (
	OpEqual Op = iota
	OpInsert
	OpDelete
)

// Line is one line of the diff, without its trailing newline.
type Line struct {
	Op   Op
	Text string
}

// Result holds the diff of two inputs.
type Result struct {
	Lines []Line
}

// HasChanges reports whether the inputs differ.
func (r *Result) HasChanges() bool {
	for _, l := range r.Lines {
		if l.Op != OpEqual {
			return true
		}
	}
	return false
}

// Compare diffs two strings line by line.
func Compare(before, after string) *Result {
	dmp := diffmatchpatch.New()

	// Line-mode diff: map lines to runes, diff the runes, map back.
	chars1, chars2, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	res := &Result{}
	for _, d := range diffs {
		op := OpEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		}
		for _, line := range splitLines(d.Text) {
			res.Lines = append(res.Lines, Line{Op: op, Text: line})
		}
	}
	return res
}

// CompareFiles diffs two files on disk.
func CompareFiles(pathA, pathB string) (*Result, error) {
	a, err := os.ReadFile(pathA)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", pathA, err)
	}
	b, err := os.ReadFile(pathB)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", pathB, err)
	}
	return Compare(string(a), string(b)), nil
}

// Render formats the diff with a +/- gutter, colorized when the
// terminal supports it.
func (r *Result) Render() string {
	var (
		sb  strings.Builder
		red = color.New(color.FgRed)
		grn = color.New(color.FgGreen)
	)
	for _, l := range r.Lines {
		switch l.Op {
		case OpInsert:
			sb.WriteString(grn.Sprintf("+ %s", l.Text))
		case OpDelete:
			sb.WriteString(red.Sprintf("- %s", l.Text))
		default:
			sb.WriteString("  " + l.Text)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
