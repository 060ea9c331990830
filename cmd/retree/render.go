package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/walteh/retree/pkg/execute"
	"github.com/walteh/retree/pkg/log"
	"github.com/walteh/retree/pkg/plan"
	"github.com/walteh/retree/pkg/scan"
)

// renderer formats the plan preview and the final report.
type renderer interface {
	Plan(root string, p *plan.Plan, dryRun bool)
	Report(r *execute.Report)
}

func newRenderer(format string, w io.Writer, zlog zerolog.Logger) renderer {
	switch format {
	case "json":
		return &jsonRenderer{w: w}
	case "plain":
		return &plainRenderer{w: w}
	default:
		return &humanRenderer{display: log.New(w, zlog)}
	}
}

// humanRenderer prints a colorized, grouped preview through the
// console display.
type humanRenderer struct {
	display *log.Display
}

func (h *humanRenderer) Plan(root string, p *plan.Plan, dryRun bool) {
	for _, op := range p.RenameOps {
		from, _ := filepath.Rel(root, op.FromPath)
		to, _ := filepath.Rel(root, op.ToPath)
		h.display.LogRename(log.RenameOperation{From: from, To: to, IsDir: op.Kind == scan.KindDir})
	}
	for _, op := range p.ContentOps {
		rel, _ := filepath.Rel(root, op.Path)
		h.display.LogEdit(log.EditOperation{Path: rel, Occurrences: op.Occurrences})
	}
	for _, ae := range p.AccessErrors {
		h.display.LogSkip(ae.Path, ae.Err)
	}
	for _, c := range p.Collisions {
		h.display.LogCollision(c.Describe())
	}

	switch {
	case len(p.Collisions) > 0:
		h.display.Newline()
		h.display.Error("refusing to continue: resolve the collisions above first")
	case !p.HasChanges():
		h.display.Success("nothing to do")
	case dryRun:
		h.display.Newline()
		h.display.Success(fmt.Sprintf("dry run: %d renames, %d files to edit", len(p.RenameOps), len(p.ContentOps)))
	default:
		h.display.Newline()
		h.display.Success(fmt.Sprintf("planned: %d renames, %d files to edit", len(p.RenameOps), len(p.ContentOps)))
	}
}

func (h *humanRenderer) Report(r *execute.Report) {
	h.display.Summary(r.ContentModified, r.FilesRenamed, r.DirsRenamed)
	for _, opErr := range r.Errors {
		h.display.Error(opErr.Error())
	}
}

// jsonRenderer emits one JSON document per phase, for scripting.
type jsonRenderer struct {
	w io.Writer
}

type jsonPlan struct {
	Root       string            `json:"root"`
	DryRun     bool              `json:"dry_run"`
	Renames    []jsonRename      `json:"renames"`
	Edits      []jsonEdit        `json:"edits"`
	Collisions []jsonCollision   `json:"collisions,omitempty"`
	Skipped    []jsonAccessError `json:"skipped,omitempty"`
}

type jsonRename struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

type jsonEdit struct {
	Path        string `json:"path"`
	Occurrences int    `json:"occurrences"`
}

type jsonCollision struct {
	Kind   string   `json:"kind"`
	Target string   `json:"target"`
	Paths  []string `json:"paths"`
}

type jsonAccessError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

func (j *jsonRenderer) Plan(root string, p *plan.Plan, dryRun bool) {
	doc := jsonPlan{
		Root:    root,
		DryRun:  dryRun,
		Renames: []jsonRename{},
		Edits:   []jsonEdit{},
	}
	for _, op := range p.RenameOps {
		doc.Renames = append(doc.Renames, jsonRename{From: op.FromPath, To: op.ToPath, Kind: op.Kind.String()})
	}
	for _, op := range p.ContentOps {
		doc.Edits = append(doc.Edits, jsonEdit{Path: op.Path, Occurrences: op.Occurrences})
	}
	for _, c := range p.Collisions {
		doc.Collisions = append(doc.Collisions, jsonCollision{Kind: c.Kind.String(), Target: c.Target, Paths: c.Paths})
	}
	for _, ae := range p.AccessErrors {
		doc.Skipped = append(doc.Skipped, jsonAccessError{Path: ae.Path, Error: ae.Err.Error()})
	}

	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(doc)
}

type jsonReport struct {
	ContentModified int      `json:"content_modified"`
	FilesRenamed    int      `json:"files_renamed"`
	DirsRenamed     int      `json:"dirs_renamed"`
	Errors          []string `json:"errors,omitempty"`
}

func (j *jsonRenderer) Report(r *execute.Report) {
	doc := jsonReport{
		ContentModified: r.ContentModified,
		FilesRenamed:    r.FilesRenamed,
		DirsRenamed:     r.DirsRenamed,
	}
	for _, opErr := range r.Errors {
		doc.Errors = append(doc.Errors, opErr.Error())
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(doc)
}

// plainRenderer emits tab-separated lines, one operation per line.
type plainRenderer struct {
	w io.Writer
}

func (p *plainRenderer) Plan(root string, pl *plan.Plan, dryRun bool) {
	for _, op := range pl.RenameOps {
		fmt.Fprintf(p.w, "rename\t%s\t%s\n", op.FromPath, op.ToPath)
	}
	for _, op := range pl.ContentOps {
		fmt.Fprintf(p.w, "edit\t%s\t%d\n", op.Path, op.Occurrences)
	}
	for _, c := range pl.Collisions {
		fmt.Fprintf(p.w, "collision\t%s\t%s\n", c.Kind, c.Target)
	}
	for _, ae := range pl.AccessErrors {
		fmt.Fprintf(p.w, "skipped\t%s\t%s\n", ae.Path, ae.Err)
	}
}

func (p *plainRenderer) Report(r *execute.Report) {
	fmt.Fprintf(p.w, "edited\t%d\nrenamed-files\t%d\nrenamed-dirs\t%d\n",
		r.ContentModified, r.FilesRenamed, r.DirsRenamed)
	for _, opErr := range r.Errors {
		fmt.Fprintf(p.w, "error\t%s\t%s\n", opErr.Path, opErr.Err)
	}
}
