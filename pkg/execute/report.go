package execute

import (
	"io/fs"
	"sync"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/retree/pkg/scan"
)

// Op labels which phase an operation error came from.
type Op string

const (
	OpContent Op = "content"
	OpRename  Op = "rename"
)

// OperationError is one failed operation. The run keeps going; the
// caller decides what the accumulated failures mean.
type OperationError struct {
	Path string
	Op   Op
	Err  error
}

func (e OperationError) Error() string {
	return string(e.Op) + " " + e.Path + ": " + e.Err.Error()
}

func (e OperationError) Unwrap() error {
	return e.Err
}

// 📊 Report accumulates counters and errors across both phases. It is
// the only structure shared between workers; every mutation goes
// through the mutex.
type Report struct {
	mu sync.Mutex

	ContentModified int
	FilesRenamed    int
	DirsRenamed     int
	Errors          []OperationError
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{}
}

func (r *Report) incContent() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ContentModified++
}

func (r *Report) incRename(kind scan.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kind == scan.KindDir {
		r.DirsRenamed++
	} else {
		r.FilesRenamed++
	}
}

func (r *Report) addError(err OperationError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, err)
}

func (r *Report) done() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ContentModified + r.FilesRenamed + r.DirsRenamed + len(r.Errors)
}

// TotalChanges is the number of successful mutations.
func (r *Report) TotalChanges() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ContentModified + r.FilesRenamed + r.DirsRenamed
}

// HasErrors reports whether any operation failed.
func (r *Report) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Errors) > 0
}

// PermissionDenied reports whether any recorded failure was a
// permission error, which maps to its own exit code.
func (r *Report) PermissionDenied() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, opErr := range r.Errors {
		if errors.Is(opErr.Err, fs.ErrPermission) {
			return true
		}
	}
	return false
}
