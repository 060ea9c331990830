// Package binary decides whether a file is safe for textual
// substitution. Detection samples a bounded prefix of the file so large
// binaries are never read whole.
package binary

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

const (
	// DefaultSampleSize is how many leading bytes are inspected.
	DefaultSampleSize = 8192

	// nonPrintableThreshold is the ratio of non-printable bytes above
	// which a file is classified binary.
	nonPrintableThreshold = 0.3
)

// Classifier inspects file content to decide if it is text.
type Classifier struct {
	sampleSize int
}

// NewClassifier creates a classifier with the default sample size.
func NewClassifier() *Classifier {
	return &Classifier{sampleSize: DefaultSampleSize}
}

// NewClassifierWithSampleSize creates a classifier reading at most n bytes.
func NewClassifierWithSampleSize(n int) *Classifier {
	if n <= 0 {
		n = DefaultSampleSize
	}
	return &Classifier{sampleSize: n}
}

// IsBinary reports whether the file at path should be treated as
// binary. The error is non-nil only when the file could not be read;
// callers treat that case as binary as well.
func (c *Classifier) IsBinary(path string) (bool, error) {
	if isBinaryExtension(path) {
		return true, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return true, errors.Errorf("opening file for classification: %w", err)
	}
	defer f.Close()

	buf := make([]byte, c.sampleSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return true, errors.Errorf("sampling file for classification: %w", err)
	}
	return isBinaryContent(buf[:n]), nil
}

// IsText is the inverse of IsBinary.
func (c *Classifier) IsText(path string) (bool, error) {
	bin, err := c.IsBinary(path)
	return !bin, err
}

// isBinaryContent applies the heuristic to a sampled prefix: a NUL byte
// is a hard binary signal, otherwise too many non-printable bytes tip
// the decision. Empty files are text.
func isBinaryContent(sample []byte) bool {
	if len(sample) == 0 {
		return false
	}

	nonPrintable := 0
	for _, b := range sample {
		if b == 0 {
			return true
		}
		if !isPrintable(b) && !isUTF8Start(b) {
			nonPrintable++
		}
	}

	ratio := float64(nonPrintable) / float64(len(sample))
	return ratio > nonPrintableThreshold
}

// isPrintable reports printable ASCII plus tab, newline and carriage return.
func isPrintable(b byte) bool {
	return (b >= 0x20 && b <= 0x7E) || b == '\t' || b == '\n' || b == '\r'
}

// isUTF8Start reports whether b can begin a UTF-8 sequence.
func isUTF8Start(b byte) bool {
	return b < 0x80 || (b >= 0xC0 && b < 0xF8)
}

func isBinaryExtension(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	_, ok := binaryExtensions[ext]
	return ok
}

// binaryExtensions short-circuits classification for well-known binary
// formats without touching the file.
var binaryExtensions = map[string]struct{}{
	// executables and libraries
	"exe": {}, "dll": {}, "so": {}, "dylib": {}, "app": {}, "deb": {}, "rpm": {}, "msi": {}, "dmg": {},
	// archives
	"zip": {}, "tar": {}, "gz": {}, "bz2": {}, "xz": {}, "7z": {}, "rar": {}, "cab": {},
	// images
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "bmp": {}, "tiff": {}, "tif": {}, "webp": {}, "ico": {}, "cur": {},
	// video
	"mp4": {}, "avi": {}, "mkv": {}, "mov": {}, "wmv": {}, "flv": {}, "webm": {}, "m4v": {}, "3gp": {},
	// audio
	"mp3": {}, "wav": {}, "flac": {}, "aac": {}, "ogg": {}, "m4a": {}, "wma": {},
	// documents
	"pdf": {}, "doc": {}, "docx": {}, "xls": {}, "xlsx": {}, "ppt": {}, "pptx": {}, "odt": {}, "ods": {}, "odp": {},
	// databases
	"db": {}, "sqlite": {}, "sqlite3": {}, "mdb": {}, "accdb": {},
	// object files
	"o": {}, "obj": {}, "lib": {}, "a": {}, "pdb": {},
	// jvm
	"class": {}, "jar": {}, "war": {}, "ear": {},
	// misc
	"bin": {}, "dat": {}, "pak": {}, "wad": {}, "iso": {}, "img": {}, "vdi": {}, "vmdk": {}, "qcow2": {},
}
