// Package config loads the optional .retree defaults file. Flags always
// win over file values; the file only provides per-project defaults the
// operator is tired of retyping.
package config

import (
	"os"

	"gitlab.com/tozd/go/errors"
)

// DefaultFileNames are probed, in order, in the root directory when no
// explicit --config path is given.
var DefaultFileNames = []string{".retree.yaml", ".retree.yml", ".retree.json", ".retree.hcl"}

// 🔧 Config is the schema of the defaults file. Every field is
// optional; the zero value means "not set" and leaves the flag default
// in charge.
type Config struct {
	Exclude       []string `yaml:"exclude" json:"exclude"`
	Include       []string `yaml:"include" json:"include"`
	Threads       int      `yaml:"threads" json:"threads"`
	MaxDepth      int      `yaml:"max_depth" json:"max_depth"`
	Backup        bool     `yaml:"backup" json:"backup"`
	IncludeHidden bool     `yaml:"include_hidden" json:"include_hidden"`
	Progress      string   `yaml:"progress" json:"progress"` // auto, never, always
}

// Validate rejects values that would misconfigure a run.
func (c *Config) Validate() error {
	switch c.Progress {
	case "", "auto", "never", "always":
	default:
		return errors.Errorf("progress must be auto, never or always, got %q", c.Progress)
	}
	if c.Threads < 0 {
		return errors.Errorf("threads must not be negative, got %d", c.Threads)
	}
	if c.MaxDepth < 0 {
		return errors.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	return nil
}

// Discover returns the first defaults file present in dir, or "" when
// there is none.
func Discover(dir string) string {
	for _, name := range DefaultFileNames {
		path := dir + string(os.PathSeparator) + name
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
