// Package verbump derives a version number from git history: the
// newest tag gives the major part, commits since that tag the minor,
// and cumulative line churn the patch. The result is written to a
// version file and staged, typically from a pre-commit hook.
package verbump

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// ConfigFileName sits at the git root.
const ConfigFileName = ".verbump.yaml"

// Config controls whether and where the version is written.
type Config struct {
	Version     int    `yaml:"version"`
	Enabled     bool   `yaml:"enabled"`
	VersionFile string `yaml:"version_file"`
}

// DefaultConfig is used when no config file exists.
func DefaultConfig() Config {
	return Config{Version: 1, Enabled: true, VersionFile: "version.txt"}
}

// LoadConfig reads the config from repoRoot, falling back to defaults.
func LoadConfig(repoRoot string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(repoRoot, ConfigFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, errors.Errorf("reading verbump config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Errorf("parsing verbump config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to repoRoot.
func (c Config) Save(repoRoot string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Errorf("serializing verbump config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(repoRoot, ConfigFileName), data, 0o644); err != nil {
		return errors.Errorf("writing verbump config: %w", err)
	}
	return nil
}

// Info is one calculated version.
type Info struct {
	Major string // tag, e.g. "v2" or "v0" when untagged
	Minor int    // commits since the tag
	Patch int    // total additions+deletions across history
	Full  string // "2.14.1234"
}

// GitRunner executes a git subcommand in dir and returns stdout.
// Injected so version calculation is testable without a repository.
type GitRunner func(ctx context.Context, dir string, args ...string) (string, error)

// ExecGit is the default runner, shelling out to the git binary.
func ExecGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", errors.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// 🧮 Calculator derives versions for one repository.
type Calculator struct {
	dir string
	run GitRunner
}

// NewCalculator creates a calculator for the repository at dir.
func NewCalculator(dir string) *Calculator {
	return &Calculator{dir: dir, run: ExecGit}
}

// WithRunner overrides the git runner.
func (c *Calculator) WithRunner(run GitRunner) *Calculator {
	c.run = run
	return c
}

// IsRepository reports whether dir is inside a git worktree.
func (c *Calculator) IsRepository(ctx context.Context) bool {
	_, err := c.run(ctx, c.dir, "rev-parse", "--git-dir")
	return err == nil
}

// Root returns the repository toplevel.
func (c *Calculator) Root(ctx context.Context) (string, error) {
	out, err := c.run(ctx, c.dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", errors.Errorf("not in a git repository: %w", err)
	}
	return out, nil
}

// Calculate derives the current version.
func (c *Calculator) Calculate(ctx context.Context) (Info, error) {
	major := c.tagVersion(ctx)

	minor, err := c.commitsSince(ctx, major)
	if err != nil {
		return Info{}, err
	}

	patch, err := c.totalChanges(ctx)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Major: major,
		Minor: minor,
		Patch: patch,
		Full:  strings.TrimPrefix(major, "v") + "." + strconv.Itoa(minor) + "." + strconv.Itoa(patch),
	}
	return info, nil
}

// tagVersion returns the newest reachable tag, defaulting to v0 for
// untagged repositories.
func (c *Calculator) tagVersion(ctx context.Context) string {
	out, err := c.run(ctx, c.dir, "describe", "--tags", "--abbrev=0")
	if err != nil || out == "" {
		return "v0"
	}
	return out
}

func (c *Calculator) commitsSince(ctx context.Context, tag string) (int, error) {
	args := []string{"rev-list", "--count", "HEAD"}
	if tag != "v0" {
		args = []string{"rev-list", "--count", tag + "..HEAD"}
	}

	out, err := c.run(ctx, c.dir, args...)
	if err != nil {
		return 0, nil // empty repository counts as zero commits
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, errors.Errorf("parsing commit count %q: %w", out, err)
	}
	return n, nil
}

// totalChanges sums additions and deletions over the whole history.
func (c *Calculator) totalChanges(ctx context.Context) (int, error) {
	out, err := c.run(ctx, c.dir, "log", "--pretty=tformat:", "--numstat")
	if err != nil {
		return 0, nil
	}

	total := 0
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		// Binary files show "-" for both columns; skip them.
		added, err1 := strconv.Atoi(fields[0])
		deleted, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			continue
		}
		total += added + deleted
	}
	return total, nil
}

// WriteVersionFile writes the version and stages the file so the value
// rides along with the commit that triggered the bump.
func (c *Calculator) WriteVersionFile(ctx context.Context, info Info, cfg Config) error {
	path := cfg.VersionFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.dir, path)
	}

	if err := os.WriteFile(path, []byte(info.Full+"\n"), 0o644); err != nil {
		return errors.Errorf("writing version file: %w", err)
	}

	if _, err := c.run(ctx, c.dir, "add", path); err != nil {
		return errors.Errorf("staging version file: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("version", info.Full).Str("file", path).Msg("version written")
	return nil
}

// InstallHook writes a pre-commit hook invoking verbump.
func (c *Calculator) InstallHook(ctx context.Context) error {
	root, err := c.Root(ctx)
	if err != nil {
		return err
	}

	hookDir := filepath.Join(root, ".git", "hooks")
	if err := os.MkdirAll(hookDir, 0o755); err != nil {
		return errors.Errorf("creating hooks directory: %w", err)
	}

	hook := "#!/bin/sh\n# installed by retree verbump\nretree verbump || true\n"
	hookPath := filepath.Join(hookDir, "pre-commit")
	if err := os.WriteFile(hookPath, []byte(hook), 0o755); err != nil {
		return errors.Errorf("writing pre-commit hook: %w", err)
	}
	return nil
}
