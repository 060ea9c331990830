package trash

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/retree/pkg/binary"
)

// 🗑️ Store manages one .scrap folder rooted in a working directory.
type Store struct {
	workDir  string
	scrapDir string
}

// Item is one listed entry with filesystem details attached.
type Item struct {
	Name       string
	Size       int64
	IsDir      bool
	ScrappedAt time.Time
	Original   string // empty when the origin was never recorded
}

// NewStore creates a store for workDir. Nothing is created until the
// first operation needs the folder.
func NewStore(workDir string) *Store {
	return &Store{
		workDir:  workDir,
		scrapDir: filepath.Join(workDir, DirName),
	}
}

// Dir returns the scrap folder path.
func (s *Store) Dir() string {
	return s.scrapDir
}

// ensure creates the scrap folder and adds it to .gitignore when one
// exists in the working directory.
func (s *Store) ensure(ctx context.Context) error {
	if err := os.MkdirAll(s.scrapDir, 0o755); err != nil {
		return errors.Errorf("creating scrap directory: %w", err)
	}
	if err := s.updateGitignore(); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("could not update .gitignore")
	}
	return nil
}

// updateGitignore appends the scrap folder to an existing .gitignore,
// once. Repositories without one are left alone.
func (s *Store) updateGitignore() error {
	path := filepath.Join(s.workDir, ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	line := DirName + "/"
	for _, existing := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(existing) == line || strings.TrimSpace(existing) == DirName {
			return nil
		}
	}

	entry := line + "\n"
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		entry = "\n" + entry
	}
	return os.WriteFile(path, append(data, []byte(entry)...), 0o644)
}

// Scrap moves path into the scrap folder and records its origin. The
// stored name is uniquified with _N suffixes on collision.
func (s *Store) Scrap(ctx context.Context, path string) (string, error) {
	if err := s.ensure(ctx); err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Errorf("resolving path: %w", err)
	}
	if _, err := os.Lstat(absPath); err != nil {
		return "", errors.Errorf("scrap target: %w", err)
	}
	if strings.HasPrefix(absPath, s.scrapDir+string(os.PathSeparator)) || absPath == s.scrapDir {
		return "", errors.New("refusing to scrap the scrap folder itself")
	}

	name := s.uniqueName(filepath.Base(absPath))
	dest := filepath.Join(s.scrapDir, name)
	if err := os.Rename(absPath, dest); err != nil {
		return "", errors.Errorf("moving %s to scrap: %w", absPath, err)
	}

	meta, err := LoadMetadata(s.scrapDir)
	if err != nil {
		return "", err
	}
	meta.Add(name, absPath)
	if err := meta.Save(s.scrapDir); err != nil {
		return "", err
	}

	zerolog.Ctx(ctx).Debug().Str("path", absPath).Str("name", name).Msg("scrapped")
	return name, nil
}

func (s *Store) uniqueName(base string) string {
	name := base
	for i := 1; ; i++ {
		if _, err := os.Lstat(filepath.Join(s.scrapDir, name)); os.IsNotExist(err) {
			return name
		}
		name = base + "_" + strconv.Itoa(i)
	}
}

// SortKey selects the List ordering.
type SortKey string

const (
	SortByDate SortKey = "date"
	SortByName SortKey = "name"
	SortBySize SortKey = "size"
)

// List returns the folder contents, newest first by default.
func (s *Store) List(ctx context.Context, key SortKey) ([]Item, error) {
	dirents, err := os.ReadDir(s.scrapDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Errorf("reading scrap directory: %w", err)
	}

	meta, err := LoadMetadata(s.scrapDir)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, dirent := range dirents {
		if dirent.Name() == metadataFile {
			continue
		}
		info, err := dirent.Info()
		if err != nil {
			continue
		}
		item := Item{
			Name:       dirent.Name(),
			Size:       info.Size(),
			IsDir:      dirent.IsDir(),
			ScrappedAt: info.ModTime(),
		}
		if entry, ok := meta.Entries[dirent.Name()]; ok {
			item.ScrappedAt = entry.ScrappedAt
			item.Original = entry.OriginalPath
		}
		items = append(items, item)
	}

	switch key {
	case SortByName:
		sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	case SortBySize:
		sort.Slice(items, func(i, j int) bool { return items[i].Size > items[j].Size })
	default:
		sort.Slice(items, func(i, j int) bool { return items[i].ScrappedAt.After(items[j].ScrappedAt) })
	}
	return items, nil
}

// Clean removes entries older than maxAge and returns their names.
// With dryRun nothing is deleted.
func (s *Store) Clean(ctx context.Context, maxAge time.Duration, dryRun bool) ([]string, error) {
	items, err := s.List(ctx, SortByDate)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-maxAge)
	meta, err := LoadMetadata(s.scrapDir)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, item := range items {
		if item.ScrappedAt.After(cutoff) {
			continue
		}
		removed = append(removed, item.Name)
		if dryRun {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.scrapDir, item.Name)); err != nil {
			return removed, errors.Errorf("removing %s: %w", item.Name, err)
		}
		meta.Remove(item.Name)
	}

	if !dryRun && len(removed) > 0 {
		if err := meta.Save(s.scrapDir); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// Purge empties the folder entirely, metadata included.
func (s *Store) Purge(ctx context.Context) error {
	if err := os.RemoveAll(s.scrapDir); err != nil {
		return errors.Errorf("purging scrap directory: %w", err)
	}
	return nil
}

// Find returns names matching the regex pattern; with searchContent it
// also greps text file contents inside the folder.
func (s *Store) Find(ctx context.Context, pattern string, searchContent bool) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Errorf("compiling search pattern: %w", err)
	}

	var matches []string
	classifier := binary.NewClassifier()

	err = filepath.Walk(s.scrapDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if path == s.scrapDir || filepath.Base(path) == metadataFile {
			return nil
		}

		rel, relErr := filepath.Rel(s.scrapDir, path)
		if relErr != nil {
			return nil
		}

		if re.MatchString(filepath.Base(path)) {
			matches = append(matches, rel)
			return nil
		}

		if searchContent && !info.IsDir() {
			if isText, cerr := classifier.IsText(path); cerr == nil && isText {
				if data, rerr := os.ReadFile(path); rerr == nil && re.Match(data) {
					matches = append(matches, rel)
				}
			}
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Errorf("searching scrap directory: %w", err)
	}

	sort.Strings(matches)
	return matches, nil
}

// Restore moves a named entry back to its recorded origin, or into
// destDir when given. Existing targets are refused unless force is set.
func (s *Store) Restore(ctx context.Context, name, destDir string, force bool) (string, error) {
	src := filepath.Join(s.scrapDir, name)
	if _, err := os.Lstat(src); err != nil {
		return "", errors.Errorf("scrap entry %q: %w", name, err)
	}

	meta, err := LoadMetadata(s.scrapDir)
	if err != nil {
		return "", err
	}

	var target string
	switch {
	case destDir != "":
		target = filepath.Join(destDir, name)
	default:
		if entry, ok := meta.Entries[name]; ok {
			target = entry.OriginalPath
		} else {
			// No recorded origin: fall back to the working directory.
			target = filepath.Join(s.workDir, name)
		}
	}

	if _, err := os.Lstat(target); err == nil && !force {
		return "", errors.Errorf("restore target %q already exists", target)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", errors.Errorf("creating restore parent: %w", err)
	}
	if err := os.Rename(src, target); err != nil {
		return "", errors.Errorf("restoring %s: %w", name, err)
	}

	meta.Remove(name)
	if err := meta.Save(s.scrapDir); err != nil {
		return "", err
	}

	zerolog.Ctx(ctx).Debug().Str("name", name).Str("target", target).Msg("restored")
	return target, nil
}

// RestoreLatest restores the most recently scrapped entry.
func (s *Store) RestoreLatest(ctx context.Context, force bool) (string, error) {
	meta, err := LoadMetadata(s.scrapDir)
	if err != nil {
		return "", err
	}
	entry, ok := meta.Latest()
	if !ok {
		return "", errors.New("nothing to restore")
	}
	return s.Restore(ctx, entry.Name, "", force)
}
