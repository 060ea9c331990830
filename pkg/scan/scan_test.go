package scan

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTree creates files (value != "") and directories (value == "")
// under a fresh temp root.
func buildTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if content == "" {
			require.NoError(t, os.MkdirAll(path, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func relPaths(t *testing.T, root string, entries []Entry) []string {
	t.Helper()
	var out []string
	for _, e := range entries {
		rel, err := filepath.Rel(root, e.Path)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestWalkBasic(t *testing.T) {
	root := buildTree(t, map[string]string{
		"oldA/file_old.txt": "oldA value",
		"oldB":              "",
	})

	res, err := Walk(context.Background(), Options{Root: root})
	require.NoError(t, err)
	require.Empty(t, res.Errors)

	assert.Equal(t, []string{"oldA", "oldB", "oldA/file_old.txt"}, relPaths(t, root, res.Entries))

	byRel := map[string]Entry{}
	for _, e := range res.Entries {
		rel, _ := filepath.Rel(root, e.Path)
		byRel[filepath.ToSlash(rel)] = e
	}
	assert.Equal(t, KindDir, byRel["oldA"].Kind)
	assert.Equal(t, 1, byRel["oldA"].Depth)
	assert.Equal(t, KindFile, byRel["oldA/file_old.txt"].Kind)
	assert.Equal(t, 2, byRel["oldA/file_old.txt"].Depth)
}

func TestWalkDeterministic(t *testing.T) {
	root := buildTree(t, map[string]string{
		"b/x.txt": "x",
		"a/y.txt": "y",
		"c.txt":   "c",
	})

	first, err := Walk(context.Background(), Options{Root: root})
	require.NoError(t, err)
	second, err := Walk(context.Background(), Options{Root: root})
	require.NoError(t, err)

	assert.Equal(t, first.Entries, second.Entries)
}

func TestWalkHiddenEntries(t *testing.T) {
	root := buildTree(t, map[string]string{
		".git/config": "x",
		".secret":     "x",
		"normal.txt":  "x",
	})

	res, err := Walk(context.Background(), Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, []string{"normal.txt"}, relPaths(t, root, res.Entries))

	res, err = Walk(context.Background(), Options{Root: root, IncludeHidden: true})
	require.NoError(t, err)
	assert.Equal(t, []string{".git", ".secret", "normal.txt", ".git/config"}, relPaths(t, root, res.Entries))
}

func TestWalkMaxDepth(t *testing.T) {
	root := buildTree(t, map[string]string{
		"a/b/c/deep.txt": "x",
		"top.txt":        "x",
	})

	res, err := Walk(context.Background(), Options{Root: root, MaxDepth: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "top.txt"}, relPaths(t, root, res.Entries))

	res, err = Walk(context.Background(), Options{Root: root, MaxDepth: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "top.txt", "a/b"}, relPaths(t, root, res.Entries))
}

func TestWalkIncludeExclude(t *testing.T) {
	root := buildTree(t, map[string]string{
		"src/main.go":    "x",
		"src/main.txt":   "x",
		"vendor/lib.go":  "x",
		"docs/guide.txt": "x",
	})

	tests := []struct {
		name    string
		include []string
		exclude []string
		want    []string
	}{
		{
			name:    "include_only_go",
			include: []string{"*.go"},
			want:    []string{"src/main.go", "vendor/lib.go"},
		},
		{
			name:    "exclude_dir_prunes_subtree",
			exclude: []string{"vendor"},
			want:    []string{"docs", "src", "src/main.go", "src/main.txt", "docs/guide.txt"},
		},
		{
			name:    "exclude_wins_over_include",
			include: []string{"*.go"},
			exclude: []string{"vendor", "main.go"},
			want:    nil,
		},
		{
			name:    "path_glob",
			include: []string{"src/*"},
			want:    []string{"src/main.go", "src/main.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Walk(context.Background(), Options{
				Root:    root,
				Include: tt.include,
				Exclude: tt.exclude,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, relPaths(t, root, res.Entries))
		})
	}
}

func TestWalkSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}

	root := buildTree(t, map[string]string{
		"real/file.txt": "x",
	})
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")))

	// Not followed: the link is a leaf file entry.
	res, err := Walk(context.Background(), Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, []string{"link", "real", "real/file.txt"}, relPaths(t, root, res.Entries))
	for _, e := range res.Entries {
		if filepath.Base(e.Path) == "link" {
			assert.Equal(t, KindFile, e.Kind)
		}
	}

	// Followed: the link is a directory and its children are visited.
	res, err = Walk(context.Background(), Options{Root: root, FollowSymlinks: true})
	require.NoError(t, err)
	assert.Contains(t, relPaths(t, root, res.Entries), "link/file.txt")
}

func TestWalkSymlinkCycle(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}

	root := buildTree(t, map[string]string{
		"dir/file.txt": "x",
	})
	require.NoError(t, os.Symlink(root, filepath.Join(root, "dir", "loop")))

	// Must terminate even though dir/loop points back at the root.
	res, err := Walk(context.Background(), Options{Root: root, FollowSymlinks: true})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Entries)
}

func TestWalkUnreadableDirIsNonFatal(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}

	root := buildTree(t, map[string]string{
		"locked/hidden.txt": "x",
		"open/file.txt":     "x",
	})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	res, err := Walk(context.Background(), Options{Root: root})
	require.NoError(t, err)

	assert.Contains(t, relPaths(t, root, res.Entries), "open/file.txt")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, locked, res.Errors[0].Path)
}

func TestWalkRootMustBeDirectory(t *testing.T) {
	root := buildTree(t, map[string]string{"file.txt": "x"})

	_, err := Walk(context.Background(), Options{Root: filepath.Join(root, "file.txt")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")

	_, err = Walk(context.Background(), Options{Root: filepath.Join(root, "missing")})
	require.Error(t, err)
}
