package plan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/retree/pkg/binary"
	"github.com/walteh/retree/pkg/match"
	"github.com/walteh/retree/pkg/scan"
)

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

func literal(t *testing.T, old, new string) match.Matcher {
	t.Helper()
	m, err := match.New(match.Options{Pattern: old, Replacement: new, Kind: match.KindLiteral, CaseSensitive: true})
	require.NoError(t, err)
	return m
}

func buildPlan(t *testing.T, root string, m match.Matcher, mode Mode) *Plan {
	t.Helper()
	scanned, err := scan.Walk(context.Background(), scan.Options{Root: root})
	require.NoError(t, err)
	return NewBuilder(m, binary.NewClassifier(), mode).Build(context.Background(), scanned)
}

func rel(t *testing.T, root, path string) string {
	t.Helper()
	r, err := filepath.Rel(root, path)
	require.NoError(t, err)
	return filepath.ToSlash(r)
}

func TestBuildFullMode(t *testing.T) {
	root := buildTree(t, map[string]string{
		"oldA/file_old.txt": "oldA value",
		"oldB":              "",
	})

	p := buildPlan(t, root, literal(t, "old", "new"), ModeFull)
	require.Empty(t, p.Collisions)
	require.Empty(t, p.AccessErrors)

	renames := map[string]string{}
	for _, op := range p.RenameOps {
		renames[rel(t, root, op.FromPath)] = rel(t, root, op.ToPath)
	}
	assert.Equal(t, map[string]string{
		"oldA":              "newA",
		"oldB":              "newB",
		"oldA/file_old.txt": "oldA/file_new.txt",
	}, renames)

	require.Len(t, p.ContentOps, 1)
	assert.Equal(t, "oldA/file_old.txt", rel(t, root, p.ContentOps[0].Path))
	assert.Equal(t, 1, p.ContentOps[0].Occurrences)

	assert.Equal(t, 1, p.FileRenames())
	assert.Equal(t, 2, p.DirRenames())
	assert.True(t, p.HasChanges())
}

func TestBuildModes(t *testing.T) {
	files := map[string]string{
		"old_dir/old_file.txt": "old content old",
	}

	tests := []struct {
		name        string
		mode        Mode
		wantRenames []string
		wantContent []string
	}{
		{
			name:        "full",
			mode:        ModeFull,
			wantRenames: []string{"old_dir", "old_dir/old_file.txt"},
			wantContent: []string{"old_dir/old_file.txt"},
		},
		{
			name:        "names_only",
			mode:        ModeNamesOnly,
			wantRenames: []string{"old_dir", "old_dir/old_file.txt"},
		},
		{
			name:        "content_only",
			mode:        ModeContentOnly,
			wantContent: []string{"old_dir/old_file.txt"},
		},
		{
			name:        "files_only",
			mode:        ModeFilesOnly,
			wantRenames: []string{"old_dir/old_file.txt"},
			wantContent: []string{"old_dir/old_file.txt"},
		},
		{
			name:        "dirs_only",
			mode:        ModeDirsOnly,
			wantRenames: []string{"old_dir"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := buildTree(t, files)
			p := buildPlan(t, root, literal(t, "old", "new"), tt.mode)

			var fromPaths []string
			for _, op := range p.RenameOps {
				fromPaths = append(fromPaths, rel(t, root, op.FromPath))
			}
			assert.ElementsMatch(t, tt.wantRenames, fromPaths)

			var contentPaths []string
			for _, op := range p.ContentOps {
				contentPaths = append(contentPaths, rel(t, root, op.Path))
			}
			assert.ElementsMatch(t, tt.wantContent, contentPaths)
		})
	}
}

func TestBuildIsDeterministicAndPure(t *testing.T) {
	root := buildTree(t, map[string]string{
		"old_one.txt":     "old old old",
		"old_two.txt":     "nothing here",
		"nested/old.conf": "old",
	})

	m := literal(t, "old", "new")
	first := buildPlan(t, root, m, ModeFull)
	second := buildPlan(t, root, m, ModeFull)

	assert.Equal(t, first, second, "building twice must not diverge or mutate the tree")
}

func TestBuildSkipsBinaryContentButRenames(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "old_blob")
	require.NoError(t, os.WriteFile(path, []byte{'o', 'l', 'd', 0x00, 'o', 'l', 'd'}, 0o644))

	p := buildPlan(t, root, literal(t, "old", "new"), ModeFull)

	assert.Empty(t, p.ContentOps, "binary files never get content ops")
	require.Len(t, p.RenameOps, 1)
	assert.Equal(t, "new_blob", filepath.Base(p.RenameOps[0].ToPath))
}

func TestBuildDropsNoopAndSeparatorRenames(t *testing.T) {
	root := buildTree(t, map[string]string{"keep_old.txt": "x"})

	// Replacement equal to the pattern is a no-op.
	p := buildPlan(t, root, literal(t, "old", "old"), ModeFull)
	assert.Empty(t, p.RenameOps)

	// Replacement with a separator would escape the parent directory.
	p = buildPlan(t, root, literal(t, "old", "a/b"), ModeFull)
	assert.Empty(t, p.RenameOps)
}

func TestBuildCountsOccurrences(t *testing.T) {
	root := buildTree(t, map[string]string{
		"note.txt": "old old old\nmore old\n",
	})

	p := buildPlan(t, root, literal(t, "old", "new"), ModeContentOnly)
	require.Len(t, p.ContentOps, 1)
	assert.Equal(t, 4, p.ContentOps[0].Occurrences)
}

func TestBuildFlagsHiddenTargetCollision(t *testing.T) {
	// .secret is skipped by discovery (hidden), but it is still on
	// disk: renaming visible onto it must be refused, not overwrite it.
	root := buildTree(t, map[string]string{
		"visible": "attacker",
		".secret": "precious",
	})

	p := buildPlan(t, root, literal(t, "visible", ".secret"), ModeFull)
	require.Len(t, p.Collisions, 1)
	assert.Equal(t, TargetExistingClash, p.Collisions[0].Kind)
	assert.Equal(t, filepath.Join(root, ".secret"), p.Collisions[0].Target)
}

func TestBuildFlagsExcludedTargetCollision(t *testing.T) {
	root := buildTree(t, map[string]string{
		"old_name.txt": "a",
		"taken.txt":    "b",
	})

	scanned, err := scan.Walk(context.Background(), scan.Options{
		Root:    root,
		Exclude: []string{"taken*"},
	})
	require.NoError(t, err)

	m := literal(t, "old_name", "taken")
	p := NewBuilder(m, binary.NewClassifier(), ModeFull).Build(context.Background(), scanned)
	require.Len(t, p.Collisions, 1)
	assert.Equal(t, TargetExistingClash, p.Collisions[0].Kind)
}

func TestBuildFlagsChainedRenameCollision(t *testing.T) {
	// f -> fz while fz -> fzz: fz exists, so the plan is refused
	// instead of depending on which rename runs first.
	root := buildTree(t, map[string]string{
		"f":  "content-f",
		"fz": "content-fz",
	})

	m, err := match.New(match.Options{
		Pattern:       "(.)$",
		Replacement:   "${1}z",
		Kind:          match.KindRegex,
		CaseSensitive: true,
	})
	require.NoError(t, err)

	p := buildPlan(t, root, m, ModeNamesOnly)
	require.Len(t, p.Collisions, 1)
	assert.Equal(t, TargetExistingClash, p.Collisions[0].Kind)
	assert.Equal(t, filepath.Join(root, "fz"), p.Collisions[0].Target)
}
