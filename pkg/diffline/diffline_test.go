package diffline_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/walteh/retree/pkg/diffline"
)

func TestCompareIdentical(t *testing.T) {
	res := diffline.Compare("a\nb\nc\n", "a\nb\nc\n")
	require.False(t, res.HasChanges())
	require.Len(t, res.Lines, 3)
	for _, l := range res.Lines {
		require.Equal(t, diffline.OpEqual, l.Op)
	}
}

func TestCompareChangedLine(t *testing.T) {
	res := diffline.Compare("one\ntwo\nthree\n", "one\n2\nthree\n")
	require.True(t, res.HasChanges())

	var deleted, inserted []string
	for _, l := range res.Lines {
		switch l.Op {
		case diffline.OpDelete:
			deleted = append(deleted, l.Text)
		case diffline.OpInsert:
			inserted = append(inserted, l.Text)
		}
	}
	require.Equal(t, []string{"two"}, deleted)
	require.Equal(t, []string{"2"}, inserted)
}

func TestCompareAddedLines(t *testing.T) {
	res := diffline.Compare("a\n", "a\nb\nc\n")
	require.True(t, res.HasChanges())

	var inserted []string
	for _, l := range res.Lines {
		if l.Op == diffline.OpInsert {
			inserted = append(inserted, l.Text)
		}
	}
	require.Equal(t, []string{"b", "c"}, inserted)
}

func TestCompareEmptyInputs(t *testing.T) {
	res := diffline.Compare("", "")
	require.False(t, res.HasChanges())
	require.Empty(t, res.Lines)
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("hello\nworld\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("hello\nthere\n"), 0o644))

	res, err := diffline.CompareFiles(a, b)
	require.NoError(t, err)
	require.True(t, res.HasChanges())
}

func TestCompareFilesMissing(t *testing.T) {
	_, err := diffline.CompareFiles(filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "nada"))
	require.Error(t, err)
}

func TestRenderGutters(t *testing.T) {
	color.NoColor = true
	res := diffline.Compare("keep\nold\n", "keep\nnew\n")

	out := res.Render()
	require.Contains(t, out, "  keep")
	require.Contains(t, out, "- old")
	require.Contains(t, out, "+ new")
}
