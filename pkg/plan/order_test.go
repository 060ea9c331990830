package plan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/retree/pkg/scan"
)

func TestOrderDeepestFirst(t *testing.T) {
	ops := []RenameOp{
		{FromPath: "/r/oldA", ToPath: "/r/newA", Kind: scan.KindDir},
		{FromPath: "/r/oldB", ToPath: "/r/newB", Kind: scan.KindDir},
		{FromPath: "/r/oldA/file_old.txt", ToPath: "/r/oldA/file_new.txt", Kind: scan.KindFile},
	}

	ordered := Order(ops)
	require.Len(t, ordered, 3)
	assert.Equal(t, "/r/oldA/file_old.txt", ordered[0].FromPath)
	assert.Equal(t, "/r/oldA", ordered[1].FromPath)
	assert.Equal(t, "/r/oldB", ordered[2].FromPath)
}

func TestOrderLexicalTieBreak(t *testing.T) {
	ops := []RenameOp{
		{FromPath: "/r/z_old", ToPath: "/r/z_new", Kind: scan.KindFile},
		{FromPath: "/r/a_old", ToPath: "/r/a_new", Kind: scan.KindFile},
		{FromPath: "/r/m_old", ToPath: "/r/m_new", Kind: scan.KindFile},
	}

	ordered := Order(ops)
	assert.Equal(t, "/r/a_old", ordered[0].FromPath)
	assert.Equal(t, "/r/m_old", ordered[1].FromPath)
	assert.Equal(t, "/r/z_old", ordered[2].FromPath)
}

func TestOrderAncestorNeverBeforeDescendant(t *testing.T) {
	ops := []RenameOp{
		{FromPath: "/r/old", ToPath: "/r/new", Kind: scan.KindDir},
		{FromPath: "/r/old/sub_old", ToPath: "/r/old/sub_new", Kind: scan.KindDir},
		{FromPath: "/r/old/sub_old/deep_old.txt", ToPath: "/r/old/sub_old/deep_new.txt", Kind: scan.KindFile},
		{FromPath: "/r/old/leaf_old.txt", ToPath: "/r/old/leaf_new.txt", Kind: scan.KindFile},
	}

	ordered := Order(ops)
	for i, a := range ordered {
		for j := i + 1; j < len(ordered); j++ {
			b := ordered[j]
			assert.False(t, strings.HasPrefix(b.FromPath, a.FromPath+"/"),
				"ancestor %s ordered before descendant %s", a.FromPath, b.FromPath)
		}
	}
}

func TestOrderDoesNotMutateInput(t *testing.T) {
	ops := []RenameOp{
		{FromPath: "/r/a", ToPath: "/r/b", Kind: scan.KindDir},
		{FromPath: "/r/a/c", ToPath: "/r/a/d", Kind: scan.KindFile},
	}
	_ = Order(ops)

	assert.Equal(t, "/r/a", ops[0].FromPath, "plan order must stay untouched")
}
