package plan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// 💥 CollisionKind classifies why applying a plan would be unsafe.
type CollisionKind int

const (
	// TargetTargetClash: two distinct rename ops share a target path.
	TargetTargetClash CollisionKind = iota
	// TargetExistingClash: a target path would silently overwrite an
	// entry already on disk. An entry scheduled to be renamed away
	// still counts: rename chains depend on apply order, so they are
	// refused rather than sequenced.
	TargetExistingClash
	// CaseInsensitiveClash: two target paths differ only by case, which
	// collide on case-insensitive filesystems.
	CaseInsensitiveClash
)

// String returns a string representation of CollisionKind
func (k CollisionKind) String() string {
	switch k {
	case TargetTargetClash:
		return "target-target clash"
	case TargetExistingClash:
		return "target-existing clash"
	case CaseInsensitiveClash:
		return "case-insensitive clash"
	default:
		return "unknown"
	}
}

// Collision describes one conflict. Paths holds every involved path:
// the sources for a target clash, the existing entry for an overwrite,
// the case-twin targets for a case clash.
type Collision struct {
	Kind   CollisionKind
	Target string
	Paths  []string
}

// Describe renders a one-line human explanation.
func (c Collision) Describe() string {
	switch c.Kind {
	case TargetTargetClash:
		return fmt.Sprintf("multiple entries rename to %q (sources: %s)", c.Target, strings.Join(c.Paths, ", "))
	case TargetExistingClash:
		return fmt.Sprintf("rename target %q already exists", c.Target)
	case CaseInsensitiveClash:
		return fmt.Sprintf("targets differ only by case: %s", strings.Join(c.Paths, ", "))
	default:
		return fmt.Sprintf("conflict on %q", c.Target)
	}
}

// ExistingPaths walks root without any filters and returns every path
// on disk. Collision checks must see the whole tree: entries the
// discovery filters skipped (hidden files, excluded globs) can still be
// overwritten by a rename target. Unreadable subtrees are skipped; a
// path that cannot be listed cannot be clobbered by os.Rename either.
func ExistingPaths(root string) map[string]struct{} {
	existing := map[string]struct{}{}
	_ = filepath.WalkDir(root, func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		existing[path] = struct{}{}
		return nil
	})
	return existing
}

// Detect runs the three independent collision checks against a set of
// rename ops and the full on-disk path set (see ExistingPaths). All
// conflicts are collected so a report can show every problem at once;
// any collision blocks apply.
func Detect(ops []RenameOp, existing map[string]struct{}) []Collision {
	if len(ops) == 0 {
		return nil
	}

	var collisions []Collision

	// Index targets by path.
	targets := map[string][]string{}
	for _, op := range ops {
		targets[op.ToPath] = append(targets[op.ToPath], op.FromPath)
	}

	// Check 1: two ops landing on the same target.
	for target, srcs := range targets {
		if len(srcs) > 1 {
			sorted := append([]string(nil), srcs...)
			sort.Strings(sorted)
			collisions = append(collisions, Collision{
				Kind:   TargetTargetClash,
				Target: target,
				Paths:  sorted,
			})
		}
	}

	// Check 2: a target landing on a path that exists. No exemption
	// for paths another op renames away: whether the overwrite happens
	// would depend on apply order, and chained renames (f -> fz while
	// fz -> fzz) clobber data under the depth-then-lexical order.
	for target, srcs := range targets {
		if _, exists := existing[target]; !exists {
			continue
		}
		sorted := append([]string(nil), srcs...)
		sort.Strings(sorted)
		collisions = append(collisions, Collision{
			Kind:   TargetExistingClash,
			Target: target,
			Paths:  sorted,
		})
	}

	// Check 3: targets that collide once case is folded. Exact
	// duplicates are already covered by check 1.
	byFolded := map[string][]string{}
	for target := range targets {
		folded := strings.ToLower(target)
		byFolded[folded] = append(byFolded[folded], target)
	}
	for _, twins := range byFolded {
		distinct := dedupe(twins)
		if len(distinct) > 1 {
			sort.Strings(distinct)
			collisions = append(collisions, Collision{
				Kind:   CaseInsensitiveClash,
				Target: distinct[0],
				Paths:  distinct,
			})
		}
	}

	sort.Slice(collisions, func(i, j int) bool {
		if collisions[i].Target != collisions[j].Target {
			return collisions[i].Target < collisions[j].Target
		}
		return collisions[i].Kind < collisions[j].Kind
	})
	return collisions
}

func dedupe(paths []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range paths {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
