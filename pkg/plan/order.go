package plan

import "sort"

// Order returns the rename ops in safe application order: deepest
// first, ties broken lexically by source path. Renaming a directory
// changes the real path of everything beneath it, so every descendant
// must be processed before its ancestor. The input slice is not mutated.
func Order(ops []RenameOp) []RenameOp {
	ordered := append([]RenameOp(nil), ops...)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := ordered[i].Depth(), ordered[j].Depth()
		if di != dj {
			return di > dj
		}
		return ordered[i].FromPath < ordered[j].FromPath
	})
	return ordered
}
