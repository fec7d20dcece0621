package domain

// Categories returns the distinct categories present in quotes, in the order
// they first appear. The CategoryAll sentinel is never part of the result.
func Categories(quotes []Quote) []string {
	seen := make(map[string]struct{}, len(quotes))
	out := make([]string, 0, len(quotes))

	for _, q := range quotes {
		if _, ok := seen[q.Category]; ok {
			continue
		}

		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}

	return out
}

// Filter returns the quotes matching category, preserving order.
// CategoryAll (or an empty category) selects everything. Matching is exact and
// case-sensitive. The input slice is never modified.
func Filter(quotes []Quote, category string) []Quote {
	if category == "" || category == CategoryAll {
		return Clone(quotes)
	}

	out := make([]Quote, 0, len(quotes))

	for _, q := range quotes {
		if q.Category == category {
			out = append(out, q)
		}
	}

	return out
}

// MergeResult describes what Merge did.
type MergeResult struct {
	// Quotes is the merged collection.
	Quotes []Quote

	// Added counts remote quotes appended because their text was new.
	Added int

	// Collapsed counts local quotes dropped because an earlier local quote had
	// the same text.
	Collapsed int
}

// Changed reports whether the merged collection differs from local: a remote
// text was appended or a local duplicate collapsed. Lengths alone are not
// enough, since a collapse and an addition leave the length unchanged.
func (r MergeResult) Changed() bool {
	return r.Added > 0 || r.Collapsed > 0
}

// Merge appends every remote quote whose text is not already present, keeping
// local order first. Texts are unique in the result: duplicate local entries
// (left by import) collapse to their first occurrence, and a remote text that
// repeats is appended once.
func Merge(local, remote []Quote) MergeResult {
	seen := make(map[string]struct{}, len(local)+len(remote))
	out := make([]Quote, 0, len(local)+len(remote))

	var res MergeResult

	for _, q := range local {
		if _, dup := seen[q.Text]; dup {
			res.Collapsed++
			continue
		}

		seen[q.Text] = struct{}{}
		out = append(out, q)
	}

	for _, q := range remote {
		if _, dup := seen[q.Text]; dup {
			continue
		}

		seen[q.Text] = struct{}{}
		out = append(out, q)
		res.Added++
	}

	res.Quotes = out

	return res
}
