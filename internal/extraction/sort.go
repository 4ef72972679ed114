package extraction

import (
	"cmp"
	"slices"
)

// GroupSubjects orders subject rows into ascending groups by period ceiling,
// preserving the original relative order of rows with an equal ceiling.
// Upstream extraction returns rows in visual document order; presentation
// clusters them by scale instead. Rows with a missing or zero ceiling form
// the lowest group. The input is not modified, and the operation is
// idempotent: grouping an already-grouped sequence returns the same order.
func GroupSubjects(subjects []RawSubject) []RawSubject {
	grouped := slices.Clone(subjects)
	slices.SortStableFunc(grouped, func(a, b RawSubject) int {
		return cmp.Compare(groupKey(a), groupKey(b))
	})
	return grouped
}

func groupKey(s RawSubject) float64 {
	v, ok := s.Maxima.Period.Float()
	if !ok {
		return 0
	}
	return v
}
