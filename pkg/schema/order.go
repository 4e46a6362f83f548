package schema

import (
	"cmp"
	"slices"
	"strconv"
)

// CompareNodeIDs orders node IDs by their integer value. IDs that are not decimal
// integers sort after every numeric ID, among themselves by string; equal values
// ("7" and "007") fall back to string order so the result is total.
func CompareNodeIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return cmp.Compare(a, b)
}

// SortNodes sorts classified nodes in place, ascending by numeric ID.
func SortNodes(nodes []ClassifiedNode) {
	slices.SortStableFunc(nodes, func(a, b ClassifiedNode) int {
		return CompareNodeIDs(a.ID, b.ID)
	})
}

// SortedIDs returns the keys of m ordered by CompareNodeIDs.
func SortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, CompareNodeIDs)
	return ids
}
