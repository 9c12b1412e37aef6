package table

import (
	"cmp"
	"slices"
)

// SortBy orders rows ascending by the given keys, compared lexicographically
// as text. Null values sort after every other value of the same key.
// Keys naming absent columns are left out of the comparison.
// Rows with equal keys keep their relative order.
func (t *Table) SortBy(keys ...string) {
	var active []string
	for _, k := range keys {
		if t.HasColumn(k) {
			active = append(active, k)
		}
	}
	if len(active) == 0 {
		return
	}

	slices.SortStableFunc(t.Rows, func(a, b Row) int {
		for _, k := range active {
			va, vb := a.Properties[k], b.Properties[k]
			switch {
			case va == nil && vb == nil:
				continue
			case va == nil:
				return 1
			case vb == nil:
				return -1
			}
			if c := cmp.Compare(FormatValue(va), FormatValue(vb)); c != 0 {
				return c
			}
		}
		return 0
	})
}
