package report

import (
	"fmt"
	"strings"

	"github.com/pkordes/securecheck/internal/domain"
)

// CheckOrder verifies that table honours the definition's stated ordering.
// Keys are compared lexicographically: a later key only matters when every
// earlier key is equal. It returns nil for definitions without an ordering.
func (d Definition) CheckOrder(table domain.ResultTable) error {
	if len(d.Order) == 0 {
		return nil
	}

	idx := make([]int, len(d.Order))
	for i, k := range d.Order {
		idx[i] = table.ColumnIndex(k.Column)
		if idx[i] < 0 {
			return fmt.Errorf("report %s: order column %q missing from result", d.ID, k.Column)
		}
	}

	for r := 1; r < len(table.Rows); r++ {
		prev, cur := table.Rows[r-1], table.Rows[r]
		for i, k := range d.Order {
			c := compareValues(prev[idx[i]], cur[idx[i]])
			if k.Desc {
				c = -c
			}
			if c < 0 {
				break
			}
			if c > 0 {
				return fmt.Errorf("report %s: rows %d and %d out of order on %q", d.ID, r-1, r, k.Column)
			}
		}
	}
	return nil
}

// compareValues orders two result cells: nil first, then numbers, then strings.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
