package utils

import (
	"sort"

	"godzillatours/internal/db"
)

// displayOrderLast is where vehicles without an explicit position sort.
const displayOrderLast = 999

// SortVehiclesForDisplay orders catalog vehicles ascending by
// displayOrder, treating 0 or unset as 999 so unordered cars land at the
// bottom. Ties keep their input order.
func SortVehiclesForDisplay(vehicles []db.Vehicle) {
	order := func(v db.Vehicle) int {
		if v.DisplayOrder <= 0 {
			return displayOrderLast
		}
		return v.DisplayOrder
	}
	sort.SliceStable(vehicles, func(i, j int) bool {
		return order(vehicles[i]) < order(vehicles[j])
	})
}

// FilterOfferable drops hidden vehicles from a catalog listing. Unset
// visibility counts as visible.
func FilterOfferable(vehicles []db.Vehicle) []db.Vehicle {
	out := vehicles[:0]
	for _, v := range vehicles {
		if v.IsVisible {
			out = append(out, v)
		}
	}
	return out
}
