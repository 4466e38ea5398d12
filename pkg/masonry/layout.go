// Package masonry balances items of varying height across columns.
//
// Items are placed in source order, each into the column that is currently
// the shortest (the leftmost one on ties). The result keeps the reading
// order roughly left-to-right, top-to-bottom while keeping column heights
// close to each other.
package masonry

// Placement is where one item lands.
type Placement struct {
	// Column is the zero-based column index.
	Column int `json:"column"`
	// Order is the item's position within its column.
	Order int `json:"order"`
	// Top is the item's offset from the top of its column.
	Top float64 `json:"top"`
	// Height is the item's clamped height.
	Height float64 `json:"height"`
}

// Result is a computed layout.
type Result struct {
	Placements    []Placement `json:"placements"`
	ColumnHeights []float64   `json:"columnHeights"`
	// Height is the height of the tallest column.
	Height float64 `json:"height"`
}

// Layout places items with the given heights into columns. gap is added
// between two items stacked in the same column. columns below 1 count as
// 1 and negative heights or gaps as 0.
func Layout(heights []float64, columns int, gap float64) Result {
	if columns < 1 {
		columns = 1
	}
	if gap < 0 {
		gap = 0
	}

	res := Result{
		Placements:    make([]Placement, len(heights)),
		ColumnHeights: make([]float64, columns),
	}
	counts := make([]int, columns)

	for i, h := range heights {
		if h < 0 {
			h = 0
		}

		col := shortest(res.ColumnHeights)
		top := res.ColumnHeights[col]
		if counts[col] > 0 {
			top += gap
		}

		res.Placements[i] = Placement{Column: col, Order: counts[col], Top: top, Height: h}
		res.ColumnHeights[col] = top + h
		counts[col]++
	}

	for _, h := range res.ColumnHeights {
		if h > res.Height {
			res.Height = h
		}
	}
	return res
}

func shortest(heights []float64) int {
	best := 0
	for i := 1; i < len(heights); i++ {
		if heights[i] < heights[best] {
			best = i
		}
	}
	return best
}
