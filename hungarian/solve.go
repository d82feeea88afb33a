package hungarian

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmptyMatrix is returned for a matrix without rows or columns.
	ErrEmptyMatrix = errors.New("hungarian: empty cost matrix")

	// ErrTooFewRows is returned when there are fewer rows than columns.
	ErrTooFewRows = errors.New("hungarian: fewer rows than columns")

	// ErrInvalidCost is returned for NaN or negative entries.
	ErrInvalidCost = errors.New("hungarian: invalid cost entry")
)

// Solve assigns every column of cost to a distinct row so that the summed
// cost is minimal. It returns rowOfCol[c] = row of column c and the total.
//
// The algorithm runs the column side as the "worker" side of the classic
// potentials formulation, so a rectangular matrix needs no padding.
//
// Complexity: O(c²·r) time, O(r) extra space.
func Solve(cost mat.Matrix) ([]int, float64, error) {
	r, c := cost.Dims()
	if r == 0 || c == 0 {
		return nil, 0, ErrEmptyMatrix
	}
	if r < c {
		return nil, 0, fmt.Errorf("%d rows, %d columns: %w", r, c, ErrTooFewRows)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := cost.At(i, j)
			if math.IsNaN(v) || v < 0 {
				return nil, 0, fmt.Errorf("cell (%d, %d) = %v: %w", i, j, v, ErrInvalidCost)
			}
		}
	}

	const inf = math.MaxFloat64 / 2
	var (
		u    = make([]float64, c+1) // column potentials (worker side)
		v    = make([]float64, r+1) // row potentials (job side)
		p    = make([]int, r+1)     // p[j] = column holding row j, 1-based
		way  = make([]int, r+1)
		minv = make([]float64, r+1)
		used = make([]bool, r+1)
	)

	for i := 1; i <= c; i++ {
		p[0] = i
		j0 := 0
		for j := 1; j <= r; j++ {
			minv[j] = inf
			used[j] = false
		}
		for {
			used[j0] = true
			var (
				i0    = p[j0]
				delta = inf
				j1    = -1
			)
			for j := 1; j <= r; j++ {
				if used[j] {
					continue
				}
				cur := cost.At(j-1, i0-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			if j1 < 0 {
				break
			}
			for j := 0; j <= r; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	rowOfCol := make([]int, c)
	var total float64
	for j := 1; j <= r; j++ {
		if p[j] > 0 {
			rowOfCol[p[j]-1] = j - 1
			total += cost.At(j-1, p[j]-1)
		}
	}
	return rowOfCol, total, nil
}
