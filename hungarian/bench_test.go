package hungarian_test

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/pinplace/hungarian"
)

func benchmarkSolve(b *testing.B, rows, cols int) {
	rng := rand.New(rand.NewSource(1))
	cost := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			cost.Set(i, j, float64(rng.Intn(10000)))
		}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if _, _, err := hungarian.Solve(cost); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSolve50x40(b *testing.B)   { benchmarkSolve(b, 50, 40) }
func BenchmarkSolve200x160(b *testing.B) { benchmarkSolve(b, 200, 160) }
func BenchmarkSolve600x480(b *testing.B) { benchmarkSolve(b, 600, 480) }
