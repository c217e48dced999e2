package ml

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Columns names the generated dataset's columns, target last.
var Columns = []string{"x1", "x2", "x3", "target"}

// TrueCoefficients are the weights used to generate the target.
var TrueCoefficients = []float64{3, 2, -1.5}

// NoiseStdDev is the standard deviation of the target noise.
const NoiseStdDev = 0.2

// Dataset holds a feature matrix and its target vector.
type Dataset struct {
	X *mat.Dense
	Y []float64
}

// Rows returns the number of samples.
func (d *Dataset) Rows() int {
	return len(d.Y)
}

// Features returns the number of feature columns.
func (d *Dataset) Features() int {
	_, c := d.X.Dims()
	return c
}

// Columns returns the column count including the target.
func (d *Dataset) Columns() int {
	return d.Features() + 1
}

// GenerateDataset draws rows samples of three uniform [0,1) features with
// target 3*x1 + 2*x2 - 1.5*x3 + N(0, 0.2). The same seed yields the same data.
func GenerateDataset(rows int, seed uint64) (*Dataset, error) {
	if rows <= 0 {
		return nil, fmt.Errorf("generate %d rows: %w", rows, ErrEmptyInput)
	}

	src := rand.NewPCG(seed, seed)
	uniform := distuv.Uniform{Min: 0, Max: 1, Src: src}
	noise := distuv.Normal{Mu: 0, Sigma: NoiseStdDev, Src: src}

	features := len(TrueCoefficients)
	x := mat.NewDense(rows, features, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < features; j++ {
			x.Set(i, j, uniform.Rand())
		}
	}

	weights := mat.NewVecDense(features, TrueCoefficients)
	y := make([]float64, rows)
	for i := range y {
		y[i] = mat.Dot(x.RowView(i), weights) + noise.Rand()
	}

	return &Dataset{X: x, Y: y}, nil
}
