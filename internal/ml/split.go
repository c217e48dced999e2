package ml

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Split is a train/test partition of a Dataset.
type Split struct {
	Train *Dataset
	Test  *Dataset
}

// TrainTestSplit shuffles the rows with seed and moves ceil(rows*ratio) of
// them into the test set.
func TrainTestSplit(ds *Dataset, ratio float64, seed uint64) (*Split, error) {
	if ds == nil || ds.Rows() == 0 {
		return nil, ErrEmptyInput
	}
	if ratio <= 0 || ratio >= 1 {
		return nil, fmt.Errorf("test ratio %v: %w", ratio, ErrInvalidRatio)
	}

	n := ds.Rows()
	testSize := int(math.Ceil(float64(n) * ratio))
	if testSize >= n {
		return nil, fmt.Errorf("test ratio %v leaves no training rows: %w", ratio, ErrInvalidRatio)
	}

	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)

	return &Split{
		Test:  subset(ds, perm[:testSize]),
		Train: subset(ds, perm[testSize:]),
	}, nil
}

func subset(ds *Dataset, rows []int) *Dataset {
	features := ds.Features()
	x := mat.NewDense(len(rows), features, nil)
	y := make([]float64, len(rows))
	for i, r := range rows {
		x.SetRow(i, ds.X.RawRowView(r))
		y[i] = ds.Y[r]
	}
	return &Dataset{X: x, Y: y}
}
