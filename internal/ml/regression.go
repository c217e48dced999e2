package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ModelType is the name reported for the fitted model.
const ModelType = "LinearRegression"

// Model is an ordinary least squares linear regression with intercept.
type Model struct {
	Intercept    float64
	Coefficients []float64
}

// Fit solves min ||[1|X]b - y|| by QR least squares.
func Fit(x mat.Matrix, y []float64) (*Model, error) {
	if x == nil || len(y) == 0 {
		return nil, ErrEmptyInput
	}
	rows, features := x.Dims()
	if rows != len(y) {
		return nil, fmt.Errorf("%d rows for %d targets: %w", rows, len(y), ErrLengthMismatch)
	}
	if rows <= features {
		return nil, fmt.Errorf("%d rows for %d features: %w", rows, features, ErrUnderdetermined)
	}

	design := withIntercept(x)
	var beta mat.VecDense
	if err := beta.SolveVec(design, mat.NewVecDense(rows, y)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	coef := make([]float64, features)
	for j := range coef {
		coef[j] = beta.AtVec(j + 1)
	}
	return &Model{Intercept: beta.AtVec(0), Coefficients: coef}, nil
}

// Features returns the number of inputs the model expects.
func (m *Model) Features() int {
	return len(m.Coefficients)
}

// Predict evaluates the model for every row of x.
func (m *Model) Predict(x mat.Matrix) ([]float64, error) {
	rows, features := x.Dims()
	if rows == 0 {
		return nil, ErrEmptyInput
	}
	if features != m.Features() {
		return nil, fmt.Errorf("%d features for %d coefficients: %w", features, m.Features(), ErrLengthMismatch)
	}

	var out mat.VecDense
	out.MulVec(x, mat.NewVecDense(features, m.Coefficients))
	pred := out.RawVector().Data
	floats.AddConst(m.Intercept, pred)
	return pred, nil
}

// Evaluation holds error metrics on held-out data.
type Evaluation struct {
	MSE  float64
	RMSE float64
	R2   float64
}

// Evaluate scores m against ds.
func (m *Model) Evaluate(ds *Dataset) (*Evaluation, error) {
	pred, err := m.Predict(ds.X)
	if err != nil {
		return nil, err
	}
	mse, err := MeanSquaredError(ds.Y, pred)
	if err != nil {
		return nil, err
	}
	return &Evaluation{
		MSE:  mse,
		RMSE: RMSE(mse),
		R2:   stat.RSquaredFrom(pred, ds.Y, nil),
	}, nil
}

// MeanSquaredError returns the mean of the squared residuals.
func MeanSquaredError(y, yhat []float64) (float64, error) {
	if len(y) == 0 {
		return 0, ErrEmptyInput
	}
	if len(y) != len(yhat) {
		return 0, fmt.Errorf("%d targets for %d predictions: %w", len(y), len(yhat), ErrLengthMismatch)
	}
	residuals := make([]float64, len(y))
	floats.SubTo(residuals, y, yhat)
	return floats.Dot(residuals, residuals) / float64(len(y)), nil
}

// RMSE is the square root of mse.
func RMSE(mse float64) float64 {
	return math.Sqrt(mse)
}

func withIntercept(x mat.Matrix) *mat.Dense {
	rows, features := x.Dims()
	design := mat.NewDense(rows, features+1, nil)
	for i := 0; i < rows; i++ {
		design.Set(i, 0, 1)
		for j := 0; j < features; j++ {
			design.Set(i, j+1, x.At(i, j))
		}
	}
	return design
}
