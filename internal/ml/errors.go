package ml

import "errors"

var (
	ErrEmptyInput      = errors.New("empty input")
	ErrLengthMismatch  = errors.New("length mismatch")
	ErrInvalidRatio    = errors.New("ratio must be between 0 and 1")
	ErrUnderdetermined = errors.New("not enough rows to fit the model")
	ErrSingular        = errors.New("design matrix is singular")
)
