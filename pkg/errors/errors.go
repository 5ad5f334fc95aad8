// Package errors provides structured error types for the aimcal training
// pipeline.
//
// The package defines a small taxonomy of error types used consistently
// across all components:
//
//   - ValueError: invalid input values or malformed data structures
//   - DimensionError: matrix/vector shape mismatches
//   - NotFittedError: estimator used before training
//   - ModelError: training/emission failures wrapping an underlying cause
//
// All types interoperate with the standard errors.Is / errors.As machinery,
// and the sentinel errors below can be matched through any number of wraps.
// Errors created here carry stack traces via cockroachdb/errors, which makes
// failed calibration runs debuggable from the log output alone.
//
// Example usage:
//
//	if r == 0 {
//		return errors.NewModelError("PolyRegression.Fit", "empty data", errors.ErrEmptyData)
//	}
//
//	var dimErr *errors.DimensionError
//	if errors.As(err, &dimErr) {
//		fmt.Printf("expected %d, got %d\n", dimErr.Expected, dimErr.Got)
//	}
package errors

import (
	"fmt"

	crdberrors "github.com/cockroachdb/errors"
)

// Sentinel errors for common failure conditions. Match with errors.Is.
var (
	// ErrEmptyData indicates an empty matrix, vector or record set.
	ErrEmptyData = crdberrors.New("empty data")

	// ErrNotFitted indicates an estimator was used before Fit.
	ErrNotFitted = crdberrors.New("estimator is not fitted")

	// ErrSingularMatrix indicates a singular or near-singular system.
	ErrSingularMatrix = crdberrors.New("singular matrix")

	// ErrInvalidInput indicates input that cannot be interpreted at all,
	// e.g. a dataset file that is neither a record list nor a {data:[...]}
	// object.
	ErrInvalidInput = crdberrors.New("invalid input")
)

// ValueError represents an invalid value passed to an operation.
type ValueError struct {
	// Op is the operation that rejected the value, e.g. "PolynomialFeatures.Fit".
	Op string

	// Message describes what was wrong with the value.
	Message string
}

// NewValueError creates a ValueError for the given operation.
func NewValueError(op, message string) *ValueError {
	return &ValueError{Op: op, Message: message}
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// DimensionError represents a shape mismatch between expected and actual
// dimensions.
type DimensionError struct {
	// Op is the operation that detected the mismatch.
	Op string

	// Expected is the expected dimension size.
	Expected int

	// Got is the actual dimension size.
	Got int

	// Axis is the axis on which the mismatch occurred (0 = rows, 1 = columns).
	Axis int
}

// NewDimensionError creates a DimensionError for the given operation.
func NewDimensionError(op string, expected, got, axis int) *DimensionError {
	return &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: dimension mismatch on axis %d: expected %d, got %d",
		e.Op, e.Axis, e.Expected, e.Got)
}

// NotFittedError indicates that a method requiring a fitted estimator was
// called before Fit.
type NotFittedError struct {
	// ModelName is the estimator type, e.g. "PolyRegression".
	ModelName string

	// Method is the method that was called, e.g. "Predict".
	Method string
}

// NewNotFittedError creates a NotFittedError for the given estimator and
// method.
func NewNotFittedError(modelName, method string) *NotFittedError {
	return &NotFittedError{ModelName: modelName, Method: method}
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s.%s: %s is not fitted; call Fit first", e.ModelName, e.Method, e.ModelName)
}

// Is reports whether target is the ErrNotFitted sentinel, so
// errors.Is(err, ErrNotFitted) works without unwrapping.
func (e *NotFittedError) Is(target error) bool {
	return target == ErrNotFitted
}

// ModelError represents a failure in a model operation, optionally wrapping
// an underlying cause.
type ModelError struct {
	// Op is the failed operation.
	Op string

	// Message describes the failure.
	Message string

	// Err is the underlying cause, possibly a sentinel error.
	Err error
}

// NewModelError creates a ModelError wrapping err.
func NewModelError(op, message string, err error) *ModelError {
	return &ModelError{Op: op, Message: message, Err: err}
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ModelError) Unwrap() error {
	return e.Err
}

// Wrap annotates err with a message, preserving the chain and attaching a
// stack trace. Returns nil if err is nil.
func Wrap(err error, message string) error {
	return crdberrors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message, preserving the chain and
// attaching a stack trace. Returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return crdberrors.Wrapf(err, format, args...)
}

// Recover converts a panic in the surrounding function into an error
// assigned through errp. Use as:
//
//	func (m *PolyRegression) Fit(X, y mat.Matrix) (err error) {
//		defer errors.Recover(&err, "PolyRegression.Fit")
//		...
//	}
func Recover(errp *error, op string) {
	if r := recover(); r != nil {
		*errp = crdberrors.Errorf("%s: recovered from panic: %v", op, r)
	}
}
