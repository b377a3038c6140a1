// Package errors provides the error and warning types shared by every
// penguinml package.
//
// Constructors attach a stack trace through cockroachdb/errors, and the
// structured types implement zerolog.LogObjectMarshaler so they can be
// logged field by field.
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("penguinml-warning: %v\n", w)
	}
	// set by pkg/log; pkg/log imports this package so it cannot be the other way round
	zerologWarnFunc func(warning error)
)

// SetWarningHandler replaces the fallback warning handler.
//
//	errors.SetWarningHandler(func(w error) {
//	    // drop warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs the structured warning sink. Passing nil
// restores the fallback handler.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn reports a non-fatal condition.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warnings
//
// ===========================================================================

// ConvergenceWarning is raised when an iterative solver stops at max_iter.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or scaling the data.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning creates a ConvergenceWarning.
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// DataConversionWarning is raised when a value is coerced, for example a
// float cell that failed to parse and was stored as null.
type DataConversionWarning struct {
	FromType string
	ToType   string
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("data converted from %s to %s. Reason: %s", w.FromType, w.ToType, w.Reason)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("from_type", w.FromType).
		Str("to_type", w.ToType).
		Str("reason", w.Reason).
		Str("type", "DataConversionWarning")
}

// NewDataConversionWarning creates a DataConversionWarning.
func NewDataConversionWarning(from, to, reason string) *DataConversionWarning {
	return &DataConversionWarning{FromType: from, ToType: to, Reason: reason}
}

// ===========================================================================
//
//	Structured errors
//
// ===========================================================================

// IOError reports a failure to open or read an input file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("penguinml: %s: cannot read %q: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *IOError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("path", e.Path).
		AnErr("cause", e.Err).
		Str("type", "IOError")
}

// NewIOError wraps err, which stays reachable through errors.Is, so
// errors.Is(err, fs.ErrNotExist) still identifies a missing file.
func NewIOError(op, path string, err error) error {
	return errors.WithStack(&IOError{Op: op, Path: path, Err: err})
}

// ParseError reports input that could not be parsed at all. Unparseable
// individual cells are not errors; the loader stores them as null.
type ParseError struct {
	Op   string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("penguinml: %s: parse error on line %d: %v", e.Op, e.Line, e.Err)
	}
	return fmt.Sprintf("penguinml: %s: parse error: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a ParseError with a stack trace.
func NewParseError(op string, line int, err error) error {
	return errors.WithStack(&ParseError{Op: op, Line: line, Err: err})
}

// ColumnNotFoundError is returned when a requested column is absent from a
// table's schema.
type ColumnNotFoundError struct {
	Op        string
	Column    string
	Available []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("penguinml: %s: column %q not found (available: %s)", e.Op, e.Column, strings.Join(e.Available, ", "))
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *ColumnNotFoundError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("column", e.Column).
		Strs("available", e.Available).
		Str("type", "ColumnNotFoundError")
}

// NewColumnNotFoundError creates a ColumnNotFoundError with a stack trace.
func NewColumnNotFoundError(op, column string, available []string) error {
	return errors.WithStack(&ColumnNotFoundError{Op: op, Column: column, Available: available})
}

// TypeMismatchError is returned when a value or column does not have the
// type an operation requires.
type TypeMismatchError struct {
	Op       string
	Column   string
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("penguinml: %s: column %q: expected %s, got %s", e.Op, e.Column, e.Expected, e.Got)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *TypeMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("column", e.Column).
		Str("expected", e.Expected).
		Str("got", e.Got).
		Str("type", "TypeMismatchError")
}

// NewTypeMismatchError creates a TypeMismatchError with a stack trace.
func NewTypeMismatchError(op, column, expected, got string) error {
	return errors.WithStack(&TypeMismatchError{Op: op, Column: column, Expected: expected, Got: got})
}

// UnknownCategoryError is returned by label encoding when a value is outside
// the closed category set, or is missing.
type UnknownCategoryError struct {
	Value   string
	Missing bool
	Index   int
	Known   []string
}

func (e *UnknownCategoryError) Error() string {
	if e.Missing {
		return fmt.Sprintf("penguinml: missing category at index %d (known: %s)", e.Index, strings.Join(e.Known, ", "))
	}
	return fmt.Sprintf("penguinml: unknown category %q at index %d (known: %s)", e.Value, e.Index, strings.Join(e.Known, ", "))
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *UnknownCategoryError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("value", e.Value).
		Bool("missing", e.Missing).
		Int("index", e.Index).
		Strs("known", e.Known).
		Str("type", "UnknownCategoryError")
}

// NewUnknownCategoryError creates an UnknownCategoryError for value.
func NewUnknownCategoryError(value string, index int, known []string) error {
	return errors.WithStack(&UnknownCategoryError{Value: value, Index: index, Known: known})
}

// NewMissingCategoryError creates an UnknownCategoryError for a null label.
func NewMissingCategoryError(index int, known []string) error {
	return errors.WithStack(&UnknownCategoryError{Missing: true, Index: index, Known: known})
}

// NotFittedError is returned when Predict or Transform runs before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("penguinml: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError is returned when two inputs disagree on a dimension, for
// example a feature matrix and a label vector of different lengths.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("penguinml: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError is returned when a parameter fails validation.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("penguinml: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace.
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError is returned when an argument has an unusable value.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("penguinml: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError is a general estimator failure.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("penguinml: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("penguinml: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a ModelError with a stack trace.
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack attaches a stack trace to err.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Sentinels
//
// ===========================================================================

var (
	// ErrNotImplemented is returned for unsupported option combinations.
	ErrNotImplemented = New("not implemented")

	// ErrEmptyData is returned when an operation needs at least one sample.
	ErrEmptyData = New("empty data")
)
