package model

import "fmt"

// SpecError reports a malformed model graph: unresolved or forward
// references from priors, cyclic deterministic dependencies, bad
// declarations. Always raised at construction, never mid-sampling.
type SpecError struct {
	Msg string
}

func (e *SpecError) Error() string {
	return "model specification: " + e.Msg
}

func specErrf(format string, args ...interface{}) error {
	return &SpecError{Msg: fmt.Sprintf(format, args...)}
}

// ShapeError reports a mismatch between an observation array (or parameter
// vector) and its declared shape. Also construction-time only.
type ShapeError struct {
	Msg string
}

func (e *ShapeError) Error() string {
	return "data shape: " + e.Msg
}

func shapeErrf(format string, args ...interface{}) error {
	return &ShapeError{Msg: fmt.Sprintf(format, args...)}
}
