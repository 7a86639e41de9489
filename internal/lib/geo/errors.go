package geo

import "errors"

// ErrorKind identifies which stage of a coverage run failed.
type ErrorKind string

const (
	KindParse       ErrorKind = "parse"
	KindProjection  ErrorKind = "projection"
	KindComputation ErrorKind = "computation"
	KindInput       ErrorKind = "input"
	KindUnknown     ErrorKind = "unknown"
)

// ParseError reports a malformed or empty input document.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string { return format(e.Msg, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// ProjectionError reports an unsupported reference or a failed coordinate transform.
type ProjectionError struct {
	Msg string
	Err error
}

func (e *ProjectionError) Error() string { return format(e.Msg, e.Err) }
func (e *ProjectionError) Unwrap() error { return e.Err }

// ComputationError reports a failed geometry operation. It aborts the whole run.
type ComputationError struct {
	Msg string
	Err error
}

func (e *ComputationError) Error() string { return format(e.Msg, e.Err) }
func (e *ComputationError) Unwrap() error { return e.Err }

// InputError reports malformed caller-supplied values such as the center text.
type InputError struct {
	Msg string
	Err error
}

func (e *InputError) Error() string { return format(e.Msg, e.Err) }
func (e *InputError) Unwrap() error { return e.Err }

// Kind classifies err by the first typed error found in its chain.
func Kind(err error) ErrorKind {
	var (
		parseErr *ParseError
		projErr  *ProjectionError
		compErr  *ComputationError
		inputErr *InputError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &inputErr):
		return KindInput
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &projErr):
		return KindProjection
	case errors.As(err, &compErr):
		return KindComputation
	}
	return KindUnknown
}

func format(msg string, err error) string {
	if err == nil {
		return msg
	}
	return msg + ": " + err.Error()
}
