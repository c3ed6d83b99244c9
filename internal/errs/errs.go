package errs

import (
	"errors"
	"fmt"
)

// Error kinds reported by every conversion operation
var (
	ErrConfig   = errors.New("config error")
	ErrIO       = errors.New("io error")
	ErrFormat   = errors.New("format error")
	ErrEncoding = errors.New("encoding error")
)

// Error carries the kind of failure together with the operation and path
// that produced it
type Error struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on the kind sentinel as well as the wrapped cause
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Config wraps err as a ConfigError
func Config(op, path string, err error) error {
	return &Error{Kind: ErrConfig, Op: op, Path: path, Err: err}
}

// Configf builds a ConfigError from a format string
func Configf(op, path, format string, args ...interface{}) error {
	return Config(op, path, fmt.Errorf(format, args...))
}

// IO wraps err as an IOError
func IO(op, path string, err error) error {
	return &Error{Kind: ErrIO, Op: op, Path: path, Err: err}
}

// Format wraps err as a FormatError
func Format(op, path string, err error) error {
	return &Error{Kind: ErrFormat, Op: op, Path: path, Err: err}
}

// Formatf builds a FormatError from a format string
func Formatf(op, path, format string, args ...interface{}) error {
	return Format(op, path, fmt.Errorf(format, args...))
}

// Encoding wraps err as an EncodingError
func Encoding(op, path string, err error) error {
	return &Error{Kind: ErrEncoding, Op: op, Path: path, Err: err}
}

// Kind returns the sentinel kind of err, or nil when err is not one of ours
func Kind(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
