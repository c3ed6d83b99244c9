package schema

import (
	"fmt"
	"os"
	"sync"

	"github.com/oicur0t/sensorconv/internal/errs"
	xsdvalidate "github.com/terminalstatic/go-xsd-validate"
	"go.uber.org/zap"
)

// Outcome of validating one document
type Outcome int

const (
	Valid Outcome = iota
	Invalid
	InternalError
)

func (o Outcome) String() string {
	switch o {
	case Valid:
		return "validates"
	case Invalid:
		return "fails to validate"
	default:
		return "validation generated an internal error"
	}
}

// Problem is a single validation message
type Problem struct {
	Line    int
	Node    string
	Message string
}

// Result of a validation run
type Result struct {
	Outcome  Outcome
	Problems []Problem
}

// library counts the sessions using libxml2. The C library itself is
// process-wide, so it is initialized by the first acquire and cleaned up
// by the last release.
type library struct {
	mu    sync.Mutex
	users int
}

var libxml2 = &library{}

func (l *library) acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.users == 0 {
		if err := xsdvalidate.Init(); err != nil {
			return fmt.Errorf("failed to initialize libxml2: %w", err)
		}
	}
	l.users++
	return nil
}

func (l *library) release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.users--
	if l.users == 0 {
		xsdvalidate.Cleanup()
	}
}

// Session owns its hold on the validation library for its lifetime. Open
// it before validating and Close it when done.
type Session struct {
	lib    *library
	logger *zap.Logger
}

// Open initializes the validation library
func Open(logger *zap.Logger) (*Session, error) {
	if err := libxml2.acquire(); err != nil {
		return nil, err
	}
	return &Session{lib: libxml2, logger: logger}, nil
}

// Close releases the session's hold on the library. Closing twice is a no-op.
func (s *Session) Close() {
	if s.lib == nil {
		return
	}
	s.lib.release()
	s.lib = nil
}

// Validate checks the XML document at xmlPath against the schema at
// xsdPath. Unreadable files are reported as an error; everything else,
// including a broken schema, is reported through the Result.
func (s *Session) Validate(xmlPath, xsdPath string) (Result, error) {
	if s.lib == nil {
		return Result{}, errs.Configf("validate", xmlPath, "validation session is closed")
	}

	if _, err := os.Stat(xsdPath); err != nil {
		return Result{}, errs.IO("open schema", xsdPath, err)
	}
	doc, err := os.ReadFile(xmlPath)
	if err != nil {
		return Result{}, errs.IO("read xml", xmlPath, err)
	}

	handler, err := xsdvalidate.NewXsdHandlerUrl(xsdPath, xsdvalidate.ParsErrDefault)
	if err != nil {
		s.logger.Warn("Schema could not be parsed", zap.String("xsd", xsdPath), zap.Error(err))
		return Result{
			Outcome:  InternalError,
			Problems: []Problem{{Message: err.Error()}},
		}, nil
	}
	defer handler.Free()

	err = handler.ValidateMem(doc, xsdvalidate.ValidErrDefault)
	if err == nil {
		return Result{Outcome: Valid}, nil
	}

	switch e := err.(type) {
	case xsdvalidate.ValidationError:
		result := Result{Outcome: Invalid}
		for _, se := range e.Errors {
			result.Problems = append(result.Problems, Problem{
				Line:    se.Line,
				Node:    se.NodeName,
				Message: se.Message,
			})
		}
		return result, nil
	case xsdvalidate.XmlParserError:
		// a document that does not parse cannot be valid
		return Result{
			Outcome:  Invalid,
			Problems: []Problem{{Message: "could not parse: " + e.Error()}},
		}, nil
	}

	return Result{
		Outcome:  InternalError,
		Problems: []Problem{{Message: err.Error()}},
	}, nil
}
