package fault

import (
	"errors"
	"fmt"
)

type faultCode string

const (
	UnknownCode               faultCode = "unknown"
	BadInputCode              faultCode = "bad_input"
	UnrecognizedCharacterCode faultCode = "unrecognized_character"
	InvalidConstantCode       faultCode = "invalid_constant"
	UnexpectedTokenCode       faultCode = "unexpected_token"
	UnexpectedEOFCode         faultCode = "unexpected_eof"
	LintCode                  faultCode = "lint"
)

// NoLine marks a fault that is not attributed to a source line.
const NoLine = -1

type FieldErrorsMetadata map[string][]string

// Fault is the error value shared by the lexer, the parser and the outer surfaces.
// Source-level faults always carry the 0-indexed line they were raised on.
type Fault struct {
	code     faultCode
	message  string
	line     int
	metadata any
	original error
}

func New(code faultCode, message string) Fault {
	return Fault{
		code:    code,
		message: message,
		line:    NoLine,
	}
}

func (f Fault) WithLine(line int) Fault {
	e := f
	e.line = line
	return e
}

func (f Fault) WithMetadata(metadata any) Fault {
	e := f
	e.metadata = metadata
	return e
}

func (f Fault) WithOriginal(original error) Fault {
	e := f
	e.original = original
	return e
}

func (f Fault) Code() faultCode {
	return f.code
}

func (f Fault) Message() string {
	return f.message
}

// Line returns the source line of the fault, or NoLine.
func (f Fault) Line() int {
	return f.line
}

func (f Fault) Metadata() any {
	return f.metadata
}

func (f Fault) Original() error {
	return f.original
}

func (f Fault) Unwrap() error {
	return f.original
}

func (f Fault) Error() string {
	msg := f.message
	if f.line != NoLine {
		msg = fmt.Sprintf("line %d: %s", f.line, msg)
	}
	if f.original != nil {
		return fmt.Sprintf("%s: %v", msg, f.original)
	}
	return msg
}

// LineOf returns the line of the first Fault found in err's chain. Joined errors are
// searched in order.
func LineOf(err error) (int, bool) {
	var f Fault
	if !errors.As(err, &f) || f.line == NoLine {
		return NoLine, false
	}
	return f.line, true
}

// All flattens err into the Faults it contains. Errors that are not faults are wrapped
// with UnknownCode so callers never lose them.
func All(err error) []Fault {
	if err == nil {
		return nil
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []Fault
		for _, e := range joined.Unwrap() {
			out = append(out, All(e)...)
		}
		return out
	}

	var f Fault
	if errors.As(err, &f) {
		return []Fault{f}
	}

	return []Fault{New(UnknownCode, err.Error())}
}
