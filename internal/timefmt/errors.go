package timefmt

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind string

const (
	KindInvalidUnit       ErrorKind = "invalid_unit"
	KindInvalidFormat     ErrorKind = "invalid_format"
	KindInvalidDatetime   ErrorKind = "invalid_datetime"
	KindInvalidCompletion ErrorKind = "invalid_completion"
)

var ErrParse = errors.New("timefmt: parse failed")

// ParseError carries the offending input and a reason suitable for showing
// to the user verbatim.
type ParseError struct {
	Kind   ErrorKind
	Input  string
	Reason string
	Causes []error
}

func (e *ParseError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %q", e.Kind, e.Input)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) Unwrap() []error {
	return e.Causes
}

// joinErrors folds several parse failures into one error whose message is the
// individual messages separated by "; ".
func joinErrors(input string, errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return &ParseError{
		Kind:   KindInvalidCompletion,
		Input:  input,
		Reason: strings.Join(msgs, "; "),
		Causes: errs,
	}
}
