// Package pdferr classifies redaction failures. Every kind is fatal to a run;
// the kinds only tell the operator which stage gave up.
package pdferr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindLoad: the input is not a parseable PDF for one of the collaborators.
	KindLoad
	// KindParse: text extraction failed for a page.
	KindParse
	// KindIO: reading the input or writing the output failed.
	KindIO
	// KindCorrespondence: the two collaborators disagree on the page set.
	KindCorrespondence
)

func (k Kind) String() string {
	switch k {
	case KindLoad:
		return "load error"
	case KindParse:
		return "parse error"
	case KindIO:
		return "io error"
	case KindCorrespondence:
		return "correspondence error"
	default:
		return "error"
	}
}

// ErrPageCountMismatch is wrapped by correspondence errors.
var ErrPageCountMismatch = errors.New("page count mismatch")

// Error carries the failing stage and, when known, the 0-based page index.
type Error struct {
	Kind Kind
	Op   string
	Page int // -1 when the failure is not tied to a page
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Page >= 0 {
		msg += fmt.Sprintf(" (page %d)", e.Page+1)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, op string, page int, err error) error {
	return &Error{Kind: kind, Op: op, Page: page, Err: err}
}

func Load(op string, err error) error { return newError(KindLoad, op, -1, err) }

func Parse(op string, page int, err error) error { return newError(KindParse, op, page, err) }

func IO(op string, err error) error { return newError(KindIO, op, -1, err) }

// Correspondence reports that the mutable model holds pages pages while the
// extractor produced extracted page run lists.
func Correspondence(pages, extracted int) error {
	return newError(KindCorrespondence, "zip pages", -1,
		fmt.Errorf("%w: document has %d pages, extractor returned %d", ErrPageCountMismatch, pages, extracted))
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsKind(err error, k Kind) bool { return KindOf(err) == k }
