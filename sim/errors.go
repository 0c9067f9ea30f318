package sim

import "fmt"

// ErrorKind classifies every error the engine returns.
type ErrorKind int

const (
	// KindConfiguration is a missing or invalid parameter for the requested operation.
	KindConfiguration ErrorKind = iota + 1
	// KindValidation is an out-of-range value, a non-stochastic matrix,
	// a frequency sum != 1 or a dimensionality mismatch.
	KindValidation
	// KindData is a malformed observed dataset.
	KindData
	// KindPrecondition is configuration that is insufficient for the requested inference factor.
	KindPrecondition
	// KindIndex is a malformed batch or prior index.
	KindIndex
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration error"
	case KindValidation:
		return "validation error"
	case KindData:
		return "data error"
	case KindPrecondition:
		return "precondition error"
	case KindIndex:
		return "index error"
	default:
		return fmt.Sprintf("error kind %d", int(k))
	}
}

// Error is the single tagged error type used at component boundaries.
// Op names the failing operation, Msg describes the problem and Err, when set,
// is the underlying cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Msg == "" && t.Err == nil
}

// Sentinels for errors.Is.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrValidation    = &Error{Kind: KindValidation}
	ErrData          = &Error{Kind: KindData}
	ErrPrecondition  = &Error{Kind: KindPrecondition}
	ErrIndex         = &Error{Kind: KindIndex}
)

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// WrapError tags err with kind. A nil err returns nil.
func WrapError(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
