package sim

import (
	"errors"
	"fmt"
)

// ErrorKind separates "fix your setup" failures from runtime scheduling bugs.
type ErrorKind int

const (
	// KindConfig marks setup-time failures: duplicate or unknown registrations,
	// malformed feature domains, weights for undeclared features.
	KindConfig ErrorKind = iota
	// KindInvariant marks runtime violations of world rules: non-adjacent moves,
	// dwell time, perception outside the actor's location, incomplete scoring input.
	KindInvariant
	// KindUnreachable marks a disconnected location graph discovered while routing.
	KindUnreachable
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindInvariant:
		return "invariant"
	case KindUnreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Sentinel errors. Every error returned by this package wraps exactly one of them
// inside an *Error, so callers can use errors.Is for the cause and IsConfig /
// IsInvariant for the category.
var (
	ErrDuplicate       = errors.New("already registered")
	ErrUnknownLocation = errors.New("unknown location")
	ErrUnknownEntity   = errors.New("unknown entity")
	ErrUnknownFeature  = errors.New("unknown feature")
	ErrMissingWeight   = errors.New("missing weight")
	ErrFeatureType     = errors.New("feature type mismatch")
	ErrRegistryFrozen  = errors.New("feature registry frozen")
	ErrNoCandidates    = errors.New("no candidate practices")
	ErrInvalidScore    = errors.New("invalid score")
	ErrInvalidConfig   = errors.New("invalid configuration")

	ErrNotAdjacent = errors.New("location not adjacent")
	ErrDwellTime   = errors.New("minimum dwell time not elapsed")
	ErrPerception  = errors.New("entity not co-located")
	ErrNotPlaced   = errors.New("entity not placed")
	ErrEntityBusy  = errors.New("entity has an active practice")

	ErrNoPath = errors.New("no path between locations")
)

// Error carries the category, the failing operation and the wrapped cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func configErr(op string, cause error, format string, args ...any) error {
	return &Error{Kind: KindConfig, Op: op, Err: fmt.Errorf("%w: "+format, append([]any{cause}, args...)...)}
}

func invariantErr(op string, cause error, format string, args ...any) error {
	return &Error{Kind: KindInvariant, Op: op, Err: fmt.Errorf("%w: "+format, append([]any{cause}, args...)...)}
}

func unreachableErr(op string, format string, args ...any) error {
	return &Error{Kind: KindUnreachable, Op: op, Err: fmt.Errorf("%w: "+format, append([]any{ErrNoPath}, args...)...)}
}

func kindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindConfig
}

// IsInvariant reports whether err is a runtime invariant violation.
func IsInvariant(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindInvariant
}

// IsUnreachable reports whether err comes from routing over a disconnected graph.
func IsUnreachable(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindUnreachable
}
