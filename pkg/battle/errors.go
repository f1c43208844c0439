package battle

import "fmt"

// ErrorKind classifies a battle-core error per spec §7.
type ErrorKind int

const (
	// KindInvalidCommand marks a command that is rejected without
	// mutating state: wrong actor, out-of-range target, dead unit, etc.
	KindInvalidCommand ErrorKind = iota
	// KindLogicAssertion marks an internal invariant violation. The core
	// panics with this kind rather than returning it; hosts recover the
	// panic at their boundary and log it as a bug, never as user error.
	KindLogicAssertion
	// KindResourceExhaustion marks an internal growth limit being hit,
	// e.g. a reusable buffer needing to grow past a configured cap.
	KindResourceExhaustion
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidCommand:
		return "invalid-command"
	case KindLogicAssertion:
		return "logic-assertion"
	case KindResourceExhaustion:
		return "resource-exhaustion"
	default:
		return "unknown"
	}
}

// ValidationError reports why a Command was rejected. Mirrors the
// teacher's diplomacy.ValidationError: one struct, a plain Error()
// string, and an exported Kind for callers that branch on it.
type ValidationError struct {
	Command Command
	Kind    ErrorKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newInvalid(cmd Command, format string, args ...any) *ValidationError {
	return &ValidationError{Command: cmd, Kind: KindInvalidCommand, Message: fmt.Sprintf(format, args...)}
}

// assertf panics with a LogicAssertion-kind error when cond is false. Used
// for invariants that should be impossible to violate through the public
// API; a panic here means a bug in the core, not bad caller input.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(&ValidationError{Kind: KindLogicAssertion, Message: fmt.Sprintf(format, args...)})
	}
}

// ResourceExhaustedError is returned when a bounded internal buffer (e.g.
// the pathfinder cache or command log) would need to grow past its
// configured cap to service a request.
type ResourceExhaustedError struct {
	Resource string
	Limit    int
}

func (e *ResourceExhaustedError) Error() string {
	return fmt.Sprintf("%s: limit %d exceeded", e.Resource, e.Limit)
}
