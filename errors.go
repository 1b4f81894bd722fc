package batchpool

import "fmt"

// LogicError reports a violated caller contract: using a batch as the wrong
// kind, resolving a stage batch with a changed instance count, binding a
// shader whose topology class does not match the geometry, or attaching two
// bindings with the same name. It is never returned; it is the value of the
// panic raised by [Violation].
type LogicError struct {
	// Op names the operation that detected the violation, e.g. "pool.AddBatch".
	Op string
	// Msg describes the violation.
	Msg string
}

func (e *LogicError) Error() string {
	return e.Op + ": " + e.Msg
}

// Violation panics with a *LogicError built from op and the formatted message.
func Violation(op, format string, args ...any) {
	panic(&LogicError{Op: op, Msg: fmt.Sprintf(format, args...)})
}
