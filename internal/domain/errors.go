package domain

import "errors"

// Rule engine failures. Every mutating engine operation is all-or-nothing:
// when one of these is returned the match state is exactly as it was before the call.
var (
	// ErrIllegalMove means the action is not in the current legal-action set.
	ErrIllegalMove = errors.New("illegal move")
	// ErrIllegalState means the operation is not supported in the current stage.
	ErrIllegalState = errors.New("illegal state")
	// ErrInconsistent means an invariant such as card conservation would break.
	ErrInconsistent = errors.New("inconsistent state")
)
