package fault

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a caller already has an action in flight.
// Allowance checks are read-then-act, so a second concurrent action is
// rejected rather than queued.
var ErrBusy = errors.New("action_in_flight")

// ValidationError is a local precondition failure caught before any network
// call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// QueryError is a failed event-stream or state read. The caller's previous
// snapshot stays untouched.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// AllowanceError is a rejected or reverted allowance grant. Reason carries
// the ledger's reported message when available.
type AllowanceError struct {
	Reason string
}

func (e *AllowanceError) Error() string {
	return fmt.Sprintf("allowance: %s", e.Reason)
}

// SubmissionError is a rejected or reverted domain write.
type SubmissionError struct {
	Reason string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission: %s", e.Reason)
}

// ConfirmationTimeout means the write was submitted but no receipt arrived
// within the patience window. The transaction may still land, so this is
// kept distinct from a revert.
type ConfirmationTimeout struct {
	TxHash string
}

func (e *ConfirmationTimeout) Error() string {
	return fmt.Sprintf("confirmation timeout for %s", e.TxHash)
}
