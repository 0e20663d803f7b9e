package messaging

import "fmt"

// Outcome classifies how a delivery ended.
type Outcome int

const (
	// OutcomeOK means the message was processed and can be acknowledged.
	OutcomeOK Outcome = iota
	// OutcomeRetryable asks the channel to redeliver the same message.
	OutcomeRetryable
	// OutcomeTerminal means redelivery cannot help; the message is acknowledged and reported.
	OutcomeTerminal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is returned by handlers instead of panicking or throwing to drive redelivery.
type Result struct {
	Outcome Outcome
	Err     error
}

// Ok reports successful processing.
func Ok() Result { return Result{Outcome: OutcomeOK} }

// Retryable reports a transient failure.
func Retryable(err error) Result { return Result{Outcome: OutcomeRetryable, Err: err} }

// Terminal reports a failure that must not be redelivered.
func Terminal(err error) Result { return Result{Outcome: OutcomeTerminal, Err: err} }

// Error returns the failure message or an empty string.
func (r Result) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
