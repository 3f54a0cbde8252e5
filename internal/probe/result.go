package probe

import "time"

// Stage names a step of the probe sequence
type Stage string

const (
	StageConnect      Stage = "connect"
	StageIdleWait     Stage = "idle_wait"
	StageSend         Stage = "send"
	StageResponseWait Stage = "response_wait"
)

// Outcome is how a run ended
type Outcome string

const (
	OutcomeCompleted Outcome = "completed" // every step ran
	OutcomeClosed    Outcome = "closed"    // remote closed the channel during a wait
	OutcomeFailed    Outcome = "failed"    // an error aborted the run
)

// Result is the tagged outcome of a single run.
//
// CloseCode and CloseReason are set only for OutcomeClosed, Err only for OutcomeFailed.
type Result struct {
	RunID       string
	Outcome     Outcome
	Stage       Stage // stage the run ended in
	CloseCode   int
	CloseReason string
	Err         error
	ConfigSent  bool
	Received    []string
	Duration    time.Duration
}

// Error codes carried by ProbeError
const (
	CodeDialFailed   = "DIAL_FAILED"
	CodeEncodeFailed = "ENCODE_FAILED"
	CodeSendFailed   = "SEND_FAILED"
	CodeReadFailed   = "READ_FAILED"
	CodeCanceled     = "CANCELED"
)

// ProbeError represents a failure that aborted the run
type ProbeError struct {
	Code  string
	Stage Stage
	Err   error
}

func (e *ProbeError) Error() string {
	return e.Err.Error()
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}
