package coordination

import "time"

const (
	stateReadyStringConstant   = "ready"
	stateSuccessStringConstant = "success"
	stateFailedStringConstant  = "failed"
	stateBlockedStringConstant = "blocked"
)

// State enumerates the coordinator lifecycle states persisted between runs.
type State string

// Coordinator states. StateBlocked overlays StateReady while a cooldown is
// active.
const (
	StateReady   State = State(stateReadyStringConstant)
	StateSuccess State = State(stateSuccessStringConstant)
	StateFailed  State = State(stateFailedStringConstant)
	StateBlocked State = State(stateBlockedStringConstant)
)

// RunRecord describes the outcome of the most recently completed operation.
// It is overwritten after every execution and never deleted.
type RunRecord struct {
	OperationName string    `json:"operation_name"`
	Timestamp     time.Time `json:"timestamp"`
	Success       bool      `json:"success"`
	ErrorMessage  string    `json:"error_message,omitempty"`
}

// Status is the persisted coordinator state. BlockedUntil is non-nil exactly
// when State is StateBlocked; ConsecutiveFailures resets to zero on any
// success or when a block expires.
type Status struct {
	LastOperation       *RunRecord `json:"last_operation"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	BlockedUntil        *time.Time `json:"blocked_until,omitempty"`
	State               State      `json:"state"`
}

// NewReadyStatus returns the default status used before any run has been
// recorded or when the persisted record cannot be read.
func NewReadyStatus() Status {
	return Status{State: StateReady}
}
