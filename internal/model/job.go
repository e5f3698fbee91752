package model

import "time"

// Job states. Transitions only move along
// pending -> processing -> {completed | pending | dead},
// plus the explicit dead -> pending resurrection.
const (
	StatePending    = "pending"
	StateProcessing = "processing"
	StateCompleted  = "completed"
	StateDead       = "dead"
)

// States lists every job state in display order.
var States = []string{StatePending, StateProcessing, StateCompleted, StateDead}

// ValidState reports whether s is a known job state.
func ValidState(s string) bool {
	for _, st := range States {
		if s == st {
			return true
		}
	}
	return false
}

// Job is the unit of work. One row in the jobs table.
type Job struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	State      string    `json:"state"`
	Attempts   int       `json:"attempts"`
	RetryLimit int       `json:"retry_limit"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	// NextRunAt gates claim eligibility: while set and in the future,
	// a pending job is skipped. Zero value means "runnable now".
	NextRunAt time.Time `json:"next_run_at,omitempty"`
}
