package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidSpec is returned when an enqueue request cannot be turned
// into a job. No job record is created in that case.
var ErrInvalidSpec = errors.New("invalid job spec")

// Spec is the JSON document accepted by enqueue.
//
//	{"id":"job1","command":"echo hello","max_retries":5}
//
// id and max_retries are optional; command is required.
type Spec struct {
	ID         string `json:"id"`
	Command    string `json:"command"`
	MaxRetries int    `json:"max_retries"`
}

// ParseSpec decodes and validates a job spec. When the spec carries no
// id, a random UUID is assigned. When it carries no max_retries, the
// given default retry limit is used.
func ParseSpec(raw string, defaultRetryLimit int) (*Spec, error) {
	var s Spec
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	if s.Command == "" {
		return nil, fmt.Errorf("%w: missing required field %q", ErrInvalidSpec, "command")
	}
	if s.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: max_retries must not be negative", ErrInvalidSpec)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.MaxRetries == 0 {
		s.MaxRetries = defaultRetryLimit
	}
	return &s, nil
}
