package model

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestParseSpec(t *testing.T) {
	s, err := ParseSpec(`{"id":"job1","command":"echo hello","max_retries":5}`, 3)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.ID != "job1" || s.Command != "echo hello" || s.MaxRetries != 5 {
		t.Errorf("spec = %+v", s)
	}
}

func TestParseSpecGeneratesID(t *testing.T) {
	s, err := ParseSpec(`{"command":"echo hello"}`, 3)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := uuid.Parse(s.ID); err != nil {
		t.Errorf("generated id %q is not a UUID: %v", s.ID, err)
	}
}

func TestParseSpecDefaultRetries(t *testing.T) {
	s, err := ParseSpec(`{"command":"echo hello"}`, 7)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.MaxRetries != 7 {
		t.Errorf("max_retries = %d, want configured default 7", s.MaxRetries)
	}
}

func TestParseSpecRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `not json at all`},
		{"missing command", `{"id":"job1"}`},
		{"empty command", `{"id":"job1","command":""}`},
		{"negative retries", `{"command":"true","max_retries":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpec(tt.raw, 3)
			if !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("err = %v, want ErrInvalidSpec", err)
			}
		})
	}
}

func TestValidState(t *testing.T) {
	for _, st := range States {
		if !ValidState(st) {
			t.Errorf("ValidState(%q) = false", st)
		}
	}
	if ValidState("failed") {
		t.Error("ValidState(failed) = true, want false")
	}
}
