package lifecycle

import (
	"testing"

	"github.com/nenoreno/jakes-bath-house/internal/model"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from model.AppointmentStatus
		to   model.AppointmentStatus
		want bool
	}{
		{"confirmed to in_progress", model.AppointmentStatusConfirmed, model.AppointmentStatusInProgress, true},
		{"in_progress to completed", model.AppointmentStatusInProgress, model.AppointmentStatusCompleted, true},
		{"confirmed to cancelled", model.AppointmentStatusConfirmed, model.AppointmentStatusCancelled, true},
		{"in_progress to cancelled", model.AppointmentStatusInProgress, model.AppointmentStatusCancelled, true},
		{"confirmed to completed skips a step", model.AppointmentStatusConfirmed, model.AppointmentStatusCompleted, false},
		{"completed to in_progress reverses", model.AppointmentStatusCompleted, model.AppointmentStatusInProgress, false},
		{"completed to cancelled", model.AppointmentStatusCompleted, model.AppointmentStatusCancelled, false},
		{"cancelled to confirmed", model.AppointmentStatusCancelled, model.AppointmentStatusConfirmed, false},
		{"repeat same status is no-op", model.AppointmentStatusInProgress, model.AppointmentStatusInProgress, true},
		{"unknown target", model.AppointmentStatusConfirmed, model.AppointmentStatus("archived"), false},
		{"unknown source", model.AppointmentStatus("draft"), model.AppointmentStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Fatalf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestIsValidStatus(t *testing.T) {
	valid := []model.AppointmentStatus{
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusInProgress,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
	}
	for _, s := range valid {
		if !IsValidStatus(s) {
			t.Fatalf("IsValidStatus(%q) = false, want true", s)
		}
	}

	for _, s := range []model.AppointmentStatus{"", "pending", "CONFIRMED", "done"} {
		if IsValidStatus(s) {
			t.Fatalf("IsValidStatus(%q) = true, want false", s)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(model.AppointmentStatusCompleted) || !IsTerminal(model.AppointmentStatusCancelled) {
		t.Fatalf("completed and cancelled must be terminal")
	}
	if IsTerminal(model.AppointmentStatusConfirmed) || IsTerminal(model.AppointmentStatusInProgress) {
		t.Fatalf("confirmed and in_progress must not be terminal")
	}
}
