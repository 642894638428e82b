package model

import "testing"

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusRequested, StatusApproved, true},
		{StatusApproved, StatusConfirmed, true},
		{StatusConfirmed, StatusSeated, true},
		{StatusSeated, StatusArrived, true},

		// Cancellation is allowed from every non-terminal state.
		{StatusRequested, StatusCancelled, true},
		{StatusApproved, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusSeated, StatusCancelled, true},
		{StatusArrived, StatusCancelled, true},

		// No skipping ahead or moving backwards.
		{StatusRequested, StatusSeated, false},
		{StatusSeated, StatusConfirmed, false},
		{StatusArrived, StatusSeated, false},

		// Completion never goes through the generic transition.
		{StatusArrived, StatusCompleted, false},
		{StatusSeated, StatusCompleted, false},

		// Terminal states are final.
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusRequested, false},
		{StatusCancelled, StatusCancelled, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestValidStatus(t *testing.T) {
	t.Parallel()

	for _, s := range []string{
		StatusRequested, StatusApproved, StatusConfirmed,
		StatusSeated, StatusArrived, StatusCompleted, StatusCancelled,
	} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%s) = false", s)
		}
	}
	for _, s := range []string{"", "seated", "PENDING", "HELD"} {
		if ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = true", s)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	if !IsTerminal(StatusCompleted) || !IsTerminal(StatusCancelled) {
		t.Error("COMPLETED and CANCELLED must be terminal")
	}
	for _, s := range []string{StatusRequested, StatusApproved, StatusConfirmed, StatusSeated, StatusArrived} {
		if IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = true", s)
		}
	}
}

func TestCanComplete(t *testing.T) {
	t.Parallel()

	if !CanComplete(StatusArrived) {
		t.Error("CanComplete(ARRIVED) = false")
	}
	for _, s := range []string{StatusRequested, StatusApproved, StatusConfirmed, StatusSeated, StatusCompleted, StatusCancelled} {
		if CanComplete(s) {
			t.Errorf("CanComplete(%s) = true", s)
		}
	}
}

func TestAutoAdvancesOnAssign(t *testing.T) {
	t.Parallel()

	for _, s := range []string{StatusRequested, StatusApproved, StatusConfirmed} {
		if !AutoAdvancesOnAssign(s) {
			t.Errorf("AutoAdvancesOnAssign(%s) = false", s)
		}
	}
	for _, s := range []string{StatusSeated, StatusArrived, StatusCompleted, StatusCancelled} {
		if AutoAdvancesOnAssign(s) {
			t.Errorf("AutoAdvancesOnAssign(%s) = true", s)
		}
	}
}
