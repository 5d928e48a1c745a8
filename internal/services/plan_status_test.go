package services

import (
	"testing"

	"clinicpay/internal/models"
)

func TestComputePlanStatus(t *testing.T) {
	tests := []struct {
		name       string
		current    models.PlanStatus
		paid       int
		total      int
		hasOverdue bool
		expected   models.PlanStatus
	}{
		{
			name:     "new plan with no payments",
			current:  models.PlanStatusPending,
			paid:     0,
			total:    6,
			expected: models.PlanStatusPending,
		},
		{
			name:     "first payment activates the plan",
			current:  models.PlanStatusPending,
			paid:     1,
			total:    6,
			expected: models.PlanStatusActive,
		},
		{
			name:       "overdue requires at least one payment",
			current:    models.PlanStatusPending,
			paid:       0,
			total:      6,
			hasOverdue: true,
			expected:   models.PlanStatusPending,
		},
		{
			name:       "active plan with overdue installment",
			current:    models.PlanStatusActive,
			paid:       2,
			total:      6,
			hasOverdue: true,
			expected:   models.PlanStatusOverdue,
		},
		{
			name:     "all installments paid",
			current:  models.PlanStatusActive,
			paid:     6,
			total:    6,
			expected: models.PlanStatusCompleted,
		},
		{
			name:       "completion beats overdue",
			current:    models.PlanStatusOverdue,
			paid:       6,
			total:      6,
			hasOverdue: true,
			expected:   models.PlanStatusCompleted,
		},
		{
			name:     "paid count past total still completes",
			current:  models.PlanStatusActive,
			paid:     7,
			total:    6,
			expected: models.PlanStatusCompleted,
		},
		{
			name:       "paused plan is frozen",
			current:    models.PlanStatusPaused,
			paid:       3,
			total:      6,
			hasOverdue: true,
			expected:   models.PlanStatusPaused,
		},
		{
			name:     "paused plan stays paused even when fully paid",
			current:  models.PlanStatusPaused,
			paid:     6,
			total:    6,
			expected: models.PlanStatusPaused,
		},
		{
			name:       "cancelled plan is frozen",
			current:    models.PlanStatusCancelled,
			paid:       1,
			total:      6,
			hasOverdue: true,
			expected:   models.PlanStatusCancelled,
		},
		{
			name:     "completed is permanent",
			current:  models.PlanStatusCompleted,
			paid:     0,
			total:    6,
			expected: models.PlanStatusCompleted,
		},
		{
			name:     "zero total never completes",
			current:  models.PlanStatusPending,
			paid:     0,
			total:    0,
			expected: models.PlanStatusPending,
		},
		{
			name:     "overdue plan recovers to active once caught up",
			current:  models.PlanStatusOverdue,
			paid:     3,
			total:    6,
			expected: models.PlanStatusActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputePlanStatus(tt.current, tt.paid, tt.total, tt.hasOverdue)
			if result != tt.expected {
				t.Errorf("ComputePlanStatus(%s, %d, %d, %v) = %s; want %s",
					tt.current, tt.paid, tt.total, tt.hasOverdue, result, tt.expected)
			}
		})
	}
}

func TestComputePlanStatusIsStable(t *testing.T) {
	// Feeding a computed status back in with the same inputs must not move it
	statuses := []models.PlanStatus{
		models.PlanStatusPending,
		models.PlanStatusActive,
		models.PlanStatusOverdue,
	}
	for _, current := range statuses {
		for _, paid := range []int{0, 1, 5, 6} {
			for _, hasOverdue := range []bool{false, true} {
				first := ComputePlanStatus(current, paid, 6, hasOverdue)
				second := ComputePlanStatus(first, paid, 6, hasOverdue)
				if first != second {
					t.Errorf("status not stable: %s with paid=%d overdue=%v gave %s then %s",
						current, paid, hasOverdue, first, second)
				}
			}
		}
	}
}

func TestValidatePlanStatus(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected models.PlanStatus
	}{
		{name: "known status", raw: "active", expected: models.PlanStatusActive},
		{name: "terminal status", raw: "completed", expected: models.PlanStatusCompleted},
		{name: "unknown status defaults to pending", raw: "archived", expected: models.PlanStatusPending},
		{name: "empty string defaults to pending", raw: "", expected: models.PlanStatusPending},
		{name: "case sensitive", raw: "Active", expected: models.PlanStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidatePlanStatus(tt.raw)
			if result != tt.expected {
				t.Errorf("ValidatePlanStatus(%q) = %s; want %s", tt.raw, result, tt.expected)
			}
		})
	}
}

func TestPlanStatusPredicates(t *testing.T) {
	tests := []struct {
		status   models.PlanStatus
		paused   bool
		active   bool
		finished bool
	}{
		{status: models.PlanStatusPending, active: true},
		{status: models.PlanStatusActive, active: true},
		{status: models.PlanStatusOverdue, active: true},
		{status: models.PlanStatusPaused, paused: true},
		{status: models.PlanStatusCancelled, finished: true},
		{status: models.PlanStatusCompleted, finished: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			plan := &models.Plan{Status: tt.status}
			if got := IsPlanPaused(plan); got != tt.paused {
				t.Errorf("IsPlanPaused = %v; want %v", got, tt.paused)
			}
			if got := IsPlanActive(plan); got != tt.active {
				t.Errorf("IsPlanActive = %v; want %v", got, tt.active)
			}
			if got := IsPlanFinished(plan); got != tt.finished {
				t.Errorf("IsPlanFinished = %v; want %v", got, tt.finished)
			}
		})
	}
}
