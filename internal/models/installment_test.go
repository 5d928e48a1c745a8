package models

import "testing"

func TestInstallmentIsPaidLike(t *testing.T) {
	tests := []struct {
		status   InstallmentStatus
		expected bool
	}{
		{status: InstallmentStatusPaid, expected: true},
		{status: InstallmentStatusRefunded, expected: true},
		{status: InstallmentStatusPartiallyRefunded, expected: true},
		{status: InstallmentStatusPending, expected: false},
		{status: InstallmentStatusSent, expected: false},
		{status: InstallmentStatusOverdue, expected: false},
		{status: InstallmentStatusCancelled, expected: false},
		{status: InstallmentStatusPaused, expected: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			inst := Installment{Status: tt.status}
			if got := inst.IsPaidLike(); got != tt.expected {
				t.Errorf("IsPaidLike() with status %s = %v; want %v", tt.status, got, tt.expected)
			}
		})
	}
}
