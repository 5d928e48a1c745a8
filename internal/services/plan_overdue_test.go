package services

import (
	"testing"
	"time"

	"clinicpay/internal/models"
)

func TestIsInstallmentOverdue(t *testing.T) {
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		status   models.InstallmentStatus
		dueDate  time.Time
		expected bool
	}{
		{
			name:     "pending and past due",
			status:   models.InstallmentStatusPending,
			dueDate:  today.AddDate(0, 0, -1),
			expected: true,
		},
		{
			name:     "sent and past due",
			status:   models.InstallmentStatusSent,
			dueDate:  today.AddDate(0, 0, -30),
			expected: true,
		},
		{
			name:     "already marked overdue still counts",
			status:   models.InstallmentStatusOverdue,
			dueDate:  today.AddDate(0, 0, -7),
			expected: true,
		},
		{
			name:     "due today is not overdue",
			status:   models.InstallmentStatusPending,
			dueDate:  today,
			expected: false,
		},
		{
			name:     "due later today in another timezone is not overdue",
			status:   models.InstallmentStatusPending,
			dueDate:  time.Date(2026, 3, 15, 23, 30, 0, 0, time.FixedZone("AEST", 10*3600)),
			expected: false,
		},
		{
			name:     "due tomorrow",
			status:   models.InstallmentStatusPending,
			dueDate:  today.AddDate(0, 0, 1),
			expected: false,
		},
		{
			name:     "paid is never overdue",
			status:   models.InstallmentStatusPaid,
			dueDate:  today.AddDate(0, 0, -10),
			expected: false,
		},
		{
			name:     "refunded is never overdue",
			status:   models.InstallmentStatusRefunded,
			dueDate:  today.AddDate(0, 0, -10),
			expected: false,
		},
		{
			name:     "cancelled is never overdue",
			status:   models.InstallmentStatusCancelled,
			dueDate:  today.AddDate(0, 0, -10),
			expected: false,
		},
		{
			name:     "paused is never overdue",
			status:   models.InstallmentStatusPaused,
			dueDate:  today.AddDate(0, 0, -10),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsInstallmentOverdue(tt.status, tt.dueDate, today)
			if result != tt.expected {
				t.Errorf("IsInstallmentOverdue(%s, %s) = %v; want %v",
					tt.status, tt.dueDate.Format("2006-01-02"), result, tt.expected)
			}
		})
	}
}
