package services

import (
	"testing"
	"time"

	"clinicpay/internal/models"
)

func TestComputeResumeWarnings(t *testing.T) {
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	requestID := uint(42)

	tests := []struct {
		name         string
		installments []models.Installment
		expected     ResumeWarnings
	}{
		{
			name:         "no installments",
			installments: nil,
			expected:     ResumeWarnings{},
		},
		{
			name: "clean paused schedule in the future",
			installments: []models.Installment{
				{Status: models.InstallmentStatusPaused, DueDate: today.AddDate(0, 0, 7)},
				{Status: models.InstallmentStatusPaused, DueDate: today.AddDate(0, 1, 7)},
			},
			expected: ResumeWarnings{},
		},
		{
			name: "paused installment already past due",
			installments: []models.Installment{
				{Status: models.InstallmentStatusPaused, DueDate: today.AddDate(0, 0, -3)},
			},
			expected: ResumeWarnings{HasPastDue: true},
		},
		{
			name: "paused installment due today is not past due",
			installments: []models.Installment{
				{Status: models.InstallmentStatusPaused, DueDate: today},
			},
			expected: ResumeWarnings{},
		},
		{
			name: "paused installment with an outstanding request",
			installments: []models.Installment{
				{Status: models.InstallmentStatusPaused, DueDate: today.AddDate(0, 0, 7), PaymentRequestID: &requestID},
			},
			expected: ResumeWarnings{HadSentRequests: true},
		},
		{
			name: "paid history is reported",
			installments: []models.Installment{
				{Status: models.InstallmentStatusPaid, DueDate: today.AddDate(0, -1, 0)},
				{Status: models.InstallmentStatusPaused, DueDate: today.AddDate(0, 0, 7)},
			},
			expected: ResumeWarnings{HasPaid: true},
		},
		{
			name: "refunded counts as paid history",
			installments: []models.Installment{
				{Status: models.InstallmentStatusRefunded, DueDate: today.AddDate(0, -1, 0)},
				{Status: models.InstallmentStatusPaused, DueDate: today.AddDate(0, 0, 7)},
			},
			expected: ResumeWarnings{HasPaid: true},
		},
		{
			name: "past due on a non-paused installment does not warn",
			installments: []models.Installment{
				{Status: models.InstallmentStatusSent, DueDate: today.AddDate(0, 0, -3), PaymentRequestID: &requestID},
				{Status: models.InstallmentStatusPaused, DueDate: today.AddDate(0, 0, 7)},
			},
			expected: ResumeWarnings{},
		},
		{
			name: "all warnings at once",
			installments: []models.Installment{
				{Status: models.InstallmentStatusPaid, DueDate: today.AddDate(0, -2, 0)},
				{Status: models.InstallmentStatusPaused, DueDate: today.AddDate(0, -1, 0), PaymentRequestID: &requestID},
				{Status: models.InstallmentStatusPaused, DueDate: today.AddDate(0, 0, 7)},
			},
			expected: ResumeWarnings{HadSentRequests: true, HasPastDue: true, HasPaid: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeResumeWarnings(tt.installments, today)
			if result != tt.expected {
				t.Errorf("ComputeResumeWarnings = %+v; want %+v", result, tt.expected)
			}
		})
	}
}
