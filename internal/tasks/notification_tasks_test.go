package tasks

import (
	"testing"
	"time"

	"clinicpay/internal/models"
)

func TestRenderReminder(t *testing.T) {
	plan := models.Plan{
		Title: "Orthodontic treatment",
		Patient: models.Patient{
			Name: "Sam Carter",
		},
	}
	inst := models.Installment{
		PaymentNumber: 2,
		TotalPayments: 6,
		Amount:        12550,
		DueDate:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{
			name:     "all placeholders",
			template: "Hi $name, payment $payment_number of $total for $plan_title ($amount) was due on $due_date.",
			expected: "Hi Sam Carter, payment 2 of 6 for Orthodontic treatment (£125.50) was due on 2026-03-01.",
		},
		{
			name:     "no placeholders",
			template: "Just a nudge.",
			expected: "Just a nudge.",
		},
		{
			name:     "repeated placeholder",
			template: "$name $name",
			expected: "Sam Carter Sam Carter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := renderReminder(tt.template, plan, inst)
			if result != tt.expected {
				t.Errorf("renderReminder = %q; want %q", result, tt.expected)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		pence    int64
		expected string
	}{
		{pence: 12550, expected: "£125.50"},
		{pence: 100, expected: "£1.00"},
		{pence: 5, expected: "£0.05"},
		{pence: 0, expected: "£0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := formatAmount(tt.pence); got != tt.expected {
				t.Errorf("formatAmount(%d) = %q; want %q", tt.pence, got, tt.expected)
			}
		})
	}
}

func TestArgUint(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]interface{}
		key      string
		expected uint
		ok       bool
	}{
		{name: "float64 from JSON", args: map[string]interface{}{"plan_id": float64(7)}, key: "plan_id", expected: 7, ok: true},
		{name: "int", args: map[string]interface{}{"plan_id": 7}, key: "plan_id", expected: 7, ok: true},
		{name: "uint", args: map[string]interface{}{"plan_id": uint(7)}, key: "plan_id", expected: 7, ok: true},
		{name: "missing key", args: map[string]interface{}{}, key: "plan_id", ok: false},
		{name: "wrong type", args: map[string]interface{}{"plan_id": "7"}, key: "plan_id", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := argUint(tt.args, tt.key)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("argUint = (%d, %v); want (%d, %v)", got, ok, tt.expected, tt.ok)
			}
		})
	}
}
