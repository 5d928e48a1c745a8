package services

import "testing"

func TestCalculateProgress(t *testing.T) {
	tests := []struct {
		name     string
		paid     int
		total    int
		expected int
	}{
		{name: "no payments", paid: 0, total: 6, expected: 0},
		{name: "one of six floors down", paid: 1, total: 6, expected: 16},
		{name: "half paid", paid: 3, total: 6, expected: 50},
		{name: "two of three", paid: 2, total: 3, expected: 66},
		{name: "fully paid", paid: 6, total: 6, expected: 100},
		{name: "overpaid clamps to 100", paid: 7, total: 6, expected: 100},
		{name: "zero total", paid: 3, total: 0, expected: 0},
		{name: "negative total", paid: 3, total: -1, expected: 0},
		{name: "negative paid", paid: -1, total: 6, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateProgress(tt.paid, tt.total)
			if result != tt.expected {
				t.Errorf("CalculateProgress(%d, %d) = %d; want %d", tt.paid, tt.total, result, tt.expected)
			}
		})
	}
}

func TestCalculateProgressBounds(t *testing.T) {
	for paid := -2; paid <= 12; paid++ {
		for total := -2; total <= 10; total++ {
			got := CalculateProgress(paid, total)
			if got < 0 || got > 100 {
				t.Errorf("CalculateProgress(%d, %d) = %d, outside 0..100", paid, total, got)
			}
		}
	}
}
