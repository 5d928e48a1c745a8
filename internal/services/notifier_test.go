package services

import (
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "national format",
			input:    "07911123456",
			expected: "+447911123456",
		},
		{
			name:     "already international",
			input:    "+447911123456",
			expected: "+447911123456",
		},
		{
			name:     "country code without plus",
			input:    "447911123456",
			expected: "+447911123456",
		},
		{
			name:     "spaces are stripped",
			input:    "07911 123 456",
			expected: "+447911123456",
		},
		{
			name:     "leading and trailing whitespace",
			input:    "  07911123456  ",
			expected: "+447911123456",
		},
		{
			name:     "foreign international number untouched",
			input:    "+6281246361829",
			expected: "+6281246361829",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizePhone(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizePhone(%q) = %q; want %q", tt.input, result, tt.expected)
			}
		})
	}
}
