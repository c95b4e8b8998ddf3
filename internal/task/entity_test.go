package task

import (
	"testing"
)

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		input    string
		expected Priority
	}{
		{"low", PriorityLow},
		{"LOW", PriorityLow},
		{"  high ", PriorityHigh},
		{"medium", PriorityMedium},
		{"urgent", PriorityMedium},
		{"", PriorityMedium},
		{"banana", PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizePriority(tt.input); got != tt.expected {
				t.Errorf("NormalizePriority(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected Status
		wantErr  bool
	}{
		{input: "pending", expected: StatusPending},
		{input: "In-Progress", expected: StatusInProgress},
		{input: " completed ", expected: StatusCompleted},
		{input: "done", wantErr: true},
		{input: "", wantErr: true},
		{input: "in progress", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseStatus(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStatus(%q) failed: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
