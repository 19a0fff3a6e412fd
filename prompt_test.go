package main

import (
	"strings"
	"testing"
)

func TestPromptCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"simple code", "123456\n", "123456", false},
		{"surrounding whitespace", "  987654  \n", "987654", false},
		{"empty then valid", "\n\nABC123\n", "ABC123", false},
		{"all empty lines", "\n\n\n", "", true},
		{"immediate eof", "", "", true},
		{"whitespace then eof", "   \n", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			got, err := PromptCode(strings.NewReader(tt.input), &out, "Enter code:")

			if tt.wantErr {
				if err == nil {
					t.Fatalf("PromptCode(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("PromptCode(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("PromptCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPromptCodeWritesLabel(t *testing.T) {
	var out strings.Builder
	if _, err := PromptCode(strings.NewReader("42\n"), &out, "Enter payment code:"); err != nil {
		t.Fatalf("PromptCode returned error: %v", err)
	}
	if !strings.Contains(out.String(), "Enter payment code:") {
		t.Errorf("prompt output %q missing label", out.String())
	}
}

func TestPromptCodeStopsAfterMaxAttempts(t *testing.T) {
	// More empty lines than attempts: must give up, not read forever.
	input := strings.Repeat("\n", maxPromptAttempts+5)

	var out strings.Builder
	if _, err := PromptCode(strings.NewReader(input), &out, "Enter code:"); err == nil {
		t.Fatal("PromptCode should fail after max empty attempts")
	}
	if !strings.Contains(out.String(), T("prompt_empty_retry")) {
		t.Errorf("output %q missing the retry notice", out.String())
	}
}
