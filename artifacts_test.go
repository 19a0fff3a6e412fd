package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRunArtifacts(t *testing.T) {
	base := t.TempDir()

	artifacts, err := NewRunArtifacts(base)
	if err != nil {
		t.Fatalf("NewRunArtifacts returned error: %v", err)
	}
	defer artifacts.Close()

	if artifacts.RunID == "" {
		t.Error("RunID should not be empty")
	}
	if artifacts.Token == "" {
		t.Error("Token should not be empty")
	}
	if filepath.Dir(artifacts.Dir) != base {
		t.Errorf("Dir = %q, want a child of %q", artifacts.Dir, base)
	}

	artifacts.Log.Printf("hello from the run")
	artifacts.Close()

	data, err := os.ReadFile(filepath.Join(artifacts.Dir, "run.log"))
	if err != nil {
		t.Fatalf("run.log was not created: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello from the run") {
		t.Error("run.log should contain logged lines")
	}
	if !strings.Contains(content, artifacts.Token) {
		t.Error("run.log should record the run token")
	}
}

func TestSaveScreenshot(t *testing.T) {
	artifacts, err := NewRunArtifacts(t.TempDir())
	if err != nil {
		t.Fatalf("NewRunArtifacts returned error: %v", err)
	}
	defer artifacts.Close()

	path, err := artifacts.SaveScreenshot([]byte("not-a-real-png"), "cart opened!")
	if err != nil {
		t.Fatalf("SaveScreenshot returned error: %v", err)
	}

	if filepath.Dir(path) != filepath.Join(artifacts.Dir, "screenshots") {
		t.Errorf("screenshot path %q not under screenshots/", path)
	}
	if !strings.HasSuffix(path, "_cart_opened_.png") {
		t.Errorf("screenshot name %q should carry the sanitized step", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("screenshot was not written: %v", err)
	}
	if string(data) != "not-a-real-png" {
		t.Error("screenshot content mismatch")
	}
}

func TestSanitizeStepName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"login_form", "login_form"},
		{"cart opened", "cart_opened"},
		{"wild/step name", "wild_step_name"},
		{"ok-123", "ok-123"},
	}

	for _, tt := range tests {
		if got := sanitizeStepName(tt.input); got != tt.want {
			t.Errorf("sanitizeStepName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
