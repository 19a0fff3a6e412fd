package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// RunArtifacts owns the output of one run: a timestamped directory holding
// an append-only run.log and the screenshots taken along the way. Created
// at run start, never mutated after run end.
type RunArtifacts struct {
	Dir   string
	RunID string
	Token string
	Log   *log.Logger

	logFile *os.File
}

// NewRunArtifacts creates runs/<timestamp>/ with its run.log. Log lines go
// to both stdout and the file. The uuid token correlates artifacts when
// several runs share a second-resolution timestamp in outside tooling.
func NewRunArtifacts(baseDir string) (*RunArtifacts, error) {
	runID := time.Now().Format("20060102_150405")
	dir := filepath.Join(baseDir, runID)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	logFile, err := os.OpenFile(filepath.Join(dir, "run.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open run.log: %w", err)
	}

	ra := &RunArtifacts{
		Dir:     dir,
		RunID:   runID,
		Token:   uuid.New().String(),
		Log:     log.New(io.MultiWriter(os.Stdout, logFile), "", log.LstdFlags),
		logFile: logFile,
	}

	ra.Log.Printf("Starting automation run_id=%s token=%s", ra.RunID, ra.Token)
	return ra, nil
}

func (ra *RunArtifacts) Close() {
	if ra.logFile != nil {
		ra.logFile.Close()
		ra.logFile = nil
	}
}

// SaveScreenshot writes PNG data under screenshots/ with a timestamped,
// sanitized name and returns the path.
func (ra *RunArtifacts) SaveScreenshot(data []byte, step string) (string, error) {
	name := time.Now().Format("20060102_150405") + "_" + sanitizeStepName(step) + ".png"
	path := filepath.Join(ra.Dir, "screenshots", name)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshots directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}

	return path, nil
}

func sanitizeStepName(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
