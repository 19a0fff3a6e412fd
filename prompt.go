package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// The two code prompts are the only human-in-the-loop checkpoints in the
// run. Empty input re-prompts a few times instead of failing outright: the
// user is mid-transaction and typos are cheap to recover from here.
const maxPromptAttempts = 3

// StdinIsInteractive reports whether stdin is attached to a terminal. The
// run still works with piped input, but a headless CI invocation will hang
// on the code prompts, so main warns when this is false.
func StdinIsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// PromptCode prints label and blocks until a non-empty line is read from r.
// After maxPromptAttempts empty lines it gives up with an error.
func PromptCode(r io.Reader, w io.Writer, label string) (string, error) {
	reader := bufio.NewReader(r)

	for attempt := 1; attempt <= maxPromptAttempts; attempt++ {
		fmt.Fprintf(w, "%s ", label)

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read input: %w", err)
		}

		code := strings.TrimSpace(line)
		if code != "" {
			return code, nil
		}

		fmt.Fprintln(w, T("prompt_empty_retry"))

		if err != nil {
			// EOF with nothing but whitespace read.
			return "", fmt.Errorf("failed to read input: %w", err)
		}
	}

	return "", fmt.Errorf("no code entered after %d attempts", maxPromptAttempts)
}
