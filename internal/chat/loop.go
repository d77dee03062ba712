// Package chat implements the interactive conversation loop around the
// orchestrator.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"

	"github.com/shopflow-ai/shopflow/internal/observability"
	"github.com/shopflow-ai/shopflow/internal/orchestration"
)

// LineReader abstracts the interactive prompt so the loop is testable.
type LineReader interface {
	// Prompt displays the prompt and reads one line.
	Prompt(prompt string) (string, error)

	// AppendHistory records a line for up-arrow recall.
	AppendHistory(line string)

	// Close releases terminal state.
	Close() error
}

// linerReader wraps a liner REPL state.
type linerReader struct {
	state *liner.State
}

// NewLinerReader creates a line reader backed by liner, with Ctrl-C
// aborting the prompt.
func NewLinerReader() LineReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	return &linerReader{state: state}
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	return r.state.Prompt(prompt)
}

func (r *linerReader) AppendHistory(line string) {
	r.state.AppendHistory(line)
}

func (r *linerReader) Close() error {
	return r.state.Close()
}

// IsExitCommand reports whether line is one of the recognized exit tokens
// (case-insensitive quit, exit, q).
func IsExitCommand(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

// Loop is the blocking read-eval conversation loop. One orchestrator
// invocation per non-empty input line; per-turn failures are reported and
// the loop continues.
type Loop struct {
	orc    orchestration.Orchestrator
	reader LineReader
	out    io.Writer
}

// NewLoop creates a conversation loop.
func NewLoop(orc orchestration.Orchestrator, reader LineReader, out io.Writer) *Loop {
	return &Loop{orc: orc, reader: reader, out: out}
}

// Run blocks until an exit command, end of input, interrupt, or context
// cancellation. Returns nil on any graceful exit.
func (l *Loop) Run(ctx context.Context) error {
	fmt.Fprintln(l.out, "Shopping Agent: Hello! How can I help you today?")
	fmt.Fprintln(l.out)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(l.out, "\nGoodbye!")
			return nil
		default:
		}

		line, err := l.reader.Prompt("> ")
		switch {
		case errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF):
			fmt.Fprintln(l.out, "\nGoodbye!")
			return nil
		case err != nil:
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if IsExitCommand(line) {
			fmt.Fprintln(l.out, "\nThank you for shopping with us!")
			return nil
		}
		l.reader.AppendHistory(line)

		_, err = l.orc.Orchestrate(ctx, line)
		observability.CountTurn(err)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(l.out, "\nGoodbye!")
				return nil
			}
			fmt.Fprintf(l.out, "Error: %v\n\n", err)
			continue
		}
		fmt.Fprintln(l.out)
	}
}
