// File: internal/ui/prompt/prompt.go
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Defines the interface for prompting the user for input
type Prompter interface {
	// Asks the user for confirmation by requiring them to type a specific expected value
	Confirm(message string, expectedValue string) (bool, error)
	// Shows message and returns the line the user typed, trimmed
	Ask(message string) (string, error)
}

// Provides a standard implementation of the Prompter interface using specified input/output streams
type StandardPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// Creates a new StandardPrompter with the given input and output streams
func NewStandardPrompter(in io.Reader, out io.Writer) *StandardPrompter {
	return &StandardPrompter{
		reader: bufio.NewReader(in),
		writer: out,
	}
}

// Asks the user for confirmation by requiring them to type a specific expected value
func (p *StandardPrompter) Confirm(message string, expectedValue string) (bool, error) {
	if expectedValue == "" {
		return false, fmt.Errorf("expected confirmation value cannot be empty")
	}

	fmt.Fprintln(p.writer, message)
	fmt.Fprintf(p.writer, "To confirm, please type '%s': ", expectedValue)

	input, err := p.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}

	return input == expectedValue, nil
}

func (p *StandardPrompter) Ask(message string) (string, error) {
	fmt.Fprint(p.writer, message)
	return p.readLine()
}

func (p *StandardPrompter) readLine() (string, error) {
	input, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("error reading user input: %w", err)
	}
	if errors.Is(err, io.EOF) && input == "" {
		return "", io.EOF
	}
	return strings.TrimSpace(input), nil
}
