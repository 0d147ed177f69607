package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// Prompter collects operator input line by line. Invalid values re-prompt;
// only a broken input stream surfaces as an error.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// readSecret is swapped out in tests; the default reads from the
	// terminal with echo suppressed.
	readSecret func() (string, error)
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// String prompts until a non-empty value is entered. An empty answer picks
// the default when one is given.
func (p *Prompter) String(label, def string) (string, error) {
	for {
		if def != "" {
			fmt.Fprintf(p.out, "%s [%s]: ", label, def)
		} else {
			fmt.Fprintf(p.out, "%s: ", label)
		}

		value, err := p.readLine()
		if err != nil {
			return "", err
		}
		if value == "" && def != "" {
			return def, nil
		}
		if value != "" {
			return value, nil
		}
		fmt.Fprintln(p.out, "Value must not be empty.")
	}
}

// Int prompts until an integer in [min, max] is entered, defaulting on an
// empty answer.
func (p *Prompter) Int(label string, def, min, max int) (int, error) {
	for {
		fmt.Fprintf(p.out, "%s [%d]: ", label, def)

		value, err := p.readLine()
		if err != nil {
			return 0, err
		}
		if value == "" {
			return def, nil
		}

		n, err := strconv.Atoi(value)
		if err != nil {
			fmt.Fprintln(p.out, "Enter a whole number.")
			continue
		}
		if n < min || n > max {
			fmt.Fprintf(p.out, "Enter a number between %d and %d.\n", min, max)
			continue
		}
		return n, nil
	}
}

// Confirm asks a yes/no question defaulting to no.
func (p *Prompter) Confirm(label string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", label)

	value, err := p.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(value) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Secret reads a value with terminal echo suppressed. Empty input is
// accepted: some servers trust local connections without a password.
func (p *Prompter) Secret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)

	if p.readSecret != nil {
		return p.readSecret()
	}

	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(raw), nil
}
