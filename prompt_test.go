package main

import (
	"strings"
	"testing"
)

func TestPrompterString(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		def      string
		expected string
		echoed   string
	}{
		{name: "value entered", input: "appdb\n", expected: "appdb"},
		{name: "default used on empty", input: "\n", def: "localhost", expected: "localhost"},
		{name: "whitespace trimmed", input: "  appdb  \n", expected: "appdb"},
		{name: "empty re-prompts without default", input: "\n\nappdb\n", expected: "appdb", echoed: "Value must not be empty."},
		{name: "last line without newline", input: "appdb", expected: "appdb"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, out := scriptedPrompter(tc.input, "")

			got, err := p.String("Database", tc.def)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("String() = %q; want %q", got, tc.expected)
			}
			if tc.echoed != "" && !strings.Contains(out.String(), tc.echoed) {
				t.Errorf("output %q missing %q", out.String(), tc.echoed)
			}
		})
	}

	t.Run("exhausted input", func(t *testing.T) {
		p, _ := scriptedPrompter("", "")
		if _, err := p.String("Database", ""); err == nil {
			t.Error("expected error but got none")
		}
	})
}

func TestPrompterInt(t *testing.T) {
	t.Run("default on empty", func(t *testing.T) {
		p, _ := scriptedPrompter("\n", "")
		got, err := p.Int("Port", 5432, 1, 65535)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 5432 {
			t.Errorf("Int() = %d; want 5432", got)
		}
	})

	t.Run("re-prompts on garbage and range", func(t *testing.T) {
		p, out := scriptedPrompter("abc\n99999\n5433\n", "")
		got, err := p.Int("Port", 5432, 1, 65535)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 5433 {
			t.Errorf("Int() = %d; want 5433", got)
		}
		if !strings.Contains(out.String(), "whole number") {
			t.Errorf("output %q missing non-integer hint", out.String())
		}
		if !strings.Contains(out.String(), "between 1 and 65535") {
			t.Errorf("output %q missing range hint", out.String())
		}
	})
}

func TestPrompterConfirm(t *testing.T) {
	testCases := []struct {
		input    string
		expected bool
	}{
		{input: "y\n", expected: true},
		{input: "Y\n", expected: true},
		{input: "yes\n", expected: true},
		{input: "YES\n", expected: true},
		{input: "n\n", expected: false},
		{input: "no\n", expected: false},
		{input: "\n", expected: false},
		{input: "maybe\n", expected: false},
	}

	for _, tc := range testCases {
		t.Run(strings.TrimSpace(tc.input)+"_input", func(t *testing.T) {
			p, _ := scriptedPrompter(tc.input, "")
			got, err := p.Confirm("Rotate password?")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Confirm(%q) = %v; want %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestPrompterSecret(t *testing.T) {
	p, out := scriptedPrompter("", "s3cret")

	got, err := p.Secret("Admin password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "s3cret" {
		t.Errorf("Secret() = %q; want %q", got, "s3cret")
	}
	if !strings.Contains(out.String(), "Admin password: ") {
		t.Errorf("output %q missing prompt label", out.String())
	}
}
