package main

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/sethvargo/go-password/password"
)

// passwordSymbols deliberately excludes quotes, backticks, and backslashes
// so generated credentials survive copy-paste into shells and DSNs.
const passwordSymbols = "!@#$%^&*()-_=+,.?~"

// MinPasswordLength leaves room for at least one character of each class
// with some slack; shorter requests are rejected at the prompt as well.
const MinPasswordLength = 8

// GeneratePassword produces a random credential of exactly length
// characters containing at least one uppercase letter, one lowercase
// letter, one digit, and one symbol from passwordSymbols. The generator is
// backed by crypto/rand; candidates missing a class are resampled.
func GeneratePassword(length int) (string, error) {
	if length < MinPasswordLength {
		return "", fmt.Errorf("password length %d below minimum %d", length, MinPasswordLength)
	}

	gen, err := password.NewGenerator(&password.GeneratorInput{
		Symbols: passwordSymbols,
	})
	if err != nil {
		return "", fmt.Errorf("building password generator: %w", err)
	}

	for {
		pw, err := gen.Generate(length, 1, 1, false, true)
		if err != nil {
			return "", fmt.Errorf("generating password: %w", err)
		}
		// Digit and symbol counts are guaranteed above; letter case is not.
		if hasAllClasses(pw) {
			return pw, nil
		}
	}
}

func hasAllClasses(pw string) bool {
	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}
