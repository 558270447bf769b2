// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ovpnas.
//
// go-ovpnas is dual-licensed under AGPL-3.0 and a Commercial License.

package ovpnas

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// passwordSymbols is the symbol set Access Server accepts in passwords.
// Note the absence of colon and double quotation marks.
const passwordSymbols = "!@#$%&'()*+,-/[\\]^_`{|}~<>."

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789" + passwordSymbols

// IsPasswordComplex reports whether a password satisfies the Access Server
// complexity requirements: at least 8 characters with an uppercase letter,
// a lowercase letter, a digit and a symbol from the accepted set. Returns
// ErrPasswordComplexity describing the rules when it does not.
func IsPasswordComplex(password string) error {
	var upper, lower, digit, symbol bool
	for _, r := range password {
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
	if len(password) < 8 || !upper || !lower || !digit || !symbol {
		return fmt.Errorf(
			"%w: passwords must be at least 8 characters and contain an "+
				"uppercase letter, a lowercase letter, a digit and a symbol from %s",
			ErrPasswordComplexity, passwordSymbols,
		)
	}
	return nil
}

// GenerateRandomPassword produces a random password of the given length
// that satisfies the complexity requirements. Length must be at least 8.
// Candidates are drawn until one passes the complexity check, bounded by a
// fixed attempt budget.
func GenerateRandomPassword(length int) (string, error) {
	if length < 8 {
		return "", fmt.Errorf("%w: length must be at least 8", ErrPasswordGeneration)
	}

	const maxAttempts = 10
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate, err := randomString(length)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrPasswordGeneration, err)
		}
		if IsPasswordComplex(candidate) == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf(
		"%w: no suitably complex password found in %d attempts",
		ErrPasswordGeneration, maxAttempts,
	)
}

func randomString(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	alphabetSize := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}
