// Package id generates prefixed NanoID identifiers. The prefix makes IDs
// self-describing in logs ("read-...", "hl-...", "listen-...").
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate creates a prefixed unique ID, e.g. "read-V1StGXR8_Z5jdHi6B-myT".
// The default NanoID alphabet is URL-safe and 21 characters long.
// Fails only when the system cannot supply secure random bytes.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics on failure. Use in seeds and
// initialization where an entropy failure should crash the program.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
