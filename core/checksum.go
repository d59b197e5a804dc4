package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// ComputeSHA256 computes the SHA256 hash of a file and returns it as a
// lowercase hexadecimal string (64 characters).
//
// Returns an error if the file cannot be opened or read.
func ComputeSHA256(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %q: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to read file %q: %w", path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// VerifyChecksum computes the SHA256 hash of a file and compares it against
// an expected value. Comparison is case-insensitive.
//
// Returns true if the computed hash matches, or an error if the file cannot
// be read or the expected hash is not a valid SHA256 hex string.
func VerifyChecksum(path string, expectedHash string) (bool, error) {
	if expectedHash == "" {
		return false, fmt.Errorf("expected hash cannot be empty")
	}
	if len(expectedHash) != 64 {
		return false, fmt.Errorf("invalid SHA256 hash length: expected 64 characters, got %d", len(expectedHash))
	}
	if _, err := hex.DecodeString(expectedHash); err != nil {
		return false, fmt.Errorf("invalid SHA256 hash format: %w", err)
	}

	computed, err := ComputeSHA256(path)
	if err != nil {
		return false, err
	}

	return strings.EqualFold(computed, expectedHash), nil
}
