package dataset

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// HashImage computes the BLAKE2b-256 digest of an image file, hex encoded.
// Byte-identical files hash identically regardless of filename, which is
// what the duplicate-image check needs.
func HashImage(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // Paths come from walking the user's dataset
	if err != nil {
		return "", fmt.Errorf("failed to open image for hashing: %w", err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("failed to initialize hash: %w", err)
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash image: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
