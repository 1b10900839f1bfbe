package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const bufferSize = 32 * 1024 // 32KB buffer for streaming

// Seed is the starting accumulator of the chain fold. A directory with no
// children folds zero times and keeps this value as its digest.
const Seed = ""

// HashFile computes the hex-encoded SHA-256 of a file's contents, streaming
// so large files are never held in memory.
func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	h := sha256.New()
	buf := make([]byte, bufferSize)

	for {
		n, err := file.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashString returns the hex-encoded SHA-256 of s.
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Combine is one step of the chain fold: the two hex strings are
// concatenated and the result hashed.
func Combine(acc, digest string) string {
	return HashString(acc + digest)
}

// Chain left-folds digests with Combine starting from Seed. The fold is
// order sensitive; callers must pass children in their canonical order.
func Chain(digests []string) string {
	acc := Seed
	for _, d := range digests {
		acc = Combine(acc, d)
	}
	return acc
}

// SHA256Func is a hash function adapter for go-merkletree.
func SHA256Func(data []byte) ([]byte, error) {
	sum := sha256.Sum256(data)
	return sum[:], nil
}
