package hash

import (
	"encoding/hex"
	"fmt"
	gohash "hash"
	"io"
)

const bufferSize = 32 * 1024 // 32KB buffer for streaming

// Calculator computes the hex digest of a byte stream.
type Calculator interface {
	Calculate(r io.Reader) (string, error)
}

// digestCalculator wraps a hash constructor. Every Calculate call starts
// from a fresh digest, so a calculator can be reused across files.
type digestCalculator struct {
	newHash    func() gohash.Hash
	bufferSize int
}

// NewCalculator returns a Calculator for the given hash constructor.
func NewCalculator(newHash func() gohash.Hash) Calculator {
	return &digestCalculator{newHash: newHash, bufferSize: bufferSize}
}

// Calculate reads r to EOF in fixed-size chunks and returns the lowercase
// hex encoding of the digest.
func (c *digestCalculator) Calculate(r io.Reader) (string, error) {
	h := c.newHash()
	buf := make([]byte, c.bufferSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
