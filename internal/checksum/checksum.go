package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// Writer computes the SHA-256 of everything written to it.
// Not safe for concurrent use.
type Writer struct {
	h hash.Hash
	n int64
}

// New creates an empty Writer.
func New() *Writer {
	return &Writer{h: sha256.New()}
}

// Write never fails.
func (w *Writer) Write(p []byte) (int, error) {
	n, _ := w.h.Write(p)
	w.n += int64(n)
	return n, nil
}

// Sum returns the lowercase hex digest of the bytes written so far.
func (w *Writer) Sum() string {
	return hex.EncodeToString(w.h.Sum(nil))
}

// Size returns the number of bytes written.
func (w *Writer) Size() int64 {
	return w.n
}

// Of returns the hex SHA-256 of content.
func Of(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
