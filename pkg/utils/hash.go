package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent creates a SHA256 hash over a filename and the uploaded bytes.
// The filename is part of the key because the screenshot rule reads it.
func HashContent(filename string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(filename))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
