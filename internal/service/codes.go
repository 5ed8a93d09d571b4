package service

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet matches the printable codes handed to students: uppercase
// letters and digits only, so codes survive handwriting and shouting
// across a classroom.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomCode draws length symbols uniformly from codeAlphabet. Bytes outside
// the largest multiple of the alphabet size are rejected to avoid modulo bias.
func randomCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("code length must be positive")
	}
	const limit = byte(256 - 256%len(codeAlphabet))
	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
