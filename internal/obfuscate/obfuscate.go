// Package obfuscate hides stored access tokens from casual view.
// It is a rot-47 substitution behind base64 and provides no secrecy.
package obfuscate

import (
	"encoding/base64"
	"fmt"

	"chirp/internal/apperr"
)

const (
	first = 0x21
	span  = 0x5E
	shift = 0x2F
)

// Obfuscate rotates printable ASCII by half the alphabet; applying it twice
// returns the input. Bytes outside 0x21..0x7E pass through.
func Obfuscate(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= first && c < first+span {
			b[i] = first + (c-first+shift)%span
		}
	}
	return string(b)
}

// Write encodes s for storage in the config file.
func Write(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(Obfuscate(s)))
}

// Read reverses Write.
func Read(encoded string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: stored credential is not valid base64", apperr.ErrCommandLine)
	}
	return Obfuscate(string(b)), nil
}
