package auth

import (
	"crypto/rand"
	"encoding/hex"
	mrand "math/rand/v2"
	"strings"
)

const (
	DefaultOTPLength  = 6
	opaqueSecretBytes = 30
)

// GenerateOneTimeCode draws length independent digits. It is not cryptographically
// secure; the one-outstanding-code rule and the short TTL bound guessing.
func GenerateOneTimeCode(length int) string {
	if length <= 0 {
		length = DefaultOTPLength
	}

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(byte('0' + mrand.IntN(10)))
	}
	return b.String()
}

// GenerateOpaqueSecret returns 30 random bytes, hex encoded, for password reset links.
func GenerateOpaqueSecret() (string, error) {
	buf := make([]byte, opaqueSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
