// Package codes generates the identifiers handed to visitors and citizens.
package codes

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	mrand "math/rand/v2"
	"strconv"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// AccessCodeAlphabet drops 0/O, 1/I/L and U so codes survive being read
	// aloud or copied by hand.  30^8 ≈ 6.6e11 combinations.
	AccessCodeAlphabet = "23456789ABCDEFGHJKMNPQRSTVWXYZ"
	AccessCodeLength   = 8

	AppointmentPrefix = "APT-"

	grantTokenBytes = 32
	base36Digits    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewAccessCode returns a random, non-sequential access code.
func NewAccessCode() (string, error) {
	code, err := gonanoid.Generate(AccessCodeAlphabet, AccessCodeLength)
	if err != nil {
		return "", fmt.Errorf("generate access code: %w", err)
	}
	return code, nil
}

// NormalizeAccessCode trims and upper-cases s.
func NormalizeAccessCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidAccessCode reports whether s (already normalized) could have been
// produced by NewAccessCode.
func ValidAccessCode(s string) bool {
	if len(s) != AccessCodeLength {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune(AccessCodeAlphabet, c) {
			return false
		}
	}
	return true
}

// NewAppointmentCode returns APT-<base36 unix millis>-<4 random base36>.
// The suffix only separates codes minted in the same millisecond, so a
// non-cryptographic source is enough.
func NewAppointmentCode(now time.Time) string {
	var suffix [4]byte
	for i := range suffix {
		suffix[i] = base36Digits[mrand.IntN(len(base36Digits))]
	}
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return AppointmentPrefix + ts + "-" + string(suffix[:])
}

// NormalizeAppointmentCode trims and upper-cases s.
func NormalizeAppointmentCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NewGrantToken returns 256 bits from crypto/rand, base64url encoded.
func NewGrantToken() (string, error) {
	b := make([]byte, grantTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate grant token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
