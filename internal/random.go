package internal

import (
	"crypto/rand"
	"encoding/base64"
	"io"
)

// SessionIDBytes is the entropy of a session id.
const SessionIDBytes = 32

// SessionIDLength is the encoded length of a session id.
var SessionIDLength = base64.RawURLEncoding.EncodedLen(SessionIDBytes)

// NewSessionID returns SessionIDBytes of crypto/rand output, base64url
// encoded without padding.
func NewSessionID() (string, error) {
	return newSessionID(rand.Reader)
}

func newSessionID(r io.Reader) (string, error) {
	var raw [SessionIDBytes]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// ValidSessionID reports whether sid has the shape NewSessionID produces.
// Anything else cannot name a stored session and is rejected without a
// Redis round trip.
func ValidSessionID(sid string) bool {
	if len(sid) != SessionIDLength {
		return false
	}
	for i := 0; i < len(sid); i++ {
		c := sid[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
