package password

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const algorithmID = "argon2id"

// Stored hashes below these floors are treated as corrupt, not evaluated.
const (
	minLegacyMemoryKB  = 8 * 1024
	minLegacySaltBytes = 16
	minLegacyKeyBytes  = 16
)

var errMalformedHash = errors.New("password: malformed argon2id hash")

// Argon2 verifies argon2id hashes in PHC form left over from earlier
// deployments:
//
//	$argon2id$v=19$m=<KiB>,t=<passes>,p=<lanes>$<salt>$<key>
//
// Every parameter is read from the hash, so the zero value is ready to use.
// New hashes are never produced with argon2id.
type Argon2 struct{}

type legacyHash struct {
	memory uint32
	passes uint32
	lanes  uint8
	salt   []byte
	key    []byte
}

// Verify reports whether password matches encoded. A hash that does not
// parse is a mismatch.
func (Argon2) Verify(password, encoded string) bool {
	h, err := parseLegacyHash(encoded)
	if err != nil {
		return false
	}

	key := argon2.IDKey([]byte(password), h.salt, h.passes, h.memory, h.lanes, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(key, h.key) == 1
}

func parseLegacyHash(encoded string) (legacyHash, error) {
	var h legacyHash

	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != algorithmID {
		return h, errMalformedHash
	}
	if fields[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return h, errMalformedHash
	}

	var lanes uint32
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &h.memory, &h.passes, &lanes); err != nil {
		return h, errMalformedHash
	}
	// Sscanf ignores trailing input; the canonical form must round-trip.
	if fields[3] != fmt.Sprintf("m=%d,t=%d,p=%d", h.memory, h.passes, lanes) {
		return h, errMalformedHash
	}
	if h.memory < minLegacyMemoryKB || h.passes == 0 || lanes == 0 || lanes > 255 {
		return h, errMalformedHash
	}
	h.lanes = uint8(lanes)

	var err error
	if h.salt, err = decodeB64(fields[4]); err != nil || len(h.salt) < minLegacySaltBytes {
		return h, errMalformedHash
	}
	if h.key, err = decodeB64(fields[5]); err != nil || len(h.key) < minLegacyKeyBytes {
		return h, errMalformedHash
	}
	return h, nil
}

// decodeB64 accepts standard base64 with or without padding; both forms
// appear in stored hashes.
func decodeB64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
