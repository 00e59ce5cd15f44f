package password

import "strings"

const argon2Prefix = "$" + algorithmID + "$"

// Hasher is the credential hasher used by the engine: it always hashes with
// bcrypt and verifies either bcrypt or legacy argon2id hashes.
type Hasher struct {
	bcrypt *Bcrypt
	legacy *Argon2
}

// New returns a Hasher with the given bcrypt cost (0 selects DefaultCost).
func New(cost int) (*Hasher, error) {
	b, err := NewBcrypt(cost)
	if err != nil {
		return nil, err
	}
	return &Hasher{
		bcrypt: b,
		legacy: &Argon2{},
	}, nil
}

// Hash returns a new bcrypt hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	return h.bcrypt.Hash(plaintext)
}

// Verify dispatches on the hash prefix. Any failure is reported as false.
func (h *Hasher) Verify(plaintext, hash string) bool {
	if strings.HasPrefix(hash, argon2Prefix) {
		return h.legacy.Verify(plaintext, hash)
	}
	return h.bcrypt.Verify(plaintext, hash)
}

// NeedsRehash reports whether hash should be replaced on next login.
func (h *Hasher) NeedsRehash(hash string) bool {
	if strings.HasPrefix(hash, argon2Prefix) {
		return true
	}
	return h.bcrypt.NeedsRehash(hash)
}
