package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 12

// Bcrypt hashes with golang.org/x/crypto/bcrypt at a fixed cost.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a Bcrypt hasher. A zero cost selects DefaultCost.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Bcrypt{cost: cost}, nil
}

// Cost returns the configured work factor.
func (b *Bcrypt) Cost() int {
	return b.cost
}

// Hash returns a salted bcrypt hash. Inputs longer than 72 bytes are rejected
// by bcrypt itself.
func (b *Bcrypt) Hash(plaintext string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether plaintext matches hash.
func (b *Bcrypt) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// NeedsRehash reports whether hash was produced with a lower cost, or is not
// a bcrypt hash at all.
func (b *Bcrypt) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < b.cost
}
