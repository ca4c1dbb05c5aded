package ident

import (
	"crypto/rand"
	"math/big"
)

const (
	// Length matches the ids the operator dashboard already stores, so a
	// coordinator-issued id is indistinguishable from a legacy one.
	Length   = 20
	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// New returns a fresh 20-character mixed-case alphanumeric reservation id.
// Uniqueness is probabilistic only; callers must not rely on collision
// freedom across independent coordinators.
func New() string {
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, Length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the platform entropy source is
			// broken; nothing sensible to degrade to.
			panic(err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf)
}
