package model

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// referenceAlphabet deliberately omits 0/O and 1/I so reference codes stay
// readable when customers quote them over the phone.
const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ReferenceLength is the fixed length of ledger reference codes.
const ReferenceLength = 10

// GenerateUUIDWithSuffix generates a UUID with a given module name as a prefix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", module, id.String())
}

// NewReference produces a collision-resistant, human-displayable reference code
// for a ledger entry. Uniqueness is enforced by the transactions table; callers
// regenerate on conflict rather than overwriting.
func NewReference() string {
	code := make([]byte, ReferenceLength)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform entropy source is broken.
			panic(err)
		}
		code[i] = referenceAlphabet[n.Int64()]
	}
	return string(code)
}

// NewAccountNumber generates a numeric account number of the given length.
// The first digit is never zero. Uniqueness is enforced by the accounts table;
// the account service regenerates on conflict.
func NewAccountNumber(length int) string {
	if length < 2 {
		length = 10
	}
	digits := make([]byte, length)
	first, err := rand.Int(rand.Reader, big.NewInt(9))
	if err != nil {
		panic(err)
	}
	digits[0] = byte('1' + first.Int64())
	for i := 1; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			panic(err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits)
}
