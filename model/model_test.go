package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReference(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := NewReference()
		assert.Len(t, ref, ReferenceLength)
		for _, c := range ref {
			assert.True(t, strings.ContainsRune(referenceAlphabet, c), "unexpected character %q in reference", c)
		}
		assert.False(t, seen[ref], "duplicate reference %s in 1000 draws", ref)
		seen[ref] = true
	}
}

func TestNewAccountNumber(t *testing.T) {
	for i := 0; i < 100; i++ {
		number := NewAccountNumber(10)
		assert.Len(t, number, 10)
		assert.NotEqual(t, byte('0'), number[0])
		for _, c := range number {
			assert.True(t, c >= '0' && c <= '9')
		}
	}
}

func TestNewAccountNumberShortLengthDefaults(t *testing.T) {
	assert.Len(t, NewAccountNumber(0), 10)
}

func TestGenerateUUIDWithSuffix(t *testing.T) {
	id := GenerateUUIDWithSuffix("acc")
	assert.True(t, strings.HasPrefix(id, "acc_"))
	assert.NotEqual(t, id, GenerateUUIDWithSuffix("acc"))
}
