package verifier

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBannedListHashCanonicalization(t *testing.T) {
	// Order and duplicates must not affect the hash.
	a := BannedListHash([]string{"pkg:npm/b@1", "pkg:npm/a@1", "pkg:npm/b@1"})
	b := BannedListHash([]string{"pkg:npm/a@1", "pkg:npm/b@1"})
	assert.Equal(t, a, b)

	want := sha256.Sum256([]byte("pkg:npm/a@1\npkg:npm/b@1"))
	assert.Equal(t, want[:], a)
}

func TestBannedListHashEmpty(t *testing.T) {
	want := sha256.Sum256(nil)
	assert.Equal(t, want[:], BannedListHash(nil))
}

func TestBannedListHashSingle(t *testing.T) {
	want := sha256.Sum256([]byte("pkg:cargo/serde@1.0.0"))
	assert.Equal(t, want[:], BannedListHash([]string{"pkg:cargo/serde@1.0.0"}))
}

func TestCanonicalBannedList(t *testing.T) {
	got := CanonicalBannedList([]string{"z", "a", "z", "m", "a"})
	assert.Equal(t, []string{"a", "m", "z"}, got)
}
