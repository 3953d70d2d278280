package smt

import (
	"crypto/sha256"
	"math/big"
)

var zeroValue = big.NewInt(0)

// HashLeaf hashes a leaf value. The value is left-padded with zero bytes to
// 32 bytes (big-endian) before hashing, so value 0 hashes to the level-0
// default hash.
func HashLeaf(value *big.Int) []byte {
	padded := make([]byte, HashSize)
	valBytes := value.Bytes()
	copy(padded[HashSize-len(valBytes):], valBytes)

	h := sha256.New()
	h.Write(padded)
	return h.Sum(nil)
}

// HashNode hashes the concatenation of two child hashes.
func HashNode(left, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// PathOf maps a key to its leaf position: SHA-256 of the key read as a
// 256-bit big-endian integer. Bit 0 of the result addresses the deepest
// level of the tree.
func PathOf(key string) *big.Int {
	keyHash := sha256.Sum256([]byte(key))
	return new(big.Int).SetBytes(keyHash[:])
}
