package smt

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"math/big"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

// ErrTreeInconsistent is returned when proof generation reaches an
// unmaterialized node whose hash is not the expected default. It indicates
// corrupt tree state, typically from bad persistence.
var ErrTreeInconsistent = errors.New("smt: tree inconsistent")

// ErrMalformedProof is returned when a proof's structure is internally
// inconsistent: wrong sibling count, bitmap popcount not matching the number
// of present siblings, or a wrong-size packed bitmap.
var ErrMalformedProof = errors.New("smt: malformed proof")

// Proof is an uncompressed membership or non-membership witness for a single
// key. Siblings run leaf-to-root: Siblings[0] is adjacent to the leaf,
// Siblings[255] is the child of the root. Value 0 witnesses absence.
type Proof struct {
	LeafIndex *big.Int
	Value     *big.Int
	Siblings  [][]byte
}

// CompactProof is a Proof with default siblings elided. Bit d of Bitmap is
// set iff the sibling at level d differs from the level-d default hash;
// Siblings holds only those, in ascending level order.
type CompactProof struct {
	LeafIndex *big.Int
	Value     *big.Int
	Siblings  [][]byte
	Bitmap    *bitset.BitSet
}

// Prove generates a proof for a key against the built tree. A key that was
// never inserted yields a non-membership proof with value 0.
//
// The walk follows the key's path bits from the root down, recording the
// child not taken at every level. Once it leaves the materialized region it
// descends through default subtrees.
func (s *SMT) Prove(key string) (*Proof, error) {
	path, value := s.pathAndValue(key)

	siblings := make([][]byte, s.depth)
	currentHash := s.root

	for d := s.depth - 1; d >= 0; d-- {
		n, isNode := s.nodes[hex.EncodeToString(currentHash)]

		if !isNode {
			if !bytes.Equal(currentHash, s.defaultHashes[d+1]) {
				return nil, errors.Wrapf(ErrTreeInconsistent, "unexpected node at level %d", d+1)
			}
			siblings[d] = s.defaultHashes[d]
			currentHash = s.defaultHashes[d]
			continue
		}

		if path.Bit(d) == 0 {
			siblings[d] = n.Right
			currentHash = n.Left
		} else {
			siblings[d] = n.Left
			currentHash = n.Right
		}
	}

	return &Proof{
		LeafIndex: path,
		Value:     value,
		Siblings:  siblings,
	}, nil
}

// Compact elides every sibling equal to its level's default hash, marking
// the kept ones in a 256-bit bitmap.
func (p *Proof) Compact() (*CompactProof, error) {
	if len(p.Siblings) != TreeDepth {
		return nil, errors.Wrapf(ErrMalformedProof, "expected %d siblings, got %d", TreeDepth, len(p.Siblings))
	}

	defaults := DefaultHashes()
	bitmap := bitset.New(TreeDepth)
	var present [][]byte

	for d := 0; d < TreeDepth; d++ {
		if bytes.Equal(p.Siblings[d], defaults[d]) {
			continue
		}
		bitmap.Set(uint(d))
		present = append(present, p.Siblings[d])
	}

	return &CompactProof{
		LeafIndex: p.LeafIndex,
		Value:     p.Value,
		Siblings:  present,
		Bitmap:    bitmap,
	}, nil
}

// Expand reconstructs the full 256-entry sibling array, substituting default
// hashes for elided levels. Every present sibling must be consumed.
func (p *CompactProof) Expand() (*Proof, error) {
	if got, want := p.Bitmap.Count(), uint(len(p.Siblings)); got != want {
		return nil, errors.Wrapf(ErrMalformedProof, "bitmap has %d ones for %d siblings", got, want)
	}

	defaults := DefaultHashes()
	siblings := make([][]byte, TreeDepth)
	next := 0

	for d := 0; d < TreeDepth; d++ {
		if p.Bitmap.Test(uint(d)) {
			siblings[d] = p.Siblings[next]
			next++
		} else {
			siblings[d] = defaults[d]
		}
	}

	if next != len(p.Siblings) {
		return nil, errors.Wrapf(ErrMalformedProof, "%d siblings left unconsumed", len(p.Siblings)-next)
	}

	return &Proof{
		LeafIndex: p.LeafIndex,
		Value:     p.Value,
		Siblings:  siblings,
	}, nil
}

// PackBitmap serializes a 256-bit bitmap to 32 bytes. Bit d lands in byte
// d/8 at bit position d%8, least significant bit first within each byte.
func PackBitmap(b *bitset.BitSet) []byte {
	packed := make([]byte, BitmapSize)
	for i, word := range b.Bytes() {
		if i*8 >= len(packed) {
			break
		}
		binary.LittleEndian.PutUint64(packed[i*8:], word)
	}
	return packed
}

// UnpackBitmap parses a 32-byte packed bitmap.
func UnpackBitmap(raw []byte) (*bitset.BitSet, error) {
	if len(raw) != BitmapSize {
		return nil, errors.Wrapf(ErrMalformedProof, "bitmap is %d bytes, want %d", len(raw), BitmapSize)
	}
	words := make([]uint64, BitmapSize/8)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(raw[i*8:])
	}
	return bitset.From(words), nil
}
