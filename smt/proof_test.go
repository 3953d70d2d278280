package smt

import (
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSingle(t *testing.T) *SMT {
	t.Helper()
	s := New()
	_, err := s.Build(map[string]*big.Int{"pkg:cargo/x@1": big.NewInt(1)})
	require.NoError(t, err)
	return s
}

func TestCompactExpandRoundTrip(t *testing.T) {
	s := New()
	_, err := s.Build(testItems(10))
	require.NoError(t, err)

	for _, key := range []string{"pkg:npm/package-0@1.0.0", "pkg:npm/not-there@1"} {
		proof, err := s.Prove(key)
		require.NoError(t, err)

		compact, err := proof.Compact()
		require.NoError(t, err)

		expanded, err := compact.Expand()
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(proof, expanded, bigIntCmp), "key %s", key)

		recompacted, err := expanded.Compact()
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(compact.Siblings, recompacted.Siblings), "key %s", key)
		assert.True(t, compact.Bitmap.Equal(recompacted.Bitmap), "key %s", key)
	}
}

func TestCompactNonMemberIsSparse(t *testing.T) {
	s := buildSingle(t)

	proof, err := s.Prove("pkg:cargo/y@1")
	require.NoError(t, err)

	compact, err := proof.Compact()
	require.NoError(t, err)

	// Against a single-key tree the paths share at most one non-default
	// sibling: the subtree containing the other key.
	assert.LessOrEqual(t, len(compact.Siblings), 1)
	assert.Equal(t, uint(len(compact.Siblings)), compact.Bitmap.Count())
}

func TestCompactBitmapMarksNonDefaults(t *testing.T) {
	s := New()
	_, err := s.Build(testItems(16))
	require.NoError(t, err)

	proof, err := s.Prove("pkg:npm/package-7@1.0.0")
	require.NoError(t, err)

	compact, err := proof.Compact()
	require.NoError(t, err)

	defaults := DefaultHashes()
	next := 0
	for d := 0; d < TreeDepth; d++ {
		if compact.Bitmap.Test(uint(d)) {
			assert.NotEqual(t, defaults[d], compact.Siblings[next], "level %d", d)
			next++
		} else {
			assert.Equal(t, defaults[d], proof.Siblings[d], "level %d", d)
		}
	}
	assert.Equal(t, len(compact.Siblings), next)
}

func TestCompactWrongSiblingCount(t *testing.T) {
	p := &Proof{
		LeafIndex: big.NewInt(1),
		Value:     big.NewInt(1),
		Siblings:  make([][]byte, 12),
	}
	_, err := p.Compact()
	require.ErrorIs(t, err, ErrMalformedProof)
}

func TestExpandPopcountMismatch(t *testing.T) {
	bitmap := bitset.New(TreeDepth)
	bitmap.Set(3)
	bitmap.Set(9)

	p := &CompactProof{
		LeafIndex: big.NewInt(1),
		Value:     big.NewInt(0),
		Siblings:  [][]byte{DefaultHash(1)},
		Bitmap:    bitmap,
	}
	_, err := p.Expand()
	require.ErrorIs(t, err, ErrMalformedProof)
}

func TestPackBitmapLowBits(t *testing.T) {
	bitmap := bitset.New(TreeDepth)
	for d := uint(0); d < 8; d++ {
		bitmap.Set(d)
	}

	packed := PackBitmap(bitmap)
	require.Len(t, packed, BitmapSize)

	// Bit d lands in byte d/8, LSB first: bits 0..7 fill the first byte.
	assert.Equal(t, "ff"+strings.Repeat("00", 31), hex.EncodeToString(packed))

	unpacked, err := UnpackBitmap(packed)
	require.NoError(t, err)
	assert.True(t, bitmap.Equal(unpacked))
	assert.Equal(t, packed, PackBitmap(unpacked))
}

func TestPackBitmapScattered(t *testing.T) {
	bitmap := bitset.New(TreeDepth)
	for _, d := range []uint{0, 9, 63, 64, 130, 255} {
		bitmap.Set(d)
	}

	packed := PackBitmap(bitmap)
	assert.EqualValues(t, 0x01, packed[0])  // bit 0
	assert.EqualValues(t, 0x02, packed[1])  // bit 9
	assert.EqualValues(t, 0x80, packed[7])  // bit 63
	assert.EqualValues(t, 0x01, packed[8])  // bit 64
	assert.EqualValues(t, 0x04, packed[16]) // bit 130
	assert.EqualValues(t, 0x80, packed[31]) // bit 255

	unpacked, err := UnpackBitmap(packed)
	require.NoError(t, err)
	assert.True(t, bitmap.Equal(unpacked))
}

func TestUnpackBitmapWrongSize(t *testing.T) {
	_, err := UnpackBitmap(make([]byte, 16))
	require.ErrorIs(t, err, ErrMalformedProof)
}
