package smt

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bigIntCmp = cmp.Comparer(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })

func testItems(n int) map[string]*big.Int {
	items := make(map[string]*big.Int, n)
	for i := 0; i < n; i++ {
		items[fmt.Sprintf("pkg:npm/package-%d@1.0.0", i)] = big.NewInt(1)
	}
	return items
}

func TestBuildEmpty(t *testing.T) {
	root, err := New().Build(map[string]*big.Int{})
	require.NoError(t, err)
	assert.Equal(t, EmptyRoot(), root)
	assert.Equal(t,
		"876422b7697ae7c337e2ee7727feb3db474adf7be1cf04b6b5857d82d610e88a",
		hex.EncodeToString(root))
}

func TestBuildDeterministic(t *testing.T) {
	items := testItems(50)

	root1, err := New().Build(items)
	require.NoError(t, err)

	// Map iteration order differs between runs; the root must not.
	root2, err := New().Build(items)
	require.NoError(t, err)

	assert.Equal(t, root1, root2)
}

func TestBuildParallelEquivalence(t *testing.T) {
	items := testItems(100)

	serial, err := New().Build(items)
	require.NoError(t, err)

	parallel, err := New().BuildParallel(items)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestBuildParallelTreeState(t *testing.T) {
	items := testItems(40)

	s1 := New()
	_, err := s1.Build(items)
	require.NoError(t, err)

	s2 := New()
	_, err = s2.BuildParallel(items)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(s1.nodes, s2.nodes))
	assert.Empty(t, cmp.Diff(s1.leaves, s2.leaves, bigIntCmp))
}

func TestBuildRejectsZeroValue(t *testing.T) {
	_, err := New().Build(map[string]*big.Int{"pkg:cargo/x@1": big.NewInt(0)})
	require.ErrorIs(t, err, ErrZeroValue)
}

func TestBuildSingleKey(t *testing.T) {
	s := New()
	root, err := s.Build(map[string]*big.Int{"pkg:cargo/x@1": big.NewInt(1)})
	require.NoError(t, err)
	require.Len(t, root, HashSize)
	assert.NotEqual(t, EmptyRoot(), root)
	assert.Equal(t, 1, s.Size())
	assert.Equal(t, TreeDepth, s.Depth())
}

func TestProveMember(t *testing.T) {
	s := New()
	_, err := s.Build(map[string]*big.Int{"pkg:cargo/x@1": big.NewInt(1)})
	require.NoError(t, err)

	proof, err := s.Prove("pkg:cargo/x@1")
	require.NoError(t, err)

	assert.Equal(t, int64(1), proof.Value.Int64())
	assert.Len(t, proof.Siblings, TreeDepth)
	assert.Equal(t, PathOf("pkg:cargo/x@1"), proof.LeafIndex)
}

func TestProveNonMember(t *testing.T) {
	s := New()
	_, err := s.Build(map[string]*big.Int{"pkg:cargo/x@1": big.NewInt(1)})
	require.NoError(t, err)

	proof, err := s.Prove("pkg:cargo/y@1")
	require.NoError(t, err)

	assert.Equal(t, 0, proof.Value.Sign())
	assert.Len(t, proof.Siblings, TreeDepth)
}

func TestJSONRoundTrip(t *testing.T) {
	s := New()
	root, err := s.Build(testItems(20))
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	restored := &SMT{}
	require.NoError(t, json.Unmarshal(data, restored))

	assert.Equal(t, root, restored.Root())
	assert.Equal(t, s.Depth(), restored.Depth())
	assert.Empty(t, cmp.Diff(s.nodes, restored.nodes))
	assert.Empty(t, cmp.Diff(s.leaves, restored.leaves, bigIntCmp))

	// Proofs from the restored tree are identical to the original's.
	p1, err := s.Prove("pkg:npm/package-3@1.0.0")
	require.NoError(t, err)
	p2, err := restored.Prove("pkg:npm/package-3@1.0.0")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(p1, p2, bigIntCmp))
}

func TestProveInconsistentTree(t *testing.T) {
	s := New()
	_, err := s.Build(testItems(4))
	require.NoError(t, err)

	// Corrupt the root so the first walk step finds a node that is
	// neither materialized nor the expected default.
	s.root = make([]byte, HashSize)
	s.root[0] = 0xde

	_, err = s.Prove("pkg:npm/package-0@1.0.0")
	require.ErrorIs(t, err, ErrTreeInconsistent)
}
