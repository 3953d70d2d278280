// Package smt implements the sparse Merkle tree that commits an SBOM
// dependency set to a single 32-byte root.
//
// The tree has a fixed depth of 256. Keys are mapped to leaf positions by
// their SHA-256 hash; every unoccupied subtree is represented implicitly by
// a per-level default hash, so only the nodes on the paths of inserted keys
// are materialized.
package smt

import (
	"encoding/hex"
	"math/big"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ErrPathCollision is returned when two distinct keys map to the same leaf
// position. Such an input is cryptographically invalid.
var ErrPathCollision = errors.New("smt: distinct keys share a leaf path")

// ErrZeroValue is returned when an item carries value 0. Absence is modeled
// by value 0, so it cannot be inserted.
var ErrZeroValue = errors.New("smt: item value must be nonzero")

type node struct {
	Left  []byte
	Right []byte
}

// SMT is a one-shot commit-then-prove accumulator. Build constructs the tree
// in a single pass; after that the tree is immutable and safe for concurrent
// proof generation.
type SMT struct {
	depth         int
	defaultHashes [][]byte
	root          []byte
	nodes         map[string]node
	leaves        map[string]*big.Int
}

type item struct {
	path  *big.Int
	value *big.Int
}

// New returns an empty tree of depth 256.
func New() *SMT {
	return &SMT{
		depth:         TreeDepth,
		defaultHashes: DefaultHashes(),
		nodes:         make(map[string]node),
		leaves:        make(map[string]*big.Int),
	}
}

// Root returns the 32-byte commitment, or nil before Build.
func (s *SMT) Root() []byte {
	return s.root
}

// Depth returns the number of tree levels.
func (s *SMT) Depth() int {
	return s.depth
}

// Size returns the number of materialized leaves.
func (s *SMT) Size() int {
	return len(s.leaves)
}

// Build constructs the tree from a key → value mapping and returns the root.
// The root is a pure function of the mapping; insertion order is irrelevant.
// An empty mapping yields the empty-tree root.
func (s *SMT) Build(items map[string]*big.Int) ([]byte, error) {
	return s.build(items, false)
}

// BuildParallel behaves exactly like Build but constructs the two subtrees
// under the root concurrently. The resulting root is identical to the serial
// build.
func (s *SMT) BuildParallel(items map[string]*big.Int) ([]byte, error) {
	return s.build(items, true)
}

func (s *SMT) build(items map[string]*big.Int, parallel bool) ([]byte, error) {
	if len(items) == 0 {
		s.root = s.defaultHashes[s.depth]
		return s.root, nil
	}

	records, err := s.sortedItems(items)
	if err != nil {
		return nil, err
	}

	var rootHash []byte
	if parallel {
		rootHash, err = s.buildTopSplit(records)
	} else {
		rootHash, err = s.buildRecursive(0, records, s)
	}
	if err != nil {
		return nil, err
	}
	s.root = rootHash

	return s.root, nil
}

func (s *SMT) sortedItems(items map[string]*big.Int) ([]item, error) {
	records := make([]item, 0, len(items))
	for key, value := range items {
		if value.Sign() == 0 {
			return nil, errors.Wrapf(ErrZeroValue, "key %q", key)
		}
		records = append(records, item{PathOf(key), value})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].path.Cmp(records[j].path) < 0
	})

	for i := 1; i < len(records); i++ {
		if records[i].path.Cmp(records[i-1].path) == 0 {
			return nil, ErrPathCollision
		}
	}

	return records, nil
}

// buildTopSplit builds the left and right halves of the tree concurrently.
// Each goroutine materializes nodes into its own shard; the shards are
// disjoint and merged afterwards.
func (s *SMT) buildTopSplit(records []item) ([]byte, error) {
	topBit := s.depth - 1
	splitIndex := sort.Search(len(records), func(i int) bool {
		return records[i].path.Bit(topBit) == 1
	})

	left := newShard()
	right := newShard()

	var leftHash, rightHash []byte
	var g errgroup.Group
	g.Go(func() error {
		var err error
		leftHash, err = s.buildRecursive(1, records[:splitIndex], left)
		return err
	})
	g.Go(func() error {
		var err error
		rightHash, err = s.buildRecursive(1, records[splitIndex:], right)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.merge(left)
	s.merge(right)

	parentHash := HashNode(leftHash, rightHash)
	s.nodes[hex.EncodeToString(parentHash)] = node{Left: leftHash, Right: rightHash}

	return parentHash, nil
}

// shard collects materialized nodes for one branch of a parallel build.
type shard struct {
	nodes  map[string]node
	leaves map[string]*big.Int
}

func newShard() *shard {
	return &shard{
		nodes:  make(map[string]node),
		leaves: make(map[string]*big.Int),
	}
}

type sink interface {
	putNode(hash []byte, n node)
	putLeaf(path *big.Int, value *big.Int)
}

func (s *SMT) putNode(hash []byte, n node) {
	s.nodes[hex.EncodeToString(hash)] = n
}

func (s *SMT) putLeaf(path *big.Int, value *big.Int) {
	s.leaves[path.String()] = value
}

func (sh *shard) putNode(hash []byte, n node) {
	sh.nodes[hex.EncodeToString(hash)] = n
}

func (sh *shard) putLeaf(path *big.Int, value *big.Int) {
	sh.leaves[path.String()] = value
}

func (s *SMT) merge(sh *shard) {
	for k, v := range sh.nodes {
		s.nodes[k] = v
	}
	for k, v := range sh.leaves {
		s.leaves[k] = v
	}
}

// buildRecursive builds the subtree at the given depth from a contiguous
// sorted slice of records. depth counts from the root; the walk consumes
// path bits from the most significant bit down.
func (s *SMT) buildRecursive(depth int, records []item, out sink) ([]byte, error) {
	if len(records) == 0 {
		return s.defaultHashes[s.depth-depth], nil
	}

	if depth == s.depth {
		if len(records) > 1 {
			return nil, ErrPathCollision
		}
		leaf := records[0]
		out.putLeaf(leaf.path, leaf.value)
		return HashLeaf(leaf.value), nil
	}

	bitIndex := s.depth - 1 - depth

	splitIndex := sort.Search(len(records), func(i int) bool {
		return records[i].path.Bit(bitIndex) == 1
	})

	leftHash, err := s.buildRecursive(depth+1, records[:splitIndex], out)
	if err != nil {
		return nil, err
	}
	rightHash, err := s.buildRecursive(depth+1, records[splitIndex:], out)
	if err != nil {
		return nil, err
	}

	parentHash := HashNode(leftHash, rightHash)
	out.putNode(parentHash, node{Left: leftHash, Right: rightHash})

	return parentHash, nil
}

func (s *SMT) pathAndValue(key string) (*big.Int, *big.Int) {
	path := PathOf(key)

	value, ok := s.leaves[path.String()]
	if !ok {
		return path, zeroValue
	}
	return path, value
}
