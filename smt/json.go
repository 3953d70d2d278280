package smt

import (
	"encoding/hex"
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
)

// treeJSON is the persisted form of a built tree, stored by the storage
// layer keyed by root hash.
type treeJSON struct {
	Depth         int                 `json:"depth"`
	DefaultHashes []string            `json:"defaultHashes"`
	Root          string              `json:"root"`
	Nodes         map[string]nodeJSON `json:"nodes"`
	Leaves        map[string]string   `json:"leaves"`
}

type nodeJSON struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

func (s *SMT) MarshalJSON() ([]byte, error) {
	defaultHashesHex := make([]string, len(s.defaultHashes))
	for i, h := range s.defaultHashes {
		defaultHashesHex[i] = hex.EncodeToString(h)
	}

	nodes := make(map[string]nodeJSON, len(s.nodes))
	for hashKey, n := range s.nodes {
		nodes[hashKey] = nodeJSON{
			Left:  hex.EncodeToString(n.Left),
			Right: hex.EncodeToString(n.Right),
		}
	}

	leaves := make(map[string]string, len(s.leaves))
	for pathKey, val := range s.leaves {
		leaves[pathKey] = val.String()
	}

	data := treeJSON{
		Depth:         s.depth,
		DefaultHashes: defaultHashesHex,
		Root:          hex.EncodeToString(s.root),
		Nodes:         nodes,
		Leaves:        leaves,
	}

	return json.Marshal(data)
}

func (s *SMT) UnmarshalJSON(data []byte) error {
	var parsed treeJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		return err
	}

	s.depth = parsed.Depth

	s.defaultHashes = make([][]byte, len(parsed.DefaultHashes))
	for i, hHex := range parsed.DefaultHashes {
		h, err := hex.DecodeString(hHex)
		if err != nil {
			return errors.Wrapf(err, "default hash %d", i)
		}
		s.defaultHashes[i] = h
	}

	root, err := hex.DecodeString(parsed.Root)
	if err != nil {
		return errors.Wrap(err, "root")
	}
	s.root = root

	s.nodes = make(map[string]node, len(parsed.Nodes))
	for hashKey, n := range parsed.Nodes {
		left, err := hex.DecodeString(n.Left)
		if err != nil {
			return errors.Wrapf(err, "node %s left child", hashKey)
		}
		right, err := hex.DecodeString(n.Right)
		if err != nil {
			return errors.Wrapf(err, "node %s right child", hashKey)
		}
		s.nodes[hashKey] = node{Left: left, Right: right}
	}

	s.leaves = make(map[string]*big.Int, len(parsed.Leaves))
	for pathKey, valStr := range parsed.Leaves {
		val, ok := new(big.Int).SetString(valStr, 10)
		if !ok {
			return errors.Errorf("invalid leaf value %q", valStr)
		}
		s.leaves[pathKey] = val
	}

	return nil
}
