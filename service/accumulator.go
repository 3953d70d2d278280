package service

import (
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"

	"sbom-proof-service/smt"
)

// accumulator commits a key set to a single root and produces per-key
// proofs. The sparse Merkle tree is the only implementation.
type accumulator interface {
	Build(items map[string]*big.Int) ([]byte, error)
	Prove(key string) (*smt.Proof, error)
	json.Marshaler
	json.Unmarshaler
}

func getAccumulator(name string) (accumulator, error) {
	switch name {
	case "smt":
		return smt.New(), nil
	default:
		return nil, errors.Errorf("unknown accumulator: %s", name)
	}
}
