// Package verifier implements the canonical proof-verification algorithm:
// reconstruct a root from a compact proof and decide aggregate compliance
// over a banned list. The same semantics run on the host (this package) and
// inside the zero-knowledge guest; Execute is the guest-equivalent entry
// point whose journal is what a succinct proof attests to.
package verifier

import (
	"bytes"
	"context"

	"github.com/pkg/errors"

	"sbom-proof-service/smt"
)

// ErrRootMismatch is returned when a structurally valid proof does not
// reconstruct the expected root. The prover is buggy, out of sync, or
// adversarial; there is no retry.
var ErrRootMismatch = errors.New("verifier: computed root does not match expected root")

// ErrKeyBinding is returned when a proof's leaf index is not the hash of the
// key it claims to prove.
var ErrKeyBinding = errors.New("verifier: leaf index does not match key")

// ErrBannedListHash is returned when a claimed banned-list hash does not
// match the hash recomputed from the queried keys.
var ErrBannedListHash = errors.New("verifier: banned list hash mismatch")

// PurlProof binds a queried package identifier to its compact proof.
type PurlProof struct {
	Purl  string
	Proof *smt.CompactProof
}

// Diagnostics reports how a proof's sibling array was assembled.
type Diagnostics struct {
	BitmapOnes       int
	ProvidedSiblings int
	DefaultSiblings  int
}

func (d *Diagnostics) add(other Diagnostics) {
	d.BitmapOnes += other.BitmapOnes
	d.ProvidedSiblings += other.ProvidedSiblings
	d.DefaultSiblings += other.DefaultSiblings
}

// VerifyProof checks a single compact proof against an expected root.
//
// The walk starts from the hash of the proof's value and combines with one
// sibling per level, using bit d of the leaf index (least significant bit
// first) to pick the side. The computed root is returned even on mismatch so
// callers can report it.
func VerifyProof(expectedRoot []byte, purl string, p *smt.CompactProof) ([]byte, Diagnostics, error) {
	var diag Diagnostics

	if smt.PathOf(purl).Cmp(p.LeafIndex) != 0 {
		return nil, diag, errors.Wrapf(ErrKeyBinding, "key %q", purl)
	}

	full, err := p.Expand()
	if err != nil {
		return nil, diag, err
	}

	diag.BitmapOnes = int(p.Bitmap.Count())
	diag.ProvidedSiblings = len(p.Siblings)
	diag.DefaultSiblings = smt.TreeDepth - len(p.Siblings)

	current := smt.HashLeaf(p.Value)
	for d := 0; d < smt.TreeDepth; d++ {
		if p.LeafIndex.Bit(d) == 0 {
			current = smt.HashNode(current, full.Siblings[d])
		} else {
			current = smt.HashNode(full.Siblings[d], current)
		}
	}

	if !bytes.Equal(current, expectedRoot) {
		return current, diag, ErrRootMismatch
	}

	return current, diag, nil
}

// BatchResult is the aggregate outcome of verifying a banned list against a
// committed root.
type BatchResult struct {
	ComputedRoot   []byte
	Matches        bool
	Compliant      bool
	Verified       int
	Attempted      int
	BannedListHash []byte
	Diagnostics    Diagnostics
}

// VerifyBatch verifies every proof in the batch against the expected root
// and aggregates the compliance decision: compliant iff every proof verifies
// and every proven value is 0. A structural or cryptographic failure on any
// proof aborts the batch with an error and no compliance decision; on a root
// mismatch the returned result still carries the offending computed root for
// diagnostics.
//
// Cancellation is checked between proofs.
func VerifyBatch(ctx context.Context, expectedRoot []byte, proofs []PurlProof) (*BatchResult, error) {
	result := &BatchResult{
		Compliant: true,
		Attempted: len(proofs),
	}

	purls := make([]string, 0, len(proofs))
	for _, p := range proofs {
		purls = append(purls, p.Purl)
	}
	result.BannedListHash = BannedListHash(purls)

	for _, p := range proofs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		computed, diag, err := VerifyProof(expectedRoot, p.Purl, p.Proof)
		if errors.Is(err, ErrRootMismatch) {
			result.ComputedRoot = computed
			result.Compliant = false
			return result, errors.Wrapf(err, "proof for %q", p.Purl)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "proof for %q", p.Purl)
		}
		result.Verified++
		result.Diagnostics.add(diag)

		if p.Proof.Value.Sign() != 0 {
			result.Compliant = false
		}
	}

	result.ComputedRoot = expectedRoot
	result.Matches = true
	return result, nil
}
