package verifier

// Journal holds the public outputs committed by the guest: the committed
// root, the banned-list hash, and the compliance bit. Leaf indices, sibling
// hashes, and individual values stay private witness.
type Journal struct {
	RootHash       [32]byte
	BannedListHash [32]byte
	Compliant      bool
}

// Execute runs the verifier with the exact semantics of the zero-knowledge
// guest program. It never fails: a malformed proof, a root mismatch, or a
// nonzero value all yield Compliant=false in the journal.
//
// Host callers wanting error detail should use VerifyBatch; the two agree on
// the compliance bit for every well-formed batch.
func Execute(rootHash [32]byte, proofs []PurlProof) Journal {
	journal := Journal{RootHash: rootHash}

	purls := make([]string, 0, len(proofs))
	for _, p := range proofs {
		purls = append(purls, p.Purl)
	}
	copy(journal.BannedListHash[:], BannedListHash(purls))

	journal.Compliant = validateProofs(rootHash[:], proofs)
	return journal
}

func validateProofs(expectedRoot []byte, proofs []PurlProof) bool {
	for _, p := range proofs {
		if p.Proof.Value.Sign() != 0 {
			return false
		}
		if _, _, err := VerifyProof(expectedRoot, p.Purl, p.Proof); err != nil {
			return false
		}
	}
	return true
}
