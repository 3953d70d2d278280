package service

// BuildResult summarizes a built and persisted tree.
type BuildResult struct {
	Root       string
	Depth      int
	Components int
	Skipped    []string
}

// ProofResult is the encoded form of a single proof: hex hashes, decimal
// value. Bitmap is empty for uncompressed proofs, which carry all 256
// siblings.
type ProofResult struct {
	Purl      string
	Value     string
	Siblings  []string
	LeafIndex string
	Bitmap    string
}

// BatchProofResult carries the proofs generated for one query batch.
type BatchProofResult struct {
	Depth  int
	Root   string
	Proofs []ProofResult
}

// VerifyResult is the outcome of verifying a proof batch against a root.
type VerifyResult struct {
	ComputedRoot         string
	ExpectedRoot         string
	Matches              bool
	Compliant            bool
	Verified             int
	Attempted            int
	BannedListHash       string
	BitmapOnes           int
	UsedProvidedSiblings int
	UsedDefaults         int
}
