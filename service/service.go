// Package service orchestrates SBOM extraction, tree building, proof
// generation, and batch verification on top of the smt and verifier
// packages.
package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"time"

	"github.com/CycloneDX/cyclonedx-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"sbom-proof-service/logger"
	"sbom-proof-service/metrics"
	"sbom-proof-service/smt"
	"sbom-proof-service/verifier"
)

// ErrInvalidInput is returned for malformed request data: bad hex, bad
// decimal values, wrong hash lengths.
var ErrInvalidInput = errors.New("service: invalid input")

// SMTService is the orchestration layer behind the HTTP handlers.
type SMTService struct {
	storage *Storage
	log     zerolog.Logger
}

func NewSMTService(storage *Storage) *SMTService {
	return &SMTService{
		storage: storage,
		log:     logger.Logger().With().Str("component", "service").Logger(),
	}
}

// BuildSMT extracts the dependency set from an SBOM, commits it to a tree,
// persists the tree keyed by its root, and returns the commitment.
func (s *SMTService) BuildSMT(bom *cyclonedx.BOM, extractorName, accumulatorName string) (*BuildResult, error) {
	ex, err := getExtractor(extractorName)
	if err != nil {
		return nil, err
	}

	items, skipped, err := ex.Extract(bom)
	if err != nil {
		return nil, err
	}

	acc, err := getAccumulator(accumulatorName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	root, err := acc.Build(items)
	if err != nil {
		return nil, errors.Wrap(err, "build")
	}
	metrics.BuildsTotal.Inc()
	metrics.BuildDuration.Observe(time.Since(start).Seconds())

	accData, err := json.Marshal(acc)
	if err != nil {
		return nil, errors.Wrap(err, "serialize tree")
	}

	rootHex := hex.EncodeToString(root)
	if err := s.storage.StoreSMT(rootHex, accData); err != nil {
		return nil, errors.Wrap(err, "persist tree")
	}

	s.log.Info().
		Str("root", rootHex).
		Int("components", len(items)).
		Int("skipped", len(skipped)).
		Dur("took", time.Since(start)).
		Msg("built SMT")

	return &BuildResult{
		Root:       rootHex,
		Depth:      smt.TreeDepth,
		Components: len(items),
		Skipped:    skipped,
	}, nil
}

// GetSMT returns the serialized tree stored under a root.
func (s *SMTService) GetSMT(rootHex string) (json.RawMessage, error) {
	return s.storage.GetSMT(rootHex)
}

// StoreSMT persists an externally built tree under the root it declares. The
// payload must parse as the accumulator's tree format and carry a non-empty
// root; the root is not recomputed from the nodes.
func (s *SMTService) StoreSMT(smtData json.RawMessage, accumulatorName string) (string, error) {
	acc, err := getAccumulator(accumulatorName)
	if err != nil {
		return "", err
	}

	if err := json.Unmarshal(smtData, acc); err != nil {
		return "", errors.Wrapf(ErrInvalidInput, "parse tree: %v", err)
	}

	var meta struct {
		Root string `json:"root"`
	}
	if err := json.Unmarshal(smtData, &meta); err != nil || meta.Root == "" {
		return "", errors.Wrap(ErrInvalidInput, "tree has no root")
	}

	if err := s.storage.StoreSMT(meta.Root, smtData); err != nil {
		return "", errors.Wrap(err, "persist tree")
	}

	return meta.Root, nil
}

// GenerateBatchProofs loads the tree stored under a root and produces one
// proof per queried purl. Keys absent from the tree yield non-membership
// proofs with value 0.
func (s *SMTService) GenerateBatchProofs(rootHex string, purls []string, compress bool, accumulatorName string) (*BatchProofResult, error) {
	smtData, err := s.storage.GetSMT(rootHex)
	if err != nil {
		return nil, err
	}

	acc, err := getAccumulator(accumulatorName)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(smtData, acc); err != nil {
		return nil, errors.Wrap(err, "parse stored tree")
	}

	proofs := make([]ProofResult, 0, len(purls))
	for _, purl := range purls {
		proof, err := acc.Prove(purl)
		if err != nil {
			return nil, errors.Wrapf(err, "prove %q", purl)
		}
		metrics.ProofsGeneratedTotal.Inc()

		encoded, err := encodeProof(purl, proof, compress)
		if err != nil {
			return nil, err
		}
		proofs = append(proofs, *encoded)
	}

	return &BatchProofResult{
		Depth:  smt.TreeDepth,
		Root:   rootHex,
		Proofs: proofs,
	}, nil
}

// VerifyProofs checks a proof batch against an expected root and aggregates
// the compliance decision over the queried purls. A non-empty
// claimedBannedListHash must match the hash recomputed from the purls.
func (s *SMTService) VerifyProofs(ctx context.Context, rootHex, claimedBannedListHash string, proofs []ProofResult) (*VerifyResult, error) {
	expectedRoot, err := decodeHash(rootHex)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidInput, "root: %v", err)
	}

	batch := make([]verifier.PurlProof, 0, len(proofs))
	purls := make([]string, 0, len(proofs))
	for _, p := range proofs {
		decoded, err := decodeProof(p)
		if err != nil {
			return nil, err
		}
		batch = append(batch, *decoded)
		purls = append(purls, p.Purl)
	}

	if claimedBannedListHash != "" {
		computed := hex.EncodeToString(verifier.BannedListHash(purls))
		if claimedBannedListHash != computed {
			return nil, errors.Wrapf(verifier.ErrBannedListHash,
				"claimed %s, computed %s", claimedBannedListHash, computed)
		}
	}

	result, err := verifier.VerifyBatch(ctx, expectedRoot, batch)
	if errors.Is(err, verifier.ErrRootMismatch) {
		metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeMismatch).Inc()
		s.log.Warn().
			Str("expected", rootHex).
			Str("computed", hex.EncodeToString(result.ComputedRoot)).
			Msg("root mismatch")
		return verifyResultFrom(result, rootHex), nil
	}
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeMalformed).Inc()
		return nil, err
	}

	if result.Compliant {
		metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeCompliant).Inc()
	} else {
		metrics.VerificationsTotal.WithLabelValues(metrics.OutcomeNonCompliant).Inc()
	}

	return verifyResultFrom(result, rootHex), nil
}

func verifyResultFrom(r *verifier.BatchResult, expectedRoot string) *VerifyResult {
	return &VerifyResult{
		ComputedRoot:         hex.EncodeToString(r.ComputedRoot),
		ExpectedRoot:         expectedRoot,
		Matches:              r.Matches,
		Compliant:            r.Compliant,
		Verified:             r.Verified,
		Attempted:            r.Attempted,
		BannedListHash:       hex.EncodeToString(r.BannedListHash),
		BitmapOnes:           r.Diagnostics.BitmapOnes,
		UsedProvidedSiblings: r.Diagnostics.ProvidedSiblings,
		UsedDefaults:         r.Diagnostics.DefaultSiblings,
	}
}

func encodeProof(purl string, proof *smt.Proof, compress bool) (*ProofResult, error) {
	result := &ProofResult{
		Purl:      purl,
		Value:     proof.Value.String(),
		LeafIndex: leafIndexHex(proof.LeafIndex),
	}

	if !compress {
		result.Siblings = hexSiblings(proof.Siblings)
		return result, nil
	}

	compact, err := proof.Compact()
	if err != nil {
		return nil, err
	}
	result.Siblings = hexSiblings(compact.Siblings)
	result.Bitmap = hex.EncodeToString(smt.PackBitmap(compact.Bitmap))

	return result, nil
}

func decodeProof(p ProofResult) (*verifier.PurlProof, error) {
	leafIndex, err := decodeHash(p.LeafIndex)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidInput, "leaf index for %q: %v", p.Purl, err)
	}

	value, ok := new(big.Int).SetString(p.Value, 10)
	if !ok || value.Sign() < 0 {
		return nil, errors.Wrapf(ErrInvalidInput, "value %q for %q", p.Value, p.Purl)
	}

	siblings := make([][]byte, len(p.Siblings))
	for i, s := range p.Siblings {
		siblings[i], err = decodeHash(s)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidInput, "sibling %d for %q: %v", i, p.Purl, err)
		}
	}

	var compact *smt.CompactProof
	if p.Bitmap == "" {
		// Uncompressed form: all 256 siblings present. Compress at the
		// boundary so the verifier sees only the compact form.
		full := &smt.Proof{
			LeafIndex: new(big.Int).SetBytes(leafIndex),
			Value:     value,
			Siblings:  siblings,
		}
		compact, err = full.Compact()
		if err != nil {
			return nil, err
		}
	} else {
		rawBitmap, err := decodeHashSize(p.Bitmap, smt.BitmapSize)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidInput, "bitmap for %q: %v", p.Purl, err)
		}
		bitmap, err := smt.UnpackBitmap(rawBitmap)
		if err != nil {
			return nil, err
		}
		compact = &smt.CompactProof{
			LeafIndex: new(big.Int).SetBytes(leafIndex),
			Value:     value,
			Siblings:  siblings,
			Bitmap:    bitmap,
		}
	}

	return &verifier.PurlProof{Purl: p.Purl, Proof: compact}, nil
}

func decodeHash(s string) ([]byte, error) {
	return decodeHashSize(s, smt.HashSize)
}

func decodeHashSize(s string, size int) ([]byte, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(raw) != size {
		return nil, errors.Errorf("got %d bytes, want %d", len(raw), size)
	}
	return raw, nil
}

func hexSiblings(siblings [][]byte) []string {
	out := make([]string, len(siblings))
	for i, s := range siblings {
		out[i] = hex.EncodeToString(s)
	}
	return out
}

// leafIndexHex renders a leaf index as the full 64-character hash hex,
// preserving leading zeros the integer form drops.
func leafIndexHex(leafIndex *big.Int) string {
	padded := make([]byte, smt.HashSize)
	raw := leafIndex.Bytes()
	copy(padded[smt.HashSize-len(raw):], raw)
	return hex.EncodeToString(padded)
}
