// Package handlers exposes the proof service over HTTP.
package handlers

import (
	"net/http"

	"github.com/CycloneDX/cyclonedx-go"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"sbom-proof-service/service"
	"sbom-proof-service/smt"
	"sbom-proof-service/verifier"
)

type Handler struct {
	svc *service.SMTService
}

func NewHandler(svc *service.SMTService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Build(c *gin.Context) {
	var bom cyclonedx.BOM
	if err := c.ShouldBindJSON(&bom); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.svc.BuildSMT(&bom, "dependency", "smt")
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, BuildResponse{
		Root:       result.Root,
		Depth:      result.Depth,
		Components: result.Components,
		Skipped:    result.Skipped,
	})
}

func (h *Handler) GetSMT(c *gin.Context) {
	rootHash := c.Param("root")

	smtData, err := h.svc.GetSMT(rootHash)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "SMT not found"})
		return
	}

	c.Data(http.StatusOK, "application/json", smtData)
}

func (h *Handler) StoreSMT(c *gin.Context) {
	var req StoreSMTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if req.Accumulator == "" {
		req.Accumulator = "smt"
	}

	root, err := h.svc.StoreSMT(req.SMT, req.Accumulator)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, StoreSMTResponse{Root: root})
}

func (h *Handler) ProveBatch(c *gin.Context) {
	var req ProveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if req.Accumulator == "" {
		req.Accumulator = "smt"
	}

	if len(req.PURLs) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no purls"})
		return
	}

	result, err := h.svc.GenerateBatchProofs(req.Root, req.PURLs, req.Compress, req.Accumulator)
	if err != nil {
		h.fail(c, err)
		return
	}

	proofs := make([]ProofOutput, len(result.Proofs))
	for i, p := range result.Proofs {
		proofs[i] = ProofOutput{
			Purl:      p.Purl,
			Value:     p.Value,
			Siblings:  p.Siblings,
			LeafIndex: p.LeafIndex,
			Bitmap:    p.Bitmap,
		}
	}

	c.JSON(http.StatusOK, ProveBatchResponse{
		Depth:        result.Depth,
		Root:         result.Root,
		MerkleProofs: proofs,
	})
}

func (h *Handler) VerifyBatch(c *gin.Context) {
	var req VerifyBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if len(req.MerkleProofs) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no proofs"})
		return
	}

	proofs := make([]service.ProofResult, len(req.MerkleProofs))
	for i, p := range req.MerkleProofs {
		proofs[i] = service.ProofResult{
			Purl:      p.Purl,
			Value:     p.Value,
			Siblings:  p.Siblings,
			LeafIndex: p.LeafIndex,
			Bitmap:    p.Bitmap,
		}
	}

	result, err := h.svc.VerifyProofs(c.Request.Context(), req.Root, req.BannedListHash, proofs)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, VerifyBatchResponse{
		ComputedRoot:         result.ComputedRoot,
		ExpectedRoot:         result.ExpectedRoot,
		Matches:              result.Matches,
		Compliant:            result.Compliant,
		Verified:             result.Verified,
		Attempted:            result.Attempted,
		BannedListHash:       result.BannedListHash,
		BitmapOnes:           result.BitmapOnes,
		UsedProvidedSiblings: result.UsedProvidedSiblings,
		UsedDefaults:         result.UsedDefaults,
	})
}

// fail maps the error taxonomy onto HTTP status codes.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, smt.ErrMalformedProof),
		errors.Is(err, verifier.ErrKeyBinding),
		errors.Is(err, verifier.ErrBannedListHash),
		errors.Is(err, smt.ErrZeroValue):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
