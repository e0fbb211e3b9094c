package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"nnm-backend/internal/mint"
	"nnm-backend/internal/tiers"
)

// MintHandler serves the mint API: card preview, mint execution, and
// payment plan resolution.
type MintHandler struct {
	pipeline *mint.Pipeline
	resolver *mint.Resolver
}

// NewMintHandler creates the mint handler.
func NewMintHandler(pipeline *mint.Pipeline, resolver *mint.Resolver) *MintHandler {
	return &MintHandler{pipeline: pipeline, resolver: resolver}
}

// MintRequest is the body of POST /api/mint.
type MintRequest struct {
	Name    string `json:"name" binding:"required"`
	Tier    string `json:"tier"`
	Mode    string `json:"mode"`    // "preview" or "mint" (default)
	Address string `json:"address"` // requester wallet address
}

// MintResponse is the success body of POST /api/mint in mint mode.
type MintResponse struct {
	Success   bool   `json:"success"`
	AttemptID string `json:"attempt_id,omitempty"`
	TokenURI  string `json:"tokenUri,omitempty"`
	ImageURI  string `json:"imageUri,omitempty"`
	TxHash    string `json:"tx_hash,omitempty"`
	Submitted bool   `json:"submitted"`
	Error     string `json:"error,omitempty"`
}

// MintHandler handles POST /api/mint.
func (h *MintHandler) MintHandler(c *gin.Context) {
	var req MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MintResponse{
			Success: false,
			Error:   fmt.Sprintf("Invalid request: %v", err),
		})
		return
	}

	tier, err := tiers.Parse(req.Tier)
	if err != nil {
		c.JSON(http.StatusBadRequest, MintResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	if req.Mode == "preview" {
		artifact, err := h.pipeline.Preview(req.Name, tier)
		if err != nil {
			c.JSON(statusForError(err), MintResponse{
				Success: false,
				Error:   err.Error(),
			})
			return
		}
		c.Data(http.StatusOK, artifact.MimeType, artifact.ImageBytes)
		return
	}

	result, err := h.pipeline.Run(c.Request.Context(), mint.Request{
		Name:      req.Name,
		Tier:      tier,
		Requester: req.Address,
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"name":  req.Name,
			"tier":  tier.String(),
			"error": err.Error(),
		}).Warn("Mint request failed")

		c.JSON(statusForError(err), MintResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, MintResponse{
		Success:   true,
		AttemptID: result.AttemptID,
		TokenURI:  result.TokenURI,
		ImageURI:  result.ImageURI,
		TxHash:    result.TxHash,
		Submitted: result.Submitted,
	})
}

// PlanHandler handles GET /api/mint/plan. It resolves which contract
// function a wallet would be routed to without rendering or pinning
// anything.
func (h *MintHandler) PlanHandler(c *gin.Context) {
	address := c.Query("address")
	tier, err := tiers.Parse(c.Query("tier"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	plan, err := h.resolver.ResolvePath(c.Request.Context(), address, tier, nil)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"tier":               tier.String(),
		"mint_function":      plan.MintFunction,
		"required_value_wei": plan.RequiredValueWei,
	})
}

// AttemptHandler handles GET /api/mint/attempts/:id.
func (h *MintHandler) AttemptHandler(c *gin.Context) {
	attempt, ok := h.pipeline.Tracker().Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "attempt not found",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"attempt": attempt,
	})
}

// statusForError maps pipeline errors to HTTP status codes. Invalid
// input is the caller's fault; everything downstream of a valid request
// is a server-side failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, mint.ErrValidation), errors.Is(err, mint.ErrNotConnected):
		return http.StatusBadRequest
	case errors.Is(err, mint.ErrAttemptInFlight), errors.Is(err, mint.ErrNameTaken):
		return http.StatusConflict
	case errors.Is(err, mint.ErrTransactionRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, mint.ErrResolutionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
