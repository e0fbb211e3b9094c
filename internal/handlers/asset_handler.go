package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nnm-backend/internal/clients"
	"nnm-backend/internal/services"
	"nnm-backend/internal/utils"
)

// AssetHandler serves the minted-asset index and name availability
// queries.
type AssetHandler struct {
	index    *services.AssetIndexService
	registry *clients.RegistryClient
}

// NewAssetHandler creates the asset handler. index may be nil when the
// database is disabled; availability checks still work.
func NewAssetHandler(index *services.AssetIndexService, registry *clients.RegistryClient) *AssetHandler {
	return &AssetHandler{index: index, registry: registry}
}

// ListAssetsHandler handles GET /api/assets.
func (h *AssetHandler) ListAssetsHandler(c *gin.Context) {
	if h.index == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "Asset index is disabled",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	assets, err := h.index.ListAssets(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"assets":  assets,
		"count":   len(assets),
	})
}

// GetAssetHandler handles GET /api/assets/:id.
func (h *AssetHandler) GetAssetHandler(c *gin.Context) {
	if h.index == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "Asset index is disabled",
		})
		return
	}

	tokenID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid token id",
		})
		return
	}

	asset, err := h.index.GetAsset(tokenID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "asset not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"asset":   asset,
	})
}

// AssetsByOwnerHandler handles GET /api/assets/owner/:address.
func (h *AssetHandler) AssetsByOwnerHandler(c *gin.Context) {
	if h.index == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "Asset index is disabled",
		})
		return
	}

	address := c.Param("address")
	if !utils.IsEvmAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid address",
		})
		return
	}

	assets, err := h.index.AssetsByOwner(address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"assets":  assets,
		"count":   len(assets),
	})
}

// NameAvailableHandler handles GET /api/names/:name/available, reading
// availability from the registry contract directly.
func (h *AssetHandler) NameAvailableHandler(c *gin.Context) {
	name, err := utils.SanitizeName(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	available, err := h.registry.IsAvailable(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   "availability check failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"name":      name,
		"available": available,
	})
}
