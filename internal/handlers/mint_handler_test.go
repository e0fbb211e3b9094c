package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nnm-backend/internal/artwork"
	"nnm-backend/internal/mint"
)

const testWallet = "0x8617E340B3D01FA5F11F306F4090FD50E238070D"

type stubReader struct {
	owner common.Address
	cost  *big.Int
}

func (r *stubReader) Owner(ctx context.Context) (common.Address, error) { return r.owner, nil }
func (r *stubReader) AuthorizedMinter(ctx context.Context, addr common.Address) (bool, error) {
	return false, nil
}
func (r *stubReader) MaticCost(ctx context.Context, usdWei *big.Int) (*big.Int, error) {
	return r.cost, nil
}

type stubPublisher struct{}

func (stubPublisher) PinFile(ctx context.Context, data []byte, filename string) (string, error) {
	return "QmImage", nil
}
func (stubPublisher) PinJSON(ctx context.Context, content interface{}, name string) (string, error) {
	return "QmMeta", nil
}

func newTestMintRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	wei := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	resolver := mint.NewResolver(&stubReader{cost: wei}, 500)
	metadata := artwork.NewMetadataBuilder("", "https://nftnamemarket.com", "GEN-0 Genesis", "2025", "NNM Market")

	pipeline := mint.NewPipeline(
		artwork.NewSVGRenderer("2025"),
		metadata,
		stubPublisher{},
		resolver,
		nil,
		mint.NewTracker(),
		mint.ImageModeSVG,
	)

	handler := NewMintHandler(pipeline, resolver)
	r := gin.New()
	r.POST("/api/mint", handler.MintHandler)
	r.GET("/api/mint/plan", handler.PlanHandler)
	r.GET("/api/mint/attempts/:id", handler.AttemptHandler)
	return r
}

func postMint(t *testing.T, r *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/mint", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMintMissingName(t *testing.T) {
	r := newTestMintRouter()

	w := postMint(t, r, map[string]string{"tier": "founder"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp MintResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestMintMalformedBodyReportsBindError(t *testing.T) {
	r := newTestMintRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/mint", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp MintResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	// A syntax error must surface as such, not as a missing field.
	assert.Contains(t, resp.Error, "Invalid request")
	assert.NotEqual(t, "name is required", resp.Error)
}

func TestMintUnknownTierRejected(t *testing.T) {
	r := newTestMintRouter()

	w := postMint(t, r, map[string]string{
		"name":    "satoshi",
		"tier":    "imortal",
		"address": testWallet,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp MintResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "unknown tier")
}

func TestPlanUnknownTierRejected(t *testing.T) {
	r := newTestMintRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/mint/plan?address="+testWallet+"&tier=platinum", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMintInvalidName(t *testing.T) {
	r := newTestMintRouter()

	w := postMint(t, r, map[string]string{
		"name":    "bad name!",
		"address": testWallet,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMintPreviewReturnsImage(t *testing.T) {
	r := newTestMintRouter()

	w := postMint(t, r, map[string]string{
		"name": "satoshi",
		"tier": "immortal",
		"mode": "preview",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "SATOSHI")
}

func TestMintSuccess(t *testing.T) {
	r := newTestMintRouter()

	w := postMint(t, r, map[string]string{
		"name":    "satoshi",
		"tier":    "founder",
		"address": testWallet,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp MintResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ipfs://QmMeta", resp.TokenURI)
	assert.NotEmpty(t, resp.AttemptID)
	assert.False(t, resp.Submitted)
}

func TestMintWithoutWallet(t *testing.T) {
	r := newTestMintRouter()

	w := postMint(t, r, map[string]string{"name": "satoshi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlanEndpoint(t *testing.T) {
	r := newTestMintRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/mint/plan?address="+testWallet+"&tier=founder", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success          bool        `json:"success"`
		MintFunction     string      `json:"mint_function"`
		RequiredValueWei json.Number `json:"required_value_wei"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "mintPublic", resp.MintFunction)
	assert.Equal(t, "1050000000000000000", resp.RequiredValueWei.String())
}

func TestPlanMissingAddress(t *testing.T) {
	r := newTestMintRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/mint/plan?tier=founder", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttemptNotFound(t *testing.T) {
	r := newTestMintRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/mint/attempts/unknown", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
