package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nnm-backend/internal/artwork"
	"nnm-backend/internal/models"
)

const (
	minterAddr = "0x52908400098527886E0F7030069857D2E4169EE7"
	buyerAddr  = "0x8617E340B3D01FA5F11F306F4090FD50E238070D"
)

// fakeRegistry is an in-memory registry whose owners can be mutated
// between sync passes to simulate transfers.
type fakeRegistry struct {
	mu     sync.Mutex
	owners []common.Address
}

func (r *fakeRegistry) TotalSupply(ctx context.Context) (*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return big.NewInt(int64(len(r.owners))), nil
}

func (r *fakeRegistry) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	return fmt.Sprintf("ipfs://QmToken%d", tokenID.Uint64()), nil
}

func (r *fakeRegistry) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := int(tokenID.Uint64())
	if id >= len(r.owners) {
		return common.Address{}, fmt.Errorf("owner query for nonexistent token %d", id)
	}
	return r.owners[id], nil
}

func (r *fakeRegistry) transfer(tokenID int, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[tokenID] = common.HexToAddress(to)
}

// newTestGateway serves metadata documents keyed by the CID path the
// indexer resolves.
func newTestGateway(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := strings.TrimPrefix(r.URL.Path, "/")
		doc := artwork.MetadataDocument{
			Name:  strings.TrimPrefix(cid, "QmToken") + ".nnm",
			Image: "ipfs://QmImage",
			Attributes: []artwork.Attribute{
				{TraitType: "Tier", Value: "Elite"},
			},
		}
		json.NewEncoder(w).Encode(doc)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestIndex(t *testing.T, registry RegistryIndexReader) *AssetIndexService {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory DB.
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(&models.MintedAsset{}))

	gateway := newTestGateway(t)
	return NewAssetIndexService(database, registry, gateway.URL+"/", time.Minute)
}

func TestSyncOnceIndexesNewTokens(t *testing.T) {
	registry := &fakeRegistry{owners: []common.Address{
		common.HexToAddress(minterAddr),
		common.HexToAddress(buyerAddr),
	}}
	index := newTestIndex(t, registry)

	require.NoError(t, index.SyncOnce(context.Background()))

	assets, err := index.ListAssets(10, 0)
	require.NoError(t, err)
	require.Len(t, assets, 2)

	// Newest-first listing order.
	assert.Equal(t, uint64(1), assets[0].TokenID)
	assert.Equal(t, uint64(0), assets[1].TokenID)
	assert.Equal(t, "0.nnm", assets[1].Name)
	assert.Equal(t, "elite", assets[1].Tier)
	assert.Equal(t, strings.ToLower(minterAddr), assets[1].Owner)
}

func TestSyncOnceRefreshesTransferredOwners(t *testing.T) {
	registry := &fakeRegistry{owners: []common.Address{
		common.HexToAddress(minterAddr),
	}}
	index := newTestIndex(t, registry)
	require.NoError(t, index.SyncOnce(context.Background()))

	registry.transfer(0, buyerAddr)

	// Supply is unchanged, so only the owner refresh can pick this up.
	require.NoError(t, index.SyncOnce(context.Background()))

	asset, err := index.GetAsset(0)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(buyerAddr), asset.Owner)

	held, err := index.AssetsByOwner(minterAddr)
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestReindexRewalksExistingTokens(t *testing.T) {
	registry := &fakeRegistry{owners: []common.Address{
		common.HexToAddress(minterAddr),
	}}
	index := newTestIndex(t, registry)
	require.NoError(t, index.SyncOnce(context.Background()))

	registry.transfer(0, buyerAddr)

	// Indexed count equals total supply, yet a reindex must still
	// revisit every token.
	require.NoError(t, index.Reindex(context.Background()))

	asset, err := index.GetAsset(0)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(buyerAddr), asset.Owner)
}
