package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nnm-backend/internal/artwork"
	"nnm-backend/internal/db"
	"nnm-backend/internal/metrics"
	"nnm-backend/internal/models"
	"nnm-backend/internal/utils"
)

// RegistryIndexReader is the registry read surface the indexer needs.
type RegistryIndexReader interface {
	TotalSupply(ctx context.Context) (*big.Int, error)
	TokenURI(ctx context.Context, tokenID *big.Int) (string, error)
	OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error)
}

// AssetIndexService mirrors minted registry tokens into the local
// database so marketplace and dashboard queries do not fan out one RPC
// call per token. Chain state stays authoritative; the index is a cache.
type AssetIndexService struct {
	db         *gorm.DB
	registry   RegistryIndexReader
	gateway    string
	interval   time.Duration
	httpClient *http.Client
	stop       chan struct{}
}

// NewAssetIndexService creates the indexer. gateway is the IPFS HTTP
// gateway used to resolve pinned metadata documents.
func NewAssetIndexService(db *gorm.DB, registry RegistryIndexReader, gateway string, interval time.Duration) *AssetIndexService {
	return &AssetIndexService{
		db:       db,
		registry: registry,
		gateway:  gateway,
		interval: interval,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		stop: make(chan struct{}),
	}
}

// Start runs the sync loop until Stop is called.
func (s *AssetIndexService) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		// First pass immediately so the index is warm shortly after boot.
		s.runPass()

		for {
			select {
			case <-ticker.C:
				s.runPass()
			case <-s.stop:
				return
			}
		}
	}()
	logrus.WithField("interval", s.interval.String()).Info("🔄 Asset index sync started")
}

// Stop terminates the sync loop.
func (s *AssetIndexService) Stop() {
	close(s.stop)
}

func (s *AssetIndexService) runPass() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	if err := s.SyncOnce(ctx); err != nil {
		metrics.IndexSyncErrors.Inc()
		logrus.WithField("error", err.Error()).Warn("Asset index sync pass failed")
	}
}

// SyncOnce indexes tokens minted since the last pass and refreshes the
// owner column of already-indexed tokens, so secondary transfers show up
// without a full reindex.
func (s *AssetIndexService) SyncOnce(ctx context.Context) error {
	supply, err := s.registry.TotalSupply(ctx)
	if err != nil {
		return fmt.Errorf("total supply read failed: %w", err)
	}
	total := supply.Uint64()

	var indexed int64
	if err := s.db.Model(&models.MintedAsset{}).Count(&indexed).Error; err != nil {
		return fmt.Errorf("index count failed: %w", err)
	}

	for tokenID := uint64(indexed); tokenID < total; tokenID++ {
		if err := s.indexToken(ctx, tokenID); err != nil {
			return fmt.Errorf("token %d: %w", tokenID, err)
		}
	}

	if err := s.refreshOwners(ctx, uint64(indexed)); err != nil {
		return err
	}

	metrics.IndexedAssets.Set(float64(total))
	return nil
}

// Reindex re-walks every minted token, refreshing metadata and owner of
// rows that already exist. Backs the admin reindex endpoint.
func (s *AssetIndexService) Reindex(ctx context.Context) error {
	supply, err := s.registry.TotalSupply(ctx)
	if err != nil {
		return fmt.Errorf("total supply read failed: %w", err)
	}
	total := supply.Uint64()

	for tokenID := uint64(0); tokenID < total; tokenID++ {
		if err := s.indexToken(ctx, tokenID); err != nil {
			return fmt.Errorf("token %d: %w", tokenID, err)
		}
	}

	metrics.IndexedAssets.Set(float64(total))
	return nil
}

// refreshOwners re-reads ownerOf for the first n tokens and updates rows
// whose holder changed on chain.
func (s *AssetIndexService) refreshOwners(ctx context.Context, n uint64) error {
	for tokenID := uint64(0); tokenID < n; tokenID++ {
		owner, err := s.registry.OwnerOf(ctx, new(big.Int).SetUint64(tokenID))
		if err != nil {
			return fmt.Errorf("token %d: ownerOf read failed: %w", tokenID, err)
		}
		normalized := utils.NormalizeAddress(owner.Hex())

		res := s.db.Model(&models.MintedAsset{}).
			Where("token_id = ? AND owner <> ?", tokenID, normalized).
			Update("owner", normalized)
		if res.Error != nil {
			return fmt.Errorf("token %d: owner update failed: %w", tokenID, res.Error)
		}
		if res.RowsAffected > 0 {
			logrus.WithFields(logrus.Fields{
				"token_id": tokenID,
				"owner":    normalized,
			}).Debug("Refreshed asset owner")
		}
	}
	return nil
}

func (s *AssetIndexService) indexToken(ctx context.Context, tokenID uint64) error {
	id := new(big.Int).SetUint64(tokenID)

	uri, err := s.registry.TokenURI(ctx, id)
	if err != nil {
		return fmt.Errorf("tokenURI read failed: %w", err)
	}
	owner, err := s.registry.OwnerOf(ctx, id)
	if err != nil {
		return fmt.Errorf("ownerOf read failed: %w", err)
	}

	asset := models.MintedAsset{
		TokenID:  tokenID,
		Owner:    utils.NormalizeAddress(owner.Hex()),
		TokenURI: uri,
		Name:     fmt.Sprintf("Asset #%d", tokenID),
		Tier:     "founder",
	}

	if doc := s.fetchMetadata(ctx, uri); doc != nil {
		if doc.Name != "" {
			asset.Name = doc.Name
		}
		asset.ImageURI = doc.Image
		for _, attr := range doc.Attributes {
			if attr.TraitType == "Tier" {
				asset.Tier = strings.ToLower(attr.Value)
			}
		}
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner", "token_uri", "name", "tier", "image_uri", "updated_at"}),
	}).Create(&asset).Error
	if err != nil {
		// A manual reindex racing the sync loop can both insert the same
		// token; the loser's row is already correct.
		if db.IsUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("index upsert failed: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"token_id": tokenID,
		"name":     asset.Name,
		"owner":    asset.Owner,
	}).Debug("Indexed asset")
	return nil
}

// fetchMetadata resolves a pinned metadata document through the IPFS
// gateway. Failures degrade to URI-only rows, they do not stall the
// index.
func (s *AssetIndexService) fetchMetadata(ctx context.Context, tokenURI string) *artwork.MetadataDocument {
	if !strings.HasPrefix(tokenURI, "ipfs://") {
		return nil
	}
	url := s.gateway + strings.TrimPrefix(tokenURI, "ipfs://")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var doc artwork.MetadataDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil
	}
	return &doc
}

// ListAssets returns indexed assets newest-first, the marketplace
// listing order.
func (s *AssetIndexService) ListAssets(limit, offset int) ([]models.MintedAsset, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var assets []models.MintedAsset
	err := s.db.Order("token_id DESC").Limit(limit).Offset(offset).Find(&assets).Error
	return assets, err
}

// GetAsset returns one indexed asset by token ID.
func (s *AssetIndexService) GetAsset(tokenID uint64) (*models.MintedAsset, error) {
	var asset models.MintedAsset
	if err := s.db.Where("token_id = ?", tokenID).First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// AssetsByOwner returns the assets held by an address.
func (s *AssetIndexService) AssetsByOwner(address string) ([]models.MintedAsset, error) {
	var assets []models.MintedAsset
	err := s.db.Where("owner = ?", utils.NormalizeAddress(address)).
		Order("token_id DESC").Find(&assets).Error
	return assets, err
}
