package services

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nnm-backend/internal/mint"
	"nnm-backend/internal/models"
)

// AttemptRecorder persists every attempt transition as an audit row.
// It implements mint.StateListener.
type AttemptRecorder struct {
	db *gorm.DB
}

// NewAttemptRecorder creates the recorder.
func NewAttemptRecorder(db *gorm.DB) *AttemptRecorder {
	return &AttemptRecorder{db: db}
}

// AttemptUpdated upserts the audit row for the attempt.
func (r *AttemptRecorder) AttemptUpdated(attempt mint.Attempt) {
	record := models.MintAttemptRecord{
		AttemptID: attempt.ID,
		Name:      attempt.Name,
		Tier:      attempt.Tier.String(),
		Requester: attempt.Requester,
		State:     string(attempt.State),
		Error:     attempt.Error,
		TokenURI:  attempt.TokenURI,
		TxHash:    attempt.TxHash,
		CreatedAt: attempt.CreatedAt,
		UpdatedAt: attempt.UpdatedAt,
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "error", "token_uri", "tx_hash", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"attempt_id": attempt.ID,
			"error":      err.Error(),
		}).Warn("Failed to record attempt transition")
	}
}

// RecentAttempts returns the latest attempt audit rows for the admin
// surface.
func (r *AttemptRecorder) RecentAttempts(limit int) ([]models.MintAttemptRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var records []models.MintAttemptRecord
	err := r.db.Order("updated_at DESC").Limit(limit).Find(&records).Error
	return records, err
}
