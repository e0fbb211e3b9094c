package models

import (
	"time"
)

// MintedAsset is one indexed registry token. The index mirrors on-chain
// state plus the name and tier resolved from the pinned metadata; chain
// state stays authoritative.
type MintedAsset struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	TokenID   uint64    `gorm:"uniqueIndex" json:"token_id"`
	Name      string    `gorm:"type:varchar(64);index" json:"name"`
	Tier      string    `gorm:"type:varchar(16)" json:"tier"`
	Owner     string    `gorm:"type:char(42);index" json:"owner"`
	TokenURI  string    `gorm:"type:text" json:"token_uri"`
	ImageURI  string    `gorm:"type:text" json:"image_uri"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MintAttemptRecord is the audit row persisted for every attempt state
// transition reaching a terminal state, plus in-flight snapshots.
type MintAttemptRecord struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	AttemptID string    `gorm:"type:char(36);uniqueIndex" json:"attempt_id"`
	Name      string    `gorm:"type:varchar(64);index" json:"name"`
	Tier      string    `gorm:"type:varchar(16)" json:"tier"`
	Requester string    `gorm:"type:char(42);index" json:"requester"`
	State     string    `gorm:"type:varchar(32);index" json:"state"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`
	TokenURI  string    `gorm:"type:text" json:"token_uri,omitempty"`
	TxHash    string    `gorm:"type:char(66)" json:"tx_hash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
