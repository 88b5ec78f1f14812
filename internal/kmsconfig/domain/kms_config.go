// Package domain defines the KMS configuration registry model.
package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
)

// GlobalAccountID owns the single global config every account falls back to.
const GlobalAccountID = "__GLOBAL_ACCOUNT_ID__"

// MaskToken replaces secret fields in listings. Sent back on save, it means
// "keep the stored value".
const MaskToken = "*******"

// KmsConfig is one set of remote KMS credentials owned by an account.
// SecretKey and KmsArn are sealed by the local provider before they are stored.
type KmsConfig struct {
	ID        uuid.UUID
	AccountID string
	Name      string
	AccessKey string
	SecretKey cryptoDomain.Envelope
	KmsArn    cryptoDomain.Envelope
	Region    string
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsGlobal reports whether the config belongs to the global account.
func (c *KmsConfig) IsGlobal() bool {
	return c.AccountID == GlobalAccountID
}

// KmsConfigView is a listing entry: secrets masked and the default flag
// reflecting the merged account view.
type KmsConfigView struct {
	ID        uuid.UUID
	AccountID string
	Name      string
	AccessKey string
	SecretKey string
	KmsArn    string
	Region    string
	IsDefault bool
	IsGlobal  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewKmsConfigView masks c for display.
func NewKmsConfigView(c *KmsConfig, isDefault bool) *KmsConfigView {
	return &KmsConfigView{
		ID:        c.ID,
		AccountID: c.AccountID,
		Name:      c.Name,
		AccessKey: c.AccessKey,
		SecretKey: MaskToken,
		KmsArn:    MaskToken,
		Region:    c.Region,
		IsDefault: isDefault,
		IsGlobal:  c.IsGlobal(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
