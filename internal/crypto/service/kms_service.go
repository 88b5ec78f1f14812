package service

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"

	// Keeper drivers selectable through KMS_KEY_URI.
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KMSService opens gocloud.dev keepers that protect the master keys.
type KMSService interface {
	// OpenKeeper opens the keeper for keyURI (gcpkms://, awskms://,
	// azurekeyvault://, hashivault://, base64key://).
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)

	// LoadMasterKeyChain decodes MASTER_KEYS. With a keyURI the entries are
	// KMS ciphertexts and are decrypted through the keeper, which is closed
	// before returning.
	LoadMasterKeyChain(ctx context.Context, raw, activeID, keyURI string) (*cryptoDomain.MasterKeyChain, error)
}

type kmsService struct{}

// NewKMSService creates a new KMS service instance.
func NewKMSService() KMSService {
	return &kmsService{}
}

func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

func (k *kmsService) LoadMasterKeyChain(
	ctx context.Context,
	raw, activeID, keyURI string,
) (*cryptoDomain.MasterKeyChain, error) {
	if keyURI == "" {
		return cryptoDomain.LoadMasterKeyChain(ctx, raw, activeID, nil)
	}

	keeper, err := k.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = keeper.Close()
	}()

	return cryptoDomain.LoadMasterKeyChain(ctx, raw, activeID, keeper)
}
