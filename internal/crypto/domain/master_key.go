package domain

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
)

// MasterKey is a 32-byte root key that wraps local data keys.
type MasterKey struct {
	ID  string
	Key []byte
}

// KMSKeeper decrypts master keys that were stored KMS-encrypted.
// *secrets.Keeper from gocloud.dev satisfies it.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// MasterKeyChain holds every configured master key with one marked active.
// New data keys are wrapped by the active key; older keys stay available to
// unwrap key material produced before a rotation.
type MasterKeyChain struct {
	activeID string
	keys     sync.Map
}

// NewMasterKeyChain builds a chain from already decoded keys.
func NewMasterKeyChain(activeID string, keys ...*MasterKey) (*MasterKeyChain, error) {
	mkc := &MasterKeyChain{activeID: activeID}
	for _, k := range keys {
		if len(k.Key) != KeySize {
			mkc.Close()
			return nil, fmt.Errorf("%w: master key %s must be %d bytes, got %d",
				ErrInvalidKeySize, k.ID, KeySize, len(k.Key))
		}
		mkc.keys.Store(k.ID, &MasterKey{ID: k.ID, Key: append([]byte(nil), k.Key...)})
	}

	if _, ok := mkc.Get(activeID); !ok {
		mkc.Close()
		return nil, fmt.Errorf("%w: ACTIVE_MASTER_KEY_ID=%s", ErrActiveMasterKeyNotFound, activeID)
	}
	return mkc, nil
}

// ActiveMasterKeyID returns the ID of the key used for new wraps.
func (m *MasterKeyChain) ActiveMasterKeyID() string {
	return m.activeID
}

// Active returns the active master key.
func (m *MasterKeyChain) Active() (*MasterKey, error) {
	key, ok := m.Get(m.activeID)
	if !ok {
		return nil, ErrActiveMasterKeyNotFound
	}
	return key, nil
}

// Get looks a master key up by ID.
func (m *MasterKeyChain) Get(id string) (*MasterKey, bool) {
	if masterKey, ok := m.keys.Load(id); ok {
		return masterKey.(*MasterKey), true
	}
	return nil, false
}

// Close zeroes every key and empties the chain.
func (m *MasterKeyChain) Close() {
	m.keys.Range(func(_, value any) bool {
		Zero(value.(*MasterKey).Key)
		return true
	})
	m.keys.Clear()
	m.activeID = ""
}

// LoadMasterKeyChain parses raw ("id:base64,id:base64") into a chain. When
// keeper is non-nil each decoded value is a KMS ciphertext and is decrypted
// through it; otherwise the decoded value is the key itself.
func LoadMasterKeyChain(
	ctx context.Context,
	raw, activeID string,
	keeper KMSKeeper,
) (*MasterKeyChain, error) {
	if raw == "" {
		return nil, ErrMasterKeysNotSet
	}
	if activeID == "" {
		return nil, ErrActiveMasterKeyIDNotSet
	}

	var keys []*MasterKey
	defer func() {
		for _, k := range keys {
			Zero(k.Key)
		}
	}()

	for part := range strings.SplitSeq(raw, ",") {
		p := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(p) != 2 || p[0] == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMasterKeysFormat, part)
		}

		decoded, err := base64.StdEncoding.DecodeString(p[1])
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidMasterKeyBase64, p[0], err)
		}

		if keeper != nil {
			plain, err := keeper.Decrypt(ctx, decoded)
			if err != nil {
				return nil, fmt.Errorf("failed to decrypt master key %s: %w", p[0], err)
			}
			decoded = plain
		}

		keys = append(keys, &MasterKey{ID: p[0], Key: decoded})
	}

	return NewMasterKeyChain(activeID, keys...)
}
