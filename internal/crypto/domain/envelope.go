package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Envelope is the output of a provider encrypt call. Ciphertext is nil when the
// plaintext was nil; KeyMaterial is whatever the provider needs to recover the
// data key later.
type Envelope struct {
	Ciphertext  []byte
	KeyMaterial []byte
}

// Credentials are the unsealed settings of a remote KMS config.
type Credentials struct {
	AccessKey string
	SecretKey string
	KeyArn    string
	Region    string
}

// String hides the secret parts so credentials never end up in logs.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{AccessKey:%s Region:%s}", c.AccessKey, c.Region)
}

// WrappedKey is the local provider's key material: a data key sealed by one
// of the master keys. Text form is "masterKeyID:algorithm:nonce:key" with the
// last two parts base64 encoded.
type WrappedKey struct {
	MasterKeyID string
	Algorithm   Algorithm
	Nonce       []byte
	Key         []byte
}

// ParseWrappedKey parses the text form produced by WrappedKey.String.
func ParseWrappedKey(material []byte) (WrappedKey, error) {
	parts := strings.Split(string(material), ":")
	if len(parts) != 4 {
		return WrappedKey{}, fmt.Errorf(
			"%w: expected 'masterKeyID:algorithm:nonce:key', got %d parts",
			ErrInvalidKeyMaterial,
			len(parts),
		)
	}
	if parts[0] == "" {
		return WrappedKey{}, fmt.Errorf("%w: empty master key id", ErrInvalidKeyMaterial)
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return WrappedKey{}, fmt.Errorf("%w: nonce: %v", ErrInvalidKeyMaterial, err)
	}
	key, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return WrappedKey{}, fmt.Errorf("%w: key: %v", ErrInvalidKeyMaterial, err)
	}

	return WrappedKey{
		MasterKeyID: parts[0],
		Algorithm:   Algorithm(parts[1]),
		Nonce:       nonce,
		Key:         key,
	}, nil
}

func (w WrappedKey) String() string {
	return fmt.Sprintf(
		"%s:%s:%s:%s",
		w.MasterKeyID,
		w.Algorithm,
		base64.StdEncoding.EncodeToString(w.Nonce),
		base64.StdEncoding.EncodeToString(w.Key),
	)
}

// Bytes returns the text form as bytes, the shape stored in key material columns.
func (w WrappedKey) Bytes() []byte {
	return []byte(w.String())
}
