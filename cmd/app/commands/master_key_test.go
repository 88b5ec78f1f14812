package commands

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
)

type reverseKeeper struct {
	closed bool
}

func (k *reverseKeeper) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	out := make([]byte, len(plaintext))
	for i, b := range plaintext {
		out[len(plaintext)-1-i] = b
	}
	return out, nil
}

func (k *reverseKeeper) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	return k.Encrypt(ctx, ciphertext)
}

func (k *reverseKeeper) Close() error {
	k.closed = true
	return nil
}

type stubOpener struct {
	keeper *reverseKeeper
	err    error
	uri    string
}

func (o *stubOpener) OpenKeeper(_ context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	o.uri = keyURI
	if o.err != nil {
		return nil, o.err
	}
	return o.keeper, nil
}

var masterKeysLine = regexp.MustCompile(`MASTER_KEYS="([^:]+):([^"]+)"`)

func TestRunCreateMasterKey(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("plain-key", func(t *testing.T) {
		opener := &stubOpener{}

		var out bytes.Buffer
		err := RunCreateMasterKey(ctx, opener, logger, &out, "k1", "")

		require.NoError(t, err)
		assert.Empty(t, opener.uri)
		assert.NotContains(t, out.String(), "KMS_KEY_URI")
		assert.Contains(t, out.String(), `ACTIVE_MASTER_KEY_ID="k1"`)

		match := masterKeysLine.FindStringSubmatch(out.String())
		require.Len(t, match, 3)
		assert.Equal(t, "k1", match[1])
		key, err := base64.StdEncoding.DecodeString(match[2])
		require.NoError(t, err)
		assert.Len(t, key, cryptoDomain.KeySize)
	})

	t.Run("kms-wrapped-key", func(t *testing.T) {
		opener := &stubOpener{keeper: &reverseKeeper{}}

		var out bytes.Buffer
		err := RunCreateMasterKey(ctx, opener, logger, &out, "k2", "base64key://abc")

		require.NoError(t, err)
		assert.Equal(t, "base64key://abc", opener.uri)
		assert.True(t, opener.keeper.closed)
		assert.Contains(t, out.String(), `KMS_KEY_URI="base64key://abc"`)
		assert.Contains(t, out.String(), `ACTIVE_MASTER_KEY_ID="k2"`)
	})

	t.Run("default-key-id", func(t *testing.T) {
		var out bytes.Buffer
		err := RunCreateMasterKey(ctx, &stubOpener{}, logger, &out, "", "")

		require.NoError(t, err)
		assert.Contains(t, out.String(), `ACTIVE_MASTER_KEY_ID="master-key-`)
	})

	t.Run("open-keeper-error", func(t *testing.T) {
		opener := &stubOpener{err: errors.New("bad uri")}

		err := RunCreateMasterKey(ctx, opener, logger, &bytes.Buffer{}, "k1", "awskms://nope")

		require.ErrorContains(t, err, "failed to open kms keeper: bad uri")
	})
}
