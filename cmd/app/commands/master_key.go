package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"time"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
)

// KeeperOpener opens the keeper that wraps master keys.
type KeeperOpener interface {
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}

// RunCreateMasterKey generates a master key for the local provider and prints
// the environment entries that load it. With a keyURI the key is encrypted
// by that keeper first and KMS_KEY_URI is printed too.
func RunCreateMasterKey(
	ctx context.Context,
	opener KeeperOpener,
	logger *slog.Logger,
	writer io.Writer,
	keyID, keyURI string,
) error {
	if keyID == "" {
		keyID = fmt.Sprintf("master-key-%s", time.Now().Format("2006-01-02"))
	}

	masterKey := make([]byte, cryptoDomain.KeySize)
	defer cryptoDomain.Zero(masterKey)
	if _, err := rand.Read(masterKey); err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}

	encoded := masterKey
	if keyURI != "" {
		keeper, err := opener.OpenKeeper(ctx, keyURI)
		if err != nil {
			return fmt.Errorf("failed to open kms keeper: %w", err)
		}
		defer func() {
			if closeErr := keeper.Close(); closeErr != nil {
				logger.Error("failed to close kms keeper", slog.Any("error", closeErr))
			}
		}()

		encoded, err = keeper.Encrypt(ctx, masterKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt master key: %w", err)
		}
	}

	_, _ = fmt.Fprintln(writer, "# Copy these entries to your .env file or secrets manager")
	if keyURI != "" {
		_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=%q\n", keyURI)
	}
	_, _ = fmt.Fprintf(writer, "MASTER_KEYS=%q\n", keyID+":"+base64.StdEncoding.EncodeToString(encoded))
	_, _ = fmt.Fprintf(writer, "ACTIVE_MASTER_KEY_ID=%q\n", keyID)

	logger.Info("master key created", slog.String("key_id", keyID), slog.Bool("kms", keyURI != ""))
	return nil
}
