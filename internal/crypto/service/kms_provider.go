package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	cryptoDomain "github.com/allisson/secretstore/internal/crypto/domain"
)

// KMSClient is the subset of *kms.Client used by KMSProvider.
type KMSClient interface {
	GenerateDataKey(
		ctx context.Context,
		params *kms.GenerateDataKeyInput,
		optFns ...func(*kms.Options),
	) (*kms.GenerateDataKeyOutput, error)
	Decrypt(
		ctx context.Context,
		params *kms.DecryptInput,
		optFns ...func(*kms.Options),
	) (*kms.DecryptOutput, error)
}

// KMSClientFactory builds a client for one set of credentials.
type KMSClientFactory func(ctx context.Context, creds cryptoDomain.Credentials) (KMSClient, error)

// NewAWSKMSClient builds a *kms.Client with static credentials taken from a KMS config.
func NewAWSKMSClient(ctx context.Context, creds cryptoDomain.Credentials) (KMSClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(creds.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return kms.NewFromConfig(cfg), nil
}

// KMSProviderConfig bounds the remote calls.
type KMSProviderConfig struct {
	MaxAttempts   int
	RetryInterval time.Duration
	CallTimeout   time.Duration
	DefaultRegion string
	RateLimit     float64
	RateBurst     int
}

// KMSProvider encrypts values with a data key generated by AWS KMS. The KMS
// ciphertext blob of the data key is the envelope's key material.
type KMSProvider struct {
	newClient   KMSClientFactory
	aeadManager AEADManager
	limiter     *rate.Limiter
	cfg         KMSProviderConfig
	logger      *slog.Logger
}

// NewKMSProvider creates a KMSProvider. A non-positive rate limit disables throttling.
func NewKMSProvider(
	newClient KMSClientFactory,
	aeadManager AEADManager,
	cfg KMSProviderConfig,
	logger *slog.Logger,
) *KMSProvider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &KMSProvider{
		newClient:   newClient,
		aeadManager: aeadManager,
		limiter:     rate.NewLimiter(limit, max(cfg.RateBurst, 1)),
		cfg:         cfg,
		logger:      logger,
	}
}

// Type returns cryptoDomain.KMS.
func (p *KMSProvider) Type() cryptoDomain.EncryptionType {
	return cryptoDomain.KMS
}

// Encrypt returns an empty envelope for a nil plaintext without calling KMS.
func (p *KMSProvider) Encrypt(
	ctx context.Context,
	accountID string,
	plaintext []byte,
	creds *cryptoDomain.Credentials,
) (*cryptoDomain.Envelope, error) {
	if plaintext == nil {
		return &cryptoDomain.Envelope{}, nil
	}
	if creds == nil {
		return nil, cryptoDomain.ErrMissingCredentials
	}

	client, err := p.client(ctx, *creds)
	if err != nil {
		return nil, cryptoDomain.NewEncryptionFailedError("kms client", 1, err)
	}

	var out *kms.GenerateDataKeyOutput
	attempts, err := p.retry(ctx, func(callCtx context.Context) error {
		var callErr error
		out, callErr = client.GenerateDataKey(callCtx, &kms.GenerateDataKeyInput{
			KeyId:             aws.String(creds.KeyArn),
			KeySpec:           types.DataKeySpecAes256,
			EncryptionContext: encryptionContext(accountID),
		})
		return callErr
	})
	if err != nil {
		return nil, cryptoDomain.NewEncryptionFailedError("kms generate data key", attempts, err)
	}
	defer cryptoDomain.Zero(out.Plaintext)

	ciphertext, err := seal(p.aeadManager, out.Plaintext, cryptoDomain.AESGCM, plaintext, []byte(accountID))
	if err != nil {
		return nil, cryptoDomain.NewEncryptionFailedError("seal value", attempts, err)
	}

	return &cryptoDomain.Envelope{
		Ciphertext:  ciphertext,
		KeyMaterial: out.CiphertextBlob,
	}, nil
}

// Decrypt asks KMS to unwrap the data key, then opens the value locally.
func (p *KMSProvider) Decrypt(
	ctx context.Context,
	accountID string,
	envelope *cryptoDomain.Envelope,
	creds *cryptoDomain.Credentials,
) ([]byte, error) {
	if envelope == nil || envelope.Ciphertext == nil {
		return nil, nil
	}
	if creds == nil {
		return nil, cryptoDomain.ErrMissingCredentials
	}

	client, err := p.client(ctx, *creds)
	if err != nil {
		return nil, cryptoDomain.NewDecryptionFailedError("kms client", 1, err)
	}

	var out *kms.DecryptOutput
	attempts, err := p.retry(ctx, func(callCtx context.Context) error {
		var callErr error
		out, callErr = client.Decrypt(callCtx, &kms.DecryptInput{
			CiphertextBlob:    envelope.KeyMaterial,
			KeyId:             aws.String(creds.KeyArn),
			EncryptionContext: encryptionContext(accountID),
		})
		return callErr
	})
	if err != nil {
		return nil, cryptoDomain.NewDecryptionFailedError("kms decrypt", attempts, err)
	}
	defer cryptoDomain.Zero(out.Plaintext)

	plaintext, err := open(p.aeadManager, out.Plaintext, cryptoDomain.AESGCM, envelope.Ciphertext, []byte(accountID))
	if err != nil {
		return nil, cryptoDomain.NewDecryptionFailedError("open value", attempts, err)
	}
	return plaintext, nil
}

func (p *KMSProvider) client(ctx context.Context, creds cryptoDomain.Credentials) (KMSClient, error) {
	if creds.Region == "" {
		creds.Region = p.cfg.DefaultRegion
	}
	return p.newClient(ctx, creds)
}

// retry runs call up to MaxAttempts times with a constant pause, each attempt
// throttled by the limiter and bounded by CallTimeout. It returns the number
// of attempts made.
func (p *KMSProvider) retry(ctx context.Context, call func(ctx context.Context) error) (int, error) {
	attempts := 0
	operation := func() error {
		if err := p.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		attempts++
		callCtx := ctx
		if p.cfg.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, p.cfg.CallTimeout)
			defer cancel()
		}

		err := call(callCtx)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.cfg.RetryInterval), uint64(p.cfg.MaxAttempts-1)),
		ctx,
	)
	notify := func(err error, next time.Duration) {
		p.logger.Warn("kms call failed, retrying",
			slog.Int("attempt", attempts),
			slog.Duration("next", next),
			slog.Any("error", err),
		)
	}

	err := backoff.RetryNotify(operation, policy, notify)
	return attempts, err
}

func encryptionContext(accountID string) map[string]string {
	return map[string]string{"accountId": accountID}
}
