package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/askdeck/askdeck/internal/auth"
	"github.com/askdeck/askdeck/internal/domain"
)

// Scope is the resolved acting identity of a request. Primary scopes
// (JWT) may manage stores, prompts and keys; key scopes are confined to
// the store their key belongs to.
type Scope struct {
	Principal     string
	StoreID       *uint
	PromptContent string
	PromptPinned  bool
	FallbackUsed  bool
	Primary       bool
}

// AccessService turns a presented credential into a Scope. Every
// failure mode maps to domain.ErrUnauthorized so callers cannot
// distinguish a missing key from a revoked one.
type AccessService struct {
	apiKeys     *ApiKeyService
	jwtSecret   []byte
	adminSecret string
	tokenTTL    time.Duration
	logger      Logger
}

func NewAccessService(apiKeys *ApiKeyService, jwtSecret []byte, adminSecret string, tokenTTL time.Duration, logger Logger) (*AccessService, error) {
	if apiKeys == nil {
		return nil, errors.New("access service: api key service is required")
	}
	if len(jwtSecret) == 0 {
		return nil, errors.New("access service: jwt secret is required")
	}
	if logger == nil {
		logger = &NoOpLogger{}
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AccessService{
		apiKeys:     apiKeys,
		jwtSecret:   jwtSecret,
		adminSecret: adminSecret,
		tokenTTL:    tokenTTL,
		logger:      logger,
	}, nil
}

// IssueToken exchanges the configured admin secret for a primary JWT.
func (s *AccessService) IssueToken(subject, secret string) (string, error) {
	if s.adminSecret == "" {
		return "", domain.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.adminSecret)) != 1 {
		s.logger.Warn("token issuance rejected", "subject", subject)
		return "", domain.ErrUnauthorized
	}
	if subject == "" {
		subject = "admin"
	}
	return auth.GenerateJWT(subject, s.tokenTTL, s.jwtSecret)
}

// ResolveCredential maps a raw credential string to a Scope. API keys
// are recognized by their fixed prefix; anything else is treated as a
// JWT. An empty credential is Unauthorized.
func (s *AccessService) ResolveCredential(ctx context.Context, credential string) (*Scope, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, domain.ErrUnauthorized
	}

	if strings.HasPrefix(credential, domain.ApiKeySecretPrefix) {
		resolved, err := s.apiKeys.Resolve(ctx, credential)
		if err != nil {
			return nil, err
		}
		storeID := resolved.StoreID
		return &Scope{
			Principal:     fmt.Sprintf("key:%d", resolved.KeyID),
			StoreID:       &storeID,
			PromptContent: resolved.PromptContent,
			PromptPinned:  resolved.PromptPinned,
			FallbackUsed:  resolved.FallbackUsed,
		}, nil
	}

	subject, err := auth.ValidateToken(credential, s.jwtSecret)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	return &Scope{
		Principal: "user:" + subject,
		Primary:   true,
	}, nil
}
