package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/util"
	"skillforge_backend/pkg/logger"

	"go.uber.org/zap"
)

// IdentityService 管理外部平台的关联身份，实现 TokenSource
type IdentityService struct {
	IdentityRepo *repository.IdentityRepository
	Cipher       *TokenCipher
}

func NewIdentityService(repo *repository.IdentityRepository, cipher *TokenCipher) *IdentityService {
	return &IdentityService{IdentityRepo: repo, Cipher: cipher}
}

var supportedProviders = map[string]bool{util.ProviderGitHub: true}

func (s *IdentityService) Link(ctx context.Context, learnerID, provider, token string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !supportedProviders[provider] {
		return util.Validationf("unsupported identity provider %q", provider)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return util.Validationf("access token is required")
	}

	sealed, err := s.Cipher.Seal(token)
	if err != nil {
		return err
	}
	err = s.IdentityRepo.Upsert(ctx, &model.LinkedIdentity{
		LearnerID:   learnerID,
		Provider:    provider,
		TokenCipher: sealed,
		LinkedAt:    time.Now(),
	})
	if err != nil {
		return err
	}

	logger.Log.Info("Identity linked", zap.String("learner_id", learnerID), zap.String("provider", provider))
	return nil
}

// Unlink 撤销关联，之后的证据拉取会返回 ErrIdentityNotLinked
func (s *IdentityService) Unlink(ctx context.Context, learnerID, provider string) error {
	return s.IdentityRepo.Delete(ctx, learnerID, strings.ToLower(provider))
}

func (s *IdentityService) List(ctx context.Context, learnerID string) ([]model.LinkedIdentity, error) {
	return s.IdentityRepo.ListProviders(ctx, learnerID)
}

func (s *IdentityService) AccessToken(ctx context.Context, learnerID, provider string) (string, error) {
	identity, err := s.IdentityRepo.Find(ctx, learnerID, provider)
	if err != nil {
		return "", err
	}
	token, err := s.Cipher.Open(identity.TokenCipher)
	if err != nil {
		// 密钥轮换后旧令牌不可用，视为需要重新关联
		return "", fmt.Errorf("%w: %w", util.ErrIdentityNotLinked, err)
	}
	return token, nil
}
