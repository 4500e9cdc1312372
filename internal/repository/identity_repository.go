package repository

import (
	"context"
	"errors"
	"fmt"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IdentityRepository struct {
	DB *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) *IdentityRepository {
	return &IdentityRepository{DB: db}
}

func (r *IdentityRepository) Upsert(ctx context.Context, identity *model.LinkedIdentity) error {
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "learner_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_cipher", "linked_at"}),
	}).Create(identity).Error
	if err != nil {
		return fmt.Errorf("link identity: %w", err)
	}
	return nil
}

// Find 未关联时返回 ErrIdentityNotLinked
func (r *IdentityRepository) Find(ctx context.Context, learnerID, provider string) (*model.LinkedIdentity, error) {
	var identity model.LinkedIdentity
	err := r.DB.WithContext(ctx).
		Where("learner_id = ? AND provider = ?", learnerID, provider).
		First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrIdentityNotLinked
	}
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return &identity, nil
}

func (r *IdentityRepository) ListProviders(ctx context.Context, learnerID string) ([]model.LinkedIdentity, error) {
	var identities []model.LinkedIdentity
	err := r.DB.WithContext(ctx).
		Select("learner_id, provider, linked_at").
		Where("learner_id = ?", learnerID).
		Order("provider ASC").
		Find(&identities).Error
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	return identities, nil
}

func (r *IdentityRepository) Delete(ctx context.Context, learnerID, provider string) error {
	res := r.DB.WithContext(ctx).
		Where("learner_id = ? AND provider = ?", learnerID, provider).
		Delete(&model.LinkedIdentity{})
	if res.Error != nil {
		return fmt.Errorf("unlink identity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return util.ErrIdentityNotLinked
	}
	return nil
}
