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

type LearnerRepository struct {
	DB *gorm.DB
}

func NewLearnerRepository(db *gorm.DB) *LearnerRepository {
	return &LearnerRepository{DB: db}
}

func (r *LearnerRepository) FindByID(ctx context.Context, id string) (*model.Learner, error) {
	var learner model.Learner
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&learner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrLearnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find learner: %w", err)
	}
	return &learner, nil
}

func (r *LearnerRepository) FindByUsername(ctx context.Context, username string) (*model.Learner, error) {
	var learner model.Learner
	err := r.DB.WithContext(ctx).Where("username = ?", username).First(&learner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrLearnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find learner by username: %w", err)
	}
	return &learner, nil
}

// Ensure 首次认证时创建学习者，已存在则不改动
func (r *LearnerRepository) Ensure(ctx context.Context, learner *model.Learner) error {
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(learner).Error
	if err != nil {
		return fmt.Errorf("ensure learner: %w", err)
	}
	return nil
}

// UpdateFields 更新资料字段（不含 xp / performance_rating，这两项只走累加器）
func (r *LearnerRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	delete(fields, "xp")
	delete(fields, "performance_rating")
	if len(fields) == 0 {
		return nil
	}

	res := r.DB.WithContext(ctx).Model(&model.Learner{}).Where("id = ?", id).Updates(fields)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return util.ErrUsernameTaken
	}
	if res.Error != nil {
		return fmt.Errorf("update learner: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.exists(ctx, id)
	}
	return nil
}

// UsernameTaken 用户名是否已被其他学习者占用
func (r *LearnerRepository) UsernameTaken(ctx context.Context, username, exceptID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Learner{}).
		Where("username = ? AND id <> ?", username, exceptID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return count > 0, nil
}

func (r *LearnerRepository) exists(ctx context.Context, id string) error {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&model.Learner{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check learner: %w", err)
	}
	if count == 0 {
		return util.ErrLearnerNotFound
	}
	return nil
}
