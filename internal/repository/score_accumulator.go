package repository

import (
	"context"
	"fmt"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Outcome 一次累加：XP 只增不减，RatingDelta 累加后夹在 [0,100]
type Outcome struct {
	XP          int
	RatingDelta int
}

// ScoreAccumulator 对学习者数值字段做单条相对 UPDATE，不做先读后写
type ScoreAccumulator struct {
	DB *gorm.DB
}

func NewScoreAccumulator(db *gorm.DB) *ScoreAccumulator {
	return &ScoreAccumulator{DB: db}
}

// WithTx 返回绑定到事务的累加器
func (a *ScoreAccumulator) WithTx(tx *gorm.DB) *ScoreAccumulator {
	return &ScoreAccumulator{DB: tx}
}

func (a *ScoreAccumulator) AddXP(ctx context.Context, learnerID string, xp int) error {
	return a.Apply(ctx, learnerID, Outcome{XP: xp})
}

func (a *ScoreAccumulator) AddClampedRating(ctx context.Context, learnerID string, delta int) error {
	return a.Apply(ctx, learnerID, Outcome{RatingDelta: delta})
}

func (a *ScoreAccumulator) Apply(ctx context.Context, learnerID string, o Outcome) error {
	if o.XP < 0 {
		return util.Validationf("xp increment must not be negative (got %d)", o.XP)
	}

	updates := map[string]interface{}{}
	if o.XP != 0 {
		updates["xp"] = gorm.Expr("xp + ?", o.XP)
	}
	if o.RatingDelta != 0 {
		updates["performance_rating"] = clampedRating(o.RatingDelta)
	}
	if len(updates) == 0 {
		return nil
	}

	res := a.DB.WithContext(ctx).Model(&model.Learner{}).Where("id = ?", learnerID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("apply score outcome: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := a.DB.WithContext(ctx).Model(&model.Learner{}).Where("id = ?", learnerID).Count(&count).Error; err != nil {
			return fmt.Errorf("check learner: %w", err)
		}
		if count == 0 {
			return util.ErrLearnerNotFound
		}
	}
	return nil
}

func clampedRating(delta int) clause.Expr {
	return gorm.Expr(
		"CASE WHEN performance_rating + ? > ? THEN ? WHEN performance_rating + ? < ? THEN ? ELSE performance_rating + ? END",
		delta, model.MaxRating, model.MaxRating,
		delta, model.MinRating, model.MinRating,
		delta,
	)
}
