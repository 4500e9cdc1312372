package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChallengeRepository struct {
	DB *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{DB: db}
}

func (r *ChallengeRepository) WithTx(tx *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{DB: tx}
}

func (r *ChallengeRepository) Create(ctx context.Context, challenge *model.Challenge) error {
	if err := r.DB.WithContext(ctx).Create(challenge).Error; err != nil {
		return fmt.Errorf("create challenge: %w", err)
	}
	return nil
}

func (r *ChallengeRepository) FindByID(ctx context.Context, id uint) (*model.Challenge, error) {
	var challenge model.Challenge
	err := r.DB.WithContext(ctx).First(&challenge, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find challenge: %w", err)
	}
	return &challenge, nil
}

// FindByTitle 用于种子数据去重
func (r *ChallengeRepository) FindByTitle(ctx context.Context, title string) (*model.Challenge, error) {
	var challenge model.Challenge
	err := r.DB.WithContext(ctx).Where("title = ?", title).First(&challenge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find challenge: %w", err)
	}
	return &challenge, nil
}

// List 挑战目录，difficulty 为空时不过滤
func (r *ChallengeRepository) List(ctx context.Context, difficulty model.Difficulty) ([]model.Challenge, error) {
	query := r.DB.WithContext(ctx)
	if difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}

	var challenges []model.Challenge
	if err := query.Order("created_at DESC").Find(&challenges).Error; err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	return challenges, nil
}

// FindProgress 查询学习者在某挑战上的状态行，不存在时返回 nil
func (r *ChallengeRepository) FindProgress(ctx context.Context, learnerID string, challengeID uint) (*model.LearnerChallenge, error) {
	var lc model.LearnerChallenge
	err := r.DB.WithContext(ctx).
		Where("learner_id = ? AND challenge_id = ?", learnerID, challengeID).
		First(&lc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find challenge progress: %w", err)
	}
	return &lc, nil
}

// UpsertStarted 将状态行置为 in-progress 并刷新 started_at。
// 已完成的行在冲突更新中保持原值，避免与并发提交竞争。
func (r *ChallengeRepository) UpsertStarted(ctx context.Context, learnerID string, challengeID uint, at time.Time) error {
	lc := model.LearnerChallenge{
		LearnerID:   learnerID,
		ChallengeID: challengeID,
		Status:      model.ChallengeInProgress,
		StartedAt:   &at,
	}

	completed := string(model.ChallengeCompleted)
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "learner_id"}, {Name: "challenge_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":       gorm.Expr("CASE WHEN status = ? THEN status ELSE ? END", completed, model.ChallengeInProgress),
			"started_at":   gorm.Expr("CASE WHEN status = ? THEN started_at ELSE ? END", completed, at),
			"completed_at": gorm.Expr("CASE WHEN status = ? THEN completed_at ELSE NULL END", completed),
		}),
	}).Create(&lc).Error
	if err != nil {
		return fmt.Errorf("upsert challenge progress: %w", err)
	}
	return nil
}

// Transition 条件状态迁移：仅当当前状态为 from 时更新；0 行返回 ErrInvalidTransition
func (r *ChallengeRepository) Transition(ctx context.Context, learnerID string, challengeID uint, from, to model.ChallengeStatus, completedAt *time.Time) error {
	fields := map[string]interface{}{"status": to}
	if completedAt != nil {
		fields["completed_at"] = *completedAt
	}

	res := r.DB.WithContext(ctx).Model(&model.LearnerChallenge{}).
		Where("learner_id = ? AND challenge_id = ? AND status = ?", learnerID, challengeID, from).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("transition challenge: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: challenge %d is not %s", util.ErrInvalidTransition, challengeID, from)
	}
	return nil
}

// LearnerChallengeView 学习者视角的挑战（目录项 + 个人状态）
type LearnerChallengeView struct {
	model.Challenge
	Status      model.ChallengeStatus `json:"status"`
	StartedAt   *time.Time            `json:"startedAt"`
	CompletedAt *time.Time            `json:"completedAt"`
}

// ListForLearner 学习者已关联的挑战，status 为空时返回全部
func (r *ChallengeRepository) ListForLearner(ctx context.Context, learnerID string, status model.ChallengeStatus) ([]LearnerChallengeView, error) {
	query := r.DB.WithContext(ctx).
		Table("challenges").
		Select("challenges.*, user_challenges.status AS status, user_challenges.started_at AS started_at, user_challenges.completed_at AS completed_at").
		Joins("JOIN user_challenges ON user_challenges.challenge_id = challenges.id").
		Where("user_challenges.learner_id = ? AND challenges.deleted_at IS NULL", learnerID)
	if status != "" {
		query = query.Where("user_challenges.status = ?", status)
	}

	var views []LearnerChallengeView
	if err := query.Order("user_challenges.started_at DESC").Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("list learner challenges: %w", err)
	}
	return views, nil
}

func (r *ChallengeRepository) CountByStatus(ctx context.Context, learnerID string) (map[model.ChallengeStatus]int64, error) {
	var rows []struct {
		Status model.ChallengeStatus
		Total  int64
	}
	err := r.DB.WithContext(ctx).Model(&model.LearnerChallenge{}).
		Select("status, COUNT(*) AS total").
		Where("learner_id = ?", learnerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count challenges: %w", err)
	}

	out := make(map[model.ChallengeStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}
