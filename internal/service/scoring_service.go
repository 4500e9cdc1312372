package service

import (
	"context"

	"skillforge_backend/internal/config"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/util"
	"skillforge_backend/pkg/logger"
	"skillforge_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ChallengingThreshold  = 75
	FoundationalThreshold = 25

	InstructionChallenging  = "The user is performing well. Generate a challenging project that introduces a new concept or a more complex architecture."
	InstructionFoundational = "The user is struggling. Generate a simpler, more foundational project to help them build confidence."
	InstructionAverage      = "The project should be of average difficulty."
)

// DeriveDifficultyInstruction 根据表现评分选择难度指令：>75 挑战，<25 基础，其余中等
func DeriveDifficultyInstruction(rating int) string {
	switch {
	case rating > ChallengingThreshold:
		return InstructionChallenging
	case rating < FoundationalThreshold:
		return InstructionFoundational
	default:
		return InstructionAverage
	}
}

// ReviewRatingDelta 评审分 1..5 映射为评分增量 (score-3)*10
func ReviewRatingDelta(score int) (int, error) {
	if score < 1 || score > 5 {
		return 0, util.ErrInvalidScore
	}
	return (score - 3) * 10, nil
}

// ScoringService 经验值与表现评分的更新规则
type ScoringService struct {
	Accumulator *repository.ScoreAccumulator
	Config      config.ScoringConfig
}

func NewScoringService(acc *repository.ScoreAccumulator, cfg config.ScoringConfig) *ScoringService {
	if cfg.MilestoneXP <= 0 {
		cfg.MilestoneXP = 10
	}
	if cfg.CompletionBonusXP <= 0 {
		cfg.CompletionBonusXP = 50
	}
	return &ScoringService{Accumulator: acc, Config: cfg}
}

// ReviewOutcome 评审完成的累加量，extraXP 为同一次提交中新完成里程碑的 XP
func (s *ScoringService) ReviewOutcome(score, newlyCompleted int) (repository.Outcome, error) {
	delta, err := ReviewRatingDelta(score)
	if err != nil {
		return repository.Outcome{}, err
	}
	return repository.Outcome{
		XP:          s.Config.CompletionBonusXP + s.milestoneXP(newlyCompleted),
		RatingDelta: delta,
	}, nil
}

// ApplyReviewOutcome 完成奖励与夹取后的评分增量在一条语句内生效
func (s *ScoringService) ApplyReviewOutcome(ctx context.Context, tx *gorm.DB, learnerID string, score int) error {
	outcome, err := s.ReviewOutcome(score, 0)
	if err != nil {
		return err
	}
	return s.apply(ctx, tx, learnerID, outcome, "review")
}

// ApplyMilestoneDelta n<=0 为空操作
func (s *ScoringService) ApplyMilestoneDelta(ctx context.Context, tx *gorm.DB, learnerID string, n int) error {
	if n <= 0 {
		return nil
	}
	return s.apply(ctx, tx, learnerID, repository.Outcome{XP: s.milestoneXP(n)}, "milestone")
}

// AwardChallenge 挑战完成奖励
func (s *ScoringService) AwardChallenge(ctx context.Context, tx *gorm.DB, learnerID string, xp int) error {
	return s.apply(ctx, tx, learnerID, repository.Outcome{XP: xp}, "challenge")
}

// ApplyOutcome 直接应用组合好的累加量
func (s *ScoringService) ApplyOutcome(ctx context.Context, tx *gorm.DB, learnerID string, o repository.Outcome, source string) error {
	return s.apply(ctx, tx, learnerID, o, source)
}

func (s *ScoringService) milestoneXP(n int) int {
	if n <= 0 {
		return 0
	}
	return n * s.Config.MilestoneXP
}

func (s *ScoringService) apply(ctx context.Context, tx *gorm.DB, learnerID string, o repository.Outcome, source string) error {
	acc := s.Accumulator
	if tx != nil {
		acc = acc.WithTx(tx)
	}
	if err := acc.Apply(ctx, learnerID, o); err != nil {
		return err
	}

	monitoring.RecordXP(source, o.XP)
	logger.Log.Info("Score updated",
		zap.String("learner_id", learnerID),
		zap.String("source", source),
		zap.Int("xp", o.XP),
		zap.Int("rating_delta", o.RatingDelta),
	)
	return nil
}

// ratingBand 仅用于日志
func ratingBand(rating int) string {
	switch DeriveDifficultyInstruction(rating) {
	case InstructionChallenging:
		return "challenging"
	case InstructionFoundational:
		return "foundational"
	}
	return "average"
}
