package service

import (
	"context"
	"fmt"
	"errors"
	"strings"
	"time"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/util"
	"skillforge_backend/pkg/logger"
	"skillforge_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 没有任何已完成项目时每日推荐使用的默认技能
var defaultTopSkills = []string{"React", "Next.js", "TypeScript"}

type ChallengeService struct {
	DB            *gorm.DB
	ChallengeRepo *repository.ChallengeRepository
	SkillRepo     *repository.SkillRepository
	Normalizer    *SkillNormalizer
	Scoring       *ScoringService
	Evidence      *EvidenceService
	Progress      *ProgressService
	AI            *AIService
	Views         ViewInvalidator

	now func() time.Time
}

func NewChallengeService(
	db *gorm.DB,
	challengeRepo *repository.ChallengeRepository,
	skillRepo *repository.SkillRepository,
	normalizer *SkillNormalizer,
	scoring *ScoringService,
	evidence *EvidenceService,
	progress *ProgressService,
	ai *AIService,
	views ViewInvalidator,
) *ChallengeService {
	return &ChallengeService{
		DB:            db,
		ChallengeRepo: challengeRepo,
		SkillRepo:     skillRepo,
		Normalizer:    normalizer,
		Scoring:       scoring,
		Evidence:      evidence,
		Progress:      progress,
		AI:            ai,
		Views:         views,
		now:           time.Now,
	}
}

type GenerateChallengeRequest struct {
	Skills     []string         `json:"skills" binding:"required"`
	Difficulty model.Difficulty `json:"difficulty" binding:"required"`
}

type SubmitChallengeRequest struct {
	RepoURL string `json:"repoUrl" binding:"required"`
}

// ListCatalog 挑战目录
func (s *ChallengeService) ListCatalog(ctx context.Context, difficulty model.Difficulty) ([]model.Challenge, error) {
	if difficulty != "" && !difficulty.Valid() {
		return nil, util.Validationf("unknown difficulty %q", difficulty)
	}
	challenges, err := s.ChallengeRepo.List(ctx, difficulty)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(challenges))
	for i, c := range challenges {
		ids[i] = c.ID
	}
	names, err := s.SkillRepo.NamesByChallenge(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range challenges {
		challenges[i].Skills = names[challenges[i].ID]
	}
	return challenges, nil
}

// ListMine 学习者已开始过的挑战及其状态
func (s *ChallengeService) ListMine(ctx context.Context, learnerID string, status model.ChallengeStatus) ([]repository.LearnerChallengeView, error) {
	if status != "" && !status.Valid() {
		return nil, util.Validationf("unknown status %q", status)
	}
	views, err := s.ChallengeRepo.ListForLearner(ctx, learnerID, status)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	names, err := s.SkillRepo.NamesByChallenge(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].Skills = names[views[i].ID]
	}
	return views, nil
}

// StartChallenge 开始或重新开始挑战，started_at 取当前时间
func (s *ChallengeService) StartChallenge(ctx context.Context, learnerID string, challengeID uint) error {
	if _, err := s.ChallengeRepo.FindByID(ctx, challengeID); err != nil {
		return err
	}

	current := model.ChallengeNotStarted
	progress, err := s.ChallengeRepo.FindProgress(ctx, learnerID, challengeID)
	if err != nil {
		return err
	}
	if progress != nil {
		current = progress.Status
	}
	next, err := current.Next(model.ChallengeStart)
	if err != nil {
		return err
	}

	if err := s.ChallengeRepo.UpsertStarted(ctx, learnerID, challengeID, s.now()); err != nil {
		return err
	}

	monitoring.RecordTransition("challenge", string(next))
	logger.Log.Info("Challenge started",
		zap.String("learner_id", learnerID),
		zap.Uint("challenge_id", challengeID),
		zap.String("from", string(current)),
	)
	paths := append([]string{util.ViewChallenges, util.ViewDashboard}, s.Progress.PortfolioPaths(ctx, learnerID)...)
	s.Views.Invalidate(ctx, paths...)
	return nil
}

// SubmitChallengeSolution 证据拉取成功即视为完成，内容不评分
func (s *ChallengeService) SubmitChallengeSolution(ctx context.Context, learnerID string, challengeID uint, repoURL string) error {
	challenge, err := s.ChallengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		return err
	}
	if err := s.checkInProgress(ctx, learnerID, challengeID, model.ChallengeSubmit); err != nil {
		return err
	}

	if _, err := s.Evidence.FetchEvidence(ctx, repoURL, learnerID); err != nil {
		return err
	}

	completedAt := s.now()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := s.ChallengeRepo.WithTx(tx).Transition(ctx, learnerID, challengeID,
			model.ChallengeInProgress, model.ChallengeCompleted, &completedAt)
		if err != nil {
			return err
		}
		return s.Scoring.AwardChallenge(ctx, tx, learnerID, challenge.XP)
	})
	if err != nil {
		return err
	}

	monitoring.RecordTransition("challenge", string(model.ChallengeCompleted))
	logger.Log.Info("Challenge completed",
		zap.String("learner_id", learnerID),
		zap.Uint("challenge_id", challengeID),
		zap.Int("xp", challenge.XP),
	)
	paths := append([]string{util.ViewChallenges, util.ViewDashboard}, s.Progress.PortfolioPaths(ctx, learnerID)...)
	s.Views.Invalidate(ctx, paths...)
	return nil
}

// AbandonChallenge in-progress -> failed，之后可重新开始
func (s *ChallengeService) AbandonChallenge(ctx context.Context, learnerID string, challengeID uint) error {
	if err := s.checkInProgress(ctx, learnerID, challengeID, model.ChallengeAbandon); err != nil {
		return err
	}
	err := s.ChallengeRepo.Transition(ctx, learnerID, challengeID,
		model.ChallengeInProgress, model.ChallengeFailed, nil)
	if err != nil {
		return err
	}

	monitoring.RecordTransition("challenge", string(model.ChallengeFailed))
	paths := append([]string{util.ViewChallenges, util.ViewDashboard}, s.Progress.PortfolioPaths(ctx, learnerID)...)
	s.Views.Invalidate(ctx, paths...)
	return nil
}

func (s *ChallengeService) checkInProgress(ctx context.Context, learnerID string, challengeID uint, ev model.ChallengeEvent) error {
	progress, err := s.ChallengeRepo.FindProgress(ctx, learnerID, challengeID)
	if err != nil {
		return err
	}
	current := model.ChallengeNotStarted
	if progress != nil {
		current = progress.Status
	}
	_, err = current.Next(ev)
	return err
}

// GenerateChallenge 按技能与难度生成挑战并加入目录
func (s *ChallengeService) GenerateChallenge(ctx context.Context, learnerID string, req GenerateChallengeRequest) (*model.Challenge, error) {
	skills := NormalizeSkillNames(req.Skills)
	if len(skills) == 0 {
		return nil, util.Validationf("at least one skill is required")
	}
	if !req.Difficulty.Valid() {
		return nil, util.Validationf("difficulty must be one of Beginner, Intermediate, Expert")
	}

	brief, err := s.AI.GenerateChallengeBrief(ctx, skills, req.Difficulty)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(brief.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: challenge brief has a blank title", util.ErrMalformedPayload)
	}

	challenge := &model.Challenge{
		Title:         title,
		Description:   strings.TrimSpace(brief.Description),
		Category:      strings.TrimSpace(brief.Category),
		Difficulty:    req.Difficulty,
		XP:            req.Difficulty.XP(),
		EstimatedTime: req.Difficulty.EstimatedTime(),
	}
	if err := s.persistChallenge(ctx, challenge, brief.SkillsUsed, ""); err != nil {
		return nil, err
	}

	logger.Log.Info("Challenge generated",
		zap.String("learner_id", learnerID),
		zap.Uint("challenge_id", challenge.ID),
		zap.String("difficulty", string(req.Difficulty)),
	)
	s.Views.Invalidate(ctx, util.ViewChallenges)
	return challenge, nil
}

// DailyChallenges 基于学习者最常用的三项技能生成三个临时推荐，不落库
func (s *ChallengeService) DailyChallenges(ctx context.Context, learnerID string) ([]ChallengeSuggestion, error) {
	top, err := s.Progress.TopSkills(ctx, learnerID, 3)
	if err != nil {
		return nil, err
	}
	if len(top) == 0 {
		top = defaultTopSkills
	}

	suggestions, err := s.AI.SuggestDailyChallenges(ctx, top)
	if err != nil {
		return nil, err
	}
	for i := range suggestions {
		suggestions[i].XP = suggestions[i].Difficulty.XP()
		suggestions[i].EstimatedTime = suggestions[i].Difficulty.EstimatedTime()
	}
	return suggestions, nil
}

// AcceptChallenge 将推荐落库并直接进入 in-progress；XP 由难度决定，忽略客户端传入值
func (s *ChallengeService) AcceptChallenge(ctx context.Context, learnerID string, suggestion ChallengeSuggestion) (*model.Challenge, error) {
	title := strings.TrimSpace(suggestion.Title)
	if title == "" {
		return nil, util.Validationf("title is required")
	}
	if !suggestion.Difficulty.Valid() {
		return nil, util.Validationf("difficulty must be one of Beginner, Intermediate, Expert")
	}

	challenge := &model.Challenge{
		Title:         title,
		Description:   strings.TrimSpace(suggestion.Description),
		Category:      strings.TrimSpace(suggestion.Category),
		Difficulty:    suggestion.Difficulty,
		XP:            suggestion.Difficulty.XP(),
		EstimatedTime: suggestion.Difficulty.EstimatedTime(),
	}
	if err := s.persistChallenge(ctx, challenge, suggestion.SkillsUsed, learnerID); err != nil {
		return nil, err
	}

	monitoring.RecordTransition("challenge", string(model.ChallengeInProgress))
	logger.Log.Info("Challenge accepted",
		zap.String("learner_id", learnerID),
		zap.Uint("challenge_id", challenge.ID),
	)
	paths := append([]string{util.ViewChallenges, util.ViewDashboard}, s.Progress.PortfolioPaths(ctx, learnerID)...)
	s.Views.Invalidate(ctx, paths...)
	return challenge, nil
}

// persistChallenge 一个事务内写入挑战与技能；starterID 非空时同时为其开始该挑战
func (s *ChallengeService) persistChallenge(ctx context.Context, challenge *model.Challenge, skills []string, starterID string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.ChallengeRepo.WithTx(tx)
		if err := repo.Create(ctx, challenge); err != nil {
			return err
		}
		owner := repository.SkillOwner{Kind: repository.OwnerChallenge, ID: challenge.ID}
		if err := s.Normalizer.Reconcile(ctx, tx, skills, owner); err != nil {
			return err
		}
		if starterID == "" {
			return nil
		}
		return repo.UpsertStarted(ctx, starterID, challenge.ID, s.now())
	})
	if err != nil {
		return err
	}
	challenge.Skills = NormalizeSkillNames(skills)
	return nil
}

// CatalogEntry 种子文件中的一项挑战
type CatalogEntry struct {
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Category    string           `yaml:"category"`
	Difficulty  model.Difficulty `yaml:"difficulty"`
	Skills      []string         `yaml:"skills"`
}

// SeedCatalog 按标题去重写入挑战目录，返回新增条数
func (s *ChallengeService) SeedCatalog(ctx context.Context, entries []CatalogEntry) (int, error) {
	created := 0
	for _, e := range entries {
		title := strings.TrimSpace(e.Title)
		if title == "" || !e.Difficulty.Valid() {
			return created, util.Validationf("catalog entry %q has no title or an unknown difficulty %q", e.Title, e.Difficulty)
		}

		_, err := s.ChallengeRepo.FindByTitle(ctx, title)
		if err == nil {
			continue
		}
		if !errors.Is(err, util.ErrChallengeNotFound) {
			return created, err
		}

		challenge := &model.Challenge{
			Title:         title,
			Description:   e.Description,
			Category:      e.Category,
			Difficulty:    e.Difficulty,
			XP:            e.Difficulty.XP(),
			EstimatedTime: e.Difficulty.EstimatedTime(),
		}
		if err := s.persistChallenge(ctx, challenge, e.Skills, ""); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
