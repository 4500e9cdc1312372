package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/util"
)

// ProgressService 由已完成的工作推导技能画像与看板数据，直方图总是实时计算
type ProgressService struct {
	LearnerRepo   *repository.LearnerRepository
	ProjectRepo   *repository.ProjectRepository
	ChallengeRepo *repository.ChallengeRepository
	SkillRepo     *repository.SkillRepository
	Cache         ViewCache
}

func NewProgressService(
	learnerRepo *repository.LearnerRepository,
	projectRepo *repository.ProjectRepository,
	challengeRepo *repository.ChallengeRepository,
	skillRepo *repository.SkillRepository,
	cache ViewCache,
) *ProgressService {
	return &ProgressService{
		LearnerRepo:   learnerRepo,
		ProjectRepo:   projectRepo,
		ChallengeRepo: challengeRepo,
		SkillRepo:     skillRepo,
		Cache:         cache,
	}
}

// SkillHistogram 学习者已完成项目的技能使用次数，按次数升序
func (s *ProgressService) SkillHistogram(ctx context.Context, learnerID string) ([]model.SkillCount, error) {
	counts, err := s.SkillRepo.HistogramForLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []model.SkillCount{}
	}
	return counts, nil
}

// TopSkills 使用次数最多的 n 项技能
func (s *ProgressService) TopSkills(ctx context.Context, learnerID string, n int) ([]string, error) {
	counts, err := s.SkillHistogram(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	top := make([]string, 0, n)
	for i := len(counts) - 1; i >= 0 && len(top) < n; i-- {
		top = append(top, counts[i].Name)
	}
	return top, nil
}

type Dashboard struct {
	XP                int                             `json:"xp"`
	Level             int                             `json:"level"`
	NextLevelXP       int                             `json:"nextLevelXp"`
	PerformanceRating int                             `json:"performanceRating"`
	Skills            []model.SkillCount              `json:"skills"`
	Projects          map[model.ProjectStatus]int64   `json:"projects"`
	Challenges        map[model.ChallengeStatus]int64 `json:"challenges"`
}

func (s *ProgressService) Dashboard(ctx context.Context, learnerID string) (*Dashboard, error) {
	learner, err := s.LearnerRepo.FindByID(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	skills, err := s.SkillHistogram(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	projects, err := s.ProjectRepo.CountByStatus(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	challenges, err := s.ChallengeRepo.CountByStatus(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	level := learner.Level()
	return &Dashboard{
		XP:                learner.XP,
		Level:             level,
		NextLevelXP:       model.NextLevelXP(level),
		PerformanceRating: learner.PerformanceRating,
		Skills:            skills,
		Projects:          projects,
		Challenges:        challenges,
	}, nil
}

// JourneyEvent 作品集时间线上的一项
type JourneyEvent struct {
	Kind  string    `json:"kind"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}

type PortfolioProfile struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	Headline  string `json:"headline"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
	ResumeURL string `json:"resumeUrl"`
	XP        int    `json:"xp"`
	Level     int    `json:"level"`
}

type Portfolio struct {
	Profile    PortfolioProfile                  `json:"profile"`
	Projects   []model.Project                   `json:"projects"`
	Challenges []repository.LearnerChallengeView `json:"challenges"`
	Skills     []model.SkillCount                `json:"skills"`
	Journey    []JourneyEvent                    `json:"journey"`
}

// Portfolio 公开作品集；未公开或不存在均返回 NotFound。结果按视图路径缓存，写操作后失效。
func (s *ProgressService) Portfolio(ctx context.Context, username string) (*Portfolio, error) {
	view := util.PortfolioView(username)

	var cached Portfolio
	if s.Cache.Get(ctx, view, &cached) {
		return &cached, nil
	}

	learner, err := s.LearnerRepo.FindByUsername(ctx, username)
	if errors.Is(err, util.ErrLearnerNotFound) {
		return nil, util.ErrPortfolioNotFound
	}
	if err != nil {
		return nil, err
	}
	if !learner.IsPublic {
		return nil, util.ErrPortfolioNotFound
	}

	projects, err := s.ProjectRepo.ListByLearner(ctx, learner.ID, model.ProjectCompleted)
	if err != nil {
		return nil, err
	}
	projectIDs := make([]uint, len(projects))
	for i, p := range projects {
		projectIDs[i] = p.ID
	}
	projectSkills, err := s.SkillRepo.NamesByProject(ctx, projectIDs)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		projects[i].Skills = projectSkills[projects[i].ID]
	}

	challenges, err := s.ChallengeRepo.ListForLearner(ctx, learner.ID, model.ChallengeCompleted)
	if err != nil {
		return nil, err
	}
	challengeIDs := make([]uint, len(challenges))
	for i, c := range challenges {
		challengeIDs[i] = c.ID
	}
	challengeSkills, err := s.SkillRepo.NamesByChallenge(ctx, challengeIDs)
	if err != nil {
		return nil, err
	}
	for i := range challenges {
		challenges[i].Skills = challengeSkills[challenges[i].ID]
	}

	skills, err := s.SkillHistogram(ctx, learner.ID)
	if err != nil {
		return nil, err
	}

	p := &Portfolio{
		Profile: PortfolioProfile{
			Name:      learner.Name,
			Username:  username,
			Headline:  learner.Headline,
			Bio:       learner.Bio,
			AvatarURL: learner.AvatarURL,
			ResumeURL: learner.ResumeURL,
			XP:        learner.XP,
			Level:     learner.Level(),
		},
		Projects:   projects,
		Challenges: challenges,
		Skills:     skills,
		Journey:    buildJourney(projects, challenges),
	}
	s.Cache.Set(ctx, view, p)
	return p, nil
}

// buildJourney 合并已完成项目与挑战，按时间升序
func buildJourney(projects []model.Project, challenges []repository.LearnerChallengeView) []JourneyEvent {
	events := make([]JourneyEvent, 0, len(projects)+len(challenges))
	for _, p := range projects {
		events = append(events, JourneyEvent{Kind: "project", Title: p.Title, Date: p.UpdatedAt})
	}
	for _, c := range challenges {
		date := c.CreatedAt
		if c.CompletedAt != nil {
			date = *c.CompletedAt
		}
		events = append(events, JourneyEvent{Kind: "challenge", Title: c.Title, Date: date})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events
}

// PortfolioPaths 学习者设置了用户名时返回其作品集视图路径，用于写操作后的失效通知
func (s *ProgressService) PortfolioPaths(ctx context.Context, learnerID string) []string {
	learner, err := s.LearnerRepo.FindByID(ctx, learnerID)
	if err != nil || learner.Username == nil {
		return nil
	}
	return []string{util.PortfolioView(*learner.Username)}
}
