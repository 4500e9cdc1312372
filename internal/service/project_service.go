package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/util"
	"skillforge_backend/pkg/logger"
	"skillforge_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectService struct {
	DB          *gorm.DB
	ProjectRepo *repository.ProjectRepository
	LearnerRepo *repository.LearnerRepository
	SkillRepo   *repository.SkillRepository
	Normalizer  *SkillNormalizer
	Scoring     *ScoringService
	Evidence    *EvidenceService
	AI          *AIService
	Views       ViewInvalidator
}

func NewProjectService(
	db *gorm.DB,
	projectRepo *repository.ProjectRepository,
	learnerRepo *repository.LearnerRepository,
	skillRepo *repository.SkillRepository,
	normalizer *SkillNormalizer,
	scoring *ScoringService,
	evidence *EvidenceService,
	ai *AIService,
	views ViewInvalidator,
) *ProjectService {
	return &ProjectService{
		DB:          db,
		ProjectRepo: projectRepo,
		LearnerRepo: learnerRepo,
		SkillRepo:   skillRepo,
		Normalizer:  normalizer,
		Scoring:     scoring,
		Evidence:    evidence,
		AI:          ai,
		Views:       views,
	}
}

type GenerateProjectRequest struct {
	Skills      []string          `json:"skills" binding:"required"`
	ProjectType model.ProjectType `json:"projectType" binding:"required"`
}

type SubmitProjectRequest struct {
	RepoURL    string           `json:"repoUrl" binding:"required"`
	Milestones model.Milestones `json:"milestones"`
}

// GenerateProject 按学习者当前评分生成项目，项目与技能关联在同一事务中落库
func (s *ProjectService) GenerateProject(ctx context.Context, learnerID string, req GenerateProjectRequest) (*model.Project, error) {
	skills := NormalizeSkillNames(req.Skills)
	if len(skills) == 0 {
		return nil, util.Validationf("at least one skill is required")
	}
	if !req.ProjectType.Valid() {
		return nil, util.Validationf("projectType must be %q or %q", model.ProjectMicro, model.ProjectRealWorld)
	}

	learner, err := s.LearnerRepo.FindByID(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	brief, err := s.AI.GenerateProjectBrief(ctx, skills, req.ProjectType, learner.PerformanceRating)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(brief.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: project brief has a blank title", util.ErrMalformedPayload)
	}
	milestones := make(model.Milestones, 0, len(brief.Milestones))
	for _, text := range brief.Milestones {
		if text = strings.TrimSpace(text); text != "" {
			milestones = append(milestones, model.Milestone{Text: text})
		}
	}
	if len(milestones) == 0 {
		return nil, fmt.Errorf("%w: project brief has no milestones", util.ErrMalformedPayload)
	}

	project := &model.Project{
		LearnerID:   learnerID,
		Title:       title,
		Description: strings.TrimSpace(brief.Description),
		Milestones:  datatypes.NewJSONType(milestones),
		ProjectType: req.ProjectType,
		Status:      model.ProjectInProgress,
		Feedback:    datatypes.NewJSONType[*model.Feedback](nil),
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ProjectRepo.WithTx(tx).Create(ctx, project); err != nil {
			return err
		}
		owner := repository.SkillOwner{Kind: repository.OwnerProject, ID: project.ID}
		return s.Normalizer.Reconcile(ctx, tx, brief.SkillsUsed, owner)
	})
	if err != nil {
		return nil, err
	}
	project.Skills = NormalizeSkillNames(brief.SkillsUsed)

	logger.Log.Info("Project generated",
		zap.String("learner_id", learnerID),
		zap.Uint("project_id", project.ID),
		zap.String("difficulty", ratingBand(learner.PerformanceRating)),
	)
	s.Views.Invalidate(ctx, util.ViewDashboard, util.ViewDashboardProjects)
	return project, nil
}

func (s *ProjectService) GetProject(ctx context.Context, learnerID string, projectID uint) (*model.Project, error) {
	project, err := s.ProjectRepo.FindOwned(ctx, learnerID, projectID)
	if err != nil {
		return nil, err
	}
	names, err := s.SkillRepo.NamesByProject(ctx, []uint{project.ID})
	if err != nil {
		return nil, err
	}
	project.Skills = names[project.ID]
	return project, nil
}

func (s *ProjectService) ListProjects(ctx context.Context, learnerID string, status model.ProjectStatus) ([]model.Project, error) {
	if status != "" && !status.Valid() {
		return nil, util.Validationf("unknown status %q", status)
	}
	projects, err := s.ProjectRepo.ListByLearner(ctx, learnerID, status)
	if err != nil {
		return nil, err
	}
	return s.withSkills(ctx, projects)
}

func (s *ProjectService) withSkills(ctx context.Context, projects []model.Project) ([]model.Project, error) {
	ids := make([]uint, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	names, err := s.SkillRepo.NamesByProject(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		projects[i].Skills = names[projects[i].ID]
	}
	return projects, nil
}

// validateMilestoneUpdate 新列表必须与已存列表一一对应，只允许改变完成状态
func validateMilestoneUpdate(stored, next model.Milestones) error {
	if len(stored) != len(next) {
		return util.Validationf("expected %d milestones, got %d", len(stored), len(next))
	}
	for i := range stored {
		if stored[i].Text != next[i].Text {
			return util.Validationf("milestone %d text cannot be changed", i+1)
		}
	}
	return nil
}

// UpdateMilestones 只为新完成的里程碑发放 XP；重复提交同一状态是空操作
func (s *ProjectService) UpdateMilestones(ctx context.Context, learnerID string, projectID uint, milestones model.Milestones) (*model.Project, error) {
	var project *model.Project
	var newly int

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		project, err = s.ProjectRepo.WithTx(tx).FindOwned(ctx, learnerID, projectID)
		if err != nil {
			return err
		}
		if project.Status != model.ProjectInProgress {
			return util.ErrInvalidTransition
		}

		stored := project.Milestones.Data()
		if err := validateMilestoneUpdate(stored, milestones); err != nil {
			return err
		}
		newly = model.NewlyCompleted(stored, milestones)

		if err := s.ProjectRepo.WithTx(tx).UpdateMilestones(ctx, project.ID, milestones); err != nil {
			return err
		}
		return s.Scoring.ApplyMilestoneDelta(ctx, tx, learnerID, newly)
	})
	if err != nil {
		return nil, err
	}

	project.Milestones = datatypes.NewJSONType(milestones)
	if newly > 0 {
		logger.Log.Info("Milestones completed",
			zap.String("learner_id", learnerID),
			zap.Uint("project_id", projectID),
			zap.Int("newly_completed", newly),
		)
	}
	paths := []string{util.ProjectView(strconv.FormatUint(uint64(projectID), 10)), util.ViewDashboardProjects}
	if newly > 0 {
		paths = append(paths, util.ViewDashboard)
		paths = append(paths, s.portfolioPaths(ctx, learnerID)...)
	}
	s.Views.Invalidate(ctx, paths...)
	return project, nil
}

// portfolioPaths 学习者已设置用户名时返回其作品集路径
func (s *ProjectService) portfolioPaths(ctx context.Context, learnerID string) []string {
	learner, err := s.LearnerRepo.FindByID(ctx, learnerID)
	if err != nil || learner.Username == nil {
		return nil
	}
	return []string{util.PortfolioView(*learner.Username)}
}

// SubmitForReview 拉取证据并调用评审，网络调用在事务外完成；
// 事务内条件更新状态，完成奖励、里程碑 XP 与评分增量合并为一次累加。
func (s *ProjectService) SubmitForReview(ctx context.Context, learnerID string, projectID uint, req SubmitProjectRequest) (*model.Project, error) {
	project, err := s.ProjectRepo.FindOwned(ctx, learnerID, projectID)
	if err != nil {
		return nil, err
	}
	next, err := project.Status.Next(model.ProjectSubmit)
	if err != nil {
		return nil, err
	}

	stored := project.Milestones.Data()
	finalMilestones := stored
	if req.Milestones != nil {
		if err := validateMilestoneUpdate(stored, req.Milestones); err != nil {
			return nil, err
		}
		finalMilestones = req.Milestones
	}

	evidence, err := s.Evidence.FetchEvidence(ctx, req.RepoURL, learnerID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(evidence) == "" {
		return nil, util.ErrEmptyEvidence
	}

	feedback, err := s.AI.ReviewProject(ctx, project, evidence)
	if err != nil {
		return nil, err
	}

	var outcome repository.Outcome
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 以事务内读到的里程碑为准，避免与并发的里程碑更新重复计分
		current, err := s.ProjectRepo.WithTx(tx).FindOwned(ctx, learnerID, projectID)
		if err != nil {
			return err
		}
		newly := 0
		if req.Milestones != nil {
			newly = model.NewlyCompleted(current.Milestones.Data(), req.Milestones)
		}

		err = s.ProjectRepo.WithTx(tx).CompleteReview(ctx, projectID, repository.ReviewUpdate{
			RepoURL:    strings.TrimSpace(req.RepoURL),
			Feedback:   feedback,
			Milestones: req.Milestones,
			Status:     next,
		})
		if err != nil {
			return err
		}

		outcome, err = s.Scoring.ReviewOutcome(feedback.Score, newly)
		if err != nil {
			return err
		}
		return s.Scoring.ApplyOutcome(ctx, tx, learnerID, outcome, "review")
	})
	if err != nil {
		return nil, err
	}

	monitoring.RecordTransition("project", string(next))
	logger.Log.Info("Project reviewed",
		zap.String("learner_id", learnerID),
		zap.Uint("project_id", projectID),
		zap.Int("score", feedback.Score),
		zap.Int("xp", outcome.XP),
		zap.Int("rating_delta", outcome.RatingDelta),
	)

	project.Status = next
	project.RepoURL = strings.TrimSpace(req.RepoURL)
	project.Feedback = datatypes.NewJSONType(feedback)
	project.Milestones = datatypes.NewJSONType(finalMilestones)

	paths := []string{
		util.ProjectView(strconv.FormatUint(uint64(projectID), 10)),
		util.ViewDashboard,
		util.ViewDashboardProjects,
	}
	s.Views.Invalidate(ctx, append(paths, s.portfolioPaths(ctx, learnerID)...)...)
	return project, nil
}

// ProjectHint 为进行中的项目生成提示
func (s *ProjectService) ProjectHint(ctx context.Context, learnerID string, projectID uint) (string, error) {
	project, err := s.ProjectRepo.FindOwned(ctx, learnerID, projectID)
	if err != nil {
		return "", err
	}
	return s.AI.ProjectHint(ctx, project)
}
