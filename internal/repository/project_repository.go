package repository

import (
	"context"
	"errors"
	"fmt"

	"skillforge_backend/internal/model"
	"skillforge_backend/internal/util"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	DB *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{DB: db}
}

func (r *ProjectRepository) WithTx(tx *gorm.DB) *ProjectRepository {
	return &ProjectRepository{DB: tx}
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	if err := r.DB.WithContext(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// FindOwned 按 ID 查询项目；不属于该学习者时与不存在同样返回 ErrProjectNotFound
func (r *ProjectRepository) FindOwned(ctx context.Context, learnerID string, projectID uint) (*model.Project, error) {
	var project model.Project
	err := r.DB.WithContext(ctx).
		Where("id = ? AND learner_id = ?", projectID, learnerID).
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}
	return &project, nil
}

// ListByLearner status 为空时返回全部
func (r *ProjectRepository) ListByLearner(ctx context.Context, learnerID string, status model.ProjectStatus) ([]model.Project, error) {
	query := r.DB.WithContext(ctx).Where("learner_id = ?", learnerID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var projects []model.Project
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (r *ProjectRepository) UpdateMilestones(ctx context.Context, projectID uint, milestones model.Milestones) error {
	err := r.DB.WithContext(ctx).Model(&model.Project{}).
		Where("id = ?", projectID).
		Update("milestones", datatypes.NewJSONType(milestones)).Error
	if err != nil {
		return fmt.Errorf("update milestones: %w", err)
	}
	return nil
}

// ReviewUpdate 评审通过后写入的字段
type ReviewUpdate struct {
	RepoURL    string
	Feedback   *model.Feedback
	Milestones model.Milestones
	Status     model.ProjectStatus
}

// CompleteReview 条件更新：仅当项目仍为 in-progress 时写入；0 行说明已被提交过
func (r *ProjectRepository) CompleteReview(ctx context.Context, projectID uint, upd ReviewUpdate) error {
	fields := map[string]interface{}{
		"repo_url": upd.RepoURL,
		"feedback": datatypes.NewJSONType(upd.Feedback),
		"status":   upd.Status,
	}
	if upd.Milestones != nil {
		fields["milestones"] = datatypes.NewJSONType(upd.Milestones)
	}

	res := r.DB.WithContext(ctx).Model(&model.Project{}).
		Where("id = ? AND status = ?", projectID, model.ProjectInProgress).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("complete project review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: project %d is no longer in progress", util.ErrInvalidTransition, projectID)
	}
	return nil
}

// CountByStatus 按状态统计学习者的项目数
func (r *ProjectRepository) CountByStatus(ctx context.Context, learnerID string) (map[model.ProjectStatus]int64, error) {
	var rows []struct {
		Status model.ProjectStatus
		Total  int64
	}
	err := r.DB.WithContext(ctx).Model(&model.Project{}).
		Select("status, COUNT(*) AS total").
		Where("learner_id = ?", learnerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}

	out := make(map[model.ProjectStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}
