package repository

import (
	"context"
	"fmt"

	"skillforge_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SkillOwnerKind string

const (
	OwnerProject   SkillOwnerKind = "project"
	OwnerChallenge SkillOwnerKind = "challenge"
)

// SkillOwner 技能关联的归属方：项目或挑战
type SkillOwner struct {
	Kind SkillOwnerKind
	ID   uint
}

type SkillRepository struct {
	DB *gorm.DB
}

func NewSkillRepository(db *gorm.DB) *SkillRepository {
	return &SkillRepository{DB: db}
}

func (r *SkillRepository) WithTx(tx *gorm.DB) *SkillRepository {
	return &SkillRepository{DB: tx}
}

// EnsureSkills 不存在则插入（唯一名冲突时忽略），再一次性查回全部 ID
func (r *SkillRepository) EnsureSkills(ctx context.Context, names []string) ([]model.Skill, error) {
	if len(names) == 0 {
		return nil, nil
	}

	rows := make([]model.Skill, 0, len(names))
	for _, n := range names {
		rows = append(rows, model.Skill{Name: n})
	}
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("insert skills: %w", err)
	}

	var skills []model.Skill
	if err := r.DB.WithContext(ctx).Where("name IN ?", names).Find(&skills).Error; err != nil {
		return nil, fmt.Errorf("resolve skills: %w", err)
	}
	return skills, nil
}

// Link 建立归属方与技能的关联，已存在的关联保持不变
func (r *SkillRepository) Link(ctx context.Context, owner SkillOwner, skillIDs []uint) error {
	if len(skillIDs) == 0 {
		return nil
	}

	db := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true})
	var err error
	switch owner.Kind {
	case OwnerProject:
		links := make([]model.ProjectSkill, 0, len(skillIDs))
		for _, id := range skillIDs {
			links = append(links, model.ProjectSkill{ProjectID: owner.ID, SkillID: id})
		}
		err = db.Create(&links).Error
	case OwnerChallenge:
		links := make([]model.ChallengeSkill, 0, len(skillIDs))
		for _, id := range skillIDs {
			links = append(links, model.ChallengeSkill{ChallengeID: owner.ID, SkillID: id})
		}
		err = db.Create(&links).Error
	default:
		return fmt.Errorf("unknown skill owner kind %q", owner.Kind)
	}
	if err != nil {
		return fmt.Errorf("link %s skills: %w", owner.Kind, err)
	}
	return nil
}

type ownedSkill struct {
	OwnerID uint
	Name    string
}

// NamesByProject 批量查询项目的技能名
func (r *SkillRepository) NamesByProject(ctx context.Context, projectIDs []uint) (map[uint][]string, error) {
	return r.namesBy(ctx, "project_skills", "project_id", projectIDs)
}

// NamesByChallenge 批量查询挑战的技能名
func (r *SkillRepository) NamesByChallenge(ctx context.Context, challengeIDs []uint) (map[uint][]string, error) {
	return r.namesBy(ctx, "challenge_skills", "challenge_id", challengeIDs)
}

func (r *SkillRepository) namesBy(ctx context.Context, joinTable, ownerCol string, ids []uint) (map[uint][]string, error) {
	out := make(map[uint][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []ownedSkill
	err := r.DB.WithContext(ctx).
		Table(joinTable).
		Select(fmt.Sprintf("%s.%s AS owner_id, skills.name AS name", joinTable, ownerCol)).
		Joins(fmt.Sprintf("JOIN skills ON skills.id = %s.skill_id", joinTable)).
		Where(fmt.Sprintf("%s.%s IN ?", joinTable, ownerCol), ids).
		Order("skills.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", joinTable, err)
	}
	for _, row := range rows {
		out[row.OwnerID] = append(out[row.OwnerID], row.Name)
	}
	return out, nil
}

// HistogramForLearner 统计学习者已完成项目中各技能出现次数，按次数升序、同次数按名称
func (r *SkillRepository) HistogramForLearner(ctx context.Context, learnerID string) ([]model.SkillCount, error) {
	var counts []model.SkillCount
	err := r.DB.WithContext(ctx).
		Table("skills").
		Select("skills.name AS name, COUNT(*) AS usage_count").
		Joins("JOIN project_skills ON project_skills.skill_id = skills.id").
		Joins("JOIN projects ON projects.id = project_skills.project_id").
		Where("projects.learner_id = ? AND projects.status = ? AND projects.deleted_at IS NULL",
			learnerID, model.ProjectCompleted).
		Group("skills.name").
		Order("usage_count ASC, skills.name ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("skill histogram: %w", err)
	}
	return counts, nil
}
