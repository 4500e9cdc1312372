package model

// Skill 技能词表，只增不删，名称区分大小写
type Skill struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"size:191;not null;uniqueIndex" json:"name"`
}

func (Skill) TableName() string {
	return "skills"
}

type ProjectSkill struct {
	ProjectID uint `gorm:"primaryKey;autoIncrement:false"`
	SkillID   uint `gorm:"primaryKey;autoIncrement:false;index"`
}

func (ProjectSkill) TableName() string {
	return "project_skills"
}

type ChallengeSkill struct {
	ChallengeID uint `gorm:"primaryKey;autoIncrement:false"`
	SkillID     uint `gorm:"primaryKey;autoIncrement:false;index"`
}

func (ChallengeSkill) TableName() string {
	return "challenge_skills"
}

// SkillCount 技能直方图中的一项
type SkillCount struct {
	Name  string `json:"name"`
	Count int    `gorm:"column:usage_count" json:"count"`
}
