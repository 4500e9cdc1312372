package model

import (
	"gorm.io/datatypes"
)

type ProjectType string

const (
	ProjectMicro     ProjectType = "micro"
	ProjectRealWorld ProjectType = "real-world"
)

func (t ProjectType) Valid() bool {
	return t == ProjectMicro || t == ProjectRealWorld
}

type Milestone struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type Milestones []Milestone

func (m Milestones) CompletedCount() int {
	n := 0
	for _, ms := range m {
		if ms.Completed {
			n++
		}
	}
	return n
}

// NewlyCompleted 返回 next 相对 prev 新增的完成数，不会为负
func NewlyCompleted(prev, next Milestones) int {
	delta := next.CompletedCount() - prev.CompletedCount()
	if delta < 0 {
		return 0
	}
	return delta
}

// Feedback 评审结果
type Feedback struct {
	Overall             string   `json:"overall"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areasForImprovement"`
	Score               int      `json:"score"`
}

// swagger:model Project
type Project struct {
	BaseModel
	LearnerID   string                         `gorm:"size:191;not null;index" json:"learnerId"`
	Title       string                         `gorm:"size:255;not null" json:"title"`
	Description string                         `gorm:"type:text" json:"description"`
	Milestones  datatypes.JSONType[Milestones] `json:"milestones"`
	ProjectType ProjectType                    `gorm:"size:20;not null" json:"projectType"`
	Status      ProjectStatus                  `gorm:"size:20;not null;default:'in-progress';index" json:"status"`
	RepoURL     string                         `gorm:"size:512" json:"repoUrl"`
	Feedback    datatypes.JSONType[*Feedback]  `json:"feedback"`
	Skills      []string                       `gorm:"-" json:"skills,omitempty"`
}

func (Project) TableName() string {
	return "projects"
}
