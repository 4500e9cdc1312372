package model

import "time"

type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Expert       Difficulty = "Expert"
)

func (d Difficulty) Valid() bool {
	switch d {
	case Beginner, Intermediate, Expert:
		return true
	}
	return false
}

// XP 挑战奖励由难度决定
func (d Difficulty) XP() int {
	switch d {
	case Beginner:
		return 50
	case Intermediate:
		return 150
	case Expert:
		return 300
	}
	return 0
}

func (d Difficulty) EstimatedTime() string {
	switch d {
	case Beginner:
		return "~30 mins"
	case Intermediate:
		return "~90 mins"
	case Expert:
		return "~3 hours"
	}
	return ""
}

// swagger:model Challenge
type Challenge struct {
	BaseModel
	Title         string     `gorm:"size:255;not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	Category      string     `gorm:"size:100" json:"category"`
	Difficulty    Difficulty `gorm:"size:20;not null" json:"difficulty"`
	XP            int        `gorm:"not null" json:"xp"`
	EstimatedTime string     `gorm:"size:50" json:"estimatedTime"`
	Skills        []string   `gorm:"-" json:"skills,omitempty"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// LearnerChallenge 学习者与挑战的关联及其生命周期状态
type LearnerChallenge struct {
	LearnerID   string          `gorm:"primaryKey;size:191" json:"learnerId"`
	ChallengeID uint            `gorm:"primaryKey;autoIncrement:false" json:"challengeId"`
	Status      ChallengeStatus `gorm:"size:20;not null;default:'not-started'" json:"status"`
	StartedAt   *time.Time      `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt"`
}

func (LearnerChallenge) TableName() string {
	return "user_challenges"
}
