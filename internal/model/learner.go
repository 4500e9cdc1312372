package model

import "time"

const (
	XPPerLevel    = 200
	DefaultRating = 50
	MinRating     = 0
	MaxRating     = 100
)

// swagger:model Learner
type Learner struct {
	ID                string    `gorm:"primaryKey;size:191" json:"id"`
	Email             string    `gorm:"size:191;index" json:"email"`
	Name              string    `gorm:"size:100" json:"name"`
	XP                int       `gorm:"not null;default:0" json:"xp"`
	PerformanceRating int       `gorm:"not null;default:50" json:"performanceRating"`
	AvatarURL         string    `gorm:"size:512" json:"avatarUrl"`
	ResumeURL         string    `gorm:"size:512" json:"resumeUrl"`
	Headline          string    `gorm:"size:200" json:"headline"`
	Bio               string    `gorm:"type:text" json:"bio"`
	Username          *string   `gorm:"size:50;uniqueIndex" json:"username"`
	IsPublic          bool      `gorm:"not null;default:false" json:"isPublic"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (Learner) TableName() string {
	return "users"
}

func (l *Learner) Level() int {
	return LevelForXP(l.XP)
}

// LevelForXP 每 200 XP 升一级，从 1 级开始
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// NextLevelXP 升到 level+1 所需的累计 XP
func NextLevelXP(level int) int {
	return level * XPPerLevel
}

// LinkedIdentity 外部身份（代码托管平台）的访问令牌，密文存储
type LinkedIdentity struct {
	LearnerID   string    `gorm:"primaryKey;size:191" json:"-"`
	Provider    string    `gorm:"primaryKey;size:50" json:"provider"`
	TokenCipher []byte    `gorm:"not null" json:"-"`
	LinkedAt    time.Time `json:"linkedAt"`
}

func (LinkedIdentity) TableName() string {
	return "linked_identities"
}
