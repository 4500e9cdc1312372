package model

import (
	"fmt"

	"skillforge_backend/internal/util"
)

type ProjectStatus string

const (
	ProjectInProgress ProjectStatus = "in-progress"
	ProjectCompleted  ProjectStatus = "completed"
)

func (s ProjectStatus) Valid() bool {
	return s == ProjectInProgress || s == ProjectCompleted
}

type ProjectEvent string

const ProjectSubmit ProjectEvent = "submit"

// Next 项目只有一条边：in-progress --submit--> completed
func (s ProjectStatus) Next(ev ProjectEvent) (ProjectStatus, error) {
	if s == ProjectInProgress && ev == ProjectSubmit {
		return ProjectCompleted, nil
	}
	return s, fmt.Errorf("%w: project %s cannot %s", util.ErrInvalidTransition, s, ev)
}

type ChallengeStatus string

const (
	ChallengeNotStarted ChallengeStatus = "not-started"
	ChallengeInProgress ChallengeStatus = "in-progress"
	ChallengeCompleted  ChallengeStatus = "completed"
	ChallengeFailed     ChallengeStatus = "failed"
)

func (s ChallengeStatus) Valid() bool {
	switch s {
	case ChallengeNotStarted, ChallengeInProgress, ChallengeCompleted, ChallengeFailed:
		return true
	}
	return false
}

type ChallengeEvent string

const (
	ChallengeStart   ChallengeEvent = "start"
	ChallengeSubmit  ChallengeEvent = "submit"
	ChallengeAbandon ChallengeEvent = "abandon"
)

// Next 挑战状态迁移。start 可从 not-started / in-progress / failed 进入 in-progress，
// 已完成的挑战不可重新开始。
func (s ChallengeStatus) Next(ev ChallengeEvent) (ChallengeStatus, error) {
	switch ev {
	case ChallengeStart:
		switch s {
		case ChallengeNotStarted, ChallengeInProgress, ChallengeFailed, "":
			return ChallengeInProgress, nil
		}
	case ChallengeSubmit:
		if s == ChallengeInProgress {
			return ChallengeCompleted, nil
		}
	case ChallengeAbandon:
		if s == ChallengeInProgress {
			return ChallengeFailed, nil
		}
	}
	if s == "" {
		s = ChallengeNotStarted
	}
	return s, fmt.Errorf("%w: challenge %s cannot %s", util.ErrInvalidTransition, s, ev)
}
