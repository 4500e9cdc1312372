package util

import (
	"errors"
	"fmt"
)

// 错误分类。组件返回的错误都包装自以下哨兵之一，由 RespondError 统一映射为 HTTP 响应。
var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrValidation          = errors.New("validation failed")
	ErrIdentityNotLinked   = errors.New("external identity not linked")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	ErrMalformedPayload    = errors.New("malformed upstream payload")
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidTransition   = errors.New("invalid lifecycle transition")
)

var (
	ErrInvalidRepositoryURL  = fmt.Errorf("%w: invalid repository url", ErrValidation)
	ErrRepositoryUnreachable = fmt.Errorf("%w: repository unreachable", ErrUpstreamUnavailable)
	ErrEmptyEvidence         = fmt.Errorf("%w: repository contains no reviewable files", ErrValidation)
	ErrUsernameTaken         = fmt.Errorf("%w: username already taken", ErrValidation)
	ErrInvalidUsername       = fmt.Errorf("%w: username must be 3-50 letters, digits, '_' or '-'", ErrValidation)
	ErrInvalidScore          = fmt.Errorf("%w: review score must be an integer between 1 and 5", ErrValidation)
	ErrLearnerNotFound       = fmt.Errorf("%w: learner", ErrNotFound)
	ErrProjectNotFound       = fmt.Errorf("%w: project", ErrNotFound)
	ErrChallengeNotFound     = fmt.Errorf("%w: challenge", ErrNotFound)
	ErrPortfolioNotFound     = fmt.Errorf("%w: portfolio", ErrNotFound)
)

// Validationf 构造一个 ErrValidation 包装错误
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
