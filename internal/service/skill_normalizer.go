package service

import (
	"context"
	"strings"

	"skillforge_backend/internal/repository"

	"gorm.io/gorm"
)

// SkillNormalizer 将生成器给出的技能名落到规范词表并关联到项目或挑战
type SkillNormalizer struct {
	SkillRepo *repository.SkillRepository
}

func NewSkillNormalizer(skillRepo *repository.SkillRepository) *SkillNormalizer {
	return &SkillNormalizer{SkillRepo: skillRepo}
}

// NormalizeSkillNames 去首尾空白、丢弃空串、精确去重，保留首次出现顺序与大小写
func NormalizeSkillNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Reconcile 在调用方事务内执行：逐名 insert-if-absent，一次查回 ID，再补齐缺失的关联行。
// 清洗后为空时直接返回。
func (s *SkillNormalizer) Reconcile(ctx context.Context, tx *gorm.DB, names []string, owner repository.SkillOwner) error {
	names = NormalizeSkillNames(names)
	if len(names) == 0 {
		return nil
	}

	repo := s.SkillRepo
	if tx != nil {
		repo = repo.WithTx(tx)
	}

	skills, err := repo.EnsureSkills(ctx, names)
	if err != nil {
		return err
	}

	ids := make([]uint, 0, len(skills))
	for _, sk := range skills {
		ids = append(ids, sk.ID)
	}
	return repo.Link(ctx, owner, ids)
}
