package testutil

import (
	"testing"

	"skillforge_backend/internal/model"
	"skillforge_backend/pkg/database"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTestDB 打开内存 SQLite 并自动迁移所有表
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	// :memory: 每个连接是独立的库
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return db
}

// SeedLearner 创建一个学习者
func SeedLearner(t *testing.T, db *gorm.DB, id string, rating int) *model.Learner {
	t.Helper()

	learner := &model.Learner{
		ID:                id,
		Email:             id + "@example.com",
		Name:              id,
		PerformanceRating: rating,
	}
	if err := db.Create(learner).Error; err != nil {
		t.Fatalf("seed learner: %v", err)
	}
	// default:50 会吞掉 0 值
	if rating == 0 {
		if err := db.Model(learner).Update("performance_rating", 0).Error; err != nil {
			t.Fatalf("seed learner rating: %v", err)
		}
	}
	return learner
}
