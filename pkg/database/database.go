package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"skillforge_backend/internal/config"
	"skillforge_backend/internal/model"
	applog "skillforge_backend/pkg/logger"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 按 driver 打开数据库：mysql 用于生产，sqlite 用于本地开发
func InitDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "skillforge.db"
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		db, err = gorm.Open(sqlite.Open(path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), gormCfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite 单写者
		sqlDB.SetMaxOpenConns(1)
	case "mysql", "":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		db, err = gorm.Open(mysql.Open(dsn), gormCfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	applog.Log.Info("Database connection established", zap.String("driver", db.Dialector.Name()))
	return db, nil
}

// Migrate 自动迁移全部表
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		return err
	}
	if db.Dialector.Name() == "mysql" {
		if err := enforceBinaryCollation(db); err != nil {
			return err
		}
	}
	applog.Log.Info("Database migration completed")
	return nil
}

const mysqlBinaryCollation = "utf8mb4_bin"

// binaryColumn 需要区分大小写比较的列。mysql 默认排序规则忽略大小写和重音。
type binaryColumn struct {
	Table      string
	Column     string
	Definition string
}

var binaryColumns = []binaryColumn{
	{Table: "skills", Column: "name", Definition: "VARCHAR(191) NOT NULL"},
}

func (c binaryColumn) alterSQL() string {
	return fmt.Sprintf("ALTER TABLE `%s` MODIFY `%s` %s CHARACTER SET utf8mb4 COLLATE %s",
		c.Table, c.Column, c.Definition, mysqlBinaryCollation)
}

// enforceBinaryCollation 把列改为二进制排序，已是二进制时跳过
func enforceBinaryCollation(db *gorm.DB) error {
	for _, c := range binaryColumns {
		var rows []struct{ CollationName string }
		err := db.Raw(`SELECT COLLATION_NAME AS collation_name FROM information_schema.COLUMNS
			WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`, c.Table, c.Column).
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("inspect %s.%s collation: %w", c.Table, c.Column, err)
		}
		if len(rows) == 1 && rows[0].CollationName == mysqlBinaryCollation {
			continue
		}
		if err := db.Exec(c.alterSQL()).Error; err != nil {
			return fmt.Errorf("set %s.%s collation: %w", c.Table, c.Column, err)
		}
		applog.Log.Info("Column collation updated",
			zap.String("table", c.Table),
			zap.String("column", c.Column),
			zap.String("collation", mysqlBinaryCollation),
		)
	}
	return nil
}
