package cmd

import (
	"skillforge_backend/internal/app"
	"skillforge_backend/pkg/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dir, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg.ForceMigrate = true
		cfg.MigrateOnly = true

		if _, err := app.NewApp(cfg, dir); err != nil {
			return err
		}
		defer logger.Sync()

		logger.Log.Info("数据库迁移完成")
		return nil
	},
}
