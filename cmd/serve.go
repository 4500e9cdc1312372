package cmd

import (
	"skillforge_backend/internal/app"
	"skillforge_backend/pkg/logger"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		migrate, _ := cmd.Flags().GetBool("migrate")
		return runServe(cmd, migrate)
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
}

func runServe(cmd *cobra.Command, migrate bool) error {
	cfg, dir, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.ForceMigrate = migrate

	application, err := app.NewApp(cfg, dir)
	if err != nil {
		return err
	}
	defer logger.Sync()

	return application.Run()
}
