package cmd

import (
	"fmt"
	"os"

	"skillforge_backend/internal/repository"
	"skillforge_backend/internal/service"
	"skillforge_backend/pkg/database"
	"skillforge_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Challenges []service.CatalogEntry `yaml:"challenges"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the challenge catalog from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger.InitLogger(cfg)
		defer logger.Sync()

		path, _ := cmd.Flags().GetString("file")
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
		var catalog catalogFile
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return fmt.Errorf("parse catalog: %w", err)
		}

		db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == gin.DebugMode)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}

		skills := repository.NewSkillRepository(db)
		challenges := service.NewChallengeService(db,
			repository.NewChallengeRepository(db), skills, service.NewSkillNormalizer(skills),
			nil, nil, nil, nil, service.NoopViews{})

		created, err := challenges.SeedCatalog(cmd.Context(), catalog.Challenges)
		if err != nil {
			return err
		}
		logger.Log.Info("Challenge catalog seeded",
			zap.String("file", path),
			zap.Int("created", created),
			zap.Int("total", len(catalog.Challenges)),
		)
		return nil
	},
}

func init() {
	seedCmd.Flags().String("file", "configs/challenges.yaml", "挑战目录 YAML 文件")
}
