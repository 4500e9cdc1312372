package cmd

import (
	"skillforge_backend/internal/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "skillforge",
	Short: "SkillForge progression engine backend",
	Long:  "SkillForge 学习进阶引擎：项目与挑战生成、代码评审、经验值与技能画像。",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, false)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "configs", "配置文件所在目录")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

// loadConfig 读取 --config 指定目录下的 config.yaml
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	dir, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, "", err
	}
	return cfg, dir, nil
}
