package cmd

import (
	"fmt"
	"os"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tanakon8529/micro-ai-chatbot/internal/config"
)

// 构建信息，由 -ldflags 注入
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	cfgFile string
	envFile string
	cfg     *config.Config
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "chatbot",
	Short: "多租户知识库问答网关",
	Long: `基于语义缓存、向量检索和可切换模型后端 (GPT / CLAUDE) 的问答服务。
对话历史按 (user_id, topic_id) 存放在 Redis 中。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			logx.Warn("Failed to load %s: %v", envFile, err)
		}

		loaded, err := config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径 (默认搜索 ./config.yaml, ./configs, $HOME/.chatbot, /etc/chatbot)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "启动前加载的 .env 文件")

	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
