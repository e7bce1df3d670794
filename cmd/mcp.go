package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tanakon8529/micro-ai-chatbot/internal/imcp"
)

// mcpCmd 以 MCP stdio 方式运行
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "以 MCP Server (stdio) 方式运行",
	Long: `通过标准输入输出提供 MCP 工具 ask 和 history，供支持 MCP 的客户端调用。

claude_desktop_config.json 示例:
  {
    "mcpServers": {
      "chatbot": {"command": "chatbot", "args": ["mcp"]}
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// 协议独占标准输出，日志改写到标准错误
		protocolOut := os.Stdout
		os.Stdout = os.Stderr

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.openIndex(ctx, false); err != nil {
			return err
		}
		pipeline, err := a.newPipeline(ctx)
		if err != nil {
			return err
		}

		return imcp.NewMCPServer(pipeline, Version).Serve(ctx, os.Stdin, protocolOut)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
