package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/tanakon8529/micro-ai-chatbot/internal/agent"
	"github.com/tanakon8529/micro-ai-chatbot/internal/memory"
)

var (
	askUser    string
	askTopic   string
	askModel   string
	outputType string
)

// askCmd 在命令行中提问
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "提问并输出答案",
	Long:  `走完整的应答流程 (缓存、检索、生成、写入历史)，与 HTTP 接口行为一致。`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

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

		result, err := pipeline.Answer(ctx, agent.Request{
			UserID:   askUser,
			TopicID:  askTopic,
			Question: strings.Join(args, " "),
			Model:    askModel,
		})
		if err != nil {
			return err
		}

		if outputType == "json" {
			data, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Println(result.Answer)
		fmt.Println()
		logx.Info("Answer source %s", result.TypeRes)
		return nil
	},
}

// historyCmd 查看对话历史
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "查看对话历史",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		turns, err := a.store.History(ctx, askUser, askTopic, 0)
		if err != nil {
			return err
		}

		if outputType == "json" {
			data, _ := json.MarshalIndent(turns, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Println(historyTable(turns))
		fmt.Println()
		logx.Info("Query completed, count %d, user %s, topic %s", len(turns), askUser, askTopic)
		return nil
	},
}

func historyTable(turns []memory.Turn) *table.Table {
	rows := make([][]string, 0, len(turns))
	for _, turn := range turns {
		rows = append(rows, []string{
			turn.Timestamp.Local().Format("2006-01-02 15:04:05"),
			turn.Sender,
			truncateCell(turn.Message, 80),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		Headers("Time", "Sender", "Message").
		Rows(rows...)
}

// truncateCell 截断过长的单元格内容
func truncateCell(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func init() {
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)

	for _, c := range []*cobra.Command{askCmd, historyCmd} {
		c.Flags().StringVarP(&askUser, "user", "u", "cli", "用户 ID")
		c.Flags().StringVarP(&askTopic, "topic", "t", "default", "话题 ID")
		c.Flags().StringVarP(&outputType, "output", "o", "table", "输出格式 (table, json)")
	}
	askCmd.Flags().StringVarP(&askModel, "model", "m", "GPT", "模型 (GPT, CLAUDE)")
}
