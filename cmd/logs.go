package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/tanakon8529/micro-ai-chatbot/internal/model"
)

var (
	logsQuery  model.ChatLogQuery
	logsOutput string
	logsClear  bool
)

// logsCmd 查看答案审计日志
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "查看已返回答案的审计日志",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if logsClear {
			n, err := a.logs.Clear(ctx)
			if err != nil {
				return err
			}
			logx.Info("🧹 Deleted %d answer log entries", n)
			return nil
		}

		logs, total, err := a.logs.List(ctx, logsQuery)
		if err != nil {
			return err
		}

		if logsOutput == "json" {
			data, _ := json.MarshalIndent(logs, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		rows := make([][]string, 0, len(logs))
		for _, l := range logs {
			rows = append(rows, []string{
				l.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				l.UserID, l.TopicID, l.Model, l.TypeRes,
				strconv.FormatInt(l.LatencyMs, 10) + "ms",
				truncateCell(l.Question, 40),
			})
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
			Headers("Time", "User", "Topic", "Model", "Type", "Latency", "Question").
			Rows(rows...)

		fmt.Println(t)
		fmt.Println()
		logx.Info("Query completed, showing %d of %d", len(logs), total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVarP(&logsQuery.UserID, "user", "u", "", "按用户过滤")
	logsCmd.Flags().StringVarP(&logsQuery.TopicID, "topic", "t", "", "按话题过滤")
	logsCmd.Flags().StringVar(&logsQuery.TypeRes, "type", "", "按答案来源过滤 (cache, generate, vector_store_info, no_valid_question)")
	logsCmd.Flags().IntVarP(&logsQuery.Limit, "limit", "n", 20, "返回条数")
	logsCmd.Flags().StringVarP(&logsOutput, "output", "o", "table", "输出格式 (table, json)")
	logsCmd.Flags().BoolVar(&logsClear, "clear", false, "删除全部日志")
}
