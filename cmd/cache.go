package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// cacheCmd 语义缓存命令组
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "管理语义缓存与对话存储",
}

// cacheListCmd 列出缓存条目
var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出缓存的问答对",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.cache.List(context.Background())
		if err != nil {
			return err
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Question < entries[j].Question })

		if cacheOutputType == "json" {
			data, _ := json.MarshalIndent(entries, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{truncateCell(e.Question, 60), truncateCell(e.Answer, 80)})
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
			Headers("Question", "Answer").
			Rows(rows...)

		fmt.Println(t)
		fmt.Println()
		logx.Info("Query completed, count %d", len(entries))
		return nil
	},
}

// cacheRemoveCmd 删除单个缓存问题
var cacheRemoveCmd = &cobra.Command{
	Use:   "remove <question>",
	Short: "删除一个缓存问题",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		a.cache.Remove(context.Background(), args[0])
		logx.Info("Removed cached question %q", args[0])
		return nil
	},
}

// cacheClearCmd 清空缓存
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "清空语义缓存，--conversations 同时清空全部对话",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		a.cache.Clear(ctx)
		logx.Info("🧹 Semantic cache cleared")

		if clearConversations {
			if _, err := a.store.ClearAll(ctx); err != nil {
				return err
			}
		}
		return nil
	},
}

var (
	cacheOutputType    string
	clearConversations bool
)

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheRemoveCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheListCmd.Flags().StringVarP(&cacheOutputType, "output", "o", "table", "输出格式 (table, json)")
	cacheClearCmd.Flags().BoolVar(&clearConversations, "conversations", false, "同时删除所有对话历史和会话元数据")
}
