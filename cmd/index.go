package cmd

import (
	"context"
	"fmt"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/spf13/cobra"
)

// indexCmd 向量索引命令组
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "管理向量索引",
}

// indexRebuildCmd 从语料重建索引
var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "从语料目录重新构建向量索引",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.openIndex(ctx, true); err != nil {
			return err
		}
		logx.Info("✅ Index rebuilt, %d chunks in %s", a.retriever.Len(), cfg.Knowledge.PersistDir)
		return nil
	},
}

// indexInfoCmd 查看索引概况
var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "查看向量索引概况",
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
		fmt.Println(a.retriever.Info())
		return nil
	},
}

// indexSearchCmd 直接检索索引
var indexSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "检索与问题最相近的切片",
	Args:  cobra.ExactArgs(1),
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
		docs, err := a.retriever.Retrieve(ctx, args[0], searchTopK)
		if err != nil {
			return err
		}
		for i, doc := range docs {
			fmt.Printf("%d. [%.3f] %s\n   %s\n\n", i+1, doc.Score, doc.Source, truncateCell(doc.Content, 200))
		}
		return nil
	},
}

var searchTopK int

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexInfoCmd)
	indexCmd.AddCommand(indexSearchCmd)

	indexSearchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 5, "返回的切片数量")
}
