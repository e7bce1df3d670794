package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/spf13/cobra"

	"github.com/tanakon8529/micro-ai-chatbot/internal/knowledge"
	"github.com/tanakon8529/micro-ai-chatbot/internal/server"
)

// serveCmd 启动 HTTP 服务
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 问答服务",
	Long:  `加载向量索引并启动 HTTP 服务，提供 /v1/ask/、/v1/conversation/ 和 /v1/health/ 接口。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if cfg.Conversation.ClearOnStart {
			if _, err := a.store.ClearAll(ctx); err != nil {
				return err
			}
		}

		if err := a.openIndex(ctx, cfg.Knowledge.RebuildOnStart); err != nil {
			return err
		}

		pipeline, err := a.newPipeline(ctx)
		if err != nil {
			return err
		}

		if cfg.Knowledge.Watch {
			watcher, err := knowledge.NewWatcher(cfg.Knowledge.CorpusDir, a.retriever, knowledge.DefaultDebounce)
			if err != nil {
				return err
			}
			defer watcher.Close()
			go watcher.Run(ctx)
		}

		httpServer := server.NewHTTPGinServer(cfg, server.Deps{
			Pipeline:  pipeline,
			Cache:     a.cache,
			Tokens:    server.NewTokenValidator(cfg.Auth.Enabled, cfg.Auth.Tokens, a.redis),
			Logs:      a.logs,
			Knowledge: a.retriever,
			Version:   server.VersionInfo{Version: Version, GitCommit: GitCommit, BuildTime: BuildTime},
		})

		errCh := make(chan error, 1)
		go func() {
			if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case <-ctx.Done():
			logx.Info("🛑 Shutting down HTTP server")
		case err := <-errCh:
			return err
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpServer.Stop(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
