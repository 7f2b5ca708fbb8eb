package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"Pandemic/internal/contagion/actor"
	"Pandemic/internal/contagion/actors"
	"Pandemic/internal/contagion/interfaces/handler"
	"Pandemic/internal/shared/logs"
	"Pandemic/internal/shared/serverconfig"
	transporthttp "Pandemic/internal/shared/transport/http"
	"Pandemic/internal/shared/transport/http/middleware"
	"Pandemic/modules/kit/logx"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var confPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 宿主",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), confPath)
		},
	}
	cmd.Flags().StringVarP(&confPath, "config", "c", "", "配置文件路径，默认向上查找 configs/conf.yml")
	return cmd
}

func serve(parent context.Context, confPath string) error {
	if err := serverconfig.Load(confPath); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	conf := serverconfig.Conf
	if err := logs.Init("contagion", conf.Log); err != nil {
		return err
	}
	defer logs.Sync()
	logs.Info("conf", zap.Any("conf", conf))
	logger := logx.NewZapLogger(logs.Logger())
	if err := serverconfig.WatchLog(func(lc serverconfig.LogConfig) {
		logs.SetLevel(lc.Level)
		logs.Info("log level reloaded", zap.String("level", logs.Level().String()))
	}); err != nil {
		logs.Warn("watch config failed", zap.Error(err))
	}

	setup, err := loadSetup(conf.Game.SetupFile)
	if err != nil {
		return fmt.Errorf("load board setup: %w", err)
	}
	repo, closeRepo, err := openRepo(conf, setup, logs.Logger())
	if err != nil {
		return err
	}
	defer closeRepo()
	journals, closeJournal, err := openJournal(conf, logger)
	if err != nil {
		return err
	}
	defer closeJournal()

	rt := actor.NewRuntime(actors.Deps{
		Repo:       repo,
		Journals:   journals,
		Logger:     logger,
		FlushEvery: time.Duration(conf.Game.FlushEveryMs) * time.Millisecond,
	}, time.Duration(conf.Game.AskTimeoutMs)*time.Millisecond)
	defer rt.Shutdown()

	if !conf.Log.Dev {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	addr := fmt.Sprintf("%s:%d", conf.HTTPServer.Host, conf.HTTPServer.Port)
	srv := transporthttp.NewHttpServer(addr, engine, logger)
	games := srv.Group("/games")
	games.Use(middleware.GameAuth(jwtSecret(conf.HTTPServer.JWTSecret)))
	handler.NewGameHandler(rt, logger).Register(games)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logs.Info("http server started", zap.String("addr", addr), zap.String("store", conf.Game.Store))
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logs.Info("收到退出信号，准备优雅退出")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
