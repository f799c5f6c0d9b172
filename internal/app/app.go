package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"wasim/internal/config"
	"wasim/internal/logger"
	"wasim/internal/server"
	"wasim/internal/sim"
)

// App 负责应用级编排：加载配置→初始化依赖→启动 HTTP 服务。
type App struct {
	cfg       *config.Config
	store     sim.ResultStore
	profiles  *config.ProfileLoader
	simulator *sim.Simulator
	http      *server.HTTPServer
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Simulator 暴露底层模拟器（命令行一次性运行用）。
func (a *App) Simulator() *sim.Simulator {
	if a == nil {
		return nil
	}
	return a.simulator
}

// Run 启动 HTTP 服务并阻塞到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	a.simulator.SetContext(ctx)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.http.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	return group.Wait()
}

// Close 释放持有的资源。
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.profiles != nil {
		_ = a.profiles.Close()
	}
	if closer, ok := a.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
