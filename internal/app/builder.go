package app

import (
	"context"
	"fmt"
	"path/filepath"

	"wasim/internal/config"
	"wasim/internal/logger"
	"wasim/internal/report"
	"wasim/internal/server"
	"wasim/internal/sim"
	"wasim/internal/store"
)

// AppBuilder 按依赖顺序装配应用：store → profiles → simulator → http。
// 各构造函数可被测试覆盖。
type AppBuilder struct {
	cfg *config.Config

	storeFn    func(path string) (sim.ResultStore, error)
	profilesFn func(path string) (*config.ProfileLoader, error)
	notifier   sim.Notifier
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		storeFn:    buildStore,
		profilesFn: buildProfiles,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// WithStore 覆盖存储构造（测试注入内存实现）。
func WithStore(s sim.ResultStore) AppBuilderOption {
	return func(b *AppBuilder) {
		b.storeFn = func(string) (sim.ResultStore, error) { return s, nil }
	}
}

// WithNotifier 覆盖缺省的日志通知器。
func WithNotifier(n sim.Notifier) AppBuilderOption {
	return func(b *AppBuilder) { b.notifier = n }
}

func buildStore(path string) (sim.ResultStore, error) {
	return store.New(path)
}

func buildProfiles(path string) (*config.ProfileLoader, error) {
	if path == "" {
		return nil, nil
	}
	return config.NewProfileLoader(path)
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := b.cfg
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}

	dataDir := cfg.App.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	resultStore, err := b.storeFn(filepath.Join(dataDir, "wasim.db"))
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	profiles, err := b.profilesFn(cfg.Agents.ProfilesPath)
	if err != nil {
		// 调参文件坏了不致命，回退缺省值。
		logger.Warnf("加载 agent 调参失败，使用缺省值: %v", err)
		profiles = nil
	}

	simulator, err := sim.NewSimulator(sim.SimulatorConfig{
		Base:     *cfg,
		Profiles: profiles,
		Store:    resultStore,
		Notifier: b.notifier,
	})
	if err != nil {
		return nil, fmt.Errorf("init simulator: %w", err)
	}
	simulator.SetContext(ctx)

	reporter := report.NewGenerator(report.Config{
		Dir:      cfg.Report.Dir,
		Snapshot: cfg.Report.Snapshot,
	})

	httpServer, err := server.NewHTTPServer(server.HTTPConfig{
		Addr:      cfg.App.HTTPAddr,
		Simulator: simulator,
		Reporter:  reporter,
	})
	if err != nil {
		return nil, fmt.Errorf("init http server: %w", err)
	}

	return &App{
		cfg:       cfg,
		store:     resultStore,
		profiles:  profiles,
		simulator: simulator,
		http:      httpServer,
	}, nil
}
