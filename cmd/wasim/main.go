package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"wasim/internal/app"
	wcfg "wasim/internal/config"
	"wasim/internal/logger"
	"wasim/internal/sim"
)

func main() {
	once := flag.Bool("once", false, "跑一次模拟后退出（不启动 HTTP 服务）")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("WASIM_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := wcfg.Load(cfgPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("初始化日志文件失败: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLLMWriter(nil)
	if cfg.App.LLMDump {
		f, err := setupLLMLogOutput(cfg.App.LLMLog)
		if err != nil {
			log.Fatalf("初始化 LLM 日志失败: %v", err)
		}
		if f != nil {
			defer f.Close()
		}
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("✓ 配置加载成功（环境=%s，标的=%s）", cfg.App.Env, strings.Join(cfg.Sim.NormalizedSymbols(), ","))

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}
	defer application.Close()

	if *once {
		if err := runOnce(ctx, application.Simulator()); err != nil {
			log.Fatalf("模拟失败: %v", err)
		}
		return
	}
	if err := application.Run(ctx); err != nil {
		log.Fatalf("运行失败: %v", err)
	}
}

// runOnce 提交一次模拟并轮询到终态。
func runOnce(ctx context.Context, simulator *sim.Simulator) error {
	run, err := simulator.StartRun(sim.RunRequest{})
	if err != nil {
		return err
	}
	logger.Infof("模拟 %s 已提交（%d 天，%d 个标的）", run.ID, run.Config.Days, len(run.Config.Symbols))
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		cur, ok, err := simulator.GetRun(ctx, run.ID)
		if err != nil || !ok {
			continue
		}
		switch cur.Status {
		case sim.RunStatusDone:
			logger.Infof("模拟完成：权益 %.2f，收益 %.2f%%，最大回撤 %.2f%%，成交 %d 笔",
				cur.Stats.FinalEquity, cur.Stats.ReturnPct, cur.Stats.MaxDrawdownPct, cur.Stats.Trades)
			return nil
		case sim.RunStatusFailed:
			return fmt.Errorf("run %s: %s", cur.ID, cur.Message)
		}
	}
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}

func setupLLMLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	logger.SetLLMWriter(f)
	return f, nil
}
