package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"wasim/internal/logger"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FundamentalProfile 均值回归参数。
type FundamentalProfile struct {
	SMAWindow     int     `yaml:"sma_window"`
	BaseThreshold float64 `yaml:"base_threshold"`
	QtyCap        int64   `yaml:"qty_cap"`
}

// MacroProfile 动量参数。
type MacroProfile struct {
	MomentumWindow int     `yaml:"momentum_window"`
	Threshold      float64 `yaml:"threshold"`
	QtyCap         int64   `yaml:"qty_cap"`
}

// SentimentProfile 突破参数。
type SentimentProfile struct {
	BreakoutWindow int     `yaml:"breakout_window"`
	Epsilon        float64 `yaml:"epsilon"`
	Qty            int64   `yaml:"qty"`
}

// AgentProfiles 汇总三个决策源的调参。
type AgentProfiles struct {
	Fundamental FundamentalProfile `yaml:"fundamental"`
	Macro       MacroProfile       `yaml:"macro"`
	Sentiment   SentimentProfile   `yaml:"sentiment"`
}

type profileFile struct {
	Agents AgentProfiles `yaml:"agents"`
}

// DefaultProfiles 与原始调参一致的缺省值。
func DefaultProfiles() AgentProfiles {
	return AgentProfiles{
		Fundamental: FundamentalProfile{SMAWindow: 5, BaseThreshold: 0.002, QtyCap: 20},
		Macro:       MacroProfile{MomentumWindow: 3, Threshold: 0.003, QtyCap: 15},
		Sentiment:   SentimentProfile{BreakoutWindow: 10, Epsilon: 0.002, Qty: 8},
	}
}

func (p *AgentProfiles) normalize() {
	def := DefaultProfiles()
	if p.Fundamental.SMAWindow <= 0 {
		p.Fundamental.SMAWindow = def.Fundamental.SMAWindow
	}
	if p.Fundamental.BaseThreshold <= 0 {
		p.Fundamental.BaseThreshold = def.Fundamental.BaseThreshold
	}
	if p.Fundamental.QtyCap <= 0 {
		p.Fundamental.QtyCap = def.Fundamental.QtyCap
	}
	if p.Macro.MomentumWindow <= 0 {
		p.Macro.MomentumWindow = def.Macro.MomentumWindow
	}
	if p.Macro.Threshold <= 0 {
		p.Macro.Threshold = def.Macro.Threshold
	}
	if p.Macro.QtyCap <= 0 {
		p.Macro.QtyCap = def.Macro.QtyCap
	}
	if p.Sentiment.BreakoutWindow < 2 {
		p.Sentiment.BreakoutWindow = def.Sentiment.BreakoutWindow
	}
	if p.Sentiment.Epsilon <= 0 {
		p.Sentiment.Epsilon = def.Sentiment.Epsilon
	}
	if p.Sentiment.Qty <= 0 {
		p.Sentiment.Qty = def.Sentiment.Qty
	}
}

// ProfileSnapshot 对外暴露的只读快照。
type ProfileSnapshot struct {
	Version  int64
	LoadedAt time.Time
	Agents   AgentProfiles
}

// ProfileListener 在调参文件变更时被调用。
type ProfileListener func(ProfileSnapshot)

// ProfileLoader 负责从 YAML 文件加载 agent 调参并监听热更新。
type ProfileLoader struct {
	path    string
	watcher *fsnotify.Watcher

	mu        sync.RWMutex
	snapshot  ProfileSnapshot
	listeners []ProfileListener
}

// NewProfileLoader 读取调参文件并开始监听 FS 事件。
// 文件不存在不视为错误：使用缺省调参，等待文件出现。
func NewProfileLoader(path string) (*ProfileLoader, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("profile loader requires path")
	}
	l := &ProfileLoader{
		path:     path,
		snapshot: ProfileSnapshot{Version: 1, LoadedAt: time.Now(), Agents: DefaultProfiles()},
	}
	if _, err := os.Stat(path); err == nil {
		if err := l.reload(); err != nil {
			return nil, err
		}
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("profile watcher init failed: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("profile watcher add failed: %w", err)
	}
	l.watcher = watcher
	go l.watchLoop()
	return l, nil
}

func (l *ProfileLoader) watchLoop() {
	for {
		select {
		case evt, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != filepath.Clean(l.path) {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := l.reload(); err != nil {
				logger.Errorf("profile reload failed (%s): %v", evt.Name, err)
				continue
			}
			l.notify()
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("profile watcher error: %v", err)
		}
	}
}

func (l *ProfileLoader) reload() error {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("read profile config failed: %w", err)
	}
	var file profileFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return fmt.Errorf("parse profile config failed: %w", err)
	}
	file.Agents.normalize()
	l.mu.Lock()
	l.snapshot = ProfileSnapshot{
		Version:  l.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Agents:   file.Agents,
	}
	l.mu.Unlock()
	logger.Infof("profile loader reloaded agent tuning from %s", filepath.Base(l.path))
	return nil
}

// Snapshot 返回当前调参快照。
func (l *ProfileLoader) Snapshot() ProfileSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot
}

// Subscribe 注册监听器。
func (l *ProfileLoader) Subscribe(fn ProfileListener) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	l.mu.Unlock()
}

func (l *ProfileLoader) notify() {
	l.mu.RLock()
	snap := l.snapshot
	listeners := append([]ProfileListener(nil), l.listeners...)
	l.mu.RUnlock()
	for _, fn := range listeners {
		go func(cb ProfileListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("profile listener panic: %v", r)
				}
			}()
			cb(snap)
		}(fn)
	}
}

// Close 停止监听。
func (l *ProfileLoader) Close() error {
	if l.watcher == nil {
		return nil
	}
	return l.watcher.Close()
}
