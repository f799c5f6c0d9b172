package sim

import "wasim/internal/logger"

// Notifier 用于运行完成后的推送。
type Notifier interface {
	SendText(text string) error
}

// LogNotifier 把通知落到日志，没有外部通道时的缺省实现。
type LogNotifier struct{}

func (LogNotifier) SendText(text string) error {
	logger.Infof("[notify] %s", text)
	return nil
}
