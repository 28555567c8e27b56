// Package notify 提供用户可见的瞬时消息通道，对应前端的 toast 提示。
// 所有操作边界的失败都转换为一条通知，不会向上传播导致崩溃。
package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Notifier 是瞬时消息通道的接口
type Notifier interface {
	Success(message string)
	Error(message string)
}

// ZapNotifier 把通知写入结构化日志
type ZapNotifier struct {
	logger *zap.Logger
}

func NewZapNotifier(logger *zap.Logger) *ZapNotifier {
	return &ZapNotifier{logger: logger}
}

func (n *ZapNotifier) Success(message string) {
	n.logger.Info("通知", zap.String("kind", "success"), zap.String("message", message))
}

func (n *ZapNotifier) Error(message string) {
	n.logger.Warn("通知", zap.String("kind", "error"), zap.String("message", message))
}

// Recorder 记录所有通知，供测试断言使用
type Recorder struct {
	mu        sync.Mutex
	Successes []string
	Errors    []string
}

func (r *Recorder) Success(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Successes = append(r.Successes, message)
}

func (r *Recorder) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, message)
}
