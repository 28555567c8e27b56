package middleware

import (
	"strconv"
	"sync"

	"github.com/shahdmohamed211/social-app33/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var handlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "handler_errors_total",
	Help: "按错误码统计的请求处理失败总数",
}, []string{"code"})

// ErrorMonitor 按错误码累计请求处理失败，供诊断接口查询
type ErrorMonitor struct {
	errorCounts map[errors.ErrorCode]int
	mu          sync.RWMutex
}

func NewErrorMonitor() *ErrorMonitor {
	return &ErrorMonitor{
		errorCounts: make(map[errors.ErrorCode]int),
	}
}

func (m *ErrorMonitor) RecordError(err error) {
	code := errors.CodeOf(err)
	m.mu.Lock()
	m.errorCounts[code]++
	m.mu.Unlock()
	handlerErrors.WithLabelValues(strconv.Itoa(int(code))).Inc()
}

func (m *ErrorMonitor) GetErrorCounts() map[errors.ErrorCode]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[errors.ErrorCode]int)
	for code, count := range m.errorCounts {
		counts[code] = count
	}
	return counts
}

func ErrorMonitorMiddleware(monitor *ErrorMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, e := range c.Errors {
			monitor.RecordError(e.Err)
			if appErr, ok := e.Err.(*errors.AppError); ok {
				zap.L().Warn("请求处理错误",
					zap.Int("error_code", int(appErr.Code)),
					zap.String("error_message", appErr.Message),
					zap.Error(appErr.Err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method))
			}
		}
	}
}
