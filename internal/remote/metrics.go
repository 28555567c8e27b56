package remote

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
	outcomeNetwork = "network_error"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "remote_api_requests_total",
		Help: "按操作和结果统计的远程 API 请求总数",
	}, []string{"operation", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "remote_api_request_duration_seconds",
		Help:    "远程 API 请求耗时分布",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

func observeRequest(operation, outcome string, start time.Time) {
	requestsTotal.WithLabelValues(operation, outcome).Inc()
	requestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
