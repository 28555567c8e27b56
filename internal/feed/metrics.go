package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	feedMerges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_merges_total",
		Help: "信息流合并执行总次数",
	})

	pendingConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_pending_confirmed_total",
		Help: "刷新时被服务器确认并丢弃的待确认帖子数",
	})

	staleRefreshesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_stale_refreshes_dropped_total",
		Help: "因乱序到达而被丢弃的刷新响应数",
	})
)
