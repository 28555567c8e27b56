package feed

import (
	"time"

	"github.com/shahdmohamed211/social-app33/internal/model"
)

// MatchStrategy 判断一条服务器帖子是否就是某条本地待确认帖子。
// 匹配策略是显式注入的，便于在不改动合并逻辑的前提下收紧规则。
type MatchStrategy func(local, server *model.Post, currentUserID string) bool

// LooseMatch 按正文和作者匹配：正文完全相同，且服务器帖子的作者
// 等于本地帖子的作者或当前用户。两条正文相同的真实帖子会被错误
// 地折叠成一条，这是已知的误判风险。
func LooseMatch(local, server *model.Post, currentUserID string) bool {
	if server.Body == "" || server.Body != local.Body {
		return false
	}
	return server.User.ID == local.User.ID ||
		(currentUserID != "" && server.User.ID == currentUserID)
}

// WindowedMatch 在 LooseMatch 之上额外要求两条帖子的创建时间
// 落在给定窗口内，降低同文误判的概率
func WindowedMatch(window time.Duration) MatchStrategy {
	return func(local, server *model.Post, currentUserID string) bool {
		if !LooseMatch(local, server, currentUserID) {
			return false
		}
		delta := server.CreatedAt.Sub(local.CreatedAt)
		if delta < 0 {
			delta = -delta
		}
		return delta <= window
	}
}

// DefaultMatch 是默认策略：正文加作者匹配，限定在五分钟窗口内
var DefaultMatch = WindowedMatch(5 * time.Minute)
