package model

import (
	"strings"
	"time"
)

// LocalIDPrefix 是乐观创建的帖子在服务器确认前使用的临时ID前缀
const LocalIDPrefix = "local_"

// Post 结构体表示一条信息流帖子。
// 不变式：Body 和 Image 至少有一个非空；ID 在一次信息流视图内唯一，
// 唯一的例外是乐观创建到服务器确认之间的窗口期，同一逻辑帖子会
// 同时存在临时ID和服务器ID两个身份，由信息流合并逻辑负责收敛。
type Post struct {
	ID        string    `json:"_id"`
	Body      string    `json:"body,omitempty"`
	Image     string    `json:"image,omitempty"`
	User      Author    `json:"user"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsLocal 判断帖子是否还是本地待确认状态
func (p *Post) IsLocal() bool {
	return strings.HasPrefix(p.ID, LocalIDPrefix)
}

// LikedBy 判断指定用户是否点过赞
func (p *Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// CommentCount 返回帖子携带的评论数，可能落后于实际已加载的评论列表
func (p *Post) CommentCount() int {
	return len(p.Comments)
}
