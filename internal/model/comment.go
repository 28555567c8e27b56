package model

import "time"

// Comment 结构体表示挂在某条帖子下的评论
type Comment struct {
	ID             string    `json:"_id"`
	Content        string    `json:"content"`
	Post           string    `json:"post"`
	CommentCreator Author    `json:"commentCreator"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}
