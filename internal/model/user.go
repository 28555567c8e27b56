package model

import "time"

// User 结构体表示远程 API 返回的用户资料
type User struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	Photo       string    `json:"photo,omitempty"`
	DateOfBirth string    `json:"dateOfBirth,omitempty"`
	Gender      string    `json:"gender,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Author 是嵌在帖子和评论中的作者摘要
type Author struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
}
