package remote

import (
	"context"
	"net/http"

	"github.com/shahdmohamed211/social-app33/internal/model"
)

// CreateComment 在指定帖子下创建评论
func (c *Client) CreateComment(ctx context.Context, content, postID string) error {
	_, err := c.postJSON(ctx, "create_comment", http.MethodPost, "/comments", map[string]string{
		"content": content,
		"post":    postID,
	})
	return err
}

// ListComments 获取帖子的全部评论
func (c *Client) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	env, err := c.do(ctx, "list_comments", http.MethodGet, "/posts/"+postID+"/comments", nil, "")
	if err != nil {
		return nil, err
	}
	return env.Comments, nil
}

// UpdateComment 更新评论内容
func (c *Client) UpdateComment(ctx context.Context, commentID, content string) error {
	_, err := c.postJSON(ctx, "update_comment", http.MethodPut, "/comments/"+commentID, map[string]string{
		"content": content,
	})
	return err
}

// DeleteComment 删除评论
func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	_, err := c.do(ctx, "delete_comment", http.MethodDelete, "/comments/"+commentID, nil, "")
	return err
}
