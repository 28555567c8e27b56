package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/shahdmohamed211/social-app33/internal/model"
)

// CreatePost 发布帖子，body 和 image 至少一个非空。
// 远程 API 不保证回显新帖子，返回值可能为 nil。
func (c *Client) CreatePost(ctx context.Context, body, imageName string, image io.Reader) (*model.Post, error) {
	fields := map[string]string{"body": body}
	env, err := c.postMultipart(ctx, "create_post", http.MethodPost, "/posts",
		fields, []filePart{{field: "image", filename: imageName, reader: image}})
	if err != nil {
		return nil, err
	}
	return env.Post, nil
}

// ListPosts 获取全局信息流的一页
func (c *Client) ListPosts(ctx context.Context, limit, page int) ([]model.Post, error) {
	path := fmt.Sprintf("/posts?limit=%d&page=%d", limit, page)
	env, err := c.do(ctx, "list_posts", http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	return env.Posts, nil
}

// GetPost 获取单条帖子
func (c *Client) GetPost(ctx context.Context, postID string) (*model.Post, error) {
	env, err := c.do(ctx, "get_post", http.MethodGet, "/posts/"+postID, nil, "")
	if err != nil {
		return nil, err
	}
	return env.Post, nil
}

// UserPosts 获取指定用户自己的帖子
func (c *Client) UserPosts(ctx context.Context, userID string, limit int) ([]model.Post, error) {
	path := fmt.Sprintf("/users/%s/posts?limit=%d", userID, limit)
	env, err := c.do(ctx, "user_posts", http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	return env.Posts, nil
}

// UpdatePost 更新帖子正文
func (c *Client) UpdatePost(ctx context.Context, postID, body string) error {
	_, err := c.postMultipart(ctx, "update_post", http.MethodPut, "/posts/"+postID,
		map[string]string{"body": body}, nil)
	return err
}

// DeletePost 删除帖子
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	_, err := c.do(ctx, "delete_post", http.MethodDelete, "/posts/"+postID, nil, "")
	return err
}

// ToggleLike 切换点赞状态
func (c *Client) ToggleLike(ctx context.Context, postID string) error {
	_, err := c.postJSON(ctx, "toggle_like", http.MethodPost, "/posts/like", map[string]string{
		"postId": postID,
	})
	return err
}
