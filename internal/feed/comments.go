package feed

import (
	"context"
	"strings"

	"github.com/shahdmohamed211/social-app33/internal/errors"
	"github.com/shahdmohamed211/social-app33/internal/model"
)

// 评论按帖子懒加载，缓存只在该帖子视图的生命周期内有效。
// 评论的增删改都不做乐观插入：写操作成功后总是以服务器数据为准。

// LoadComments 首次展开评论区时拉取评论并缓存，之后直接返回缓存
func (r *Reconciler) LoadComments(ctx context.Context, postID string) ([]model.Comment, error) {
	r.mu.Lock()
	if r.loaded[postID] {
		cached := append([]model.Comment(nil), r.comments[postID]...)
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	comments, err := r.api.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.comments[postID] = comments
	r.loaded[postID] = true
	r.mu.Unlock()
	return append([]model.Comment(nil), comments...), nil
}

// AddComment 创建评论。成功后重新拉取该帖子的完整评论列表，
// 保证服务器分配的ID和排序是权威的。
func (r *Reconciler) AddComment(ctx context.Context, postID, content string) ([]model.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New(errors.ErrValidation, "评论内容不能为空")
	}

	if err := r.api.CreateComment(ctx, content, postID); err != nil {
		r.notifier.Error("发表评论失败")
		return nil, err
	}

	comments, err := r.api.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.comments[postID] = comments
	r.loaded[postID] = true
	r.mu.Unlock()
	return append([]model.Comment(nil), comments...), nil
}

// UpdateComment 更新评论：先请求后改缓存
func (r *Reconciler) UpdateComment(ctx context.Context, postID, commentID, content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New(errors.ErrValidation, "评论内容不能为空")
	}

	if err := r.api.UpdateComment(ctx, commentID, content); err != nil {
		r.notifier.Error("更新评论失败")
		return err
	}

	r.mu.Lock()
	for i := range r.comments[postID] {
		if r.comments[postID][i].ID == commentID {
			r.comments[postID][i].Content = content
			break
		}
	}
	r.mu.Unlock()

	r.notifier.Success("评论已更新")
	return nil
}

// DeleteComment 删除评论：请求成功后从缓存中过滤掉该条
func (r *Reconciler) DeleteComment(ctx context.Context, postID, commentID string) error {
	if err := r.api.DeleteComment(ctx, commentID); err != nil {
		r.notifier.Error("删除评论失败")
		return err
	}

	r.mu.Lock()
	kept := r.comments[postID][:0:0]
	for _, comment := range r.comments[postID] {
		if comment.ID != commentID {
			kept = append(kept, comment)
		}
	}
	r.comments[postID] = kept
	r.mu.Unlock()

	r.notifier.Success("评论已删除")
	return nil
}
