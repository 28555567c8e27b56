package posts

import (
	"github.com/shahdmohamed211/social-app33/internal/errors"

	"github.com/gin-gonic/gin"
)

// ListComments 展开评论区：首次懒加载，之后命中缓存
func (h *FeedHandler) ListComments(c *gin.Context) {
	comments, err := h.service.LoadComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"comments": comments,
	}, "")
}

// AddComment 发表评论，返回重新拉取后的完整评论列表
func (h *FeedHandler) AddComment(c *gin.Context) {
	var commentData struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&commentData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "评论内容不能为空", err))
		return
	}

	comments, err := h.service.AddComment(c.Request.Context(), c.Param("id"), commentData.Content)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"comments": comments,
	}, "评论已发表")
}

// UpdateComment 编辑评论（只允许作者操作，由远程 API 裁决）
func (h *FeedHandler) UpdateComment(c *gin.Context) {
	var commentData struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&commentData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "评论内容不能为空", err))
		return
	}

	err := h.service.UpdateComment(c.Request.Context(), c.Param("id"), c.Param("commentId"), commentData.Content)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "评论已更新")
}

// DeleteComment 删除评论
func (h *FeedHandler) DeleteComment(c *gin.Context) {
	err := h.service.DeleteComment(c.Request.Context(), c.Param("id"), c.Param("commentId"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "评论已删除")
}
