package posts

import (
	"context"
	"io"
	"strconv"

	"github.com/shahdmohamed211/social-app33/config"
	"github.com/shahdmohamed211/social-app33/internal/errors"
	"github.com/shahdmohamed211/social-app33/internal/model"
	"github.com/shahdmohamed211/social-app33/internal/session"
	"github.com/shahdmohamed211/social-app33/internal/storage"
	"github.com/shahdmohamed211/social-app33/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FeedService 是信息流协调器暴露给处理器的操作集合
type FeedService interface {
	Refresh(ctx context.Context, page int, currentUser *model.User) ([]model.Post, error)
	CreatePost(ctx context.Context, body, imageName string, image io.Reader, currentUser *model.User) (*model.Post, error)
	ToggleLike(ctx context.Context, postID string, currentUser *model.User) error
	UpdatePost(ctx context.Context, postID, newBody string) error
	DeletePost(ctx context.Context, postID string) error
	LoadComments(ctx context.Context, postID string) ([]model.Comment, error)
	AddComment(ctx context.Context, postID, content string) ([]model.Comment, error)
	UpdateComment(ctx context.Context, postID, commentID, content string) error
	DeleteComment(ctx context.Context, postID, commentID string) error
}

// SinglePostAPI 获取单条帖子，绕过信息流合并
type SinglePostAPI interface {
	GetPost(ctx context.Context, postID string) (*model.Post, error)
}

// FeedHandler 处理信息流相关的HTTP请求
type FeedHandler struct {
	service  FeedService
	single   SinglePostAPI
	store    *session.Store
	profiles session.ProfileFetcher
	staging  *storage.LocalStorage
}

func NewFeedHandler(service FeedService, single SinglePostAPI, store *session.Store, profiles session.ProfileFetcher, staging *storage.LocalStorage) *FeedHandler {
	return &FeedHandler{
		service:  service,
		single:   single,
		store:    store,
		profiles: profiles,
		staging:  staging,
	}
}

// currentUser 返回当前用户；未登录的只读访问返回 nil
func (h *FeedHandler) currentUser(c *gin.Context) *model.User {
	if user := h.store.CurrentUser(); user != nil {
		return user
	}
	if !h.store.SignedIn() {
		return nil
	}
	return h.store.ResolveUser(c.Request.Context(), h.profiles)
}

// GetFeed 返回合并后的信息流某一页
func (h *FeedHandler) GetFeed(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	merged, err := h.service.Refresh(c.Request.Context(), page, h.currentUser(c))
	if err != nil {
		util.Logger.Error("刷新信息流失败", zap.Int("page", page), zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"posts": merged,
		"page":  page,
	}, "")
}

// CreatePost 发布帖子：multipart 表单，body 和 image 至少一个
func (h *FeedHandler) CreatePost(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		errors.HandleError(c, errors.New(errors.ErrUnauthorized, "发帖前请先登录"))
		return
	}

	body := c.PostForm("body")

	var (
		image     io.Reader
		imageName string
	)
	if file, err := c.FormFile("image"); err == nil {
		if file.Size > config.AppConfig.MaxPhotoSize {
			errors.HandleError(c, errors.New(errors.ErrValidation, "图片不能超过4MB"))
			return
		}
		staged, stageErr := h.staging.Stage(file)
		if stageErr != nil {
			errors.HandleError(c, errors.Wrap(errors.ErrInternal, "暂存上传文件失败", stageErr))
			return
		}
		defer h.staging.Remove(staged)

		src, openErr := h.staging.Open(staged)
		if openErr != nil {
			errors.HandleError(c, errors.Wrap(errors.ErrInternal, "读取暂存文件失败", openErr))
			return
		}
		defer src.Close()

		image = src
		imageName = file.Filename
	}

	post, err := h.service.CreatePost(c.Request.Context(), body, imageName, image, user)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"post": post,
	}, "帖子发布成功")
}

// GetPost 获取单条帖子；帖子已不存在时返回带返回入口的未找到状态
func (h *FeedHandler) GetPost(c *gin.Context) {
	post, err := h.single.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.IsNotFound(err) {
			c.JSON(404, gin.H{
				"code":    errors.ErrNotFound,
				"message": "帖子不存在",
				"backTo":  "/feed",
			})
			return
		}
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"post": post,
	}, "")
}

// ToggleLike 切换点赞状态（乐观更新，结果最终一致）
func (h *FeedHandler) ToggleLike(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		errors.HandleError(c, errors.New(errors.ErrUnauthorized, "点赞前请先登录"))
		return
	}

	if err := h.service.ToggleLike(c.Request.Context(), c.Param("id"), user); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "")
}

// UpdatePost 编辑帖子正文
func (h *FeedHandler) UpdatePost(c *gin.Context) {
	var updateData struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	if err := h.service.UpdatePost(c.Request.Context(), c.Param("id"), updateData.Body); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "帖子已更新")
}

// DeletePost 删除帖子
func (h *FeedHandler) DeletePost(c *gin.Context) {
	if err := h.service.DeletePost(c.Request.Context(), c.Param("id")); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "帖子已删除")
}
