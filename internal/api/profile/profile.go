package profile

import (
	"context"
	"io"

	"github.com/shahdmohamed211/social-app33/config"
	"github.com/shahdmohamed211/social-app33/internal/errors"
	"github.com/shahdmohamed211/social-app33/internal/model"
	"github.com/shahdmohamed211/social-app33/internal/notify"
	"github.com/shahdmohamed211/social-app33/internal/session"
	"github.com/shahdmohamed211/social-app33/internal/storage"
	"github.com/shahdmohamed211/social-app33/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProfileAPI 是资料页依赖的远程操作集合
type ProfileAPI interface {
	GetProfile(ctx context.Context) (*model.User, error)
	UploadPhoto(ctx context.Context, filename string, photo io.Reader) error
	UserPosts(ctx context.Context, userID string, limit int) ([]model.Post, error)
}

// ProfileHandler 处理个人资料页的HTTP请求
type ProfileHandler struct {
	api      ProfileAPI
	store    *session.Store
	staging  *storage.LocalStorage
	notifier notify.Notifier
}

func NewProfileHandler(api ProfileAPI, store *session.Store, staging *storage.LocalStorage, notifier notify.Notifier) *ProfileHandler {
	return &ProfileHandler{api: api, store: store, staging: staging, notifier: notifier}
}

// GetProfile 返回当前登录用户的资料
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user := h.store.ResolveUser(c.Request.Context(), h.api)
	if user == nil {
		errors.HandleError(c, errors.New(errors.ErrUnauthorized, "会话已失效，请重新登录"))
		return
	}

	errors.HandleSuccess(c, gin.H{
		"user": user,
	}, "")
}

// UploadPhoto 上传头像：暂存浏览器上传的文件后转发给远程 API，
// 成功后重新拉取资料让新头像生效
func (h *ProfileHandler) UploadPhoto(c *gin.Context) {
	file, err := c.FormFile("photo")
	if err != nil {
		util.Logger.Warn("获取上传文件失败", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无法获取上传文件", err))
		return
	}

	if file.Size > config.AppConfig.MaxPhotoSize {
		errors.HandleError(c, errors.New(errors.ErrValidation, "图片不能超过4MB"))
		return
	}

	staged, err := h.staging.Stage(file)
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "暂存上传文件失败", err))
		return
	}
	defer h.staging.Remove(staged)

	src, err := h.staging.Open(staged)
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "读取暂存文件失败", err))
		return
	}
	defer src.Close()

	if err := h.api.UploadPhoto(c.Request.Context(), file.Filename, src); err != nil {
		util.Logger.Error("上传头像失败", zap.Error(err))
		h.notifier.Error("上传头像失败")
		errors.HandleError(c, err)
		return
	}

	user := h.store.ResolveUser(c.Request.Context(), h.api)

	h.notifier.Success("头像已更新")
	errors.HandleSuccess(c, gin.H{
		"user": user,
	}, "头像上传成功")
}

// MyPosts 返回当前用户自己的帖子列表（资料页直接取远程数据，
// 不参与信息流的合并逻辑）
func (h *ProfileHandler) MyPosts(c *gin.Context) {
	user := h.store.ResolveUser(c.Request.Context(), h.api)
	if user == nil {
		errors.HandleError(c, errors.New(errors.ErrUnauthorized, "会话已失效，请重新登录"))
		return
	}

	posts, err := h.api.UserPosts(c.Request.Context(), user.ID, config.AppConfig.FeedPageSize)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"posts": posts,
	}, "")
}
