package auth

import (
	"context"

	"github.com/shahdmohamed211/social-app33/internal/errors"
	"github.com/shahdmohamed211/social-app33/internal/model"
	"github.com/shahdmohamed211/social-app33/internal/notify"
	"github.com/shahdmohamed211/social-app33/internal/remote"
	"github.com/shahdmohamed211/social-app33/internal/session"
	"github.com/shahdmohamed211/social-app33/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthAPI 是认证处理器依赖的远程操作集合
type AuthAPI interface {
	Signup(ctx context.Context, req remote.SignupRequest) error
	Signin(ctx context.Context, email, password string) (string, *model.User, error)
	ChangePassword(ctx context.Context, password, newPassword string) (string, error)
	GetProfile(ctx context.Context) (*model.User, error)
}

// AuthHandler 处理与认证相关的HTTP请求
type AuthHandler struct {
	api      AuthAPI
	store    *session.Store
	notifier notify.Notifier
}

// NewAuthHandler 创建一个新的 AuthHandler 实例
func NewAuthHandler(api AuthAPI, store *session.Store, notifier notify.Notifier) *AuthHandler {
	return &AuthHandler{api: api, store: store, notifier: notifier}
}

// Register 处理用户注册请求，校验通过后转发给远程 API
func (h *AuthHandler) Register(c *gin.Context) {
	var registerData struct {
		Name        string `json:"name" binding:"required,min=3"`
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required,strong_password"`
		RePassword  string `json:"rePassword" binding:"required,eqfield=Password"`
		DateOfBirth string `json:"dateOfBirth" binding:"required,past_date"`
		Gender      string `json:"gender" binding:"required,oneof=male female"`
	}

	if err := c.ShouldBindJSON(&registerData); err != nil {
		util.Logger.Warn("注册失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	err := h.api.Signup(c.Request.Context(), remote.SignupRequest{
		Name:        registerData.Name,
		Email:       registerData.Email,
		Password:    registerData.Password,
		RePassword:  registerData.RePassword,
		DateOfBirth: registerData.DateOfBirth,
		Gender:      registerData.Gender,
	})
	if err != nil {
		util.Logger.Warn("注册失败", zap.Error(err))
		h.notifier.Error("注册失败")
		errors.HandleError(c, err)
		return
	}

	h.notifier.Success("注册成功，请登录")
	errors.HandleSuccess(c, nil, "注册成功")
}

// Login 处理用户登录请求，成功后持久化会话令牌
func (h *AuthHandler) Login(c *gin.Context) {
	var loginData struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	token, user, err := h.api.Signin(c.Request.Context(), loginData.Email, loginData.Password)
	if err != nil {
		util.Logger.Warn("登录失败", zap.String("email", loginData.Email), zap.Error(err))
		h.notifier.Error("登录失败")
		errors.HandleError(c, errors.Wrap(errors.ErrInvalidCredentials, "登录失败", err))
		return
	}

	if err := h.store.SaveToken(token); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "保存会话令牌失败", err))
		return
	}

	// 登录响应可能不带用户资料，此时走资料接口或令牌兜底
	if user != nil {
		h.store.SetUser(user)
	} else {
		user = h.store.ResolveUser(c.Request.Context(), h.api)
	}

	h.notifier.Success("欢迎回来")
	errors.HandleSuccess(c, gin.H{
		"user": user,
	}, "登录成功")
}

// Logout 登出：清除本地会话
func (h *AuthHandler) Logout(c *gin.Context) {
	h.store.Clear()
	errors.HandleSuccess(c, nil, "已登出")
}

// ChangePassword 修改密码；远程会颁发新令牌，需要替换本地会话
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var passwordData struct {
		Password    string `json:"password" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required,strong_password"`
	}

	if err := c.ShouldBindJSON(&passwordData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	newToken, err := h.api.ChangePassword(c.Request.Context(), passwordData.Password, passwordData.NewPassword)
	if err != nil {
		h.notifier.Error("修改密码失败")
		errors.HandleError(c, err)
		return
	}

	if newToken != "" {
		if err := h.store.SaveToken(newToken); err != nil {
			util.Logger.Warn("保存新令牌失败", zap.Error(err))
		}
	}

	h.notifier.Success("密码修改成功")
	errors.HandleSuccess(c, nil, "密码修改成功")
}
