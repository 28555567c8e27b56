package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shahdmohamed211/social-app33/config"
	"github.com/shahdmohamed211/social-app33/internal/api/auth"
	"github.com/shahdmohamed211/social-app33/internal/api/posts"
	"github.com/shahdmohamed211/social-app33/internal/api/profile"
	"github.com/shahdmohamed211/social-app33/internal/feed"
	"github.com/shahdmohamed211/social-app33/internal/middleware"
	"github.com/shahdmohamed211/social-app33/internal/notify"
	"github.com/shahdmohamed211/social-app33/internal/remote"
	"github.com/shahdmohamed211/social-app33/internal/session"
	"github.com/shahdmohamed211/social-app33/internal/storage"
	"github.com/shahdmohamed211/social-app33/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 在 main 函数开始处添加
	defer func() {
		if r := recover(); r != nil {
			util.Logger.Error("程序发生严重错误", zap.Any("error", r))
		}
	}()

	// 初始化配置
	config.Init()

	// 初始化日志
	util.InitLogger(config.AppConfig.LogLevel)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")

	// 注册自定义验证器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("strong_password", util.ValidateStrongPassword)
		v.RegisterValidation("past_date", util.ValidatePastDate)
	}

	// 初始化上传暂存目录
	staging, err := storage.NewLocalStorage(config.AppConfig.UploadDir)
	if err != nil {
		util.Logger.Fatal("初始化上传暂存目录失败", zap.Error(err))
	}

	// 恢复会话：启动时从令牌文件读取上次登录状态
	store := session.NewStore(config.AppConfig.TokenFile)

	// 初始化远程 API 客户端
	client := remote.NewClient(config.AppConfig.APIBaseURL, config.AppConfig.RequestTimeout, store)

	// 有持久化令牌时解析当前用户身份
	if store.SignedIn() {
		startupCtx, cancel := context.WithTimeout(context.Background(), config.AppConfig.RequestTimeout)
		if user := store.ResolveUser(startupCtx, client); user != nil {
			util.Logger.Info("会话已恢复", zap.String("user", user.Name))
		}
		cancel()
	}

	// 初始化通知器和信息流协调器
	notifier := notify.NewZapNotifier(util.Logger)
	reconciler := feed.NewReconciler(client, notifier, config.AppConfig.FeedPageSize, feed.DefaultPolicy())

	// 初始化处理器
	authHandler := auth.NewAuthHandler(client, store, notifier)
	profileHandler := profile.NewProfileHandler(client, store, staging, notifier)
	feedHandler := posts.NewFeedHandler(reconciler, client, store, client, staging)

	// 初始化错误监控
	errorMonitor := middleware.NewErrorMonitor()

	// 设置 Gin 路由
	r := gin.Default()

	// 添加中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.ErrorMonitorMiddleware(errorMonitor))

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
	}
	r.Use(cors.New(corsConfig))

	// 指标端点
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 定义 API 路由
	api := r.Group("/api")
	{
		// 认证相关路由
		api.POST("/auth/signup", authHandler.Register)
		api.POST("/auth/signin", authHandler.Login)

		// 信息流对未登录用户只读开放
		api.GET("/feed", feedHandler.GetFeed)
		api.GET("/posts/:id", feedHandler.GetPost)
		api.GET("/posts/:id/comments", feedHandler.ListComments)

		// 需要登录的路由
		authorized := api.Group("/")
		authorized.Use(middleware.SessionGuard(store))
		{
			authorized.POST("/auth/signout", authHandler.Logout)
			authorized.PATCH("/auth/change-password", authHandler.ChangePassword)

			authorized.GET("/profile", profileHandler.GetProfile)
			authorized.PUT("/profile/photo", profileHandler.UploadPhoto)
			authorized.GET("/profile/posts", profileHandler.MyPosts)

			authorized.POST("/posts", feedHandler.CreatePost)
			authorized.PUT("/posts/:id", feedHandler.UpdatePost)
			authorized.DELETE("/posts/:id", feedHandler.DeletePost)
			authorized.POST("/posts/:id/like", feedHandler.ToggleLike)

			authorized.POST("/posts/:id/comments", feedHandler.AddComment)
			authorized.PUT("/posts/:id/comments/:commentId", feedHandler.UpdateComment)
			authorized.DELETE("/posts/:id/comments/:commentId", feedHandler.DeleteComment)
		}
	}

	// 创建一个带有超时的 http.Server
	srv := &http.Server{
		Addr:    config.AppConfig.ListenAddr,
		Handler: r,
	}

	// 在一个新的 goroutine 中启动服务器
	go func() {
		util.Logger.Info("客户端正在启动", zap.String("addr", config.AppConfig.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("启动服务失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器（设置 5 秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	util.Logger.Info("正在关闭...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		util.Logger.Fatal("服务强制关闭", zap.Error(err))
	}

	util.Logger.Info("已优雅关闭")
}
