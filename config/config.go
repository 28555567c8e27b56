package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// Config 结构体用于存储应用程序的配置信息
type Config struct {
	APIBaseURL     string        // 远程社交 API 的基础地址
	ListenAddr     string        // 本地 Web 客户端监听地址
	TokenFile      string        // 会话令牌的持久化文件路径
	FeedPageSize   int           // 信息流每页条数
	RequestTimeout time.Duration // 单次远程请求超时
	UploadDir      string        // 上传文件的暂存目录
	MaxPhotoSize   int64         // 头像/图片上传大小上限（字节）
	LogLevel       string
	Debug          bool // 是否开启调试模式
}

// AppConfig 是全局配置变量
var AppConfig Config

// Init 函数用于初始化配置
func Init() {
	// 加载 .env 文件
	err := godotenv.Load()
	if err != nil {
		log.Printf("警告：无法加载 .env 文件: %v", err)
	}

	// 从环境变量中读取配置
	AppConfig = Config{
		APIBaseURL:     getEnv("API_BASE_URL", "https://linked-posts.routemisr.com"),
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		TokenFile:      getEnv("TOKEN_FILE", defaultTokenFile()),
		FeedPageSize:   getEnvAsInt("FEED_PAGE_SIZE", 50),
		RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		MaxPhotoSize:   int64(getEnvAsInt("MAX_PHOTO_SIZE_MB", 4)) * 1024 * 1024,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Debug:          getEnvAsBool("DEBUG", true),
	}

	validateConfig()

	// 如果是调试模式，打印更详细的路由信息
	if AppConfig.Debug {
		gin.SetMode(gin.DebugMode)
		log.Println("应用程序运行在调试模式")
	} else {
		gin.SetMode(gin.ReleaseMode)
		log.Println("应用程序运行在生产模式")
	}

	log.Printf("配置加载完成。远程 API：%s", AppConfig.APIBaseURL)
}

// defaultTokenFile 返回默认的令牌文件路径，相当于浏览器 localStorage 的 userToken 键
func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nexify_token"
	}
	return filepath.Join(home, ".nexify", "userToken")
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func validateConfig() {
	if AppConfig.APIBaseURL == "" {
		log.Fatal("错误：远程 API 地址未设置")
	}
	if AppConfig.FeedPageSize <= 0 {
		log.Fatal("错误：信息流分页大小必须为正数")
	}
}
