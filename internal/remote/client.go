// Package remote 封装对固定远程社交 API 的全部 HTTP 调用。
// 令牌通过自定义的 token 请求头携带，不使用 Bearer 前缀。
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/shahdmohamed211/social-app33/internal/errors"
	"github.com/shahdmohamed211/social-app33/internal/model"
	"github.com/shahdmohamed211/social-app33/internal/util"

	"go.uber.org/zap"
)

// successMessage 是远程 API 成功响应中 message 字段的约定值
const successMessage = "success"

// TokenProvider 提供当前会话令牌；返回空串表示未登录
type TokenProvider interface {
	Token() string
}

// Client 是远程 API 的 HTTP 客户端。不做任何自动重试，
// 超时由构造时传入的 timeout 控制。
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
}

// NewClient 创建远程 API 客户端
func NewClient(baseURL string, timeout time.Duration, tokens TokenProvider) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// envelope 是远程 API 的统一响应结构
type envelope struct {
	Message  string          `json:"message"`
	Error    string          `json:"error,omitempty"`
	Token    string          `json:"token,omitempty"`
	User     *model.User     `json:"user,omitempty"`
	Post     *model.Post     `json:"post,omitempty"`
	Posts    []model.Post    `json:"posts,omitempty"`
	Comment  *model.Comment  `json:"comment,omitempty"`
	Comments []model.Comment `json:"comments,omitempty"`
	Total    int             `json:"total,omitempty"`
}

// do 发送请求并解析统一响应。任何传输错误、非成功状态码或
// message != "success" 都视为失败。
func (c *Client) do(ctx context.Context, operation, method, path string, body io.Reader, contentType string) (*envelope, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "构造请求失败", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("token", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		observeRequest(operation, outcomeNetwork, start)
		return nil, errors.Wrap(errors.ErrRequest, "请求远程 API 失败", err)
	}
	defer resp.Body.Close()

	var env envelope
	if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr != nil && decodeErr != io.EOF {
		observeRequest(operation, outcomeError, start)
		return nil, errors.Wrap(errors.ErrRequest, "解析远程响应失败", decodeErr)
	}

	if err := classify(resp.StatusCode, &env); err != nil {
		observeRequest(operation, outcomeError, start)
		util.Logger.Warn("远程 API 返回失败",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.String("message", env.Message))
		return nil, err
	}

	observeRequest(operation, outcomeSuccess, start)
	return &env, nil
}

// classify 将远程响应映射到客户端错误分类
func classify(status int, env *envelope) error {
	switch {
	case status == http.StatusUnauthorized:
		return errors.New(errors.ErrTokenExpired, remoteMessage(env, "认证已失效"))
	case status == http.StatusNotFound:
		return errors.New(errors.ErrNotFound, remoteMessage(env, "资源不存在"))
	case status >= 400:
		return errors.New(errors.ErrRemoteRejected, remoteMessage(env, "远程 API 拒绝了请求"))
	case env.Message != successMessage:
		return errors.New(errors.ErrRemoteRejected, remoteMessage(env, "远程 API 返回非成功消息"))
	}
	return nil
}

func remoteMessage(env *envelope, fallback string) string {
	if env.Message != "" && env.Message != successMessage {
		return env.Message
	}
	if env.Error != "" {
		return env.Error
	}
	return fallback
}

// postJSON 发送 JSON 请求体
func (c *Client) postJSON(ctx context.Context, operation, method, path string, payload interface{}) (*envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "序列化请求体失败", err)
	}
	return c.do(ctx, operation, method, path, bytes.NewReader(data), "application/json")
}

// multipartBody 构造 multipart 请求体；files 的 value 为 nil 时跳过该文件字段
type filePart struct {
	field    string
	filename string
	reader   io.Reader
}

func buildMultipart(fields map[string]string, files []filePart) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("写入表单字段失败: %w", err)
		}
	}
	for _, f := range files {
		if f.reader == nil {
			continue
		}
		part, err := writer.CreateFormFile(f.field, f.filename)
		if err != nil {
			return nil, "", fmt.Errorf("创建表单文件失败: %w", err)
		}
		if _, err := io.Copy(part, f.reader); err != nil {
			return nil, "", fmt.Errorf("写入表单文件失败: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

func (c *Client) postMultipart(ctx context.Context, operation, method, path string, fields map[string]string, files []filePart) (*envelope, error) {
	body, contentType, err := buildMultipart(fields, files)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "构造表单请求失败", err)
	}
	return c.do(ctx, operation, method, path, body, contentType)
}
