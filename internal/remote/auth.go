package remote

import (
	"context"
	"io"
	"net/http"

	"github.com/shahdmohamed211/social-app33/internal/model"
)

// SignupRequest 是注册接口的请求体
type SignupRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	RePassword  string `json:"rePassword"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
}

// Signup 注册新用户
func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	_, err := c.postJSON(ctx, "signup", http.MethodPost, "/users/signup", req)
	return err
}

// Signin 登录并返回会话令牌
func (c *Client) Signin(ctx context.Context, email, password string) (string, *model.User, error) {
	env, err := c.postJSON(ctx, "signin", http.MethodPost, "/users/signin", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", nil, err
	}
	return env.Token, env.User, nil
}

// ChangePassword 修改密码；成功时远程会颁发新令牌
func (c *Client) ChangePassword(ctx context.Context, password, newPassword string) (string, error) {
	env, err := c.postJSON(ctx, "change_password", http.MethodPatch, "/users/change-password", map[string]string{
		"password":    password,
		"newPassword": newPassword,
	})
	if err != nil {
		return "", err
	}
	return env.Token, nil
}

// UploadPhoto 上传头像，表单字段为 photo
func (c *Client) UploadPhoto(ctx context.Context, filename string, photo io.Reader) error {
	_, err := c.postMultipart(ctx, "upload_photo", http.MethodPut, "/users/upload-photo",
		nil, []filePart{{field: "photo", filename: filename, reader: photo}})
	return err
}

// GetProfile 获取当前登录用户的资料
func (c *Client) GetProfile(ctx context.Context) (*model.User, error) {
	env, err := c.do(ctx, "get_profile", http.MethodGet, "/users/profile-data", nil, "")
	if err != nil {
		return nil, err
	}
	return env.User, nil
}
