package errors

import "fmt"

// ErrorCode 定义错误码类型
type ErrorCode int

// 定义系统级错误码 (1000-1999)
const (
	ErrInternal ErrorCode = 1000 + iota
	ErrTimeout
)

// 定义认证相关错误码 (2000-2999)：触发强制登出并跳转登录
const (
	ErrUnauthorized ErrorCode = 2000 + iota
	ErrInvalidToken
	ErrTokenExpired
	ErrInvalidCredentials
)

// 定义请求相关错误码 (3000-3999)
const (
	ErrRequest ErrorCode = 3000 + iota
	ErrValidation
	ErrNotFound
	ErrRemoteRejected
)

// AppError 定义应用错误结构
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装已有错误
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf 提取错误码；非 AppError 一律视为内部错误
func CodeOf(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrInternal
}

// IsAuth 判断是否为认证类错误（需要强制登出）
func IsAuth(err error) bool {
	code := CodeOf(err)
	return code >= 2000 && code < 3000
}

// IsNotFound 判断是否为资源不存在错误
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrNotFound
}

// IsValidation 判断是否为客户端校验错误（请求未发出）
func IsValidation(err error) bool {
	return CodeOf(err) == ErrValidation
}
