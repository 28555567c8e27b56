package util

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// TokenClaims 是从远程 API 颁发的令牌中提取的身份信息。
// 令牌由远程服务器签名，客户端没有密钥，因此只做不验证签名的解析。
type TokenClaims struct {
	UserID string
	Name   string
	Email  string
	Expiry time.Time
}

// PeekToken 解析令牌载荷，作为获取个人资料失败时的身份兜底
func PeekToken(tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, errors.New("令牌为空")
	}

	parser := jwt.Parser{}
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("无效的令牌载荷")
	}

	tc := &TokenClaims{}
	if v, ok := claims["user"].(string); ok {
		tc.UserID = v
	}
	if v, ok := claims["_id"].(string); ok && tc.UserID == "" {
		tc.UserID = v
	}
	if v, ok := claims["name"].(string); ok {
		tc.Name = v
	}
	if v, ok := claims["email"].(string); ok {
		tc.Email = v
	}
	if v, ok := claims["exp"].(float64); ok {
		tc.Expiry = time.Unix(int64(v), 0)
	}

	if tc.UserID == "" {
		return nil, errors.New("令牌中缺少用户ID")
	}
	return tc, nil
}

// IsTokenExpired 判断令牌是否已过期；无法解析的令牌视为已过期
func IsTokenExpired(tokenString string) bool {
	claims, err := PeekToken(tokenString)
	if err != nil {
		return true
	}
	if claims.Expiry.IsZero() {
		return false
	}
	return time.Now().After(claims.Expiry)
}
