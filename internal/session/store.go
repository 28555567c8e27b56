// Package session 管理会话令牌和当前用户身份。
// 令牌以单个字符串持久化在固定路径的文件里，对应浏览器
// localStorage 中的 userToken 键，启动时读取以恢复会话。
package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shahdmohamed211/social-app33/internal/model"
	"github.com/shahdmohamed211/social-app33/internal/util"

	"go.uber.org/zap"
)

// ProfileFetcher 获取当前登录用户的资料
type ProfileFetcher interface {
	GetProfile(ctx context.Context) (*model.User, error)
}

// Store 持有会话状态；进程内唯一，所有方法并发安全
type Store struct {
	tokenFile string

	mu    sync.RWMutex
	token string
	user  *model.User
}

// NewStore 创建会话存储并尝试从文件恢复令牌
func NewStore(tokenFile string) *Store {
	s := &Store{tokenFile: tokenFile}

	data, err := os.ReadFile(tokenFile)
	if err == nil {
		s.token = strings.TrimSpace(string(data))
	}
	return s
}

// Token 返回当前令牌，未登录时为空串。实现 remote.TokenProvider。
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SignedIn 判断当前是否持有令牌
func (s *Store) SignedIn() bool {
	return s.Token() != ""
}

// SaveToken 持久化新令牌并更新内存状态
func (s *Store) SaveToken(token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.tokenFile), 0700); err != nil {
		return err
	}
	return os.WriteFile(s.tokenFile, []byte(token), 0600)
}

// Clear 登出：清除令牌文件和内存中的用户数据
func (s *Store) Clear() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := os.Remove(s.tokenFile); err != nil && !os.IsNotExist(err) {
		util.Logger.Warn("删除令牌文件失败", zap.Error(err))
	}
}

// CurrentUser 返回当前用户资料，未知时为 nil
func (s *Store) CurrentUser() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SetUser 更新内存中的用户资料
func (s *Store) SetUser(user *model.User) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

// ResolveUser 确定当前用户身份：优先请求个人资料接口，
// 失败时退回解析令牌载荷，两者都失败则清除会话。
func (s *Store) ResolveUser(ctx context.Context, fetcher ProfileFetcher) *model.User {
	token := s.Token()
	if token == "" {
		return nil
	}

	user, err := fetcher.GetProfile(ctx)
	if err == nil && user != nil {
		s.SetUser(user)
		return user
	}
	util.Logger.Warn("获取个人资料失败，尝试从令牌恢复身份", zap.Error(err))

	claims, peekErr := util.PeekToken(token)
	if peekErr != nil {
		util.Logger.Warn("令牌解析失败，清除会话", zap.Error(peekErr))
		s.Clear()
		return nil
	}

	fallback := &model.User{
		ID:    claims.UserID,
		Name:  claims.Name,
		Email: claims.Email,
	}
	s.SetUser(fallback)
	return fallback
}
