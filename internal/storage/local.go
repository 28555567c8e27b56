package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/shahdmohamed211/social-app33/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocalStorage 把浏览器上传的文件暂存到本地目录，转发给远程 API
// 之后即删除。暂存文件不参与任何持久化保证。
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("创建暂存目录失败: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Stage 保存上传文件并返回暂存路径
func (s *LocalStorage) Stage(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	fullPath := filepath.Join(s.basePath, uuid.NewString()+filepath.Ext(file.Filename))

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("创建暂存文件失败: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("保存暂存文件失败: %w", err)
	}

	util.Logger.Debug("文件已暂存", zap.String("fullPath", fullPath))
	return fullPath, nil
}

// Open 打开暂存文件用于转发
func (s *LocalStorage) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Remove 删除暂存文件，转发完成后调用
func (s *LocalStorage) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		util.Logger.Warn("删除暂存文件失败", zap.String("path", path), zap.Error(err))
	}
}
