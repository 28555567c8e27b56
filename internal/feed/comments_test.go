package feed

import (
	"context"
	"testing"

	"github.com/shahdmohamed211/social-app33/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func comment(id, content, authorID string) model.Comment {
	return model.Comment{
		ID:             id,
		Content:        content,
		Post:           "p1",
		CommentCreator: model.Author{ID: authorID},
	}
}

// TestLoadCommentsCachesPerPost 测试评论懒加载：首次拉取后命中缓存，不再请求
func TestLoadCommentsCachesPerPost(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, _ := newTestReconciler(mockAPI, DefaultPolicy())

	mockAPI.On("ListComments", "p1").Return([]model.Comment{comment("c1", "first", "u2")}, nil).Once()

	comments, err := r.LoadComments(context.Background(), "p1")
	assert.NoError(t, err)
	assert.Len(t, comments, 1)

	// 第二次展开：命中缓存
	comments, err = r.LoadComments(context.Background(), "p1")
	assert.NoError(t, err)
	assert.Len(t, comments, 1)
	mockAPI.AssertNumberOfCalls(t, "ListComments", 1)
}

// TestAddCommentRefetches 测试发表评论成功后重新拉取完整列表，
// 以服务器分配的ID和排序为准
func TestAddCommentRefetches(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, _ := newTestReconciler(mockAPI, DefaultPolicy())

	mockAPI.On("CreateComment", "nice", "p1").Return(nil)
	mockAPI.On("ListComments", "p1").Return([]model.Comment{
		comment("c1", "first", "u2"),
		comment("c2", "nice", "u1"),
	}, nil)

	comments, err := r.AddComment(context.Background(), "p1", "nice")
	assert.NoError(t, err)
	assert.Len(t, comments, 2)
	assert.Equal(t, "c2", comments[1].ID)

	// 重新拉取的结果进入缓存
	cached, err := r.LoadComments(context.Background(), "p1")
	assert.NoError(t, err)
	assert.Len(t, cached, 2)
	mockAPI.AssertNumberOfCalls(t, "ListComments", 1)
}

// TestAddCommentEmptyRejected 测试空评论在客户端被拦截，不发出请求
func TestAddCommentEmptyRejected(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, _ := newTestReconciler(mockAPI, DefaultPolicy())

	_, err := r.AddComment(context.Background(), "p1", "  ")
	assert.Error(t, err)
	mockAPI.AssertNotCalled(t, "CreateComment", mock.Anything, mock.Anything)
}

// TestUpdateComment 测试编辑评论先走服务器，成功后修补缓存
func TestUpdateComment(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, _ := newTestReconciler(mockAPI, DefaultPolicy())

	mockAPI.On("ListComments", "p1").Return([]model.Comment{comment("c1", "before", "u1")}, nil)
	_, err := r.LoadComments(context.Background(), "p1")
	assert.NoError(t, err)

	mockAPI.On("UpdateComment", "c1", "after").Return(assert.AnError).Once()
	err = r.UpdateComment(context.Background(), "p1", "c1", "after")
	assert.Error(t, err)

	cached, _ := r.LoadComments(context.Background(), "p1")
	assert.Equal(t, "before", cached[0].Content, "失败时缓存不变")

	mockAPI.On("UpdateComment", "c1", "after").Return(nil).Once()
	err = r.UpdateComment(context.Background(), "p1", "c1", "after")
	assert.NoError(t, err)

	cached, _ = r.LoadComments(context.Background(), "p1")
	assert.Equal(t, "after", cached[0].Content)
}

// TestDeleteComment 测试删除评论成功后从缓存过滤
func TestDeleteComment(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, _ := newTestReconciler(mockAPI, DefaultPolicy())

	mockAPI.On("ListComments", "p1").Return([]model.Comment{
		comment("c1", "first", "u1"),
		comment("c2", "second", "u2"),
	}, nil)
	_, err := r.LoadComments(context.Background(), "p1")
	assert.NoError(t, err)

	mockAPI.On("DeleteComment", "c1").Return(nil)
	err = r.DeleteComment(context.Background(), "p1", "c1")
	assert.NoError(t, err)

	cached, _ := r.LoadComments(context.Background(), "p1")
	assert.Len(t, cached, 1)
	assert.Equal(t, "c2", cached[0].ID)
}

// TestDeletePostDropsCommentCache 测试删除帖子时连带清理它的评论缓存
func TestDeletePostDropsCommentCache(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, _ := newTestReconciler(mockAPI, DefaultPolicy())

	mockAPI.On("ListComments", "p1").Return([]model.Comment{comment("c1", "first", "u1")}, nil).Twice()
	_, err := r.LoadComments(context.Background(), "p1")
	assert.NoError(t, err)

	mockAPI.On("DeletePost", "p1").Return(nil)
	err = r.DeletePost(context.Background(), "p1")
	assert.NoError(t, err)

	// 缓存已失效，再次展开会重新请求
	_, err = r.LoadComments(context.Background(), "p1")
	assert.NoError(t, err)
	mockAPI.AssertNumberOfCalls(t, "ListComments", 2)
}
