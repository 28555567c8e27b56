package feed

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shahdmohamed211/social-app33/internal/model"
	"github.com/shahdmohamed211/social-app33/internal/notify"
	"github.com/shahdmohamed211/social-app33/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func init() {
	util.InitLogger("error")
}

// MockPostsAPI 是 PostsAPI 接口的模拟实现
type MockPostsAPI struct {
	mock.Mock
}

func (m *MockPostsAPI) ListPosts(ctx context.Context, limit, page int) ([]model.Post, error) {
	args := m.Called(limit, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Post), args.Error(1)
}

func (m *MockPostsAPI) UserPosts(ctx context.Context, userID string, limit int) ([]model.Post, error) {
	args := m.Called(userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Post), args.Error(1)
}

func (m *MockPostsAPI) CreatePost(ctx context.Context, body, imageName string, image io.Reader) (*model.Post, error) {
	args := m.Called(body, imageName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostsAPI) UpdatePost(ctx context.Context, postID, body string) error {
	args := m.Called(postID, body)
	return args.Error(0)
}

func (m *MockPostsAPI) DeletePost(ctx context.Context, postID string) error {
	args := m.Called(postID)
	return args.Error(0)
}

func (m *MockPostsAPI) ToggleLike(ctx context.Context, postID string) error {
	args := m.Called(postID)
	return args.Error(0)
}

func (m *MockPostsAPI) CreateComment(ctx context.Context, content, postID string) error {
	args := m.Called(content, postID)
	return args.Error(0)
}

func (m *MockPostsAPI) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	args := m.Called(postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Comment), args.Error(1)
}

func (m *MockPostsAPI) UpdateComment(ctx context.Context, commentID, content string) error {
	args := m.Called(commentID, content)
	return args.Error(0)
}

func (m *MockPostsAPI) DeleteComment(ctx context.Context, commentID string) error {
	args := m.Called(commentID)
	return args.Error(0)
}

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func serverPost(id, body, authorID string, createdAt time.Time) model.Post {
	return model.Post{
		ID:        id,
		Body:      body,
		User:      model.Author{ID: authorID, Name: "user-" + authorID},
		Likes:     []string{},
		CreatedAt: createdAt,
	}
}

func newTestReconciler(api *MockPostsAPI, policy Policy) (*Reconciler, *notify.Recorder) {
	recorder := &notify.Recorder{}
	return NewReconciler(api, recorder, 50, policy), recorder
}

// TestRefreshDeduplicates 测试全局流和个人流重叠时合并结果不含重复ID，
// 且本人帖子以个人流的版本为准
func TestRefreshDeduplicates(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, _ := newTestReconciler(mockAPI, DefaultPolicy())
	user := &model.User{ID: "u1", Name: "user-u1"}

	global := []model.Post{
		serverPost("p1", "stale body", "u1", baseTime),
		serverPost("p2", "second", "u2", baseTime.Add(-time.Hour)),
	}
	own := []model.Post{
		serverPost("p1", "edited body", "u1", baseTime),
		serverPost("p3", "third", "u1", baseTime.Add(-2*time.Hour)),
	}

	mockAPI.On("ListPosts", 50, 1).Return(global, nil)
	mockAPI.On("UserPosts", "u1", 50).Return(own, nil)

	merged, err := r.Refresh(context.Background(), 1, user)
	assert.NoError(t, err)
	assert.Len(t, merged, 3)

	seen := make(map[string]int)
	for _, post := range merged {
		seen[post.ID]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "帖子 %s 出现了 %d 次", id, count)
	}

	// 个人流的版本覆盖全局流
	for _, post := range merged {
		if post.ID == "p1" {
			assert.Equal(t, "edited body", post.Body)
		}
	}
	mockAPI.AssertExpectations(t)
}

// TestRefreshSortsDescending 测试任意输入顺序下结果都按创建时间倒序
func TestRefreshSortsDescending(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, _ := newTestReconciler(mockAPI, DefaultPolicy())

	global := []model.Post{
		serverPost("old", "old", "u2", baseTime.Add(-48*time.Hour)),
		serverPost("newest", "newest", "u2", baseTime),
		serverPost("mid", "mid", "u3", baseTime.Add(-time.Hour)),
	}
	mockAPI.On("ListPosts", 50, 1).Return(global, nil)

	// 未登录视图：不请求个人流
	merged, err := r.Refresh(context.Background(), 1, nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{"newest", "mid", "old"}, []string{merged[0].ID, merged[1].ID, merged[2].ID})
	mockAPI.AssertNotCalled(t, "UserPosts", mock.Anything, mock.Anything)
}

// TestRefreshConfirmsPendingPost 测试待确认帖子被服务器数据匹配后
// 从待确认集合移除，合并结果只保留服务器身份
func TestRefreshConfirmsPendingPost(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, _ := newTestReconciler(mockAPI, DefaultPolicy())
	user := &model.User{ID: "u1", Name: "user-u1"}

	// 服务器没有回显新帖子，临时帖子进入待确认集合
	mockAPI.On("CreatePost", "hi", "").Return(nil, nil)
	_, err := r.CreatePost(context.Background(), "hi", "", nil, user)
	assert.NoError(t, err)
	assert.Len(t, r.Pending(), 1)

	// 下一次刷新时服务器已经有这条帖子了
	global := []model.Post{serverPost("s1", "hi", "u1", time.Now())}
	mockAPI.On("ListPosts", 50, 1).Return(global, nil)
	mockAPI.On("UserPosts", "u1", 50).Return([]model.Post{}, nil)

	merged, err := r.Refresh(context.Background(), 1, user)
	assert.NoError(t, err)
	assert.Empty(t, r.Pending())
	assert.Len(t, merged, 1)
	assert.Equal(t, "s1", merged[0].ID)
}

// TestRefreshKeepsUnmatchedPending 测试未被服务器确认的待确认帖子保留在视图中
func TestRefreshKeepsUnmatchedPending(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, _ := newTestReconciler(mockAPI, DefaultPolicy())
	user := &model.User{ID: "u1", Name: "user-u1"}

	mockAPI.On("CreatePost", "not yet on server", "").Return(nil, nil)
	_, err := r.CreatePost(context.Background(), "not yet on server", "", nil, user)
	assert.NoError(t, err)

	global := []model.Post{serverPost("p9", "unrelated", "u2", baseTime)}
	mockAPI.On("ListPosts", 50, 1).Return(global, nil)
	mockAPI.On("UserPosts", "u1", 50).Return([]model.Post{}, nil)

	merged, err := r.Refresh(context.Background(), 1, user)
	assert.NoError(t, err)
	assert.Len(t, r.Pending(), 1)
	assert.Len(t, merged, 2)
	assert.True(t, merged[0].IsLocal(), "最新的待确认帖子应排在最前")
}

// TestRefreshFailsWhenEitherFetchFails 测试任一来源失败则整体失败，不做部分回退
func TestRefreshFailsWhenEitherFetchFails(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, _ := newTestReconciler(mockAPI, DefaultPolicy())
	user := &model.User{ID: "u1"}

	mockAPI.On("ListPosts", 50, 1).Return([]model.Post{serverPost("p1", "a", "u2", baseTime)}, nil)
	mockAPI.On("UserPosts", "u1", 50).Return(nil, assert.AnError)

	_, err := r.Refresh(context.Background(), 1, user)
	assert.Error(t, err)
}

// TestCreatePostEmptyRejected 测试空帖子在客户端被拦截，不发出任何请求
func TestCreatePostEmptyRejected(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, _ := newTestReconciler(mockAPI, DefaultPolicy())
	user := &model.User{ID: "u1"}

	_, err := r.CreatePost(context.Background(), "   ", "", nil, user)
	assert.Error(t, err)
	assert.Empty(t, r.View())
	mockAPI.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything)

	// 未登录同样被拦截
	_, err = r.CreatePost(context.Background(), "hello", "", nil, nil)
	assert.Error(t, err)
	mockAPI.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything)
}

// TestCreatePostImageOnly 测试纯图片帖子：乐观条目以文件名充当图片占位，
// 保持正文和图片至少一个非空
func TestCreatePostImageOnly(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, _ := newTestReconciler(mockAPI, DefaultPolicy())
	user := &model.User{ID: "u1", Name: "user-u1"}

	mockAPI.On("CreatePost", "", "pic.png").Return(nil, nil)

	post, err := r.CreatePost(context.Background(), "", "pic.png", strings.NewReader("fake-png"), user)
	assert.NoError(t, err)
	assert.Empty(t, post.Body)
	assert.Equal(t, "pic.png", post.Image)

	view := r.View()
	assert.Len(t, view, 1)
	assert.NotEmpty(t, view[0].Image, "待确认帖子不能正文和图片同时为空")
	assert.Len(t, r.Pending(), 1)
}

// TestCreatePostEchoAfterRefreshNoDuplicate 测试发帖请求在途时一次刷新
// 先把服务器帖子带进视图（纯图片帖子正文为空，不会被匹配确认）：
// 收敛阶段应丢弃临时帖子而不是再次替换，同一服务器ID只出现一次
func TestCreatePostEchoAfterRefreshNoDuplicate(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, _ := newTestReconciler(mockAPI, DefaultPolicy())
	user := &model.User{ID: "u1", Name: "user-u1"}

	echoed := serverPost("s1", "", "u1", time.Now())
	echoed.Image = "pic.png"

	mockAPI.On("ListPosts", 50, 1).Return([]model.Post{echoed}, nil)
	mockAPI.On("UserPosts", "u1", 50).Return([]model.Post{}, nil)
	mockAPI.On("CreatePost", "", "pic.png").Run(func(args mock.Arguments) {
		// 请求在途时刷新先完成
		_, refreshErr := r.Refresh(context.Background(), 1, user)
		assert.NoError(t, refreshErr)
	}).Return(&echoed, nil)

	post, err := r.CreatePost(context.Background(), "", "pic.png", strings.NewReader("fake-png"), user)
	assert.NoError(t, err)
	assert.Equal(t, "s1", post.ID)

	counts := make(map[string]int)
	for _, p := range r.View() {
		counts[p.ID]++
	}
	assert.Equal(t, 1, counts["s1"], "服务器ID在视图中只出现一次")
	assert.Len(t, r.View(), 1)
	assert.Empty(t, r.Pending())
}

// TestCreatePostEchoReplacesTemp 测试服务器回显新帖子时临时帖子被服务器身份替换
func TestCreatePostEchoReplacesTemp(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, recorder := newTestReconciler(mockAPI, DefaultPolicy())
	user := &model.User{ID: "u1", Name: "user-u1"}

	echoed := serverPost("s7", "hello world", "u1", time.Now())
	mockAPI.On("CreatePost", "hello world", "").Return(&echoed, nil)

	post, err := r.CreatePost(context.Background(), "hello world", "", nil, user)
	assert.NoError(t, err)
	assert.Equal(t, "s7", post.ID)

	view := r.View()
	assert.Len(t, view, 1)
	assert.Equal(t, "s7", view[0].ID)
	assert.Empty(t, r.Pending())
	assert.Contains(t, recorder.Successes, "帖子发布成功")
}

// TestCreatePostFailureKeepsOptimistic 测试默认策略下发帖失败不回滚乐观插入
func TestCreatePostFailureKeepsOptimistic(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, recorder := newTestReconciler(mockAPI, DefaultPolicy())
	user := &model.User{ID: "u1", Name: "user-u1"}

	mockAPI.On("CreatePost", "doomed", "").Return(nil, assert.AnError)

	_, err := r.CreatePost(context.Background(), "doomed", "", nil, user)
	assert.Error(t, err)
	assert.Len(t, r.View(), 1, "失败后乐观插入的帖子仍然可见")
	assert.True(t, r.View()[0].IsLocal())
	assert.Contains(t, recorder.Errors, "发布帖子失败")
}

// TestCreatePostFailureRollback 测试开启回滚策略后发帖失败移除乐观插入
func TestCreatePostFailureRollback(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	policy := DefaultPolicy()
	policy.RollbackCreate = true
	r, _ := newTestReconciler(mockAPI, policy)
	user := &model.User{ID: "u1"}

	mockAPI.On("CreatePost", "doomed", "").Return(nil, assert.AnError)

	_, err := r.CreatePost(context.Background(), "doomed", "", nil, user)
	assert.Error(t, err)
	assert.Empty(t, r.View())
	assert.Empty(t, r.Pending())
}

// TestToggleLikeOptimistic 测试点赞本地同步翻转，请求失败默认不复原
func TestToggleLikeOptimistic(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, _ := newTestReconciler(mockAPI, DefaultPolicy())
	user := &model.User{ID: "u1"}

	mockAPI.On("ListPosts", 50, 1).Return([]model.Post{serverPost("p1", "a", "u2", baseTime)}, nil)
	mockAPI.On("UserPosts", "u1", 50).Return([]model.Post{}, nil)
	_, err := r.Refresh(context.Background(), 1, user)
	assert.NoError(t, err)

	// 模拟点赞请求失败：本地翻转保留，错误被抑制
	mockAPI.On("ToggleLike", "p1").Return(assert.AnError)

	err = r.ToggleLike(context.Background(), "p1", user)
	assert.NoError(t, err, "失败被抑制，不向调用方传播")
	assert.True(t, r.View()[0].LikedBy("u1"), "本地翻转在失败后保留")

	// 再翻转一次回到未点赞
	err = r.ToggleLike(context.Background(), "p1", user)
	assert.NoError(t, err)
	assert.False(t, r.View()[0].LikedBy("u1"))
}

// TestToggleLikeRollback 测试开启回滚策略后点赞失败复原本地状态并返回错误
func TestToggleLikeRollback(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	policy := DefaultPolicy()
	policy.RollbackLike = true
	r, _ := newTestReconciler(mockAPI, policy)
	user := &model.User{ID: "u1"}

	mockAPI.On("ListPosts", 50, 1).Return([]model.Post{serverPost("p1", "a", "u2", baseTime)}, nil)
	mockAPI.On("UserPosts", "u1", 50).Return([]model.Post{}, nil)
	_, err := r.Refresh(context.Background(), 1, user)
	assert.NoError(t, err)

	mockAPI.On("ToggleLike", "p1").Return(assert.AnError)

	err = r.ToggleLike(context.Background(), "p1", user)
	assert.Error(t, err)
	assert.False(t, r.View()[0].LikedBy("u1"))
}

// TestDeletePost 测试帖子只在删除请求成功后才从视图移除
func TestDeletePost(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, recorder := newTestReconciler(mockAPI, DefaultPolicy())

	mockAPI.On("ListPosts", 50, 1).Return([]model.Post{
		serverPost("p1", "a", "u1", baseTime),
		serverPost("p2", "b", "u2", baseTime.Add(-time.Hour)),
	}, nil)
	_, err := r.Refresh(context.Background(), 1, nil)
	assert.NoError(t, err)

	// 模拟删除失败：帖子保留，错误可见
	mockAPI.On("DeletePost", "p1").Return(assert.AnError).Once()
	err = r.DeletePost(context.Background(), "p1")
	assert.Error(t, err)
	assert.Len(t, r.View(), 2)
	assert.Contains(t, recorder.Errors, "删除帖子失败")

	// 删除成功后移除
	mockAPI.On("DeletePost", "p1").Return(nil).Once()
	err = r.DeletePost(context.Background(), "p1")
	assert.NoError(t, err)
	assert.Len(t, r.View(), 1)
	assert.Equal(t, "p2", r.View()[0].ID)
}

// TestUpdatePost 测试编辑先走服务器，失败时视图不变
func TestUpdatePost(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, _ := newTestReconciler(mockAPI, DefaultPolicy())

	mockAPI.On("ListPosts", 50, 1).Return([]model.Post{serverPost("p1", "before", "u1", baseTime)}, nil)
	_, err := r.Refresh(context.Background(), 1, nil)
	assert.NoError(t, err)

	mockAPI.On("UpdatePost", "p1", "after").Return(assert.AnError).Once()
	err = r.UpdatePost(context.Background(), "p1", "after")
	assert.Error(t, err)
	assert.Equal(t, "before", r.View()[0].Body)

	mockAPI.On("UpdatePost", "p1", "after").Return(nil).Once()
	err = r.UpdatePost(context.Background(), "p1", "after")
	assert.NoError(t, err)
	assert.Equal(t, "after", r.View()[0].Body)
}

// TestRefreshLastWriteWins 测试关闭序号保护时，后完成的刷新响应覆盖视图，
// 与发起顺序无关
func TestRefreshLastWriteWins(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	policy := DefaultPolicy()
	policy.DropStaleRefresh = false
	r, _ := newTestReconciler(mockAPI, policy)

	page1 := []model.Post{serverPost("page1-post", "a", "u1", baseTime)}
	page2 := []model.Post{serverPost("page2-post", "b", "u2", baseTime)}

	started := make(chan struct{})
	release := make(chan struct{})

	// 第1页的响应被挂起，第2页先完成
	mockAPI.On("ListPosts", 50, 1).Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(page1, nil)
	mockAPI.On("ListPosts", 50, 2).Return(page2, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = r.Refresh(context.Background(), 1, nil)
	}()

	<-started
	_, err := r.Refresh(context.Background(), 2, nil)
	assert.NoError(t, err)

	close(release)
	<-done

	// 第1页的响应最后落地，按 last-write-wins 覆盖了第2页
	view := r.View()
	assert.Len(t, view, 1)
	assert.Equal(t, "page1-post", view[0].ID)
}

// TestRefreshDropsStaleResponse 测试开启序号保护后，乱序到达的旧响应被丢弃
func TestRefreshDropsStaleResponse(t *testing.T) {
	mockAPI := new(MockPostsAPI)
	r, _ := newTestReconciler(mockAPI, DefaultPolicy())

	page1 := []model.Post{serverPost("page1-post", "a", "u1", baseTime)}
	page2 := []model.Post{serverPost("page2-post", "b", "u2", baseTime)}

	started := make(chan struct{})
	release := make(chan struct{})

	mockAPI.On("ListPosts", 50, 1).Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(page1, nil)
	mockAPI.On("ListPosts", 50, 2).Return(page2, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = r.Refresh(context.Background(), 1, nil)
	}()

	<-started
	_, err := r.Refresh(context.Background(), 2, nil)
	assert.NoError(t, err)

	close(release)
	<-done

	// 第1页的响应虽然最后落地，但序号已过期，视图保持第2页
	view := r.View()
	assert.Len(t, view, 1)
	assert.Equal(t, "page2-post", view[0].ID)
}
