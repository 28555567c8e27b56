// Package feed 实现信息流的合并与乐观更新。
// 它把全局信息流、用户自己的帖子和本地待确认的帖子合并成一份
// 去重且按时间倒序的列表，并对点赞、发帖、编辑、删除提供先改
// 视图后请求的乐观语义，待服务器确认后收敛。
package feed

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shahdmohamed211/social-app33/internal/errors"
	"github.com/shahdmohamed211/social-app33/internal/model"
	"github.com/shahdmohamed211/social-app33/internal/notify"
	"github.com/shahdmohamed211/social-app33/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostsAPI 是协调器依赖的远程操作集合
type PostsAPI interface {
	ListPosts(ctx context.Context, limit, page int) ([]model.Post, error)
	UserPosts(ctx context.Context, userID string, limit int) ([]model.Post, error)
	CreatePost(ctx context.Context, body, imageName string, image io.Reader) (*model.Post, error)
	UpdatePost(ctx context.Context, postID, body string) error
	DeletePost(ctx context.Context, postID string) error
	ToggleLike(ctx context.Context, postID string) error
	CreateComment(ctx context.Context, content, postID string) error
	ListComments(ctx context.Context, postID string) ([]model.Comment, error)
	UpdateComment(ctx context.Context, commentID, content string) error
	DeleteComment(ctx context.Context, commentID string) error
}

// Policy 显式声明乐观更新的回滚与并发策略
type Policy struct {
	Match MatchStrategy
	// RollbackCreate 为 true 时，发帖失败会移除乐观插入的帖子；
	// 源行为是保留，由用户手动清理
	RollbackCreate bool
	// RollbackLike 为 true 时，点赞失败会把本地翻转复原；
	// 源行为是保留翻转，等下一次刷新收敛
	RollbackLike bool
	// DropStaleRefresh 为 true 时，刷新响应乱序到达会被丢弃，
	// 否则后完成的响应直接覆盖视图（last-write-wins）
	DropStaleRefresh bool
}

// DefaultPolicy 返回默认策略：不回滚、丢弃过期刷新
func DefaultPolicy() Policy {
	return Policy{
		Match:            DefaultMatch,
		DropStaleRefresh: true,
	}
}

// Reconciler 持有信息流视图状态。待确认帖子集合是协调器自己
// 拥有的状态，随每次刷新显式传入合并并收缩。
type Reconciler struct {
	api      PostsAPI
	notifier notify.Notifier
	pageSize int
	policy   Policy

	refreshGen uint64 // 单调递增的刷新序号

	mu       sync.Mutex
	view     []model.Post
	pending  []model.Post
	comments map[string][]model.Comment
	loaded   map[string]bool
}

// NewReconciler 创建信息流协调器
func NewReconciler(api PostsAPI, notifier notify.Notifier, pageSize int, policy Policy) *Reconciler {
	if policy.Match == nil {
		policy.Match = DefaultMatch
	}
	return &Reconciler{
		api:      api,
		notifier: notifier,
		pageSize: pageSize,
		policy:   policy,
		comments: make(map[string][]model.Comment),
		loaded:   make(map[string]bool),
	}
}

// View 返回当前视图的副本
func (r *Reconciler) View() []model.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Post(nil), r.view...)
}

// Pending 返回当前待确认帖子的副本
func (r *Reconciler) Pending() []model.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Post(nil), r.pending...)
}

// Refresh 重建信息流视图：并发拉取全局信息流和当前用户自己的
// 帖子，任一失败则整体失败。合并结果去重且按创建时间倒序，
// 已被服务器确认的待确认帖子只以服务器身份出现一次。
func (r *Reconciler) Refresh(ctx context.Context, page int, currentUser *model.User) ([]model.Post, error) {
	if page < 1 {
		page = 1
	}
	gen := atomic.AddUint64(&r.refreshGen, 1)

	var (
		wg        sync.WaitGroup
		global    []model.Post
		own       []model.Post
		globalErr error
		ownErr    error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		global, globalErr = r.api.ListPosts(ctx, r.pageSize, page)
	}()

	if currentUser != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			own, ownErr = r.api.UserPosts(ctx, currentUser.ID, r.pageSize)
		}()
	}
	wg.Wait()

	if globalErr != nil {
		return nil, globalErr
	}
	if ownErr != nil {
		return nil, ownErr
	}

	currentUserID := ""
	if currentUser != nil {
		currentUserID = currentUser.ID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// 响应乱序到达：按策略丢弃过期响应，保留现有视图
	if r.policy.DropStaleRefresh && gen != atomic.LoadUint64(&r.refreshGen) {
		staleRefreshesDropped.Inc()
		util.Logger.Debug("丢弃过期的刷新响应",
			zap.Uint64("generation", gen),
			zap.Int("page", page))
		return append([]model.Post(nil), r.view...), nil
	}

	merged, remaining := mergeFeed(global, own, r.pending, currentUserID, r.policy.Match)
	pendingConfirmed.Add(float64(len(r.pending) - len(remaining)))
	feedMerges.Inc()

	r.pending = remaining
	r.view = merged
	return append([]model.Post(nil), r.view...), nil
}

// mergeFeed 是纯函数形式的合并核心：先放全局帖子，再用用户自己
// 的帖子覆盖同ID条目（对本人帖子以个人流为准），然后对每条待确认
// 帖子查找匹配的服务器帖子，命中则视为已确认丢弃，未命中且ID不冲
// 突则保留插入。返回合并列表和收缩后的待确认集合。
func mergeFeed(global, own, pending []model.Post, currentUserID string, match MatchStrategy) ([]model.Post, []model.Post) {
	merged := make(map[string]model.Post, len(global)+len(own))
	order := make([]string, 0, len(global)+len(own)+len(pending))

	for _, post := range global {
		if _, seen := merged[post.ID]; !seen {
			order = append(order, post.ID)
		}
		merged[post.ID] = post
	}
	for _, post := range own {
		if _, seen := merged[post.ID]; !seen {
			order = append(order, post.ID)
		}
		merged[post.ID] = post
	}

	var remaining []model.Post
	for i := range pending {
		local := pending[i]

		confirmed := false
		for id := range merged {
			server := merged[id]
			if server.IsLocal() {
				continue
			}
			if match(&local, &server, currentUserID) {
				confirmed = true
				break
			}
		}
		if confirmed {
			continue
		}
		if _, exists := merged[local.ID]; exists {
			continue
		}

		remaining = append(remaining, local)
		merged[local.ID] = local
		order = append(order, local.ID)
	}

	result := make([]model.Post, 0, len(order))
	for _, id := range order {
		result = append(result, merged[id])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, remaining
}

// CreatePost 发布帖子：先把带临时ID的帖子乐观插入视图头部，再发
// 起请求。服务器回显新帖子时用服务器身份替换临时帖子；未回显时
// 临时帖子留在待确认集合，交给后续 Refresh 收敛。
func (r *Reconciler) CreatePost(ctx context.Context, body string, imageName string, image io.Reader, currentUser *model.User) (*model.Post, error) {
	if currentUser == nil {
		return nil, errors.New(errors.ErrUnauthorized, "发帖前请先登录")
	}
	if strings.TrimSpace(body) == "" && image == nil {
		return nil, errors.New(errors.ErrValidation, "帖子需要正文或图片")
	}

	local := model.Post{
		ID:   model.LocalIDPrefix + uuid.NewString(),
		Body: body,
		User: model.Author{
			ID:    currentUser.ID,
			Name:  currentUser.Name,
			Photo: currentUser.Photo,
		},
		Likes:     []string{},
		CreatedAt: time.Now(),
	}
	if image != nil {
		// 服务器确认前用上传文件名充当图片占位，保证纯图片帖子
		// 也满足正文和图片至少一个非空
		local.Image = imageName
	}

	r.applyOptimisticCreate(local)

	created, err := r.api.CreatePost(ctx, body, imageName, image)
	post := r.reconcileCreate(local.ID, created, err)
	if err != nil {
		r.notifier.Error("发布帖子失败")
		return nil, err
	}

	r.notifier.Success("帖子发布成功")
	return post, nil
}

// applyOptimisticCreate 是乐观阶段：视图头部插入，登记待确认
func (r *Reconciler) applyOptimisticCreate(local model.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append([]model.Post{local}, r.pending...)
	r.view = append([]model.Post{local}, r.view...)
}

// reconcileCreate 是收敛阶段：根据服务器结果替换、保留或回滚临时帖子
func (r *Reconciler) reconcileCreate(localID string, created *model.Post, reqErr error) *model.Post {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reqErr != nil {
		// 源行为：失败时不回滚乐观插入，仅在策略开启时移除
		if r.policy.RollbackCreate {
			r.removeLocked(localID)
		}
		return nil
	}

	if created == nil {
		// 服务器没有回显新帖子，临时帖子保持待确认状态
		for i := range r.pending {
			if r.pending[i].ID == localID {
				return &r.pending[i]
			}
		}
		return nil
	}

	// 请求在途时的刷新可能已经把服务器身份带进视图（临时帖子
	// 未被匹配确认时），此时直接丢弃临时帖子，避免同一服务器ID
	// 出现两次
	for i := range r.view {
		if r.view[i].ID == created.ID {
			r.removeLocked(localID)
			return created
		}
	}

	// 用服务器身份替换临时帖子
	for i := range r.view {
		if r.view[i].ID == localID {
			r.view[i] = *created
			break
		}
	}
	r.dropPendingLocked(localID)
	return created
}

// ToggleLike 切换点赞：本地状态同步翻转后才发请求；请求失败默认
// 不复原（已知的最终一致性缺口），点赞数可能暂时偏离服务器，
// 直到下一次 Refresh 收敛。
func (r *Reconciler) ToggleLike(ctx context.Context, postID string, currentUser *model.User) error {
	if currentUser == nil {
		return errors.New(errors.ErrUnauthorized, "点赞前请先登录")
	}

	r.applyOptimisticLike(postID, currentUser.ID)

	if err := r.api.ToggleLike(ctx, postID); err != nil {
		if r.policy.RollbackLike {
			r.applyOptimisticLike(postID, currentUser.ID)
			return err
		}
		// 源行为：抑制失败，留待刷新收敛
		util.Logger.Debug("点赞请求失败，保留本地翻转", zap.String("postId", postID), zap.Error(err))
	}
	return nil
}

// applyOptimisticLike 翻转指定帖子的点赞状态
func (r *Reconciler) applyOptimisticLike(postID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.view {
		if r.view[i].ID != postID {
			continue
		}
		if r.view[i].LikedBy(userID) {
			likes := r.view[i].Likes[:0:0]
			for _, id := range r.view[i].Likes {
				if id != userID {
					likes = append(likes, id)
				}
			}
			r.view[i].Likes = likes
		} else {
			r.view[i].Likes = append(r.view[i].Likes, userID)
		}
		return
	}
}

// UpdatePost 编辑帖子：先请求后改视图，失败时状态保持不变
func (r *Reconciler) UpdatePost(ctx context.Context, postID, newBody string) error {
	if strings.TrimSpace(newBody) == "" {
		return errors.New(errors.ErrValidation, "帖子正文不能为空")
	}

	if err := r.api.UpdatePost(ctx, postID, newBody); err != nil {
		r.notifier.Error("更新帖子失败")
		return err
	}

	r.mu.Lock()
	for i := range r.view {
		if r.view[i].ID == postID {
			r.view[i].Body = newBody
			break
		}
	}
	r.mu.Unlock()

	r.notifier.Success("帖子已更新")
	return nil
}

// DeletePost 删除帖子：只有删除请求成功后才从视图移除
func (r *Reconciler) DeletePost(ctx context.Context, postID string) error {
	if err := r.api.DeletePost(ctx, postID); err != nil {
		r.notifier.Error("删除帖子失败")
		return err
	}

	r.mu.Lock()
	r.removeLocked(postID)
	delete(r.comments, postID)
	delete(r.loaded, postID)
	r.mu.Unlock()

	r.notifier.Success("帖子已删除")
	return nil
}

// removeLocked 从视图和待确认集合中移除指定帖子，需持有锁
func (r *Reconciler) removeLocked(postID string) {
	view := r.view[:0:0]
	for _, post := range r.view {
		if post.ID != postID {
			view = append(view, post)
		}
	}
	r.view = view
	r.dropPendingLocked(postID)
}

func (r *Reconciler) dropPendingLocked(postID string) {
	pending := r.pending[:0:0]
	for _, post := range r.pending {
		if post.ID != postID {
			pending = append(pending, post)
		}
	}
	r.pending = pending
}
