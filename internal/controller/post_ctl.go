package controller

import (
	"errors"

	"github.com/gin-gonic/gin"

	"instafeed_dev_v1_202608/internal/api/dto"
	"instafeed_dev_v1_202608/internal/repository"
	"instafeed_dev_v1_202608/internal/service"
)

type PostController struct {
	postService *service.PostService
}

func NewPostController(postService *service.PostService) *PostController {
	return &PostController{postService: postService}
}

// ==================== 查询接口 ====================

// GetPosts 获取账号帖子 (带筛选)
// @Summary 获取指定账号的帖子列表，可按关键词和媒体类型筛选
// @Tags Post
// @Param username query string true "Instagram 用户名"
// @Param search query string false "正文关键词"
// @Param media_type query string false "媒体类型 all|IMAGE|VIDEO"
// @Success 200 {object} dto.PostListResp
// @Router /api/posts [get]
func (ctrl *PostController) GetPosts(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(400, gin.H{"code": 400, "message": "缺少 username"})
		return
	}

	search := c.Query("search")
	mediaType := c.DefaultQuery("media_type", "all")

	ctx := c.Request.Context()

	var posts []dto.PostResp
	if search == "" && (mediaType == "" || mediaType == "all") {
		// 无筛选条件：走缓存优先的加载路径，空库时会触发首次拉取
		loaded, err := ctrl.postService.LoadAccountPosts(ctx, username)
		if err != nil {
			ctrl.writeLoadError(c, err)
			return
		}
		posts = dto.ToPostRespList(loaded)
	} else {
		filtered, err := ctrl.postService.FilterPosts(ctx, username, search, mediaType)
		if err != nil {
			ctrl.writeLoadError(c, err)
			return
		}
		posts = dto.ToPostRespList(filtered)
	}

	c.JSON(200, dto.PostListResp{
		Code:     0,
		Message:  "success",
		Data:     posts,
		Total:    len(posts),
		Captions: dto.CaptionList(posts),
	})
}

// RefreshPosts 全量刷新账号帖子
// @Summary 清空本地缓存并从 Instagram 重新拉取全部帖子
// @Tags Post
// @Param username query string true "Instagram 用户名"
// @Success 200 {object} dto.PostListResp
// @Router /api/posts/refresh [post]
func (ctrl *PostController) RefreshPosts(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(400, gin.H{"code": 400, "message": "缺少 username"})
		return
	}

	ctx := c.Request.Context()
	posts, err := ctrl.postService.RefreshPosts(ctx, username)
	if err != nil {
		if errors.Is(err, service.ErrRefreshInProgress) {
			c.JSON(429, gin.H{"code": 429, "message": "该账号正在刷新中，请稍后再试"})
			return
		}
		ctrl.writeLoadError(c, err)
		return
	}

	c.JSON(200, dto.PostListResp{
		Code:    0,
		Message: "success",
		Data:    dto.ToPostRespList(posts),
		Total:   len(posts),
	})
}

// ==================== 展示状态接口 ====================

// SetSelected 切换帖子的店面展示状态
// @Summary 设置帖子是否在店面展示
// @Tags Post
// @Accept json
// @Produce json
// @Param body body dto.SetSelectedReq true "切换参数"
// @Success 200 {object} dto.PostListResp
// @Router /api/posts/selected [post]
func (ctrl *PostController) SetSelected(c *gin.Context) {
	var req dto.SetSelectedReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	posts, err := ctrl.postService.SetSelected(ctx, req.PostID, *req.Selected)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			c.JSON(404, gin.H{"code": 404, "message": "帖子不存在"})
			return
		}
		c.JSON(500, gin.H{"code": 500, "message": "更新失败: " + err.Error()})
		return
	}

	c.JSON(200, dto.PostListResp{
		Code:    0,
		Message: "success",
		Data:    dto.ToPostRespList(posts),
		Total:   len(posts),
	})
}

// ==================== 辅助函数 ====================

func (ctrl *PostController) writeLoadError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrAccountNotFound) {
		c.JSON(404, gin.H{"code": 404, "message": "账号不存在"})
		return
	}
	c.JSON(500, gin.H{"code": 500, "message": "加载失败: " + err.Error()})
}
