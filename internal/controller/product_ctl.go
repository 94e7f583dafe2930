package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"instafeed_dev_v1_202608/internal/api/dto"
	"instafeed_dev_v1_202608/internal/middleware"
	"instafeed_dev_v1_202608/internal/repository"
	"instafeed_dev_v1_202608/internal/service"
	"instafeed_dev_v1_202608/pkg/shopify"
)

// ProductController 帖子-商品关联
// 写操作集中在一个 action 路由上，和前端旧接口保持兼容
type ProductController struct {
	productLinkService *service.ProductLinkService
}

func NewProductController(productLinkService *service.ProductLinkService) *ProductController {
	return &ProductController{productLinkService: productLinkService}
}

// ==================== 统一入口 ====================

// HandleAction 商品关联统一入口
// @Summary 按 action 字段执行 add/remove/get/getCounts
// @Tags Product
// @Accept json
// @Produce json
// @Param body body dto.ProductActionReq true "操作参数"
// @Success 200 {object} dto.ProductActionResp
// @Router /api/products [post]
func (ctrl *ProductController) HandleAction(c *gin.Context) {
	var req dto.ProductActionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, dto.ProductActionResp{
			Success: false,
			Error:   "bad_request",
			Message: "参数错误: " + err.Error(),
		})
		return
	}

	ctx := c.Request.Context()

	switch req.Action {
	case "add":
		ctrl.addProduct(c, &req)

	case "remove":
		if req.PostID == "" || req.ProductID == "" {
			c.JSON(400, dto.ProductActionResp{Success: false, Error: "bad_request", Message: "缺少 post_id 或 product_id"})
			return
		}
		if err := ctrl.productLinkService.UnlinkProduct(ctx, req.PostID, req.ProductID); err != nil {
			c.JSON(500, dto.ProductActionResp{Success: false, Error: "internal", Message: "解除关联失败: " + err.Error()})
			return
		}
		c.JSON(200, dto.ProductActionResp{Success: true, Message: "已解除关联"})

	case "get":
		if req.PostID == "" {
			c.JSON(400, dto.ProductActionResp{Success: false, Error: "bad_request", Message: "缺少 post_id"})
			return
		}
		links, err := ctrl.productLinkService.GetProductsForPost(ctx, req.PostID)
		if err != nil {
			c.JSON(500, dto.ProductActionResp{Success: false, Error: "internal", Message: "查询失败: " + err.Error()})
			return
		}
		respList := make([]dto.ProductLinkResp, 0, len(links))
		for i := range links {
			respList = append(respList, dto.ToProductLinkResp(&links[i]))
		}
		c.JSON(200, dto.ProductActionResp{Success: true, Data: respList})

	case "getCounts":
		if req.AccountID <= 0 {
			c.JSON(400, dto.ProductActionResp{Success: false, Error: "bad_request", Message: "缺少 account_id"})
			return
		}
		counts, err := ctrl.productLinkService.GetProductCounts(ctx, req.AccountID)
		if err != nil {
			c.JSON(500, dto.ProductActionResp{Success: false, Error: "internal", Message: "查询失败: " + err.Error()})
			return
		}
		c.JSON(200, dto.ProductActionResp{Success: true, Data: counts})

	default:
		// oneof 校验兜底，正常到不了这里
		c.JSON(400, dto.ProductActionResp{Success: false, Error: "bad_request", Message: "未知 action"})
	}
}

func (ctrl *ProductController) addProduct(c *gin.Context, req *dto.ProductActionReq) {
	if req.PostID == "" || req.Product == nil {
		c.JSON(400, dto.ProductActionResp{Success: false, Error: "bad_request", Message: "缺少 post_id 或 product"})
		return
	}

	ctx := c.Request.Context()
	link, err := ctrl.productLinkService.LinkProduct(ctx, req.PostID, shopify.ProductBrief{
		ID:     req.Product.ID,
		Title:  req.Product.Title,
		Handle: req.Product.Handle,
		Image:  req.Product.Image,
		Price:  req.Product.Price,
	})
	if err != nil {
		// 重复关联是正常业务分支，HTTP 仍 200，前端按 error 字段提示
		if errors.Is(err, service.ErrDuplicateLink) {
			c.JSON(200, dto.ProductActionResp{
				Success: false,
				Error:   "duplicate",
				Message: "该商品已关联到此帖子",
			})
			return
		}
		if errors.Is(err, repository.ErrPostNotFound) {
			c.JSON(404, dto.ProductActionResp{Success: false, Error: "not_found", Message: "帖子不存在"})
			return
		}
		c.JSON(500, dto.ProductActionResp{Success: false, Error: "internal", Message: "关联失败: " + err.Error()})
		return
	}

	c.JSON(200, dto.ProductActionResp{
		Success: true,
		Data:    dto.ToProductLinkResp(link),
	})
}

// ==================== 商品搜索 ====================

// SearchProducts 搜索店铺商品 (关联弹窗用)
// @Summary 按关键词搜索当前店铺的商品
// @Tags Product
// @Param keyword query string false "标题关键词"
// @Param limit query int false "返回数量" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /api/products/search [get]
func (ctrl *ProductController) SearchProducts(c *gin.Context) {
	shop := middleware.GetShop(c)
	if shop == "" {
		c.JSON(401, gin.H{"code": 401, "message": "未获取到店铺信息"})
		return
	}

	keyword := c.Query("keyword")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	ctx := c.Request.Context()
	products, err := ctrl.productLinkService.SearchShopProducts(ctx, shop, keyword, limit)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "搜索失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    products,
	})
}
