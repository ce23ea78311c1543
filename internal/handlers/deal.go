package handlers

import (
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"haoquan/internal/db"
	"haoquan/internal/middleware"
	"haoquan/internal/models"
	"haoquan/internal/services"
	"haoquan/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DealHandler struct{}

func NewDealHandler() *DealHandler {
	return &DealHandler{}
}

// fillCommentCounts 批量填充优惠的评论数量
func fillCommentCounts(deals []models.Deal) {
	if len(deals) == 0 {
		return
	}

	// 收集所有优惠ID
	dealIDs := make([]uint, len(deals))
	for i, d := range deals {
		dealIDs[i] = d.ID
	}

	// 批量查询评论数量
	type CountResult struct {
		DealID uint
		Count  int
	}
	var results []CountResult
	db.DB.Model(&models.Comment{}).
		Select("deal_id, COUNT(*) as count").
		Where("deal_id IN ?", dealIDs).
		Group("deal_id").
		Scan(&results)

	// 建立映射
	countMap := make(map[uint]int)
	for _, r := range results {
		countMap[r.DealID] = r.Count
	}

	// 填充
	for i := range deals {
		deals[i].CommentCount = countMap[deals[i].ID]
	}
}

// approvedDeals 公开列表只展示已过审的内容
func approvedDeals(dealType string) *gorm.DB {
	return db.DB.Model(&models.Deal{}).
		Where("status = ? AND type = ?", models.StatusApproved, dealType)
}

// parsePage 解析分页参数
func parsePage(c *gin.Context) int {
	page := 1
	if p := c.Query("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}
	return page
}

func (h *DealHandler) ListHot(c *gin.Context) {
	page := parsePage(c)

	cacheKey := fmt.Sprintf("deal:hot:page:%d", page)
	if cachedData := utils.GetCache().Get(cacheKey); cachedData != nil {
		if hData, ok := cachedData.(gin.H); ok {
			Render(c, http.StatusOK, "deal/list.html", hData)
			return
		}
	}

	perPage := 30
	offset := (page - 1) * perPage

	var total int64
	approvedDeals(models.DealTypeDeal).Count(&total)

	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages == 0 {
		totalPages = 1
	}

	var deals []models.Deal
	db.DB.Preload("User").Preload("Category").
		Where("status = ? AND type = ?", models.StatusApproved, models.DealTypeDeal).
		Order("score DESC, created_at DESC").
		Limit(perPage).
		Offset(offset).
		Find(&deals)

	fillCommentCounts(deals)

	// 分类列表（用于侧边栏导航）
	var categories []models.Category
	db.DB.Order("id ASC").Find(&categories)

	renderData := gin.H{
		"Deals":       deals,
		"Categories":  categories,
		"Active":      "hot",
		"Title":       "热门优惠",
		"CurrentPage": page,
		"TotalPages":  totalPages,
	}

	// 写入缓存，有效期 1 分钟
	utils.GetCache().Set(cacheKey, renderData, 1*time.Minute)

	Render(c, http.StatusOK, "deal/list.html", renderData)
}

func (h *DealHandler) ListNew(c *gin.Context) {
	page := parsePage(c)
	perPage := 30
	offset := (page - 1) * perPage

	var total int64
	approvedDeals(models.DealTypeDeal).Count(&total)

	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages == 0 {
		totalPages = 1
	}

	var deals []models.Deal
	db.DB.Preload("User").Preload("Category").
		Where("status = ? AND type = ?", models.StatusApproved, models.DealTypeDeal).
		Order("created_at DESC").
		Limit(perPage).
		Offset(offset).
		Find(&deals)

	fillCommentCounts(deals)

	var categories []models.Category
	db.DB.Order("id ASC").Find(&categories)

	Render(c, http.StatusOK, "deal/list.html", gin.H{
		"Deals":       deals,
		"Categories":  categories,
		"Active":      "new",
		"Title":       "最新优惠",
		"CurrentPage": page,
		"TotalPages":  totalPages,
	})
}

// ListSweepstakes 抽奖活动列表
func (h *DealHandler) ListSweepstakes(c *gin.Context) {
	page := parsePage(c)
	perPage := 30
	offset := (page - 1) * perPage

	var total int64
	approvedDeals(models.DealTypeSweepstake).Count(&total)

	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages == 0 {
		totalPages = 1
	}

	var deals []models.Deal
	db.DB.Preload("User").Preload("Category").
		Where("status = ? AND type = ?", models.StatusApproved, models.DealTypeSweepstake).
		Order("created_at DESC").
		Limit(perPage).
		Offset(offset).
		Find(&deals)

	fillCommentCounts(deals)

	Render(c, http.StatusOK, "deal/sweepstakes.html", gin.H{
		"Deals":       deals,
		"Active":      "sweepstakes",
		"Title":       "抽奖活动",
		"CurrentPage": page,
		"TotalPages":  totalPages,
	})
}

// ListByCategory 按分类浏览
func (h *DealHandler) ListByCategory(c *gin.Context) {
	name := c.Param("name")

	var category models.Category
	if err := db.DB.Where("name = ?", name).First(&category).Error; err != nil {
		RenderError(c, http.StatusNotFound, "分类不存在")
		return
	}

	page := parsePage(c)
	perPage := 30
	offset := (page - 1) * perPage

	var total int64
	approvedDeals(models.DealTypeDeal).Where("category_id = ?", category.ID).Count(&total)

	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages == 0 {
		totalPages = 1
	}

	var deals []models.Deal
	db.DB.Preload("User").Preload("Category").
		Where("status = ? AND type = ? AND category_id = ?", models.StatusApproved, models.DealTypeDeal, category.ID).
		Order("score DESC, created_at DESC").
		Limit(perPage).
		Offset(offset).
		Find(&deals)

	fillCommentCounts(deals)

	var categories []models.Category
	db.DB.Order("id ASC").Find(&categories)

	Render(c, http.StatusOK, "deal/list.html", gin.H{
		"Deals":       deals,
		"Categories":  categories,
		"Category":    category,
		"Active":      "category",
		"Title":       category.Name + " - 分类优惠",
		"CurrentPage": page,
		"TotalPages":  totalPages,
	})
}

func (h *DealHandler) Detail(c *gin.Context) {
	did := c.Param("did")

	var deal models.Deal
	if err := db.DB.Preload("User").Preload("Category").Where("did = ?", did).First(&deal).Error; err != nil {
		RenderError(c, http.StatusNotFound, "优惠不存在")
		return
	}

	currentUser := middleware.CurrentUser(c)

	// 未过审内容只有提交者本人和审核员可见
	if deal.Status != models.StatusApproved {
		allowed := currentUser != nil &&
			(currentUser.ID == deal.UserID || models.CanModerate(currentUser.Role))
		if !allowed {
			RenderError(c, http.StatusNotFound, "优惠不存在")
			return
		}
	}

	// 浏览量 +1 并调度热度更新
	db.DB.Model(&models.Deal{}).Where("id = ?", deal.ID).UpdateColumn("views", gorm.Expr("views + 1"))
	services.GetRankingService().ScheduleUpdate(deal.ID)

	// 评论
	var comments []models.Comment
	db.DB.Preload("User").
		Where("deal_id = ?", deal.ID).
		Order("created_at ASC").
		Find(&comments)

	// 当前用户的收藏状态
	isBookmarked := false
	if currentUser != nil {
		isBookmarked = IsBookmarked(currentUser.ID, deal.ID)
	}

	Render(c, http.StatusOK, "deal/detail.html", gin.H{
		"Title":        deal.Title,
		"Deal":         deal,
		"Comments":     comments,
		"ContentHTML":  utils.RenderMarkdown(deal.Content),
		"IsBookmarked": isBookmarked,
	})
}

func (h *DealHandler) ShowCreate(c *gin.Context) {
	var categories []models.Category
	db.DB.Order("id ASC").Find(&categories)

	Render(c, http.StatusOK, "deal/create.html", gin.H{
		"Title":      "发布优惠",
		"Categories": categories,
	})
}

// Create 发布优惠/抽奖。内容落库后交给提交门决定初始状态：
// 特权角色或免审类型直接上线，否则进入待审并写入审核队列。
func (h *DealHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	if !h.checkPublishable(c, user) {
		return
	}

	title := c.PostForm("title")
	url := c.PostForm("url")
	content := c.PostForm("content")
	price := c.PostForm("price")
	originalPrice := c.PostForm("original_price")
	merchant := c.PostForm("merchant")
	dealType := c.PostForm("type")
	categoryIDStr := c.PostForm("category_id")

	if title == "" {
		h.renderCreateError(c, http.StatusBadRequest, "标题不能为空")
		return
	}

	if dealType != models.DealTypeSweepstake {
		dealType = models.DealTypeDeal
	}

	categoryID := uint(1)
	if categoryIDStr != "" {
		if id, err := strconv.Atoi(categoryIDStr); err == nil {
			categoryID = uint(id)
		}
	}

	var endsAt *time.Time
	if endsStr := c.PostForm("ends_at"); endsStr != "" {
		if t, err := time.Parse("2006-01-02", endsStr); err == nil {
			endsAt = &t
		}
	}

	deal := models.Deal{
		Did:           utils.RandStringBytesMaskImpr(8),
		UserID:        user.ID,
		CategoryID:    categoryID,
		Type:          dealType,
		Title:         title,
		URL:           url,
		Content:       content,
		Image:         utils.ExtractFirstImage(string(utils.RenderMarkdown(content))),
		Merchant:      merchant,
		Price:         price,
		OriginalPrice: originalPrice,
		EndsAt:        endsAt,
	}

	if err := db.DB.Create(&deal).Error; err != nil {
		h.renderCreateError(c, http.StatusInternalServerError, "发布失败")
		return
	}

	h.runGate(&deal, user)

	// 列表页第一页缓存失效
	utils.GetCache().Delete("deal:hot:page:1")

	c.Redirect(http.StatusFound, "/d/"+deal.Did)
}

// runGate 调用提交门。设置读取失败时传 nil 让门 fail closed（进审核队列），
// 对提交者而言与正常待审没有区别，不暴露内部错误。
func (h *DealHandler) runGate(deal *models.Deal, user *models.User) {
	settings, err := services.LoadModerationSettings()
	if err != nil {
		log.Printf("读取审核设置失败，按需要审核处理: %v", err)
		settings = nil
	}

	if _, err := services.DecideAndRecord(services.ContentRef{ID: deal.ID, Kind: deal.Kind()}, user, settings); err != nil {
		// 门本身失败同样不暴露给提交者，内容保持默认的 pending 状态
		log.Printf("提交门执行失败 (dealID=%d): %v", deal.ID, err)
	}
}

func (h *DealHandler) renderCreateError(c *gin.Context, code int, errMsg string) {
	var categories []models.Category
	db.DB.Order("id ASC").Find(&categories)
	Render(c, code, "deal/create.html", gin.H{
		"Error":      errMsg,
		"Categories": categories,
	})
}

// checkPublishable 检查用户是否处于可发布状态（封禁/禁言）
func (h *DealHandler) checkPublishable(c *gin.Context, user *models.User) bool {
	if user.Status == 2 {
		RenderError(c, http.StatusForbidden, "您的账号已被封禁，无法发布内容。")
		return false
	}
	if user.Status == 1 {
		if user.PunishExpires != nil && time.Now().After(*user.PunishExpires) {
			// 惩罚已过期，恢复状态
			db.DB.Model(user).Updates(map[string]interface{}{
				"status":         0,
				"punish_expires": nil,
			})
			user.Status = 0
		} else {
			RenderError(c, http.StatusForbidden, "您处于禁言状态，暂时无法发布内容。")
			return false
		}
	}
	return true
}

func (h *DealHandler) ShowEdit(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	did := c.Param("did")

	var deal models.Deal
	if err := db.DB.Where("did = ?", did).First(&deal).Error; err != nil {
		RenderError(c, http.StatusNotFound, "优惠不存在")
		return
	}

	if deal.UserID != user.ID {
		RenderError(c, http.StatusForbidden, "无权编辑此内容")
		return
	}

	var categories []models.Category
	db.DB.Order("id ASC").Find(&categories)

	Render(c, http.StatusOK, "deal/edit.html", gin.H{
		"Title":      "编辑优惠",
		"Deal":       deal,
		"Categories": categories,
	})
}

// Update 编辑后重新过提交门：免审场景继续上线，
// 需审核场景回到 pending 并复用队列行重新排队。
func (h *DealHandler) Update(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	did := c.Param("did")

	var deal models.Deal
	if err := db.DB.Where("did = ?", did).First(&deal).Error; err != nil {
		RenderError(c, http.StatusNotFound, "优惠不存在")
		return
	}

	if deal.UserID != user.ID {
		RenderError(c, http.StatusForbidden, "无权编辑此内容")
		return
	}

	title := c.PostForm("title")
	if title == "" {
		RenderError(c, http.StatusBadRequest, "标题不能为空")
		return
	}

	deal.Title = title
	deal.URL = c.PostForm("url")
	deal.Content = c.PostForm("content")
	deal.Price = c.PostForm("price")
	deal.OriginalPrice = c.PostForm("original_price")
	deal.Merchant = c.PostForm("merchant")
	deal.Image = utils.ExtractFirstImage(string(utils.RenderMarkdown(deal.Content)))
	if categoryIDStr := c.PostForm("category_id"); categoryIDStr != "" {
		if id, err := strconv.Atoi(categoryIDStr); err == nil {
			deal.CategoryID = uint(id)
		}
	}

	if err := db.DB.Save(&deal).Error; err != nil {
		RenderError(c, http.StatusInternalServerError, "保存失败")
		return
	}

	h.runGate(&deal, user)

	utils.GetCache().Delete("deal:hot:page:1")

	c.Redirect(http.StatusFound, "/d/"+did)
}

func (h *DealHandler) Delete(c *gin.Context) {
	// HTMX delete
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	did := c.Param("did")

	var deal models.Deal
	if err := db.DB.Where("did = ?", did).First(&deal).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	if deal.UserID != user.ID {
		c.Status(http.StatusForbidden)
		return
	}

	// Hard Delete。残留的审核队列行会被下一次队列加载当作孤儿清理
	db.DB.Unscoped().Delete(&deal)

	utils.GetCache().Delete("deal:hot:page:1")

	c.Header("HX-Redirect", "/")
	c.Status(http.StatusOK)
}

// CreateComment 发布评论
func (h *DealHandler) CreateComment(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	did := c.Param("did")

	if !h.checkPublishable(c, user) {
		return
	}

	var deal models.Deal
	if err := db.DB.Where("did = ?", did).First(&deal).Error; err != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	content := c.PostForm("content")
	parentIDStr := c.PostForm("parent_id")

	if content == "" {
		c.Redirect(http.StatusFound, "/d/"+did)
		return
	}

	var parentID *uint
	if parentIDStr != "" {
		pID, _ := strconv.Atoi(parentIDStr)
		uPID := uint(pID)
		parentID = &uPID
	}

	comment := models.Comment{
		Cid:      utils.RandStringBytesMaskImpr(8),
		DealID:   deal.ID,
		UserID:   user.ID,
		Content:  content,
		Score:    1,
		ParentID: parentID,
	}

	if err := db.DB.Create(&comment).Error; err != nil {
		c.Redirect(http.StatusFound, "/d/"+did)
		return
	}

	// 异步更新热度（新增评论）
	services.GetRankingService().ScheduleUpdate(deal.ID)

	// 异步增加积分（每天前3条评论）
	go func() {
		if services.CanEarnCommentPoints(user.ID) {
			services.AddPoints(user.ID, services.PointsCommentCreate, services.ActionCommentCreate)
		}
	}()

	// Create Notifications
	go func() {
		if comment.ParentID != nil {
			var parentComment models.Comment
			if err := db.DB.First(&parentComment, *comment.ParentID).Error; err == nil {
				// 不要通知自己
				if parentComment.UserID != user.ID {
					notification := models.Notification{
						UserID:  parentComment.UserID,
						ActorID: &user.ID,
						Type:    models.NotificationTypeReplyComment,
						Reason: fmt.Sprintf("在 <a href=\"/d/%s#comment-%d\">《%s》</a> 中回复了您的评论",
							deal.Did, comment.ID, deal.Title),
					}
					db.DB.Create(&notification)
				}
			}
		} else if deal.UserID != user.ID {
			notification := models.Notification{
				UserID:  deal.UserID,
				ActorID: &user.ID,
				Type:    models.NotificationTypeCommentDeal,
				Reason: fmt.Sprintf("在您发布的 <a href=\"/d/%s#comment-%d\">《%s》</a> 下发布了新的评论",
					deal.Did, comment.ID, deal.Title),
			}
			db.DB.Create(&notification)
		}
	}()

	c.Redirect(http.StatusFound, "/d/"+did)
}

// DeleteComment 软删除评论（只替换内容，保留楼层）
func (h *DealHandler) DeleteComment(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	cid := c.Param("cid")

	var comment models.Comment
	if err := db.DB.Where("cid = ?", cid).First(&comment).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	// 只允许删除自己的评论
	if comment.UserID != user.ID {
		c.Status(http.StatusForbidden)
		return
	}

	comment.Content = "该评论已删除。"
	db.DB.Save(&comment)

	c.Status(http.StatusOK)
}
