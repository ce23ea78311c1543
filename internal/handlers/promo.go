package handlers

import (
	"log"
	"math"
	"net/http"
	"time"

	"haoquan/internal/db"
	"haoquan/internal/middleware"
	"haoquan/internal/models"
	"haoquan/internal/services"
	"haoquan/internal/utils"

	"github.com/gin-gonic/gin"
)

type PromoHandler struct{}

func NewPromoHandler() *PromoHandler {
	return &PromoHandler{}
}

// List 优惠码列表，只展示已过审且未过期的
func (h *PromoHandler) List(c *gin.Context) {
	page := parsePage(c)
	perPage := 30
	offset := (page - 1) * perPage

	base := db.DB.Model(&models.Promo{}).
		Where("status = ?", models.StatusApproved).
		Where("expires_at IS NULL OR expires_at > ?", time.Now())

	var total int64
	base.Count(&total)

	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages == 0 {
		totalPages = 1
	}

	var promos []models.Promo
	db.DB.Preload("User").
		Where("status = ?", models.StatusApproved).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Order("created_at DESC").
		Limit(perPage).
		Offset(offset).
		Find(&promos)

	Render(c, http.StatusOK, "promo/list.html", gin.H{
		"Promos":      promos,
		"Active":      "promos",
		"Title":       "优惠码",
		"CurrentPage": page,
		"TotalPages":  totalPages,
	})
}

func (h *PromoHandler) Detail(c *gin.Context) {
	pid := c.Param("pid")

	var promo models.Promo
	if err := db.DB.Preload("User").Where("pid = ?", pid).First(&promo).Error; err != nil {
		RenderError(c, http.StatusNotFound, "优惠码不存在")
		return
	}

	currentUser := middleware.CurrentUser(c)
	if promo.Status != models.StatusApproved {
		allowed := currentUser != nil &&
			(currentUser.ID == promo.UserID || models.CanModerate(currentUser.Role))
		if !allowed {
			RenderError(c, http.StatusNotFound, "优惠码不存在")
			return
		}
	}

	Render(c, http.StatusOK, "promo/detail.html", gin.H{
		"Title": promo.Title,
		"Promo": promo,
	})
}

func (h *PromoHandler) ShowCreate(c *gin.Context) {
	Render(c, http.StatusOK, "promo/create.html", gin.H{
		"Title": "分享优惠码",
	})
}

// Create 分享优惠码，落库后同样走提交门
func (h *PromoHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	merchant := c.PostForm("merchant")
	code := c.PostForm("code")
	title := c.PostForm("title")
	description := c.PostForm("description")
	url := c.PostForm("url")

	if merchant == "" || code == "" || title == "" {
		Render(c, http.StatusBadRequest, "promo/create.html", gin.H{
			"Error": "商家、优惠码和标题不能为空",
		})
		return
	}

	var expiresAt *time.Time
	if expiresStr := c.PostForm("expires_at"); expiresStr != "" {
		if t, err := time.Parse("2006-01-02", expiresStr); err == nil {
			expiresAt = &t
		}
	}

	promo := models.Promo{
		Pid:         utils.RandStringBytesMaskImpr(8),
		UserID:      user.ID,
		Merchant:    merchant,
		Code:        code,
		Title:       title,
		Description: utils.SanitizeText(description),
		URL:         url,
		ExpiresAt:   expiresAt,
	}

	if err := db.DB.Create(&promo).Error; err != nil {
		Render(c, http.StatusInternalServerError, "promo/create.html", gin.H{
			"Error": "发布失败",
		})
		return
	}

	// 设置读取失败时 fail closed，提交者只会看到正常的待审状态
	settings, err := services.LoadModerationSettings()
	if err != nil {
		log.Printf("读取审核设置失败，按需要审核处理: %v", err)
		settings = nil
	}
	if _, err := services.DecideAndRecord(services.ContentRef{ID: promo.ID, Kind: models.KindPromo}, user, settings); err != nil {
		log.Printf("提交门执行失败 (promoID=%d): %v", promo.ID, err)
	}

	c.Redirect(http.StatusFound, "/c/"+promo.Pid)
}

// Delete 删除自己的优惠码
func (h *PromoHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	pid := c.Param("pid")

	var promo models.Promo
	if err := db.DB.Where("pid = ?", pid).First(&promo).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	if promo.UserID != user.ID {
		c.Status(http.StatusForbidden)
		return
	}

	// 残留的审核队列行由下一次队列加载清理
	db.DB.Unscoped().Delete(&promo)

	c.Header("HX-Redirect", "/promos")
	c.Status(http.StatusOK)
}
