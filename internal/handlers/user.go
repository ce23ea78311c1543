package handlers

import (
	"net/http"

	"haoquan/internal/db"
	"haoquan/internal/models"
	"haoquan/internal/services"
	"haoquan/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Profile - 用户主页 /u/:id
func (h *UserHandler) Profile(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		RenderError(c, http.StatusNotFound, "用户不存在")
		return
	}

	levelName, levelIcon := utils.GetUserLevel(user.Points)
	daysSince := utils.GetDaysSinceJoined(user.CreatedAt)

	// 公开主页只展示已过审的内容
	var deals []models.Deal
	db.DB.Preload("Category").
		Where("user_id = ? AND status = ?", user.ID, models.StatusApproved).
		Order("created_at DESC").
		Limit(50).
		Find(&deals)
	fillCommentCounts(deals)

	Render(c, http.StatusOK, "user/public.html", gin.H{
		"Title":     user.Username + " 的主页",
		"User":      user,
		"LevelName": levelName,
		"LevelIcon": levelIcon,
		"DaysSince": daysSince,
		"Deals":     deals,
	})
}

// Dashboard - 个人后台概览，自己的内容连同审核状态一起展示
func (h *UserHandler) Dashboard(c *gin.Context) {
	session := sessions.Default(c)
	userID := session.Get("user_id")

	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	var dealCount, promoCount, pendingCount int64
	db.DB.Model(&models.Deal{}).Where("user_id = ?", user.ID).Count(&dealCount)
	db.DB.Model(&models.Promo{}).Where("user_id = ?", user.ID).Count(&promoCount)
	db.DB.Model(&models.Deal{}).Where("user_id = ? AND status = ?", user.ID, models.StatusPending).Count(&pendingCount)

	// 自己的提交，包含待审/被拒的，审核状态随行展示
	var deals []models.Deal
	db.DB.Preload("Category").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(50).
		Find(&deals)

	var promos []models.Promo
	db.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(50).
		Find(&promos)

	levelName, levelIcon := utils.GetUserLevel(user.Points)
	daysSince := utils.GetDaysSinceJoined(user.CreatedAt)

	Render(c, http.StatusOK, "dashboard/overview.html", gin.H{
		"Title":        "个人后台",
		"User":         user,
		"LevelName":    levelName,
		"LevelIcon":    levelIcon,
		"DaysSince":    daysSince,
		"DealCount":    dealCount,
		"PromoCount":   promoCount,
		"PendingCount": pendingCount,
		"Deals":        deals,
		"Promos":       promos,
	})
}

// PointLogs - 积分明细
func (h *UserHandler) PointLogs(c *gin.Context) {
	session := sessions.Default(c)
	userID := session.Get("user_id")

	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	var logs []models.PointLog
	db.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(100).
		Find(&logs)

	Render(c, http.StatusOK, "dashboard/points.html", gin.H{
		"Title":  "积分明细",
		"User":   user,
		"Logs":   logs,
		"Active": "points",
	})
}

// ShowSettings - 个人设置页
func (h *UserHandler) ShowSettings(c *gin.Context) {
	session := sessions.Default(c)
	userID := session.Get("user_id")

	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	Render(c, http.StatusOK, "dashboard/settings.html", gin.H{
		"Title":  "设置",
		"User":   user,
		"Emojis": utils.GetCommonEmojis(),
	})
}

// UpdateSettings - 更新个人设置
func (h *UserHandler) UpdateSettings(c *gin.Context) {
	session := sessions.Default(c)
	userID := session.Get("user_id")

	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	username := c.PostForm("username")
	bio := c.PostForm("bio")
	avatar := c.PostForm("avatar")

	if username != "" {
		user.Username = username
	}
	user.Bio = bio
	if avatar != "" {
		user.Avatar = avatar
	}

	if err := db.DB.Save(&user).Error; err != nil {
		Render(c, http.StatusInternalServerError, "dashboard/settings.html", gin.H{
			"Error":  "保存失败",
			"User":   user,
			"Emojis": utils.GetCommonEmojis(),
		})
		return
	}

	c.Redirect(http.StatusFound, "/dashboard/settings")
}

// CheckIn - 每日签到
func (h *UserHandler) CheckIn(c *gin.Context) {
	session := sessions.Default(c)
	userID := session.Get("user_id")

	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	points, already, err := services.CheckIn(user.ID)
	if err != nil {
		c.String(http.StatusInternalServerError, "签到失败，请重试")
		return
	}
	if already {
		c.String(http.StatusOK, "今天已经签到过了")
		return
	}

	c.String(http.StatusOK, "签到成功 +%d", points)
}
