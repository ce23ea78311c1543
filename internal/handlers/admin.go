package handlers

import (
	"net/http"
	"strconv"
	"time"

	"haoquan/internal/db"
	"haoquan/internal/middleware"
	"haoquan/internal/models"
	"haoquan/internal/services"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct{}

func NewAdminHandler() *AdminHandler {
	return &AdminHandler{}
}

// ShowSettings 审核设置页
func (h *AdminHandler) ShowSettings(c *gin.Context) {
	settings, err := services.LoadModerationSettings()
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "读取设置失败")
		return
	}

	Render(c, http.StatusOK, "admin/settings.html", gin.H{
		"Title":    "审核设置",
		"Settings": settings,
		"TypeSet":  settings.TypeSet(),
		"Kinds":    models.AllContentKinds(),
		"Active":   "admin",
	})
}

// SetModerationEnabled 开关全局审核
func (h *AdminHandler) SetModerationEnabled(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	enabled := c.PostForm("enabled") == "true"
	if err := services.SetModerationEnabled(user, enabled); err != nil {
		c.Status(http.StatusForbidden)
		return
	}

	c.Header("HX-Refresh", "true")
	c.Status(http.StatusOK)
}

// SetModerationTypes 设置需要审核的内容类型
func (h *AdminHandler) SetModerationTypes(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var kinds []models.ContentKind
	for _, k := range c.PostFormArray("types") {
		if models.ValidContentKind(k) {
			kinds = append(kinds, models.ContentKind(k))
		}
	}

	if err := services.SetModerationTypes(user, kinds); err != nil {
		c.Status(http.StatusForbidden)
		return
	}

	c.Header("HX-Refresh", "true")
	c.Status(http.StatusOK)
}

// PunishUser 惩罚用户（禁言、封禁）
func (h *AdminHandler) PunishUser(c *gin.Context) {
	userIDStr := c.Param("id")
	userID, _ := strconv.Atoi(userIDStr)
	statusStr := c.PostForm("status") // 0: 正常, 1: 禁言, 2: 封禁
	status, _ := strconv.Atoi(statusStr)
	daysStr := c.PostForm("days")
	days, _ := strconv.Atoi(daysStr)

	updates := map[string]interface{}{
		"status": status,
	}

	if status != 0 && days > 0 {
		expires := time.Now().AddDate(0, 0, days)
		updates["punish_expires"] = &expires
	} else {
		updates["punish_expires"] = nil
	}

	if err := db.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("HX-Refresh", "true")
	c.Status(http.StatusOK)
}

// SetUserRole 调整用户角色，仅超级管理员可操作
func (h *AdminHandler) SetUserRole(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	if user.Role != models.RoleSuperAdmin {
		c.Status(http.StatusForbidden)
		return
	}

	userID, _ := strconv.Atoi(c.Param("id"))
	role := c.PostForm("role")
	switch role {
	case models.RoleUser, models.RoleModerator, models.RoleAdmin:
		// 超级管理员只能在这三档间调整，不能任命新的超级管理员
	default:
		c.Status(http.StatusBadRequest)
		return
	}

	if err := db.DB.Model(&models.User{}).Where("id = ?", userID).Update("role", role).Error; err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("HX-Refresh", "true")
	c.Status(http.StatusOK)
}

// AdminDeleteDeal 管理员删除优惠
func (h *AdminHandler) AdminDeleteDeal(c *gin.Context) {
	did := c.Param("did")
	var deal models.Deal
	if err := db.DB.Where("did = ?", did).First(&deal).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	// 1. 扣除原作者积分
	services.AddPointsAsync(deal.UserID, services.PointsDealDeleted, services.ActionDealDeleted)

	// 2. 发送系统通知给作者
	notification := models.Notification{
		UserID: deal.UserID,
		Type:   models.NotificationTypeSystem,
		Reason: "很抱歉，您发布的《" + deal.Title + "》因违规已被管理员删除。如有疑问请联系管理。",
	}
	db.DB.Create(&notification)

	// 3. 彻底删除。审核队列的残留行由下一次队列加载清理
	db.DB.Unscoped().Delete(&deal)

	c.Header("HX-Redirect", "/")
	c.Status(http.StatusOK)
}
