package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"haoquan/internal/db"
	"haoquan/internal/middleware"
	"haoquan/internal/models"
	"haoquan/internal/services"

	"github.com/gin-gonic/gin"
)

type BookmarkHandler struct{}

func NewBookmarkHandler() *BookmarkHandler {
	return &BookmarkHandler{}
}

// Toggle 切换收藏状态 - 收藏/取消收藏
func (h *BookmarkHandler) Toggle(c *gin.Context) {
	user, exists := c.Get(middleware.CheckUserKey)
	if !exists {
		c.Header("HX-Redirect", "/login")
		c.Status(http.StatusOK)
		return
	}
	currentUser := user.(*models.User)

	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	dealID := uint(id)

	var deal models.Deal
	if err := db.DB.First(&deal, dealID).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	// 检查是否已收藏
	var existing models.Bookmark
	if err := db.DB.Where("user_id = ? AND deal_id = ?", currentUser.ID, dealID).First(&existing).Error; err == nil {
		// 已收藏，取消收藏
		db.DB.Delete(&existing)
		if deal.UserID != currentUser.ID {
			services.AddPointsAsync(deal.UserID, services.PointsDealUnbookmark, services.ActionDealUnbookmark)
		}
	} else {
		bookmark := models.Bookmark{
			UserID: currentUser.ID,
			DealID: dealID,
		}
		db.DB.Create(&bookmark)
		if deal.UserID != currentUser.ID {
			services.AddPointsAsync(deal.UserID, services.PointsDealBookmarked, services.ActionDealBookmarked)
		}
	}

	// 异步更新热度
	services.GetRankingService().ScheduleUpdate(dealID)

	// 获取当前收藏数并返回给按钮局部刷新
	var count int64
	db.DB.Model(&models.Bookmark{}).Where("deal_id = ?", dealID).Count(&count)

	c.String(http.StatusOK, fmt.Sprintf("%d", count))
}

// IsBookmarked 检查用户是否已收藏某优惠
func IsBookmarked(userID, dealID uint) bool {
	var bookmark models.Bookmark
	if err := db.DB.Where("user_id = ? AND deal_id = ?", userID, dealID).First(&bookmark).Error; err == nil {
		return true
	}
	return false
}
