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
	"gorm.io/gorm"
)

type VoteHandler struct{}

func NewVoteHandler() *VoteHandler {
	return &VoteHandler{}
}

// Vote handles upvote logic
func (h *VoteHandler) Vote(c *gin.Context) {
	user, exists := c.Get(middleware.CheckUserKey)
	if !exists {
		c.Header("HX-Redirect", "/login")
		c.Status(http.StatusOK)
		return
	}
	currentUser := user.(*models.User)

	itemType := c.Param("type") // "deal" or "comment"
	idStr := c.Param("id")
	id, _ := strconv.Atoi(idStr)
	uID := uint(id)

	tx := db.DB.Begin()

	query := tx.Where("user_id = ?", currentUser.ID)

	if itemType == "deal" {
		query = query.Where("deal_id = ?", uID)
	} else if itemType == "comment" {
		query = query.Where("comment_id = ?", uID)
	} else {
		tx.Rollback()
		c.Status(http.StatusBadRequest)
		return
	}

	// Check if already voted
	var existingVote models.Vote
	if err := query.First(&existingVote).Error; err == nil {
		// Already voted - return current upvote count
		tx.Rollback()
		var upvotes int64
		if itemType == "deal" {
			db.DB.Model(&models.Vote{}).Where("deal_id = ? AND value = 1", uID).Count(&upvotes)
		} else {
			db.DB.Model(&models.Vote{}).Where("comment_id = ? AND value = 1", uID).Count(&upvotes)
		}
		c.String(http.StatusOK, fmt.Sprintf("%d", upvotes))
		return
	}

	// Create vote
	newVote := models.Vote{
		UserID: currentUser.ID,
		Value:  1,
	}
	if itemType == "deal" {
		newVote.DealID = &uID
	} else {
		newVote.CommentID = &uID
	}

	if err := tx.Create(&newVote).Error; err != nil {
		tx.Rollback()
		c.Status(http.StatusInternalServerError)
		return
	}

	if itemType == "comment" {
		if err := tx.Model(&models.Comment{}).Where("id = ?", uID).UpdateColumn("score", gorm.Expr("score + ?", 1)).Error; err != nil {
			tx.Rollback()
			c.Status(http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	// 优惠的热度异步重算
	if itemType == "deal" {
		services.GetRankingService().ScheduleUpdate(uID)
	}

	// Return new count
	var upvotes int64
	if itemType == "deal" {
		db.DB.Model(&models.Vote{}).Where("deal_id = ? AND value = 1", uID).Count(&upvotes)
	} else {
		db.DB.Model(&models.Vote{}).Where("comment_id = ? AND value = 1", uID).Count(&upvotes)
	}
	c.String(http.StatusOK, fmt.Sprintf("%d", upvotes))
}

// Downvote handles downvote logic
func (h *VoteHandler) Downvote(c *gin.Context) {
	user, exists := c.Get(middleware.CheckUserKey)
	if !exists {
		c.Header("HX-Redirect", "/login")
		c.Status(http.StatusOK)
		return
	}
	currentUser := user.(*models.User)

	itemType := c.Param("type")
	idStr := c.Param("id")
	id, _ := strconv.Atoi(idStr)
	uID := uint(id)

	query := db.DB.Where("user_id = ?", currentUser.ID)
	if itemType == "deal" {
		query = query.Where("deal_id = ?", uID)
	} else if itemType == "comment" {
		query = query.Where("comment_id = ?", uID)
	} else {
		c.Status(http.StatusBadRequest)
		return
	}

	// 已投过票（赞或踩）不允许再踩
	var existingVote models.Vote
	if err := query.First(&existingVote).Error; err == nil {
		c.Status(http.StatusOK)
		return
	}

	newVote := models.Vote{
		UserID: currentUser.ID,
		Value:  -1,
	}
	if itemType == "deal" {
		newVote.DealID = &uID
	} else {
		newVote.CommentID = &uID
	}

	if err := db.DB.Create(&newVote).Error; err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	if itemType == "deal" {
		services.GetRankingService().ScheduleUpdate(uID)
	} else {
		db.DB.Model(&models.Comment{}).Where("id = ?", uID).UpdateColumn("score", gorm.Expr("score - ?", 1))
	}

	c.Status(http.StatusOK)
}
