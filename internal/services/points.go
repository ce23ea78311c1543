package services

import (
	"time"

	"haoquan/internal/db"
	"haoquan/internal/models"

	"gorm.io/gorm"
)

// 积分动作常量
const (
	ActionSubmissionApproved = "内容审核通过"
	ActionSubmissionRejected = "内容被驳回"
	ActionCommentCreate      = "发布评论"
	ActionDealBookmarked     = "优惠被收藏"
	ActionDealUnbookmark     = "优惠取消收藏"
	ActionDealDeleted        = "优惠被删除"
	ActionCheckIn            = "每日签到"
)

// 积分值常量
const (
	PointsSubmissionApproved = 5
	PointsSubmissionRejected = -2
	PointsCommentCreate      = 1
	PointsDealBookmarked     = 3
	PointsDealUnbookmark     = -3
	PointsDealDeleted        = -10
	PointsCheckIn            = 1
)

// 每日限制
const (
	DailyCommentLimit = 3 // 每天前3条评论有积分
)

// AddPoints 使用事务添加积分并记录明细
// 传入用户ID、积分变动值（正数增加，负数扣除）、动作描述
func AddPoints(userID uint, amount int, action string) error {
	return db.DB.Transaction(func(tx *gorm.DB) error {
		// 1. 创建积分明细记录
		log := models.PointLog{
			UserID: userID,
			Amount: amount,
			Action: action,
		}
		if err := tx.Create(&log).Error; err != nil {
			return err
		}

		// 2. 更新用户积分余额
		if err := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("points", gorm.Expr("points + ?", amount)).
			Error; err != nil {
			return err
		}

		return nil
	})
}

// AddPointsAsync 异步添加积分（在 goroutine 中调用）
func AddPointsAsync(userID uint, amount int, action string) {
	go func() {
		_ = AddPoints(userID, amount, action)
	}()
}

// getTodayRange 获取今日的开始和结束时间
func getTodayRange() (time.Time, time.Time) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)
	return startOfDay, endOfDay
}

// countTodayPointLogs 统计今日指定动作的积分记录数
func countTodayPointLogs(userID uint, action string) int64 {
	startOfDay, endOfDay := getTodayRange()
	var count int64
	db.DB.Model(&models.PointLog{}).
		Where("user_id = ? AND action = ? AND created_at >= ? AND created_at < ?", userID, action, startOfDay, endOfDay).
		Count(&count)
	return count
}

// CanEarnCommentPoints 检查用户今日是否还能通过评论获取积分
func CanEarnCommentPoints(userID uint) bool {
	count := countTodayPointLogs(userID, ActionCommentCreate)
	return count < DailyCommentLimit
}

// HasCheckedInToday 检查用户今日是否已签到
func HasCheckedInToday(userID uint) bool {
	count := countTodayPointLogs(userID, ActionCheckIn)
	return count > 0
}

// CheckIn 每日签到，返回获得的积分
func CheckIn(userID uint) (points int, alreadyCheckedIn bool, err error) {
	if HasCheckedInToday(userID) {
		return 0, true, nil
	}

	points = PointsCheckIn
	err = AddPoints(userID, points, ActionCheckIn)
	return points, false, err
}
