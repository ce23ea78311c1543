package services

import (
	"errors"
	"time"

	"haoquan/internal/db"
	"haoquan/internal/models"

	"gorm.io/gorm"
)

// 审核子系统的错误类型
var (
	ErrUnauthorized   = errors.New("当前用户没有审核权限")
	ErrNotFound       = errors.New("内容不存在")
	ErrAlreadyDecided = errors.New("该内容已被其他审核员处理")
)

// moderationState 内容表中审核相关字段的快照，内容表是审核状态的唯一事实来源
type moderationState struct {
	ID             uint
	OwnerID        uint
	Title          string
	Status         models.ContentStatus
	ModeratorID    *uint
	ModeratedAt    *time.Time
	ModerationNote string
}

// contentQuery 按内容类型返回对应内容表的基础查询。
// deal 和 sweepstake 共用 deals 表，promo 独立一张表。
func contentQuery(kind models.ContentKind) *gorm.DB {
	if kind == models.KindPromo {
		return db.DB.Model(&models.Promo{})
	}
	return db.DB.Model(&models.Deal{})
}

// getModerationState 读取一条内容的审核状态快照
func getModerationState(kind models.ContentKind, itemID uint) (*moderationState, error) {
	if kind == models.KindPromo {
		var p models.Promo
		if err := db.DB.First(&p, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		return &moderationState{
			ID:             p.ID,
			OwnerID:        p.UserID,
			Title:          p.Title,
			Status:         p.Status,
			ModeratorID:    p.ModeratorID,
			ModeratedAt:    p.ModeratedAt,
			ModerationNote: p.ModerationNote,
		}, nil
	}

	var d models.Deal
	if err := db.DB.First(&d, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &moderationState{
		ID:             d.ID,
		OwnerID:        d.UserID,
		Title:          d.Title,
		Status:         d.Status,
		ModeratorID:    d.ModeratorID,
		ModeratedAt:    d.ModeratedAt,
		ModerationNote: d.ModerationNote,
	}, nil
}

// casTransition 仅当内容仍处于 pending 时写入终态（单条带条件的 UPDATE，
// 不做客户端读改写）。返回本次调用是否真正完成了状态变更；
// 返回 false 表示另一个并发决策已抢先落库。
func casTransition(kind models.ContentKind, itemID uint, target models.ContentStatus, moderatorID uint, decidedAt time.Time, note string) (bool, error) {
	updates := map[string]interface{}{
		"status":       target,
		"moderator_id": moderatorID,
		"moderated_at": decidedAt,
	}
	if target == models.StatusRejected {
		updates["moderation_note"] = note
	}

	res := contentQuery(kind).
		Where("id = ? AND status = ?", itemID, models.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// stampApproved 免审内容的自动过审：状态直接置为 approved 并记录盖章人。
// 特权角色提交时盖章人是其本人，普通用户免审类型提交时盖章人是提交者自己（系统代审）。
func stampApproved(kind models.ContentKind, itemID uint, actorID uint, now time.Time) error {
	return contentQuery(kind).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"status":          models.StatusApproved,
			"moderator_id":    actorID,
			"moderated_at":    now,
			"moderation_note": "",
		}).Error
}

// markPending 将内容置为待审，并清掉上一轮决策留下的字段（重新提交的场景）
func markPending(kind models.ContentKind, itemID uint) error {
	return contentQuery(kind).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"status":          models.StatusPending,
			"moderator_id":    nil,
			"moderated_at":    nil,
			"moderation_note": "",
		}).Error
}
