package services

import (
	"errors"
	"time"

	"haoquan/internal/db"
	"haoquan/internal/models"

	"gorm.io/gorm"
)

// 队列一次最多加载的待审条数
const queuePageSize = 100

// EnqueueItem 将内容加入审核队列。
// (item_id, item_kind) 上有唯一索引：同一内容重新提交时复用原队列行，
// 重置为 pending 并刷新提交信息，保证任何时刻每条内容至多一条队列记录。
func EnqueueItem(itemID uint, kind models.ContentKind, submitterID uint, submittedAt time.Time) error {
	var entry models.ModerationQueue
	err := db.DB.Where("item_id = ? AND item_kind = ?", itemID, kind).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		entry = models.ModerationQueue{
			ItemID:      itemID,
			ItemKind:    kind,
			Status:      models.StatusPending,
			SubmittedBy: submitterID,
			SubmittedAt: submittedAt,
		}
		return db.DB.Create(&entry).Error
	}
	if err != nil {
		return err
	}

	return db.DB.Model(&entry).Updates(map[string]interface{}{
		"status":          models.StatusPending,
		"submitted_by":    submitterID,
		"submitted_at":    submittedAt,
		"moderator_id":    nil,
		"moderated_at":    nil,
		"moderation_note": "",
	}).Error
}

// SyncQueueEntry 将内容表上的决策镜像到队列行。
// WHERE 条件排除已处于目标状态的行，重复调用是幂等空操作，
// 不会产生第二次更新或其他副作用。
func SyncQueueEntry(itemID uint, kind models.ContentKind, status models.ContentStatus, moderatorID *uint, moderatedAt *time.Time, note string) error {
	return db.DB.Model(&models.ModerationQueue{}).
		Where("item_id = ? AND item_kind = ? AND status <> ?", itemID, kind, status).
		Updates(map[string]interface{}{
			"status":          status,
			"moderator_id":    moderatorID,
			"moderated_at":    moderatedAt,
			"moderation_note": note,
		}).Error
}

// RemoveQueueEntry 删除队列行（内容已不存在时由 Reconciler 调用）
func RemoveQueueEntry(itemID uint, kind models.ContentKind) error {
	return db.DB.Where("item_id = ? AND item_kind = ?", itemID, kind).
		Delete(&models.ModerationQueue{}).Error
}

// listPendingQueue 加载待审队列行，新提交的在前，条数有固定上限。
// kindFilter 为空串时不过滤类型。
func listPendingQueue(tx *gorm.DB, kindFilter models.ContentKind) ([]models.ModerationQueue, error) {
	query := tx.Preload("Submitter").
		Where("status = ?", models.StatusPending).
		Order("submitted_at DESC").
		Limit(queuePageSize)
	if kindFilter != "" {
		query = query.Where("item_kind = ?", kindFilter)
	}

	var entries []models.ModerationQueue
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
