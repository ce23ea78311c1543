package services

import (
	"context"
	"log"
	"time"

	"haoquan/internal/db"
	"haoquan/internal/models"
)

// ReconcileTimeout 队列加载与对账整轮的时间上限，
// 超时后本轮放弃，调用方回退到上一次成功的结果。
const ReconcileTimeout = 10 * time.Second

// EnrichedQueueEntry 审核列表页消费的聚合视图：
// 队列行加上渲染所需的内容快照。
type EnrichedQueueEntry struct {
	Entry     models.ModerationQueue
	Title     string
	Display   string // 价格（deal/sweepstake）或优惠码（promo）
	Image     string
	Submitter string
	Deal      *models.Deal
	Promo     *models.Promo
}

// ListPendingEnriched 审核队列的加载即对账：
//
//  1. 取一页 pending 队列行（新提交在前，固定上限）；
//  2. 按内容表分组批量取内容（deal/sweepstake 共表，一组一查，避免 N+1）；
//  3. 内容已不存在 → 孤儿行，尽力删除后剔除（删除失败仅记录，下轮重试）；
//  4. 内容状态已离开 pending → 权威状态在队列之外发生了变化，
//     把内容表上的决策抄回队列行后剔除；
//  5. 其余条目附上内容快照进入结果。
//
// 队列只是"待处理"状态的缓存，内容表才是事实来源；审核操作写了内容表
// 但镜像队列失败时，漂移会在下一次加载被这里修正，无需单独的修复任务。
// 返回的计数来自同一轮遍历，不依赖单独维护的计数器。
func ListPendingEnriched(ctx context.Context, kindFilter models.ContentKind) ([]EnrichedQueueEntry, int, error) {
	tx := db.DB.WithContext(ctx)

	entries, err := listPendingQueue(tx, kindFilter)
	if err != nil {
		return nil, 0, err
	}
	if len(entries) == 0 {
		return []EnrichedQueueEntry{}, 0, nil
	}

	// 引用的内容 ID 按存储表分组
	var dealIDs, promoIDs []uint
	for _, e := range entries {
		if e.ItemKind == models.KindPromo {
			promoIDs = append(promoIDs, e.ItemID)
		} else {
			dealIDs = append(dealIDs, e.ItemID)
		}
	}

	// 分组批量取内容。某一组取失败不中断整轮：
	// 该组的条目留到下一次加载，另一组照常处理。
	dealByID := make(map[uint]*models.Deal)
	dealsFetched := false
	if len(dealIDs) > 0 {
		var deals []models.Deal
		if err := tx.Where("id IN ?", dealIDs).Find(&deals).Error; err != nil {
			log.Printf("审核队列：批量读取 deals 失败，本轮跳过该组: %v", err)
		} else {
			dealsFetched = true
			for i := range deals {
				dealByID[deals[i].ID] = &deals[i]
			}
		}
	}

	promoByID := make(map[uint]*models.Promo)
	promosFetched := false
	if len(promoIDs) > 0 {
		var promos []models.Promo
		if err := tx.Where("id IN ?", promoIDs).Find(&promos).Error; err != nil {
			log.Printf("审核队列：批量读取 promos 失败，本轮跳过该组: %v", err)
		} else {
			promosFetched = true
			for i := range promos {
				promoByID[promos[i].ID] = &promos[i]
			}
		}
	}

	result := make([]EnrichedQueueEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.ItemKind == models.KindPromo {
			if !promosFetched {
				continue
			}
			promo, ok := promoByID[entry.ItemID]
			if !ok {
				pruneOrphan(entry)
				continue
			}
			if promo.Status != models.StatusPending {
				syncDrift(entry, promo.Status, promo.ModeratorID, promo.ModeratedAt, promo.ModerationNote)
				continue
			}
			result = append(result, EnrichedQueueEntry{
				Entry:     entry,
				Title:     promo.Title,
				Display:   promo.Code,
				Submitter: entry.Submitter.Username,
				Promo:     promo,
			})
			continue
		}

		if !dealsFetched {
			continue
		}
		deal, ok := dealByID[entry.ItemID]
		if !ok {
			pruneOrphan(entry)
			continue
		}
		if deal.Status != models.StatusPending {
			syncDrift(entry, deal.Status, deal.ModeratorID, deal.ModeratedAt, deal.ModerationNote)
			continue
		}
		result = append(result, EnrichedQueueEntry{
			Entry:     entry,
			Title:     deal.Title,
			Display:   deal.Price,
			Image:     deal.Image,
			Submitter: entry.Submitter.Username,
			Deal:      deal,
		})
	}

	return result, len(result), nil
}

// pruneOrphan 删除引用已消失内容的队列行。
// 尽力而为：删除失败只记录日志，这一行会在下一轮加载时再次命中删除逻辑。
func pruneOrphan(entry models.ModerationQueue) {
	if err := RemoveQueueEntry(entry.ItemID, entry.ItemKind); err != nil {
		log.Printf("审核队列：清理孤儿行失败 %s/%d: %v", entry.ItemKind, entry.ItemID, err)
	}
}

// syncDrift 把内容表上已生效的决策抄回滞后的队列行。
// 同样尽力而为——抄写失败留给下一轮。
func syncDrift(entry models.ModerationQueue, status models.ContentStatus, moderatorID *uint, moderatedAt *time.Time, note string) {
	if err := SyncQueueEntry(entry.ItemID, entry.ItemKind, status, moderatorID, moderatedAt, note); err != nil {
		log.Printf("审核队列：回写漂移状态失败 %s/%d: %v", entry.ItemKind, entry.ItemID, err)
	}
}
