package services

import (
	"context"
	"testing"
	"time"

	"haoquan/internal/db"
	"haoquan/internal/models"
)

// 队列加载返回内容快照，计数与条目数来自同一轮遍历
func TestListPendingEnriched(t *testing.T) {
	setupTestDB(t)
	seedSettings(t, true)

	owner := createTestUser(t, "submitter", models.RoleUser)
	deal := createTestDeal(t, owner, models.DealTypeDeal)
	promo := createTestPromo(t, owner)
	settings, _ := LoadModerationSettings()
	for _, ref := range []ContentRef{
		{ID: deal.ID, Kind: deal.Kind()},
		{ID: promo.ID, Kind: models.KindPromo},
	} {
		if _, err := DecideAndRecord(ref, owner, settings); err != nil {
			t.Fatalf("提交失败: %v", err)
		}
	}

	entries, count, err := ListPendingEnriched(context.Background(), "")
	if err != nil {
		t.Fatalf("加载队列失败: %v", err)
	}
	if count != 2 || len(entries) != 2 {
		t.Fatalf("队列条目 = %d (count=%d), want 2", len(entries), count)
	}

	byKind := make(map[models.ContentKind]EnrichedQueueEntry)
	for _, e := range entries {
		byKind[e.Entry.ItemKind] = e
	}

	de := byKind[models.KindDeal]
	if de.Title != deal.Title || de.Display != deal.Price || de.Image != deal.Image {
		t.Errorf("deal 快照不完整: %+v", de)
	}
	if de.Submitter != owner.Username {
		t.Errorf("deal 提交者 = %q, want %q", de.Submitter, owner.Username)
	}

	pe := byKind[models.KindPromo]
	if pe.Title != promo.Title || pe.Display != promo.Code {
		t.Errorf("promo 快照应展示优惠码: %+v", pe)
	}
}

func TestListPendingKindFilter(t *testing.T) {
	setupTestDB(t)
	seedSettings(t, true)

	owner := createTestUser(t, "filterer", models.RoleUser)
	deal := createTestDeal(t, owner, models.DealTypeDeal)
	sweep := createTestDeal(t, owner, models.DealTypeSweepstake)
	promo := createTestPromo(t, owner)
	settings, _ := LoadModerationSettings()
	for _, ref := range []ContentRef{
		{ID: deal.ID, Kind: models.KindDeal},
		{ID: sweep.ID, Kind: models.KindSweepstake},
		{ID: promo.ID, Kind: models.KindPromo},
	} {
		if _, err := DecideAndRecord(ref, owner, settings); err != nil {
			t.Fatalf("提交失败: %v", err)
		}
	}

	entries, count, err := ListPendingEnriched(context.Background(), models.KindSweepstake)
	if err != nil {
		t.Fatalf("加载队列失败: %v", err)
	}
	if count != 1 || len(entries) != 1 {
		t.Fatalf("过滤后条目 = %d, want 1", len(entries))
	}
	if entries[0].Entry.ItemID != sweep.ID || entries[0].Deal == nil {
		t.Errorf("过滤结果应为抽奖条目, got %+v", entries[0])
	}
}

// 内容已被删除的队列行：本轮剔除并清理，下一轮不再出现
func TestReconcilePrunesOrphan(t *testing.T) {
	setupTestDB(t)
	seedSettings(t, true)

	owner := createTestUser(t, "orphaned", models.RoleUser)
	deal := createTestDeal(t, owner, models.DealTypeDeal)
	settings, _ := LoadModerationSettings()
	if _, err := DecideAndRecord(ContentRef{ID: deal.ID, Kind: deal.Kind()}, owner, settings); err != nil {
		t.Fatalf("提交失败: %v", err)
	}

	// 内容在队列之外被删除
	if err := db.DB.Delete(&models.Deal{}, deal.ID).Error; err != nil {
		t.Fatalf("删除内容失败: %v", err)
	}

	entries, count, err := ListPendingEnriched(context.Background(), "")
	if err != nil {
		t.Fatalf("加载队列失败: %v", err)
	}
	if count != 0 || len(entries) != 0 {
		t.Errorf("孤儿行不应出现在结果中, got %d 条", len(entries))
	}
	if left := queueEntries(t); len(left) != 0 {
		t.Errorf("孤儿行应被清理, 剩余 %d 行", len(left))
	}
}

// 内容状态在队列之外发生变化（镜像写失败的场景）：
// 加载时把决策抄回队列行并剔除该条目
func TestReconcileSyncsDriftedEntry(t *testing.T) {
	setupTestDB(t)
	seedSettings(t, true)

	owner := createTestUser(t, "drifter", models.RoleUser)
	moderator := createTestUser(t, "mod_drift", models.RoleModerator)
	deal := createTestDeal(t, owner, models.DealTypeDeal)
	settings, _ := LoadModerationSettings()
	if _, err := DecideAndRecord(ContentRef{ID: deal.ID, Kind: deal.Kind()}, owner, settings); err != nil {
		t.Fatalf("提交失败: %v", err)
	}

	// 直接改内容表，模拟镜像队列失败后的漂移
	decidedAt := time.Now()
	if err := db.DB.Model(&models.Deal{}).Where("id = ?", deal.ID).
		Updates(map[string]interface{}{
			"status":          models.StatusApproved,
			"moderator_id":    moderator.ID,
			"moderated_at":    decidedAt,
			"moderation_note": "",
		}).Error; err != nil {
		t.Fatalf("制造漂移失败: %v", err)
	}

	entries, count, err := ListPendingEnriched(context.Background(), "")
	if err != nil {
		t.Fatalf("加载队列失败: %v", err)
	}
	if count != 0 || len(entries) != 0 {
		t.Errorf("已决策内容不应出现在待审列表, got %d 条", len(entries))
	}

	rows := queueEntries(t)
	if len(rows) != 1 {
		t.Fatalf("队列行数 = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.Status != models.StatusApproved {
		t.Errorf("队列行未收敛到内容表状态, got %s", row.Status)
	}
	if row.ModeratorID == nil || *row.ModeratorID != moderator.ID {
		t.Errorf("队列行未抄回审核员, got %v", row.ModeratorID)
	}
}

func TestListPendingOrderAndCount(t *testing.T) {
	setupTestDB(t)
	seedSettings(t, true)

	owner := createTestUser(t, "ordered", models.RoleUser)
	base := time.Now().Add(-time.Hour)

	var ids []uint
	for i := 0; i < 3; i++ {
		deal := createTestDeal(t, owner, models.DealTypeDeal)
		if err := EnqueueItem(deal.ID, models.KindDeal, owner.ID, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("入队失败: %v", err)
		}
		ids = append(ids, deal.ID)
	}

	entries, count, err := ListPendingEnriched(context.Background(), "")
	if err != nil {
		t.Fatalf("加载队列失败: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
	// 新提交的在前
	for i, e := range entries {
		want := ids[len(ids)-1-i]
		if e.Entry.ItemID != want {
			t.Errorf("第 %d 条 item_id = %d, want %d", i, e.Entry.ItemID, want)
		}
	}
}

// 上下文已取消时整轮失败，交由调用方回退到缓存结果
func TestListPendingCancelledContext(t *testing.T) {
	setupTestDB(t)
	seedSettings(t, true)

	owner := createTestUser(t, "cancelled", models.RoleUser)
	deal := createTestDeal(t, owner, models.DealTypeDeal)
	if err := EnqueueItem(deal.ID, models.KindDeal, owner.ID, time.Now()); err != nil {
		t.Fatalf("入队失败: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := ListPendingEnriched(ctx, ""); err == nil {
		t.Errorf("已取消的上下文应让加载失败")
	}
}
