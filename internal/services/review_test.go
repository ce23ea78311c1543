package services

import (
	"errors"
	"testing"

	"haoquan/internal/db"
	"haoquan/internal/models"
)

func TestApprovePendingDeal(t *testing.T) {
	setupTestDB(t)
	seedSettings(t, true)

	owner := createTestUser(t, "owner1", models.RoleUser)
	moderator := createTestUser(t, "mod1", models.RoleModerator)
	deal := createTestDeal(t, owner, models.DealTypeDeal)
	settings, _ := LoadModerationSettings()
	if _, err := DecideAndRecord(ContentRef{ID: deal.ID, Kind: deal.Kind()}, owner, settings); err != nil {
		t.Fatalf("提交失败: %v", err)
	}

	if err := Approve(deal.ID, deal.Kind(), moderator); err != nil {
		t.Fatalf("审核通过失败: %v", err)
	}
	waitAsync()

	got := reloadDeal(t, deal.ID)
	if got.Status != models.StatusApproved {
		t.Errorf("内容状态 = %s, want approved", got.Status)
	}
	if got.ModeratorID == nil || *got.ModeratorID != moderator.ID {
		t.Errorf("moderator_id 应为审核员 %d", moderator.ID)
	}
	if got.ModeratedAt == nil {
		t.Errorf("moderated_at 未落库")
	}

	// 队列镜像同步
	entries := queueEntries(t)
	if len(entries) != 1 || entries[0].Status != models.StatusApproved {
		t.Errorf("队列镜像未同步, got %+v", entries)
	}

	// 提交者收到通过通知
	var count int64
	db.DB.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", owner.ID, models.NotificationTypeModeration).
		Count(&count)
	if count != 1 {
		t.Errorf("通知条数 = %d, want 1", count)
	}
}

func TestRejectRecordsNote(t *testing.T) {
	setupTestDB(t)
	seedSettings(t, true)

	owner := createTestUser(t, "owner2", models.RoleUser)
	moderator := createTestUser(t, "mod2", models.RoleModerator)
	promo := createTestPromo(t, owner)
	settings, _ := LoadModerationSettings()
	if _, err := DecideAndRecord(ContentRef{ID: promo.ID, Kind: models.KindPromo}, owner, settings); err != nil {
		t.Fatalf("提交失败: %v", err)
	}

	if err := Reject(promo.ID, models.KindPromo, moderator, "优惠码已失效"); err != nil {
		t.Fatalf("驳回失败: %v", err)
	}
	waitAsync()

	got := reloadPromo(t, promo.ID)
	if got.Status != models.StatusRejected {
		t.Errorf("内容状态 = %s, want rejected", got.Status)
	}
	if got.ModerationNote != "优惠码已失效" {
		t.Errorf("驳回原因 = %q", got.ModerationNote)
	}

	entries := queueEntries(t)
	if len(entries) != 1 || entries[0].Status != models.StatusRejected || entries[0].ModerationNote != "优惠码已失效" {
		t.Errorf("队列镜像未带上驳回原因, got %+v", entries)
	}
}

// 重复通过同一条内容：第二次是幂等空操作，审核章保持第一次的值，
// 不会发第二份通知
func TestApproveIdempotent(t *testing.T) {
	setupTestDB(t)
	seedSettings(t, true)

	owner := createTestUser(t, "owner3", models.RoleUser)
	m1 := createTestUser(t, "mod3a", models.RoleModerator)
	m2 := createTestUser(t, "mod3b", models.RoleModerator)
	deal := createTestDeal(t, owner, models.DealTypeDeal)
	settings, _ := LoadModerationSettings()
	if _, err := DecideAndRecord(ContentRef{ID: deal.ID, Kind: deal.Kind()}, owner, settings); err != nil {
		t.Fatalf("提交失败: %v", err)
	}

	if err := Approve(deal.ID, deal.Kind(), m1); err != nil {
		t.Fatalf("首次通过失败: %v", err)
	}
	first := reloadDeal(t, deal.ID)

	if err := Approve(deal.ID, deal.Kind(), m2); err != nil {
		t.Fatalf("重复通过应幂等成功, got %v", err)
	}
	waitAsync()

	second := reloadDeal(t, deal.ID)
	if *second.ModeratorID != *first.ModeratorID {
		t.Errorf("重复通过改写了 moderator_id: %d → %d", *first.ModeratorID, *second.ModeratorID)
	}
	if !second.ModeratedAt.Equal(*first.ModeratedAt) {
		t.Errorf("重复通过改写了 moderated_at")
	}

	var count int64
	db.DB.Model(&models.Notification{}).Where("user_id = ?", owner.ID).Count(&count)
	if count != 1 {
		t.Errorf("重复通过触发了第二份通知, 通知条数 = %d", count)
	}
}

// 终态之后的相反决策：返回 ErrAlreadyDecided，原决策不被改写
func TestOppositeDecisionAfterTerminal(t *testing.T) {
	setupTestDB(t)
	seedSettings(t, true)

	owner := createTestUser(t, "owner4", models.RoleUser)
	m1 := createTestUser(t, "mod4a", models.RoleModerator)
	m2 := createTestUser(t, "mod4b", models.RoleModerator)
	deal := createTestDeal(t, owner, models.DealTypeDeal)
	settings, _ := LoadModerationSettings()
	if _, err := DecideAndRecord(ContentRef{ID: deal.ID, Kind: deal.Kind()}, owner, settings); err != nil {
		t.Fatalf("提交失败: %v", err)
	}

	if err := Approve(deal.ID, deal.Kind(), m1); err != nil {
		t.Fatalf("通过失败: %v", err)
	}
	waitAsync()
	err := Reject(deal.ID, deal.Kind(), m2, "撤回")
	if !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("终态后的相反决策应返回 ErrAlreadyDecided, got %v", err)
	}

	got := reloadDeal(t, deal.ID)
	if got.Status != models.StatusApproved || *got.ModeratorID != m1.ID {
		t.Errorf("落败方不应改写原决策, got status=%s moderator=%v", got.Status, got.ModeratorID)
	}
	if got.ModerationNote != "" {
		t.Errorf("落败方的备注不应落库, got %q", got.ModerationNote)
	}
}

func TestReviewRequiresModerator(t *testing.T) {
	setupTestDB(t)
	seedSettings(t, true)

	owner := createTestUser(t, "owner5", models.RoleUser)
	deal := createTestDeal(t, owner, models.DealTypeDeal)

	if err := Approve(deal.ID, deal.Kind(), owner); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("普通用户审核应返回 ErrUnauthorized, got %v", err)
	}
	if err := Approve(deal.ID, deal.Kind(), nil); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("匿名审核应返回 ErrUnauthorized, got %v", err)
	}
}

func TestReviewMissingContent(t *testing.T) {
	setupTestDB(t)
	seedSettings(t, true)

	moderator := createTestUser(t, "mod6", models.RoleModerator)
	if err := Approve(99999, models.KindDeal, moderator); !errors.Is(err, ErrNotFound) {
		t.Errorf("审核不存在的内容应返回 ErrNotFound, got %v", err)
	}
}

// 审核通过给提交者加分，驳回扣分
func TestDecisionPoints(t *testing.T) {
	setupTestDB(t)
	seedSettings(t, true)

	owner := createTestUser(t, "owner7", models.RoleUser)
	moderator := createTestUser(t, "mod7", models.RoleModerator)
	settings, _ := LoadModerationSettings()

	approved := createTestDeal(t, owner, models.DealTypeDeal)
	rejected := createTestDeal(t, owner, models.DealTypeDeal)
	for _, d := range []*models.Deal{approved, rejected} {
		if _, err := DecideAndRecord(ContentRef{ID: d.ID, Kind: d.Kind()}, owner, settings); err != nil {
			t.Fatalf("提交失败: %v", err)
		}
	}

	if err := Approve(approved.ID, approved.Kind(), moderator); err != nil {
		t.Fatalf("通过失败: %v", err)
	}
	if err := Reject(rejected.ID, rejected.Kind(), moderator, "重复内容"); err != nil {
		t.Fatalf("驳回失败: %v", err)
	}
	waitAsync()

	var logs []models.PointLog
	if err := db.DB.Where("user_id = ?", owner.ID).Find(&logs).Error; err != nil {
		t.Fatalf("读取积分流水失败: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("积分流水条数 = %d, want 2", len(logs))
	}

	total := 0
	for _, l := range logs {
		total += l.Amount
	}
	if total != PointsSubmissionApproved+PointsSubmissionRejected {
		t.Errorf("积分合计 = %d, want %d", total, PointsSubmissionApproved+PointsSubmissionRejected)
	}
}
