package services

import (
	"testing"

	"haoquan/internal/models"
)

func TestGateModeratorAutoApproved(t *testing.T) {
	setupTestDB(t)
	seedSettings(t, true)

	for _, role := range []string{models.RoleModerator, models.RoleAdmin, models.RoleSuperAdmin} {
		actor := createTestUser(t, "gate_"+role, role)
		deal := createTestDeal(t, actor, models.DealTypeDeal)
		settings, _ := LoadModerationSettings()

		decision, err := DecideAndRecord(ContentRef{ID: deal.ID, Kind: deal.Kind()}, actor, settings)
		if err != nil {
			t.Fatalf("%s 提交失败: %v", role, err)
		}
		if decision.Status != models.StatusApproved || decision.Enqueued {
			t.Errorf("%s 的提交应直接通过且不入队, got %+v", role, decision)
		}

		got := reloadDeal(t, deal.ID)
		if got.Status != models.StatusApproved {
			t.Errorf("%s: 内容状态 = %s, want approved", role, got.Status)
		}
		if got.ModeratorID == nil || *got.ModeratorID != actor.ID {
			t.Errorf("%s: 应盖提交者本人的审核章", role)
		}
		if got.ModeratedAt == nil {
			t.Errorf("%s: moderated_at 未落库", role)
		}
	}

	if entries := queueEntries(t); len(entries) != 0 {
		t.Errorf("特权角色提交不应产生队列行, got %d 行", len(entries))
	}
}

func TestGateRegularUserEnqueued(t *testing.T) {
	setupTestDB(t)
	seedSettings(t, true)

	actor := createTestUser(t, "alice", models.RoleUser)
	deal := createTestDeal(t, actor, models.DealTypeDeal)
	settings, _ := LoadModerationSettings()

	decision, err := DecideAndRecord(ContentRef{ID: deal.ID, Kind: deal.Kind()}, actor, settings)
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	if decision.Status != models.StatusPending || !decision.Enqueued {
		t.Fatalf("普通用户提交应 pending 且入队, got %+v", decision)
	}

	entries := queueEntries(t)
	if len(entries) != 1 {
		t.Fatalf("队列行数 = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.ItemID != deal.ID || entry.ItemKind != models.KindDeal {
		t.Errorf("队列行指向 %s/%d, want deal/%d", entry.ItemKind, entry.ItemID, deal.ID)
	}
	if entry.Status != models.StatusPending {
		t.Errorf("队列行状态 = %s, want pending", entry.Status)
	}
	if entry.SubmittedBy != actor.ID {
		t.Errorf("队列行 submitted_by = %d, want %d", entry.SubmittedBy, actor.ID)
	}
}

func TestGateModerationDisabled(t *testing.T) {
	setupTestDB(t)
	seedSettings(t, false)

	actor := createTestUser(t, "bob", models.RoleUser)
	deal := createTestDeal(t, actor, models.DealTypeDeal)
	settings, _ := LoadModerationSettings()

	decision, err := DecideAndRecord(ContentRef{ID: deal.ID, Kind: deal.Kind()}, actor, settings)
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	if decision.Status != models.StatusApproved {
		t.Errorf("审核关闭时应直接通过, got %s", decision.Status)
	}
	if got := reloadDeal(t, deal.ID); got.ModeratorID == nil || *got.ModeratorID != actor.ID {
		t.Errorf("系统代审应盖提交者的章")
	}
	if entries := queueEntries(t); len(entries) != 0 {
		t.Errorf("审核关闭时不应入队")
	}
}

func TestGateKindExcludedFromReview(t *testing.T) {
	setupTestDB(t)
	// 仅优惠码需要审核
	seedSettings(t, true, models.KindPromo)

	actor := createTestUser(t, "carol", models.RoleUser)
	deal := createTestDeal(t, actor, models.DealTypeDeal)
	promo := createTestPromo(t, actor)
	settings, _ := LoadModerationSettings()

	dealDecision, err := DecideAndRecord(ContentRef{ID: deal.ID, Kind: deal.Kind()}, actor, settings)
	if err != nil {
		t.Fatalf("提交 deal 失败: %v", err)
	}
	if dealDecision.Status != models.StatusApproved {
		t.Errorf("免审类型应直接通过, got %s", dealDecision.Status)
	}

	promoDecision, err := DecideAndRecord(ContentRef{ID: promo.ID, Kind: models.KindPromo}, actor, settings)
	if err != nil {
		t.Fatalf("提交 promo 失败: %v", err)
	}
	if promoDecision.Status != models.StatusPending || !promoDecision.Enqueued {
		t.Errorf("受审类型应 pending 入队, got %+v", promoDecision)
	}

	entries := queueEntries(t)
	if len(entries) != 1 || entries[0].ItemKind != models.KindPromo {
		t.Errorf("队列里应只有 promo 一行, got %+v", entries)
	}
}

// 设置读取失败（settings 为 nil）时必须按需要审核处理，不能放行
func TestGateFailsClosedWithoutSettings(t *testing.T) {
	setupTestDB(t)

	actor := createTestUser(t, "dave", models.RoleUser)
	deal := createTestDeal(t, actor, models.DealTypeSweepstake)

	decision, err := DecideAndRecord(ContentRef{ID: deal.ID, Kind: deal.Kind()}, actor, nil)
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	if decision.Status != models.StatusPending || !decision.Enqueued {
		t.Errorf("设置缺失时应 fail-closed 到 pending, got %+v", decision)
	}
	if entries := queueEntries(t); len(entries) != 1 {
		t.Errorf("队列行数 = %d, want 1", len(entries))
	}
}

// 被驳回后重新提交：复用原队列行，重置为 pending，清空上次的审核信息
func TestGateResubmissionReusesQueueRow(t *testing.T) {
	setupTestDB(t)
	seedSettings(t, true)

	actor := createTestUser(t, "erin", models.RoleUser)
	moderator := createTestUser(t, "mod_erin", models.RoleModerator)
	deal := createTestDeal(t, actor, models.DealTypeDeal)
	settings, _ := LoadModerationSettings()

	if _, err := DecideAndRecord(ContentRef{ID: deal.ID, Kind: deal.Kind()}, actor, settings); err != nil {
		t.Fatalf("首次提交失败: %v", err)
	}
	if err := Reject(deal.ID, deal.Kind(), moderator, "图片缺失"); err != nil {
		t.Fatalf("驳回失败: %v", err)
	}
	waitAsync()

	firstRowID := queueEntries(t)[0].ID

	// 修改后重新提交
	if _, err := DecideAndRecord(ContentRef{ID: deal.ID, Kind: deal.Kind()}, actor, settings); err != nil {
		t.Fatalf("重新提交失败: %v", err)
	}

	entries := queueEntries(t)
	if len(entries) != 1 {
		t.Fatalf("重新提交后队列行数 = %d, want 1（复用原行）", len(entries))
	}
	entry := entries[0]
	if entry.ID != firstRowID {
		t.Errorf("应复用原队列行 id=%d, got id=%d", firstRowID, entry.ID)
	}
	if entry.Status != models.StatusPending {
		t.Errorf("复用行状态 = %s, want pending", entry.Status)
	}
	if entry.ModeratorID != nil || entry.ModeratedAt != nil || entry.ModerationNote != "" {
		t.Errorf("复用行应清空上次的审核信息, got %+v", entry)
	}
	if got := reloadDeal(t, deal.ID); got.Status != models.StatusPending {
		t.Errorf("重新提交后内容状态 = %s, want pending", got.Status)
	}
}
