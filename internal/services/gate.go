package services

import (
	"time"

	"haoquan/internal/models"
)

// ContentRef 指向一条待决策的内容
type ContentRef struct {
	ID   uint
	Kind models.ContentKind
}

// GateDecision 提交门的决策结果
type GateDecision struct {
	Status   models.ContentStatus
	Enqueued bool
}

// DecideAndRecord 提交门：在内容创建/编辑落库之后调用，决定其初始状态并按需入队。
//
// 规则：
//  1. 审核员及以上角色提交 → 直接 approved，盖本人的章，不入队；
//  2. 审核关闭或该类型免审 → approved，盖提交者的章（系统代审），不入队；
//  3. 其余情况 → pending，写入（或复用）审核队列行。
//
// settings 传 nil 表示设置读取失败，此时按需要审核处理——宁可多审一条，
// 不能因为一次读失败放内容免审上线。
func DecideAndRecord(ref ContentRef, actor *models.User, settings *models.ModerationSetting) (GateDecision, error) {
	now := time.Now()

	if models.CanModerate(actor.Role) {
		if err := stampApproved(ref.Kind, ref.ID, actor.ID, now); err != nil {
			return GateDecision{}, err
		}
		return GateDecision{Status: models.StatusApproved}, nil
	}

	if settings != nil && !settings.RequiresReview(ref.Kind) {
		if err := stampApproved(ref.Kind, ref.ID, actor.ID, now); err != nil {
			return GateDecision{}, err
		}
		return GateDecision{Status: models.StatusApproved}, nil
	}

	if err := markPending(ref.Kind, ref.ID); err != nil {
		return GateDecision{}, err
	}
	if err := EnqueueItem(ref.ID, ref.Kind, actor.ID, now); err != nil {
		return GateDecision{}, err
	}
	return GateDecision{Status: models.StatusPending, Enqueued: true}, nil
}
