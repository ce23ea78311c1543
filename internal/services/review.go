package services

import (
	"log"
	"time"

	"haoquan/internal/db"
	"haoquan/internal/models"
)

// Approve 审核通过。重复调用幂等：内容已是 approved 时只补齐队列镜像，
// 直接返回成功，不会再次触发通知和积分。
func Approve(itemID uint, kind models.ContentKind, moderator *models.User) error {
	return decide(itemID, kind, moderator, models.StatusApproved, "")
}

// Reject 审核驳回，note 为驳回原因（会随通知发给提交者）。幂等语义与 Approve 相同。
func Reject(itemID uint, kind models.ContentKind, moderator *models.User, note string) error {
	return decide(itemID, kind, moderator, models.StatusRejected, note)
}

// decide 执行一次审核决策。
//
// 状态机：pending → approved / pending → rejected，两者皆为终态，
// 本引擎不提供离开终态的转换（被拒后重新提交走创建/编辑流程）。
//
// 权威写是一条 WHERE status='pending' 的条件更新（CAS）：两个审核员
// 并发点击时先落库者胜出，落空的一方重读收敛——与胜者目标一致视为
// 幂等成功，相反则得到 ErrAlreadyDecided，不会出现 moderator_id 和
// 备注来自两次不同决策的混搭。
//
// 队列镜像写失败只记录日志：内容表已是事实来源，漂移由下一次
// 队列加载时的对账修正。权威写失败则必须原样抛给调用方。
func decide(itemID uint, kind models.ContentKind, moderator *models.User, target models.ContentStatus, note string) error {
	if moderator == nil || !models.CanModerate(moderator.Role) {
		return ErrUnauthorized
	}

	state, err := getModerationState(kind, itemID)
	if err != nil {
		return err
	}

	if state.Status == target {
		// 已是目标状态：仅同步队列镜像，幂等成功
		mirrorQueue(itemID, kind, target, state.ModeratorID, state.ModeratedAt, state.ModerationNote)
		return nil
	}
	if state.Status.Terminal() {
		return ErrAlreadyDecided
	}

	now := time.Now()
	changed, err := casTransition(kind, itemID, target, moderator.ID, now, note)
	if err != nil {
		return err
	}
	if !changed {
		// CAS 落空：并发决策抢先。重读并收敛。
		state, err = getModerationState(kind, itemID)
		if err != nil {
			return err
		}
		if state.Status == target {
			mirrorQueue(itemID, kind, target, state.ModeratorID, state.ModeratedAt, state.ModerationNote)
			return nil
		}
		return ErrAlreadyDecided
	}

	moderatorID := moderator.ID
	mirrorQueue(itemID, kind, target, &moderatorID, &now, note)

	// 只有赢得状态转换的这一次才触发下游副作用，
	// 重试和并发失败方都不会让提交者收到第二份通知或积分。
	notifyDecision(state.OwnerID, state.Title, target, moderator, note)
	if target == models.StatusApproved {
		AddPointsAsync(state.OwnerID, PointsSubmissionApproved, ActionSubmissionApproved)
	} else {
		AddPointsAsync(state.OwnerID, PointsSubmissionRejected, ActionSubmissionRejected)
	}
	return nil
}

// mirrorQueue 同步队列镜像，失败不向上传播
func mirrorQueue(itemID uint, kind models.ContentKind, status models.ContentStatus, moderatorID *uint, moderatedAt *time.Time, note string) {
	if err := SyncQueueEntry(itemID, kind, status, moderatorID, moderatedAt, note); err != nil {
		log.Printf("审核：镜像队列行失败 %s/%d: %v", kind, itemID, err)
	}
}

// notifyDecision 向提交者发送审核结果通知
func notifyDecision(ownerID uint, title string, target models.ContentStatus, moderator *models.User, note string) {
	var reason string
	if target == models.StatusApproved {
		reason = "您提交的《" + title + "》已通过审核，现在对所有用户可见。"
	} else {
		reason = "很抱歉，您提交的《" + title + "》未通过审核。"
		if note != "" {
			reason += "原因：" + note
		}
	}

	actorID := moderator.ID
	notification := models.Notification{
		UserID:  ownerID,
		ActorID: &actorID,
		Type:    models.NotificationTypeModeration,
		Reason:  reason,
	}
	if err := db.DB.Create(&notification).Error; err != nil {
		log.Printf("审核：发送结果通知失败 (ownerID=%d): %v", ownerID, err)
	}
}
