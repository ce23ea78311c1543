package models

import (
	"strings"
	"time"
)

// ContentKind 可被审核的内容类型
type ContentKind string

const (
	KindDeal       ContentKind = "deal"       // 优惠信息
	KindPromo      ContentKind = "promo"      // 优惠码
	KindSweepstake ContentKind = "sweepstake" // 抽奖活动（作为 deal 的子类型存储）
)

// AllContentKinds 返回全部内容类型，用于设置页和校验
func AllContentKinds() []ContentKind {
	return []ContentKind{KindDeal, KindPromo, KindSweepstake}
}

// ValidContentKind 校验类型字符串是否为已知类型
func ValidContentKind(s string) bool {
	switch ContentKind(s) {
	case KindDeal, KindPromo, KindSweepstake:
		return true
	}
	return false
}

// ContentStatus 内容审核状态
type ContentStatus string

const (
	StatusDraft    ContentStatus = "draft"
	StatusPending  ContentStatus = "pending"
	StatusApproved ContentStatus = "approved"
	StatusRejected ContentStatus = "rejected"
)

// Terminal 是否为终态（approved/rejected 之后不再经审核引擎变更）
func (s ContentStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ModerationQueue 审核队列记录
// 队列行只是内容表审核字段的投影，内容表永远是事实来源；
// 两边不一致时以内容表为准，由 Reconciler 在每次加载队列时修正。
// (item_id, item_kind) 唯一：同一内容重新提交时复用原队列行。
type ModerationQueue struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	ItemID         uint          `gorm:"not null;uniqueIndex:idx_queue_item" json:"item_id"`
	ItemKind       ContentKind   `gorm:"type:varchar(20);not null;uniqueIndex:idx_queue_item" json:"item_kind"`
	Status         ContentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	SubmittedBy    uint          `gorm:"not null;index" json:"submitted_by"`
	Submitter      User          `gorm:"foreignKey:SubmittedBy;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"submitter"`
	SubmittedAt    time.Time     `gorm:"not null" json:"submitted_at"`
	ModeratorID    *uint         `gorm:"index" json:"moderator_id"`
	ModeratedAt    *time.Time    `json:"moderated_at"`
	ModerationNote string        `gorm:"size:500" json:"moderation_note"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// ModerationSetting 审核全局设置（单行记录，id 固定为 1）
type ModerationSetting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Enabled   bool      `gorm:"not null;default:true" json:"enabled"`
	Types     string    `gorm:"size:100;not null;default:'deal,promo,sweepstake'" json:"types"` // 逗号分隔的 ContentKind 列表
	UpdatedAt time.Time `json:"updated_at"`
}

// SettingsID 设置单例的固定主键
const SettingsID uint = 1

// TypeSet 解析 Types 字段为集合
func (m *ModerationSetting) TypeSet() map[ContentKind]bool {
	set := make(map[ContentKind]bool)
	for _, part := range strings.Split(m.Types, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		set[ContentKind(part)] = true
	}
	return set
}

// SetTypes 序列化类型集合到 Types 字段
func (m *ModerationSetting) SetTypes(kinds []ContentKind) {
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, string(k))
	}
	m.Types = strings.Join(parts, ",")
}

// RequiresReview 该类型的内容是否需要人工审核
func (m *ModerationSetting) RequiresReview(kind ContentKind) bool {
	if !m.Enabled {
		return false
	}
	return m.TypeSet()[kind]
}
