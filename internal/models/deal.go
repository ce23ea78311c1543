package models

import (
	"time"
)

// DealType 区分普通优惠和抽奖活动（抽奖作为 deal 子类型共用一张表）
const (
	DealTypeDeal       = "deal"
	DealTypeSweepstake = "sweepstake"
)

type Deal struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Did           string    `gorm:"uniqueIndex;size:8;not null" json:"did"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	User          User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	CategoryID    uint      `gorm:"not null;index;default:1" json:"category_id"`
	Category      Category  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
	Type          string    `gorm:"size:20;not null;default:'deal';index" json:"type"` // deal, sweepstake
	Title         string    `gorm:"not null" json:"title"`
	URL           string    `json:"url"` // 商品/活动链接，可选
	Content       string    `gorm:"type:text" json:"content"`
	Image         string    `json:"image"`
	Merchant      string    `gorm:"size:100" json:"merchant"`
	Price         string    `gorm:"size:50" json:"price"`          // 到手价，展示用字符串（"¥199"、"免费"）
	OriginalPrice string    `gorm:"size:50" json:"original_price"` // 原价
	EndsAt        *time.Time `json:"ends_at"`                      // 优惠/抽奖截止时间
	Score         int       `gorm:"default:0" json:"score"`
	Views         int       `gorm:"default:0" json:"views"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// 审核相关字段，内容表是审核状态的事实来源
	Status         ContentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ModeratorID    *uint         `gorm:"index" json:"moderator_id"`
	ModeratedAt    *time.Time    `json:"moderated_at"`
	ModerationNote string        `gorm:"size:500" json:"moderation_note"`

	// 非数据库字段，用于查询时填充
	CommentCount int `gorm:"-" json:"comment_count"`
}

// Kind 该条记录对应的审核内容类型
func (d *Deal) Kind() ContentKind {
	if d.Type == DealTypeSweepstake {
		return KindSweepstake
	}
	return KindDeal
}
