package models

import (
	"time"
)

// Bookmark 收藏模型 - 用户收藏优惠
type Bookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_user_deal" json:"user_id"`
	DealID    uint      `gorm:"not null;index;uniqueIndex:idx_user_deal" json:"deal_id"`
	Deal      Deal      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"deal"`
	CreatedAt time.Time `json:"created_at"`
}
