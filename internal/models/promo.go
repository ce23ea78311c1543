package models

import (
	"time"
)

// Promo 优惠码
type Promo struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Pid         string     `gorm:"uniqueIndex;size:8;not null" json:"pid"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	User        User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Merchant    string     `gorm:"size:100;not null" json:"merchant"`
	Code        string     `gorm:"size:100;not null" json:"code"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	URL         string     `json:"url"`
	ExpiresAt   *time.Time `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// 审核相关字段
	Status         ContentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ModeratorID    *uint         `gorm:"index" json:"moderator_id"`
	ModeratedAt    *time.Time    `json:"moderated_at"`
	ModerationNote string        `gorm:"size:500" json:"moderation_note"`
}
