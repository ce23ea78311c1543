package models

import (
	"time"
)

// 用户角色，封闭集合，不做散落的字符串比较
const (
	RoleUser       = "user"
	RoleModerator  = "moderator"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// CanModerate 角色是否具备审核能力
func CanModerate(role string) bool {
	switch role {
	case RoleModerator, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdmin 角色是否具备站点管理能力（审核设置、用户惩罚）
func IsAdmin(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Username      string     `gorm:"not null" json:"username"` // Username can be modified
	Email         string     `gorm:"uniqueIndex;not null" json:"email"`
	Password      string     `gorm:"not null" json:"-"`                           // Hash
	Avatar        string     `gorm:"default:🛒" json:"avatar"`                     // emoji 头像
	Bio           string     `gorm:"size:200" json:"bio"`                         // 个人简介
	Points        int        `gorm:"default:0" json:"points"`                     // 省币积分
	Role          string     `gorm:"size:20;default:'user';not null" json:"role"` // user, moderator, admin, superadmin
	Status        int        `gorm:"default:0" json:"status"`                     // 0:正常, 1:禁言, 2:封禁
	PunishExpires *time.Time `json:"punish_expires"`                              // 惩罚到期时间
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	// No DeletedAt for hard delete
}
