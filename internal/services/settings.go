package services

import (
	"haoquan/internal/db"
	"haoquan/internal/models"
)

// LoadModerationSettings 读取审核设置单例。
// 读取失败时返回 error，调用方必须按"需要审核"处理（fail closed），
// 不能因为基础设施故障放任内容免审发布。
func LoadModerationSettings() (*models.ModerationSetting, error) {
	var setting models.ModerationSetting
	if err := db.DB.First(&setting, models.SettingsID).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// SetModerationEnabled 开关全局审核，仅管理员可操作
func SetModerationEnabled(actor *models.User, enabled bool) error {
	if actor == nil || !models.IsAdmin(actor.Role) {
		return ErrUnauthorized
	}
	return db.DB.Model(&models.ModerationSetting{}).
		Where("id = ?", models.SettingsID).
		Update("enabled", enabled).Error
}

// SetModerationTypes 设置需要审核的内容类型集合，仅管理员可操作
func SetModerationTypes(actor *models.User, kinds []models.ContentKind) error {
	if actor == nil || !models.IsAdmin(actor.Role) {
		return ErrUnauthorized
	}
	var setting models.ModerationSetting
	setting.SetTypes(kinds)
	return db.DB.Model(&models.ModerationSetting{}).
		Where("id = ?", models.SettingsID).
		Update("types", setting.Types).Error
}
