package services

import (
	"fmt"
	"testing"
	"time"

	"haoquan/internal/db"
	"haoquan/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 为每个测试准备一个独立的内存 SQLite 数据库。
// 连接数限制为 1，保证 :memory: 数据库在整个测试期间是同一个。
func setupTestDB(t *testing.T) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Deal{},
		&models.Promo{},
		&models.Comment{},
		&models.Vote{},
		&models.Bookmark{},
		&models.PointLog{},
		&models.Notification{},
		&models.ModerationQueue{},
		&models.ModerationSetting{},
	); err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}

	db.DB = gdb
}

// seedSettings 写入审核设置单例
func seedSettings(t *testing.T, enabled bool, kinds ...models.ContentKind) *models.ModerationSetting {
	t.Helper()

	setting := models.ModerationSetting{
		ID:      models.SettingsID,
		Enabled: enabled,
	}
	if len(kinds) == 0 {
		kinds = models.AllContentKinds()
	}
	setting.SetTypes(kinds)

	if err := db.DB.Create(&setting).Error; err != nil {
		t.Fatalf("写入审核设置失败: %v", err)
	}
	// Enabled 带 default:true 标签，Create 对零值 false 会落成默认值 true，
	// 这里显式更新一次保证落库值与入参一致。
	if err := db.DB.Model(&models.ModerationSetting{}).
		Where("id = ?", models.SettingsID).
		Update("enabled", enabled).Error; err != nil {
		t.Fatalf("写入审核开关失败: %v", err)
	}
	setting.Enabled = enabled
	return &setting
}

func createTestUser(t *testing.T, username, role string) *models.User {
	t.Helper()

	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		Role:     role,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	return &user
}

var testDidSeq int

func createTestDeal(t *testing.T, owner *models.User, dealType string) *models.Deal {
	t.Helper()

	testDidSeq++
	deal := models.Deal{
		Did:    fmt.Sprintf("td%06d", testDidSeq),
		UserID: owner.ID,
		Type:   dealType,
		Title:  "测试优惠 " + dealType,
		Price:  "¥99",
		Image:  "https://img.example.com/1.png",
		Status: models.StatusPending,
	}
	if err := db.DB.Create(&deal).Error; err != nil {
		t.Fatalf("创建优惠失败: %v", err)
	}
	return &deal
}

func createTestPromo(t *testing.T, owner *models.User) *models.Promo {
	t.Helper()

	testDidSeq++
	promo := models.Promo{
		Pid:      fmt.Sprintf("tp%06d", testDidSeq),
		UserID:   owner.ID,
		Merchant: "某商城",
		Code:     "SAVE20",
		Title:    "测试优惠码",
		Status:   models.StatusPending,
	}
	if err := db.DB.Create(&promo).Error; err != nil {
		t.Fatalf("创建优惠码失败: %v", err)
	}
	return &promo
}

func queueEntries(t *testing.T) []models.ModerationQueue {
	t.Helper()

	var entries []models.ModerationQueue
	if err := db.DB.Order("id ASC").Find(&entries).Error; err != nil {
		t.Fatalf("读取队列失败: %v", err)
	}
	return entries
}

func reloadDeal(t *testing.T, id uint) *models.Deal {
	t.Helper()

	var deal models.Deal
	if err := db.DB.First(&deal, id).Error; err != nil {
		t.Fatalf("读取优惠失败: %v", err)
	}
	return &deal
}

func reloadPromo(t *testing.T, id uint) *models.Promo {
	t.Helper()

	var promo models.Promo
	if err := db.DB.First(&promo, id).Error; err != nil {
		t.Fatalf("读取优惠码失败: %v", err)
	}
	return &promo
}

// waitAsync 给异步副作用（积分 goroutine）一点落库时间
func waitAsync() {
	time.Sleep(50 * time.Millisecond)
}
