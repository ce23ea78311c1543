package db

import (
	"log"
	"os"

	"haoquan/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=haoquan port=5432 sslmode=disable TimeZone=Asia/Shanghai"
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established")

	// Auto Migrate
	err = DB.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Deal{},
		&models.Promo{},
		&models.Comment{},
		&models.Vote{},
		&models.Bookmark{},
		&models.PointLog{},
		&models.Notification{},
		// 审核相关模型
		&models.ModerationQueue{},
		&models.ModerationSetting{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	seedCategories()
	seedModerationSettings()
}

func seedCategories() {
	// 检查是否已有分类数据
	var count int64
	DB.Model(&models.Category{}).Count(&count)
	if count > 0 {
		log.Println("Categories already seeded, skipping")
		return
	}

	// 创建预设分类
	categories := []models.Category{
		{Name: "数码", Description: "手机、电脑、数码配件优惠"},
		{Name: "家居", Description: "家居日用、清洁收纳"},
		{Name: "美食", Description: "食品饮料、生鲜外卖"},
		{Name: "服饰", Description: "服装鞋包、运动户外"},
		{Name: "其他", Description: "其他类目的优惠信息"},
	}

	for _, category := range categories {
		if err := DB.Create(&category).Error; err != nil {
			log.Printf("Failed to create category %s: %v", category.Name, err)
		}
	}
	log.Println("Initial categories created successfully")
}

func seedModerationSettings() {
	// 审核设置为单行记录，不存在时用默认值补齐（默认开启，覆盖全部类型）
	var count int64
	DB.Model(&models.ModerationSetting{}).Where("id = ?", models.SettingsID).Count(&count)
	if count > 0 {
		return
	}

	setting := models.ModerationSetting{
		ID:      models.SettingsID,
		Enabled: true,
	}
	setting.SetTypes(models.AllContentKinds())

	if err := DB.Create(&setting).Error; err != nil {
		log.Printf("Failed to seed moderation settings: %v", err)
		return
	}
	log.Println("Moderation settings seeded")
}
