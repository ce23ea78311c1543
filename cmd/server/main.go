package main

import (
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"time"

	"haoquan/internal/db"
	"haoquan/internal/handlers"
	"haoquan/internal/middleware"
	"haoquan/internal/services"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	// Initialize Database
	db.Init()

	// 初始化异步热度服务
	services.GetRankingService()

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "secret_key_change_me"
	}
	store := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("haoquan_session", store))

	// Load Templates using Multitemplate to avoid collision and allow handler names
	r.HTMLRender = loadTemplates("./web/templates")

	// Static Assets
	r.Static("/static", "./web/static")

	// Middleware
	r.Use(middleware.LoadUser())

	// Handlers
	authHandler := handlers.NewAuthHandler()
	dealHandler := handlers.NewDealHandler()
	promoHandler := handlers.NewPromoHandler()
	voteHandler := handlers.NewVoteHandler()
	userHandler := handlers.NewUserHandler()
	bookmarkHandler := handlers.NewBookmarkHandler()
	notificationHandler := handlers.NewNotificationHandler()
	moderationHandler := handlers.NewModerationHandler()
	adminHandler := handlers.NewAdminHandler()

	// Public Routes
	r.GET("/", dealHandler.ListHot)
	r.GET("/new", dealHandler.ListNew)
	r.GET("/sweepstakes", dealHandler.ListSweepstakes)
	r.GET("/promos", promoHandler.List)
	r.GET("/d/:did", dealHandler.Detail)
	r.GET("/c/:pid", promoHandler.Detail)
	r.GET("/t/:name", dealHandler.ListByCategory)
	r.GET("/u/:id", userHandler.Profile) // 用户主页

	r.GET("/signup", authHandler.ShowRegister)
	r.POST("/signup", authHandler.Register)
	r.GET("/login", authHandler.ShowLogin)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	// Protected Routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/submit", dealHandler.ShowCreate)
		authorized.POST("/submit", dealHandler.Create)
		authorized.GET("/submit/promo", promoHandler.ShowCreate)
		authorized.POST("/submit/promo", promoHandler.Create)
		authorized.POST("/d/:did/comment", dealHandler.CreateComment)
		authorized.POST("/vote/:type/:id", voteHandler.Vote)
		authorized.POST("/vote/:type/:id/down", voteHandler.Downvote)
		authorized.POST("/bookmark/:id", bookmarkHandler.Toggle)
		authorized.GET("/d/:did/edit", dealHandler.ShowEdit)
		authorized.POST("/d/:did/edit", dealHandler.Update)

		authorized.DELETE("/d/:did", dealHandler.Delete)
		authorized.DELETE("/c/:pid", promoHandler.Delete)
		authorized.DELETE("/comment/:cid", dealHandler.DeleteComment)

		authorized.POST("/notifications/:id/read", notificationHandler.Read)
		authorized.DELETE("/notifications/:id", notificationHandler.Delete)
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll)
	}

	// Dashboard Routes
	dashboard := r.Group("/dashboard")
	dashboard.Use(middleware.AuthRequired())
	{
		dashboard.GET("", userHandler.Dashboard)
		dashboard.GET("/notifications", notificationHandler.List)
		dashboard.GET("/points", userHandler.PointLogs)
		dashboard.GET("/settings", userHandler.ShowSettings)
		dashboard.POST("/settings", userHandler.UpdateSettings)
		dashboard.POST("/checkin", userHandler.CheckIn)
	}

	// 审核队列路由
	mod := r.Group("/mod")
	mod.Use(middleware.AuthRequired(), middleware.ModeratorRequired())
	{
		mod.GET("/queue", moderationHandler.Queue)
		mod.POST("/approve/:kind/:id", moderationHandler.Approve)
		mod.POST("/reject/:kind/:id", moderationHandler.Reject)
	}

	// 管理路由
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("/moderation", adminHandler.ShowSettings)
		admin.POST("/moderation/enabled", adminHandler.SetModerationEnabled)
		admin.POST("/moderation/types", adminHandler.SetModerationTypes)
		admin.POST("/users/:id/punish", adminHandler.PunishUser)
		admin.POST("/users/:id/role", adminHandler.SetUserRole)
		admin.DELETE("/deals/:did", adminHandler.AdminDeleteDeal)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("HaoQuan server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

func loadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}

	includes, err := filepath.Glob(templatesDir + "/includes/*.html")
	if err != nil {
		panic(err)
	}

	components, err := filepath.Glob(templatesDir + "/components/*.html")
	if err != nil {
		panic(err)
	}

	// Helper to assemble files
	assemble := func(view string) []string {
		files := make([]string, 0)
		files = append(files, layouts...)
		files = append(files, includes...)
		files = append(files, components...)
		files = append(files, view)
		return files
	}

	// FuncMap
	funcMap := template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo": func(t interface{}) string {
			var timeVal time.Time
			switch v := t.(type) {
			case time.Time:
				timeVal = v
			default:
				return ""
			}

			duration := time.Since(timeVal)
			seconds := int(duration.Seconds())

			if seconds < 60 {
				return fmt.Sprintf("%d秒前", seconds)
			} else if seconds < 3600 {
				return fmt.Sprintf("%d分钟前", seconds/60)
			} else if seconds < 86400 {
				return fmt.Sprintf("%d小时前", seconds/3600)
			} else if seconds < 2592000 {
				return fmt.Sprintf("%d天前", seconds/86400)
			} else if seconds < 31536000 {
				return fmt.Sprintf("%d个月前", seconds/2592000)
			}
			return fmt.Sprintf("%d年前", seconds/31536000)
		},
		"eq": func(a, b interface{}) bool {
			return a == b
		},
		"gt": func(a, b int) bool {
			return a > b
		},
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
	}

	// Manual registration to ensure keys match handler expectation
	// Auth
	r.AddFromFilesFuncs("auth/login.html", funcMap, assemble(templatesDir+"/views/auth/login.html")...)
	r.AddFromFilesFuncs("auth/register.html", funcMap, assemble(templatesDir+"/views/auth/register.html")...)

	// Deal
	r.AddFromFilesFuncs("deal/list.html", funcMap, assemble(templatesDir+"/views/deal/list.html")...)
	r.AddFromFilesFuncs("deal/detail.html", funcMap, assemble(templatesDir+"/views/deal/detail.html")...)
	r.AddFromFilesFuncs("deal/create.html", funcMap, assemble(templatesDir+"/views/deal/create.html")...)
	r.AddFromFilesFuncs("deal/edit.html", funcMap, assemble(templatesDir+"/views/deal/edit.html")...)
	r.AddFromFilesFuncs("deal/sweepstakes.html", funcMap, assemble(templatesDir+"/views/deal/sweepstakes.html")...)

	// Promo
	r.AddFromFilesFuncs("promo/list.html", funcMap, assemble(templatesDir+"/views/promo/list.html")...)
	r.AddFromFilesFuncs("promo/detail.html", funcMap, assemble(templatesDir+"/views/promo/detail.html")...)
	r.AddFromFilesFuncs("promo/create.html", funcMap, assemble(templatesDir+"/views/promo/create.html")...)

	// User
	r.AddFromFilesFuncs("user/public.html", funcMap, assemble(templatesDir+"/views/user/public.html")...)

	// Dashboard
	r.AddFromFilesFuncs("dashboard/overview.html", funcMap, assemble(templatesDir+"/views/dashboard/overview.html")...)
	r.AddFromFilesFuncs("notification/list.html", funcMap, assemble(templatesDir+"/views/notification/list.html")...)
	r.AddFromFilesFuncs("dashboard/points.html", funcMap, assemble(templatesDir+"/views/dashboard/points.html")...)
	r.AddFromFilesFuncs("dashboard/settings.html", funcMap, assemble(templatesDir+"/views/dashboard/settings.html")...)

	// Moderation / Admin
	r.AddFromFilesFuncs("moderation/queue.html", funcMap, assemble(templatesDir+"/views/moderation/queue.html")...)
	r.AddFromFilesFuncs("admin/settings.html", funcMap, assemble(templatesDir+"/views/admin/settings.html")...)

	// Error
	r.AddFromFilesFuncs("error.html", funcMap, assemble(templatesDir+"/views/error.html")...)

	return r
}
