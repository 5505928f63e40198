package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"dc-panel/internal/config"
	"dc-panel/internal/database"
	"dc-panel/internal/handlers"
	"dc-panel/internal/middleware"
	"dc-panel/internal/models"
	"dc-panel/internal/services/scheduler"
	ws "dc-panel/internal/services/websocket"
)

func main() {
	// Load .env file if exists
	godotenv.Load()

	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Override with .env PORT if set
	if envPort := os.Getenv("PORT"); envPort != "" {
		if port, err := strconv.Atoi(envPort); err == nil {
			cfg.Server.Port = port
		}
	}

	// Connect to database
	_, err = database.Connect(cfg.Database.Path)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate models
	if err := database.AutoMigrate(
		&models.User{},
		&models.Job{},
		&models.CommandLog{},
		&models.ActivitySettings{},
		&models.ExecutorHeartbeat{},
		&models.Server{},
		&models.Cluster{},
		&models.PDU{},
		&models.PDUOutlet{},
		&models.MaintenanceWindow{},
		&models.SSHKey{},
		&models.NotificationSettings{},
	); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}

	// Create default admin user if not exists
	createDefaultAdmin(cfg)

	// Initialize WebSocket hub
	ws.InitHub()

	// Initialize background scheduler
	scheduler.Init(cfg.Scheduler)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: false,
	}))

	// Static SPA bundle
	app.Static("/", "./web/dist")

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// Routes
	setupRoutes(app)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logrus.Infof("🚀 DC Panel starting on http://%s", addr)
	logrus.Fatal(app.Listen(addr))
}

func setupRoutes(app *fiber.App) {
	// API routes - Public
	api := app.Group("/api")
	api.Post("/auth/login", handlers.Login)

	// API routes - Protected
	protected := api.Group("/", middleware.AuthRequired(), middleware.ActivityLog())
	admin := middleware.AdminRequired()
	protected.Post("/auth/logout", handlers.Logout)
	protected.Get("/auth/profile", handlers.GetProfile)
	protected.Post("/auth/2fa/setup", handlers.Setup2FA)
	protected.Post("/auth/2fa/verify", handlers.Verify2FA)
	protected.Post("/auth/2fa/disable", handlers.Disable2FA)

	// Dashboard API
	protected.Get("/dashboard", handlers.GetDashboard)
	protected.Get("/system/stats", handlers.GetHostStats)

	// Jobs API
	protected.Get("/jobs", handlers.GetJobs)
	protected.Post("/jobs", handlers.CreateJob)
	protected.Get("/jobs/:id", handlers.GetJob)
	protected.Get("/jobs/:id/cancel-options", handlers.GetCancelOptions)
	protected.Post("/jobs/:id/cancel", handlers.CancelJob)

	// Executor API
	protected.Get("/executors", handlers.GetExecutors)
	protected.Post("/executor/heartbeat", handlers.ExecutorHeartbeat)

	// Activity log + retention API
	protected.Get("/activity/logs", handlers.GetActivityLogs)
	protected.Get("/activity/settings", handlers.GetActivitySettings)
	protected.Put("/activity/settings", handlers.UpdateActivitySettings)
	protected.Post("/activity/cleanup", handlers.RunCleanup)

	// Server inventory API
	protected.Get("/servers", handlers.GetServers)
	protected.Post("/servers", handlers.CreateServer)
	protected.Post("/servers/discover", handlers.DiscoverServers)
	protected.Get("/servers/:id", handlers.GetServer)
	protected.Put("/servers/:id", handlers.UpdateServer)
	protected.Delete("/servers/:id", admin, handlers.DeleteServer)
	protected.Post("/servers/:id/refresh", handlers.RefreshServer)

	// Cluster API
	protected.Get("/clusters", handlers.GetClusters)
	protected.Post("/clusters", handlers.CreateCluster)
	protected.Get("/clusters/:id", handlers.GetCluster)
	protected.Delete("/clusters/:id", admin, handlers.DeleteCluster)
	protected.Post("/clusters/:id/sync", handlers.SyncCluster)

	// PDU / power API
	protected.Get("/pdus", handlers.GetPDUs)
	protected.Post("/pdus", handlers.CreatePDU)
	protected.Delete("/pdus/:id", admin, handlers.DeletePDU)
	protected.Put("/outlets/:id/assign", handlers.AssignOutlet)
	protected.Post("/outlets/:id/power/:action", admin, handlers.PowerAction)

	// Maintenance API
	protected.Get("/maintenance", handlers.GetMaintenanceWindows)
	protected.Post("/maintenance", handlers.CreateMaintenanceWindow)
	protected.Put("/maintenance/:id", handlers.UpdateMaintenanceWindow)
	protected.Delete("/maintenance/:id", admin, handlers.DeleteMaintenanceWindow)

	// SSH key API
	protected.Get("/sshkeys", handlers.GetSSHKeys)
	protected.Post("/sshkeys", handlers.CreateSSHKey)
	protected.Post("/sshkeys/:id/revoke", admin, handlers.RevokeSSHKey)
	protected.Delete("/sshkeys/:id", admin, handlers.DeleteSSHKey)

	// Notification API
	protected.Get("/notifications/settings", handlers.GetNotificationSettings)
	protected.Put("/notifications/settings", handlers.UpdateNotificationSettings)
	protected.Post("/notifications/test", handlers.TestNotification)

	// WebSocket job feed
	app.Get("/ws/jobs", websocket.New(ws.HandleWebSocket))
}

func createDefaultAdmin(cfg *config.Config) {
	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		return
	}

	admin := models.User{
		Username: cfg.Admin.Username,
		Email:    cfg.Admin.Email,
		Role:     "admin",
	}
	admin.SetPassword(cfg.Admin.Password)

	if err := database.DB.Create(&admin).Error; err != nil {
		logrus.Errorf("Failed to create default admin: %v", err)
	} else {
		logrus.Infof("✅ Default admin user created: %s", cfg.Admin.Username)
	}
}
