package FiberConfig

import (
	"fmt"

	"Firewatch/Controllers"
	"Firewatch/Models"
	"Firewatch/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize handlers
	authController := Controllers.NewAuthController(db)
	siteController := Controllers.NewSiteController(db)
	scheduleController := Controllers.NewScheduleController(db)
	taskController := Controllers.NewTaskController(db)
	defectController := Controllers.NewDefectController(db)
	drillController := Controllers.NewDrillController(db)
	reportController := Controllers.NewReportController(db)

	api := app.Group("/api")

	// Auth routes, no token required
	api.Post("/register", authController.Register)
	api.Post("/login", authController.Login)
	api.Post("/logout", authController.Logout)
	api.Get("/me", middleware.Verify(Models.PermissionViewer), authController.Me)
	api.Post("/UpdateToken", middleware.Verify(Models.PermissionViewer), Models.UpdateToken)

	// Site and asset routes
	sites := api.Group("/sites", middleware.Verify(Models.PermissionViewer))
	sites.Get("/", siteController.GetSites)
	sites.Post("/", middleware.Verify(Models.PermissionManager), siteController.CreateSite)
	sites.Put("/:id", middleware.Verify(Models.PermissionManager), siteController.UpdateSite)

	assets := api.Group("/assets", middleware.Verify(Models.PermissionViewer))
	assets.Get("/", siteController.GetAssets)
	assets.Post("/", middleware.Verify(Models.PermissionManager), siteController.CreateAsset)
	assets.Delete("/:id", middleware.Verify(Models.PermissionManager), siteController.DecommissionAsset)

	// Schedule routes, managers and up
	schedules := api.Group("/schedules", middleware.Verify(Models.PermissionManager))
	schedules.Get("/", scheduleController.GetSchedules)
	schedules.Post("/", scheduleController.CreateSchedule)
	schedules.Put("/:id", scheduleController.UpdateSchedule)
	schedules.Patch("/:id/toggle", scheduleController.ToggleActive)
	schedules.Delete("/:id", scheduleController.DeleteSchedule)
	schedules.Post("/:id/run", scheduleController.RunNow)

	// Task routes, inspectors do the work
	tasks := api.Group("/tasks", middleware.Verify(Models.PermissionViewer))
	tasks.Get("/", taskController.GetTasks)
	tasks.Get("/summary", taskController.GetSummary)
	tasks.Post("/", middleware.Verify(Models.PermissionManager), taskController.CreateAdhocTask)
	tasks.Post("/:id/claim", middleware.Verify(Models.PermissionInspector), taskController.ClaimTask)
	tasks.Post("/:id/release", middleware.Verify(Models.PermissionInspector), taskController.ReleaseTask)
	tasks.Post("/:id/open", middleware.Verify(Models.PermissionInspector), taskController.OpenTask)
	tasks.Post("/:id/complete", middleware.Verify(Models.PermissionInspector), taskController.CompleteTask)

	// Defect routes
	defects := api.Group("/defects", middleware.Verify(Models.PermissionViewer))
	defects.Get("/", defectController.GetDefects)
	defects.Post("/", middleware.Verify(Models.PermissionInspector), defectController.CreateDefect)
	defects.Put("/:id", middleware.Verify(Models.PermissionInspector), defectController.UpdateDefect)
	defects.Post("/:id/resolve", middleware.Verify(Models.PermissionManager), defectController.ResolveDefect)

	// Drill and training routes
	drills := api.Group("/drills", middleware.Verify(Models.PermissionViewer))
	drills.Get("/", drillController.GetDrills)
	drills.Post("/", middleware.Verify(Models.PermissionInspector), drillController.LogDrill)

	training := api.Group("/training", middleware.Verify(Models.PermissionViewer))
	training.Get("/", drillController.GetTraining)
	training.Post("/", middleware.Verify(Models.PermissionManager), drillController.LogTraining)

	// Reports
	api.Get("/reports/compliance", middleware.Verify(Models.PermissionManager), reportController.DownloadComplianceReport)
}

func FiberConfig() {
	fmt.Println("Server Up...")
	app := fiber.New()
	app.Use(middleware.Logger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression, // 2
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*", // Allow all origins
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true, // Important for cookies
		MaxAge:           300,  // Max age for preflight requests caching (5 minutes)
	}))

	SetupRoutes(app, Models.DB)

	// Serve uploaded check photos and signatures
	app.Static("/CheckPhotos", "./CheckPhotos", fiber.Static{Compress: true})
	app.Static("/Signatures", "./Signatures", fiber.Static{Compress: true})

	app.Listen(":3001")
}
