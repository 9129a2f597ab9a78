package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/kulkarnip/stockscan/internal/config"
	"github.com/kulkarnip/stockscan/internal/database"
	"github.com/kulkarnip/stockscan/internal/handlers"
	"github.com/kulkarnip/stockscan/internal/middleware"
	"github.com/kulkarnip/stockscan/internal/services"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create admin user if it doesn't exist
	if err := database.EnsureAdminUser(db, cfg); err != nil {
		log.Printf("Warning: Could not ensure admin user: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	h := handlers.New(db, cfg)

	// Optional S3-compatible archive for uploaded document images
	var storageService *services.StorageService
	if cfg.S3Enabled {
		if cfg.S3Endpoint == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
			log.Println("S3 credentials not configured, image archiving disabled")
		} else {
			storageService, err = services.NewStorageService(
				cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey,
				cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL,
			)
			if err != nil {
				log.Printf("Warning: Failed to initialize storage service: %v", err)
				storageService = nil
			} else if err := storageService.EnsureBucket(context.Background()); err != nil {
				log.Printf("Warning: Failed to ensure S3 bucket exists: %v", err)
			}
		}
	}

	// OCR requires a tesseract installation; document scanning is disabled
	// when initialization fails so the rest of the API stays available
	var billHandler *handlers.BillHandler
	ocrService, err := services.NewOCRService(cfg.OCRLanguage)
	if err != nil {
		log.Printf("Warning: Failed to initialize OCR service, document scanning disabled: %v", err)
	} else {
		defer ocrService.Close()
		billHandler = handlers.NewBillHandler(db, cfg, storageService, ocrService)
		log.Println("Document scanning service initialized")
	}

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/login", h.Login)
	auth.Get("/me", middleware.AuthRequired(cfg), h.GetCurrentUser)

	// Stock routes (public read, authenticated write)
	stock := api.Group("/stock")
	stock.Get("/", h.ListStock)
	stock.Get("/low", h.GetLowStock)
	stock.Get("/stats", h.GetStockStats)
	stock.Get("/:id", h.GetStockItem)
	stock.Post("/", middleware.AuthRequired(cfg), h.CreateStockItem)
	stock.Put("/:id", middleware.AuthRequired(cfg), h.UpdateStockItem)
	stock.Delete("/:id", middleware.AuthRequired(cfg), middleware.AdminRequired(), h.DeleteStockItem)

	// Bulk spreadsheet import (authenticated)
	api.Post("/inventory/upload-excel", middleware.AuthRequired(cfg), h.UploadSpreadsheet)

	// Document scanning routes (authenticated, only if OCR is available)
	if billHandler != nil {
		bills := api.Group("/bills", middleware.AuthRequired(cfg))
		bills.Post("/process", billHandler.ProcessBill)
		bills.Post("/invoice", billHandler.ProcessInvoice)
		bills.Get("/archive", billHandler.GetArchivedImage)
		bills.Delete("/archive", billHandler.DeleteArchivedImage)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
