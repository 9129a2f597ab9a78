package main

import (
	"context"
	"flag"
	"log"
	"math"

	"github.com/joho/godotenv"

	"github.com/kulkarnip/stockscan/internal/config"
	"github.com/kulkarnip/stockscan/internal/database"
	"github.com/kulkarnip/stockscan/internal/models"
	"github.com/kulkarnip/stockscan/internal/services"
)

// seedItem is a sample inventory record for development environments
type seedItem struct {
	Name     string
	Quantity int
	Price    float64
}

var seedItems = []seedItem{
	{"Basmati Rice", 50, 85.00},
	{"Brown Rice", 30, 92.50},
	{"Whole Wheat Flour", 40, 45.00},
	{"Green Tea", 25, 120.00},
	{"Assam Tea Leaf", 35, 95.00},
	{"Ground Coffee", 20, 250.00},
	{"Granulated Sugar", 60, 42.00},
	{"Iodized Salt", 80, 20.00},
	{"Sunflower Oil", 45, 135.00},
	{"Full Cream Milk", 55, 58.00},
	{"Salted Butter", 15, 210.00},
	{"Cheddar Cheese", 12, 340.00},
	{"White Bread", 30, 35.00},
	{"Potato Chips", 70, 25.00},
	{"Dish Soap", 25, 60.00},
	{"Laundry Detergent", 20, 180.00},
	{"Red Apples", 40, 110.00},
	{"Bananas", 65, 48.00},
	{"Tomatoes", 50, 32.00},
	{"Onions", 75, 28.00},
}

func main() {
	dryRun := flag.Bool("dry-run", false, "Preview changes without writing to database")
	flag.Parse()

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

	log.Printf("Seeding %d sample stock items...", len(seedItems))

	classifier := services.NewCategoryClassifier(services.DefaultCategoryRules())

	if *dryRun {
		log.Println("DRY RUN - No changes will be made")
		for _, s := range seedItems {
			log.Printf("  %-22s qty=%-4d price=%-8.2f category=%s",
				s.Name, s.Quantity, s.Price, classifier.Classify(s.Name))
		}
		return
	}

	ctx := context.Background()
	idgen := services.NewProductIDGenerator(db)

	created, skipped := 0, 0
	for _, s := range seedItems {
		existing, err := db.FindByNameExact(ctx, s.Name)
		if err != nil {
			log.Fatalf("Failed to look up %s: %v", s.Name, err)
		}
		if existing != nil {
			skipped++
			continue
		}

		productID, err := idgen.Generate(ctx, s.Name)
		if err != nil {
			log.Fatalf("Failed to generate product id for %s: %v", s.Name, err)
		}

		item := &models.StockItem{
			ProductID:    productID,
			Name:         s.Name,
			Quantity:     s.Quantity,
			Price:        s.Price,
			Category:     classifier.Classify(s.Name),
			MinimumStock: int(math.Ceil(float64(s.Quantity) * 0.2)),
		}

		if _, err := db.CreateStockItem(ctx, item); err != nil {
			log.Fatalf("Failed to seed %s: %v", s.Name, err)
		}
		created++
	}

	log.Printf("Seeding complete: %d created, %d already present", created, skipped)
}
