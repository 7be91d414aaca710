package main

import (
	"fmt"
	"log"
	"time"

	"github.com/millwork-io/shoptrak/internal/config"
	"github.com/millwork-io/shoptrak/internal/database"
	"github.com/millwork-io/shoptrak/internal/models"
	"github.com/millwork-io/shoptrak/internal/utils"
)

func main() {
	fmt.Println("🌱 ShopTrak Demo Data Seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")

	if err := db.AutoMigrate(
		&models.UserAuth{},
		&models.WorkOrder{},
		&models.Product{},
		&models.Subassembly{},
		&models.Part{},
		&models.Hardware{},
		&models.NestSheet{},
		&models.AuditLog{},
	); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	// Admin account
	hash, _ := utils.HashPassword("admin")
	admin := models.UserAuth{Username: "admin", Password: hash, Name: "Shop Admin", Role: "admin"}
	db.Where("username = ?", "admin").FirstOrCreate(&admin)

	// Demo work order: one kitchen run with two cabinets
	wo := models.WorkOrder{
		ID:         "WO-DEMO",
		Name:       "Demo Kitchen Run",
		ImportedAt: time.Now().UTC(),
	}
	if err := db.Create(&wo).Error; err != nil {
		log.Fatalf("❌ Work order exists or insert failed: %v", err)
	}

	base := models.Product{ID: "PR-B24", WorkOrderID: wo.ID, Name: "Base Cabinet 24\"", ItemNumber: "B24", Quantity: 1, SortOrder: 1}
	wall := models.Product{ID: "PR-W30", WorkOrderID: wo.ID, Name: "Wall Cabinet 30\"", ItemNumber: "W30", Quantity: 1, SortOrder: 2}
	db.Create(&base)
	db.Create(&wall)

	drawer := models.Subassembly{ID: "SA-B24-DRW", Name: "Drawer Box", Quantity: 1, ProductID: strPtr(base.ID)}
	db.Create(&drawer)

	parts := []models.Part{
		{ID: "PT-B24-LS", Name: "Left Side", Category: "carcass", ProductID: strPtr(base.ID)},
		{ID: "PT-B24-RS", Name: "Right Side", Category: "carcass", ProductID: strPtr(base.ID)},
		{ID: "PT-B24-DF", Name: "Drawer Front", Category: "door", SubassemblyID: strPtr(drawer.ID)},
		{ID: "PT-W30-LS", Name: "Left Side", Category: "carcass", ProductID: strPtr(wall.ID)},
		{ID: "PT-W30-RS", Name: "Right Side", Category: "carcass", ProductID: strPtr(wall.ID)},
		{ID: "PT-W30-DR", Name: "Door", Category: "door", ProductID: strPtr(wall.ID)},
	}
	for i := range parts {
		parts[i].Quantity = 1
		parts[i].Status = models.StatusPending
		db.Create(&parts[i])
	}

	hardware := []models.Hardware{
		{ID: "HW-HINGE", WorkOrderID: wo.ID, ProductID: strPtr(wall.ID), Name: "Hinge Set", Quantity: 2, Status: models.StatusPending},
		{ID: "HW-SLIDE", WorkOrderID: wo.ID, ProductID: strPtr(base.ID), Name: "Drawer Slides", Quantity: 1, Status: models.StatusPending},
	}
	for i := range hardware {
		db.Create(&hardware[i])
	}

	sheets := []models.NestSheet{
		{ID: "NS-001", WorkOrderID: wo.ID, Name: "Sheet 1 (3/4 Ply)", Material: "3/4 Plywood"},
		{ID: "NS-002", WorkOrderID: wo.ID, Name: "Sheet 2 (3/4 Ply)", Material: "3/4 Plywood"},
	}
	db.Create(&sheets[0])
	db.Create(&sheets[1])

	// Nest assignments: carcass parts on sheet 1, fronts on sheet 2
	db.Model(&sheets[0]).Association("Parts").Append(&parts[0], &parts[1], &parts[3], &parts[4])
	db.Model(&sheets[1]).Association("Parts").Append(&parts[2], &parts[5])

	fmt.Println("✅ Seeded work order WO-DEMO (2 products, 6 parts, 2 nest sheets)")
	fmt.Println("   Try: scan NS-001 at the CNC station")
}

func strPtr(s string) *string { return &s }
