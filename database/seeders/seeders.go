package seeders

import (
	"encoding/json"
	"freshersparty_go/database"
	"freshersparty_go/models"
	"freshersparty_go/utils"
	"log"
	"time"
)

// SeedAll runs all seeders
func SeedAll() {
	log.Println("Starting database seeding...")

	SeedAdmins()
	SeedEvents()

	log.Println("Database seeding completed successfully!")
}

// SeedAdmins creates the bootstrap admin account and its membership row so a
// fresh install has a working admin login.
func SeedAdmins() {
	var count int64
	database.DB.Model(&models.AdminUser{}).Count(&count)
	if count > 0 {
		log.Println("Admins already seeded, skipping...")
		return
	}

	password, err := utils.HashPassword("ChangeMe@123")
	if err != nil {
		log.Printf("Error hashing admin password: %v", err)
		return
	}

	admin := models.User{
		Email:         "admin@freshersparty.local",
		Password:      password,
		Role:          "admin",
		Status:        "active",
		EmailVerified: true,
	}
	if err := database.DB.Create(&admin).Error; err != nil {
		log.Printf("Error seeding admin user: %v", err)
		return
	}

	membership := models.AdminUser{
		Email:   admin.Email,
		Name:    "Bootstrap Admin",
		AddedBy: "seeder",
	}
	if err := database.DB.Create(&membership).Error; err != nil {
		log.Printf("Error seeding admin membership: %v", err)
	}
}

// SeedEvents seeds a sample free and paid event
func SeedEvents() {
	var count int64
	database.DB.Model(&models.Event{}).Count(&count)
	if count > 0 {
		log.Println("Events already seeded, skipping...")
		return
	}

	freeYears, _ := json.Marshal([]int{1})
	paidYears, _ := json.Marshal([]int{2, 3, 4})
	yearPrices, _ := json.Marshal(map[string]int{"2": 99, "3": 99, "4": 149})

	events := []models.Event{
		{
			Name:         "Fresher's Party 2026",
			Description:  "Welcome party for the incoming batch. Free entry for first years.",
			EventDate:    time.Date(2026, 10, 9, 18, 0, 0, 0, time.UTC),
			Location:     "Main Auditorium",
			Capacity:     500,
			Active:       true,
			EventType:    models.EventTypePaid,
			PricingMode:  models.PricingModePerYear,
			FreeForYears: freeYears,
			PaidForYears: paidYears,
			YearPrices:   yearPrices,
			BasePrice:    99,
		},
		{
			Name:        "Orientation Day",
			Description: "Campus orientation, open to everyone.",
			EventDate:   time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC),
			Location:    "Seminar Hall B",
			Capacity:    0,
			Active:      true,
			EventType:   models.EventTypeFree,
			PricingMode: models.PricingModeFlat,
			BasePrice:   0,
		},
	}

	for _, event := range events {
		if err := database.DB.Create(&event).Error; err != nil {
			log.Printf("Error seeding event %s: %v", event.Name, err)
		}
	}
}
