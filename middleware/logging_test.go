package middleware

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"freshersparty_go/database"
	"freshersparty_go/models"
)

// The activity log row is written by a goroutine after the handler returns,
// when fasthttp has already recycled the request buffers. The persisted
// request metadata must survive that.
func TestLogActivityPersistsRequestMetadata(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.ActivityLog{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	prevDB := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prevDB
		sqlDB.Close()
	})

	app := fiber.New()
	app.Post("/api/events", func(c *fiber.Ctx) error {
		LogActivity(c, "CREATE", "events", 7, map[string]interface{}{"name": "test"})
		return c.SendStatus(fiber.StatusCreated)
	})

	userAgent := "Mozilla/5.0 (X11; Linux x86_64) FresherApp/1.0"
	req := httptest.NewRequest("POST", "/api/events", nil)
	req.Header.Set("User-Agent", userAgent)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	// The insert happens asynchronously; poll for it.
	var logEntry models.ActivityLog
	deadline := time.Now().Add(2 * time.Second)
	for {
		if err := db.First(&logEntry).Error; err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("activity log row never appeared")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if logEntry.Action != "CREATE" || logEntry.Resource != "events" || logEntry.ResourceID != 7 {
		t.Errorf("unexpected log entry: %+v", logEntry)
	}
	if logEntry.UserAgent != userAgent {
		t.Errorf("user agent corrupted: got %q, want %q", logEntry.UserAgent, userAgent)
	}
	if logEntry.IPAddress == "" {
		t.Error("client IP not recorded")
	}
}
