package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"freshersparty_go/config"
	"freshersparty_go/models"
)

// openTestDB opens a shared in-memory SQLite database scoped to the test.
// MaxOpenConns is pinned to 1 so every connection sees the same database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

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
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.Event{},
		&models.Registration{},
		&models.PaymentVerification{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func setTestConfig(t *testing.T) {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig = &config.Config{
		UPIID:              "party@okaxis",
		VerificationWindow: 15 * time.Minute,
		TicketPrefix:       "FP2026",
	}
	t.Cleanup(func() { config.AppConfig = prev })
}

func seedStudent(t *testing.T, db *gorm.DB, email string, year int) (*models.User, *models.UserProfile) {
	t.Helper()
	user := &models.User{Email: email, Password: "x", Role: "student", Status: "active"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	profile := &models.UserProfile{UserID: user.ID, FullName: "Test Student", Mobile: "9876543210", StudyingYear: year}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}
	return user, profile
}

func seedEvent(t *testing.T, db *gorm.DB) *models.Event {
	t.Helper()
	event := &models.Event{
		Name:         "Fresher's Party 2026",
		EventDate:    time.Now().Add(30 * 24 * time.Hour),
		Active:       true,
		EventType:    models.EventTypePaid,
		PricingMode:  models.PricingModePerYear,
		FreeForYears: models.MustJSON([]int{1}),
		PaidForYears: models.MustJSON([]int{2, 3, 4}),
		YearPrices:   models.MustJSON(map[string]int{"2": 99, "3": 99, "4": 149}),
		BasePrice:    199,
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("failed to seed event: %v", err)
	}
	return event
}

func TestRegisterFreeYear(t *testing.T) {
	db := openTestDB(t)
	setTestConfig(t)
	rs := &RegistrationService{db: db}

	user, profile := seedStudent(t, db, "fresher@college.edu", 1)
	event := seedEvent(t, db)

	result, err := rs.Register(user, profile, event)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if result.Existing {
		t.Fatal("fresh registration reported as existing")
	}
	if result.Registration.Type != models.RegistrationTypeFresher {
		t.Errorf("expected fresher registration, got %q", result.Registration.Type)
	}
	if result.Registration.PaymentStatus != models.PaymentStatusConfirmed {
		t.Errorf("expected confirmed payment status, got %q", result.Registration.PaymentStatus)
	}
	if result.Verification != nil {
		t.Error("free registration must not create a payment verification")
	}

	var count int64
	db.Model(&models.PaymentVerification{}).Count(&count)
	if count != 0 {
		t.Errorf("expected 0 verifications in database, got %d", count)
	}
}

func TestRegisterPaidYear(t *testing.T) {
	db := openTestDB(t)
	setTestConfig(t)
	rs := &RegistrationService{db: db}

	user, profile := seedStudent(t, db, "senior@college.edu", 3)
	event := seedEvent(t, db)

	result, err := rs.Register(user, profile, event)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if result.Registration.Type != models.RegistrationTypeSenior {
		t.Errorf("expected senior registration, got %q", result.Registration.Type)
	}
	if result.Registration.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("expected pending payment status, got %q", result.Registration.PaymentStatus)
	}
	if result.Verification == nil {
		t.Fatal("paid registration must create a payment verification")
	}
	if result.Verification.Amount != 99 {
		t.Errorf("expected amount 99 for year 3, got %d", result.Verification.Amount)
	}
	if result.Verification.UPIID != "party@okaxis" {
		t.Errorf("unexpected UPI address %q", result.Verification.UPIID)
	}
	if result.Verification.Status != models.VerificationStatusPending {
		t.Errorf("expected pending verification, got %q", result.Verification.Status)
	}
	deadline := time.Until(result.Verification.ExpiresAt)
	if deadline < 14*time.Minute || deadline > 16*time.Minute {
		t.Errorf("verification deadline %v not within the submission window", deadline)
	}
}

func TestRegisterDuplicateShortCircuits(t *testing.T) {
	db := openTestDB(t)
	setTestConfig(t)
	rs := &RegistrationService{db: db}

	user, profile := seedStudent(t, db, "senior@college.edu", 2)
	event := seedEvent(t, db)

	first, err := rs.Register(user, profile, event)
	if err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	second, err := rs.Register(user, profile, event)
	if err != nil {
		t.Fatalf("second Register failed: %v", err)
	}
	if !second.Existing {
		t.Fatal("duplicate registration not reported as existing")
	}
	if second.Registration.ID != first.Registration.ID {
		t.Errorf("duplicate returned a different registration: %d vs %d",
			second.Registration.ID, first.Registration.ID)
	}

	var count int64
	db.Model(&models.PaymentVerification{}).Count(&count)
	if count != 1 {
		t.Errorf("duplicate registration created extra verifications: %d", count)
	}
}

func TestExpiredVerificationReopensOnRegister(t *testing.T) {
	db := openTestDB(t)
	setTestConfig(t)
	rs := &RegistrationService{db: db}
	ps := &PaymentService{db: db}

	user, profile := seedStudent(t, db, "senior@college.edu", 4)
	event := seedEvent(t, db)

	first, err := rs.Register(user, profile, event)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Push the deadline into the past and run the sweep.
	past := time.Now().Add(-time.Minute)
	if err := db.Model(first.Verification).Update("expires_at", past).Error; err != nil {
		t.Fatalf("failed to backdate deadline: %v", err)
	}
	expired, err := ps.ExpireStale(time.Now())
	if err != nil {
		t.Fatalf("ExpireStale failed: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired verification, got %d", expired)
	}

	var verification models.PaymentVerification
	if err := db.First(&verification, first.Verification.ID).Error; err != nil {
		t.Fatalf("failed to reload verification: %v", err)
	}
	if verification.Status != models.VerificationStatusExpired {
		t.Errorf("expected expired verification, got %q", verification.Status)
	}

	var registration models.Registration
	if err := db.First(&registration, first.Registration.ID).Error; err != nil {
		t.Fatalf("failed to reload registration: %v", err)
	}
	if registration.PaymentStatus != models.PaymentStatusFailed {
		t.Fatalf("expected failed registration after expiry, got %q", registration.PaymentStatus)
	}

	// Registering again must reuse the row and open a fresh window.
	reopened, err := rs.Register(user, profile, event)
	if err != nil {
		t.Fatalf("re-register after expiry failed: %v", err)
	}
	if reopened.Existing {
		t.Fatal("reopened registration reported as existing")
	}
	if reopened.Registration.ID != first.Registration.ID {
		t.Errorf("reopen created a new registration: %d vs %d",
			reopened.Registration.ID, first.Registration.ID)
	}
	if reopened.Registration.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("expected pending payment status after reopen, got %q", reopened.Registration.PaymentStatus)
	}
	if reopened.Verification == nil {
		t.Fatal("reopen did not issue a fresh verification")
	}
	if reopened.Verification.ID == first.Verification.ID {
		t.Error("reopen reused the expired verification record")
	}
	if !reopened.Verification.ExpiresAt.After(time.Now()) {
		t.Error("reopened verification deadline is not in the future")
	}
}

func TestVerifyCompletesRegistration(t *testing.T) {
	db := openTestDB(t)
	setTestConfig(t)
	rs := &RegistrationService{db: db}
	ps := &PaymentService{db: db}

	user, profile := seedStudent(t, db, "senior@college.edu", 2)
	event := seedEvent(t, db)
	result, err := rs.Register(user, profile, event)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	adminID := uint(501)
	verified, err := ps.Verify(result.Verification.ID, adminID, "looks good", "UTR123456")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if verified.Status != models.VerificationStatusVerified {
		t.Errorf("expected verified status, got %q", verified.Status)
	}
	if verified.VerifiedBy == nil || *verified.VerifiedBy != adminID {
		t.Error("verifier not recorded")
	}

	var registration models.Registration
	if err := db.First(&registration, result.Registration.ID).Error; err != nil {
		t.Fatalf("failed to reload registration: %v", err)
	}
	if registration.PaymentStatus != models.PaymentStatusCompleted {
		t.Errorf("expected completed registration after verify, got %q", registration.PaymentStatus)
	}

	// Terminal records never move again.
	if _, err := ps.Verify(result.Verification.ID, adminID, "", ""); !errors.Is(err, ErrVerificationClosed) {
		t.Errorf("second verify: expected ErrVerificationClosed, got %v", err)
	}
}

func TestRejectLeavesRegistrationPending(t *testing.T) {
	db := openTestDB(t)
	setTestConfig(t)
	rs := &RegistrationService{db: db}
	ps := &PaymentService{db: db}

	user, profile := seedStudent(t, db, "senior@college.edu", 3)
	event := seedEvent(t, db)
	result, err := rs.Register(user, profile, event)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	rejected, err := ps.Reject(result.Verification.ID, 501, "amount mismatch")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.Status != models.VerificationStatusRejected {
		t.Errorf("expected rejected status, got %q", rejected.Status)
	}
	if rejected.AdminNotes != "amount mismatch" {
		t.Errorf("admin notes not stored: %q", rejected.AdminNotes)
	}

	var registration models.Registration
	if err := db.First(&registration, result.Registration.ID).Error; err != nil {
		t.Fatalf("failed to reload registration: %v", err)
	}
	if registration.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("reject must leave the registration pending, got %q", registration.PaymentStatus)
	}
}

func TestExpireStaleSkipsSubmittedProof(t *testing.T) {
	db := openTestDB(t)
	setTestConfig(t)
	rs := &RegistrationService{db: db}
	ps := &PaymentService{db: db}

	user, profile := seedStudent(t, db, "senior@college.edu", 2)
	event := seedEvent(t, db)
	result, err := rs.Register(user, profile, event)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	updates := map[string]interface{}{
		"expires_at":     time.Now().Add(-time.Minute),
		"screenshot_url": "https://bucket.s3.amazonaws.com/screenshots/1.png",
	}
	if err := db.Model(result.Verification).Updates(updates).Error; err != nil {
		t.Fatalf("failed to update verification: %v", err)
	}

	expired, err := ps.ExpireStale(time.Now())
	if err != nil {
		t.Fatalf("ExpireStale failed: %v", err)
	}
	if expired != 0 {
		t.Fatalf("verification with submitted proof was expired")
	}

	var verification models.PaymentVerification
	if err := db.First(&verification, result.Verification.ID).Error; err != nil {
		t.Fatalf("failed to reload verification: %v", err)
	}
	if verification.Status != models.VerificationStatusPending {
		t.Errorf("expected pending verification awaiting review, got %q", verification.Status)
	}
}
