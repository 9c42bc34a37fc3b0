package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"freshersparty_go/config"
	"freshersparty_go/database"
	"freshersparty_go/models"
)

// RegistrationService decides registration type and price per student and
// creates exactly one registration per (user, event).
type RegistrationService struct {
	db *gorm.DB
}

func NewRegistrationService() *RegistrationService {
	return &RegistrationService{db: database.GetDB()}
}

var (
	ErrEventInactive = errors.New("event is not open for registration")
	ErrEventFull     = errors.New("event is at capacity")
	ErrInvalidYear   = errors.New("studying year must be between 1 and 4")
)

// ComputePrice applies the pricing rules:
//   - globally free event: 0
//   - year listed in free_for_years: 0
//   - year listed in paid_for_years: the per-year price when pricing is
//     year-based, the base price otherwise
//   - unlisted year: base price
func ComputePrice(event *models.Event, studyingYear int) int {
	if event.EventType == models.EventTypeFree {
		return 0
	}
	if containsYear(event.FreeForYears, studyingYear) {
		return 0
	}
	if containsYear(event.PaidForYears, studyingYear) {
		if event.PricingMode == models.PricingModePerYear {
			if price, ok := yearPrice(event.YearPrices, studyingYear); ok {
				return price
			}
		}
		return event.BasePrice
	}
	return event.BasePrice
}

func containsYear(raw models.JSON, year int) bool {
	if raw.IsNull() {
		return false
	}
	var years []int
	if err := json.Unmarshal(raw, &years); err != nil {
		return false
	}
	for _, y := range years {
		if y == year {
			return true
		}
	}
	return false
}

func yearPrice(raw models.JSON, year int) (int, bool) {
	if raw.IsNull() {
		return 0, false
	}
	var prices map[string]int
	if err := json.Unmarshal(raw, &prices); err != nil {
		return 0, false
	}
	price, ok := prices[fmt.Sprintf("%d", year)]
	return price, ok
}

// GenerateRegistrationQR builds the stored QR code string for a registration.
func GenerateRegistrationQR(eventID, userID uint, at time.Time) string {
	return fmt.Sprintf("%s-%d-%d-%d", config.AppConfig.TicketPrefix, eventID, userID, at.Unix())
}

// RegisterResult is what a registration attempt produced. Existing is set
// when the student already held a registration for the event; in that case
// Registration is the existing record and no new rows were written.
type RegisterResult struct {
	Registration *models.Registration
	Verification *models.PaymentVerification
	Existing     bool
}

// Register creates a registration for the student. Free-priced students get
// an immediately confirmed fresher registration; everyone else gets a pending
// senior registration plus a pending payment verification carrying the
// amount, the UPI address and the submission deadline.
func (rs *RegistrationService) Register(user *models.User, profile *models.UserProfile, event *models.Event) (*RegisterResult, error) {
	if !event.Active {
		return nil, ErrEventInactive
	}
	if profile.StudyingYear < 1 || profile.StudyingYear > 4 {
		return nil, ErrInvalidYear
	}

	// Advisory short-circuit before the insert; the unique index on
	// (user_id, event_id) closes the race. A registration whose payment
	// fell through is not a live claim on the event: it gets reopened with
	// a fresh payment window instead of blocking the student forever.
	var existing models.Registration
	if err := rs.db.Where("user_id = ? AND event_id = ?", user.ID, event.ID).First(&existing).Error; err == nil {
		if existing.PaymentStatus != models.PaymentStatusFailed {
			return &RegisterResult{Registration: &existing, Existing: true}, nil
		}
		return rs.reopen(&existing, user, profile, event)
	}

	if event.Capacity > 0 {
		var count int64
		if err := rs.db.Model(&models.Registration{}).Where("event_id = ?", event.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count >= int64(event.Capacity) {
			return nil, ErrEventFull
		}
	}

	price := ComputePrice(event, profile.StudyingYear)
	now := time.Now()

	registration := models.Registration{
		UserID:       user.ID,
		EventID:      event.ID,
		FullName:     profile.FullName,
		Email:        user.Email,
		Mobile:       profile.Mobile,
		StudyingYear: profile.StudyingYear,
		Amount:       price,
		QRCode:       GenerateRegistrationQR(event.ID, user.ID, now),
	}

	if price == 0 {
		registration.Type = models.RegistrationTypeFresher
		registration.PaymentStatus = models.PaymentStatusConfirmed
	} else {
		registration.Type = models.RegistrationTypeSenior
		registration.PaymentStatus = models.PaymentStatusPending
	}

	result := &RegisterResult{Registration: &registration}

	err := rs.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&registration).Error; err != nil {
			return err
		}
		if price > 0 {
			verification := models.PaymentVerification{
				RegistrationID: registration.ID,
				EventID:        event.ID,
				UserID:         user.ID,
				Amount:         price,
				UPIID:          config.AppConfig.UPIID,
				Status:         models.VerificationStatusPending,
				ExpiresAt:      now.Add(config.AppConfig.VerificationWindow),
			}
			if err := tx.Create(&verification).Error; err != nil {
				return err
			}
			result.Verification = &verification
		}
		return nil
	})
	if err != nil {
		// A concurrent insert lost the race to the unique index: surface the
		// winner instead of a duplicate error.
		var winner models.Registration
		if ferr := rs.db.Where("user_id = ? AND event_id = ?", user.ID, event.ID).First(&winner).Error; ferr == nil {
			return &RegisterResult{Registration: &winner, Existing: true}, nil
		}
		return nil, err
	}

	return result, nil
}

// reopen resets a failed registration so the student can pay again. The row
// is reused (it already holds the unique (user_id, event_id) slot and its
// capacity seat), the price is recomputed and a fresh verification window is
// issued.
func (rs *RegistrationService) reopen(registration *models.Registration, user *models.User, profile *models.UserProfile, event *models.Event) (*RegisterResult, error) {
	price := ComputePrice(event, profile.StudyingYear)
	now := time.Now()

	registration.FullName = profile.FullName
	registration.Email = user.Email
	registration.Mobile = profile.Mobile
	registration.StudyingYear = profile.StudyingYear
	registration.Amount = price
	registration.QRCode = GenerateRegistrationQR(event.ID, user.ID, now)
	if price == 0 {
		registration.Type = models.RegistrationTypeFresher
		registration.PaymentStatus = models.PaymentStatusConfirmed
	} else {
		registration.Type = models.RegistrationTypeSenior
		registration.PaymentStatus = models.PaymentStatusPending
	}

	result := &RegisterResult{Registration: registration}

	err := rs.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(registration).Error; err != nil {
			return err
		}
		if price > 0 {
			verification := models.PaymentVerification{
				RegistrationID: registration.ID,
				EventID:        event.ID,
				UserID:         user.ID,
				Amount:         price,
				UPIID:          config.AppConfig.UPIID,
				Status:         models.VerificationStatusPending,
				ExpiresAt:      now.Add(config.AppConfig.VerificationWindow),
			}
			if err := tx.Create(&verification).Error; err != nil {
				return err
			}
			result.Verification = &verification
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
