package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// MustJSON marshals v into a JSON column value. A nil or unmarshalable
// value stores SQL NULL.
func MustJSON(v interface{}) JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return JSON(raw)
}

// User model, one row per login account
type User struct {
	BaseModel
	Email         string     `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Password      string     `json:"-" gorm:"size:255;not null"`
	Role          string     `json:"role" gorm:"size:50;not null;default:'student'"` // admin, staff, student
	Status        string     `json:"status" gorm:"size:50;not null;default:'pending_verification'"`
	Avatar        string     `json:"avatar" gorm:"size:500"`
	EmailVerified bool       `json:"email_verified" gorm:"default:false"`
	OTPCode       string     `json:"-" gorm:"size:10"`
	OTPExpiresAt  *time.Time `json:"-"`

	// Relationships
	Profile *UserProfile `json:"profile,omitempty" gorm:"foreignKey:UserID"`
}

// UserProfile carries the student-facing details. It is materialized lazily
// from signup metadata the first time the profile is read.
type UserProfile struct {
	BaseModel
	UserID       uint   `json:"user_id" gorm:"uniqueIndex;not null"`
	FullName     string `json:"full_name" gorm:"size:200;not null"`
	Mobile       string `json:"mobile" gorm:"size:20"`
	StudyingYear int    `json:"studying_year" gorm:"not null;default:1"` // 1 = fresher, 2-4 = senior
	Verified     bool   `json:"verified" gorm:"default:false"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// AdminUser is the membership record consulted by the admin authorization
// check. A user is an administrator iff their email appears here.
type AdminUser struct {
	BaseModel
	Email   string `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Name    string `json:"name" gorm:"size:200"`
	AddedBy string `json:"added_by" gorm:"size:255"`
}

// Event pricing modes
const (
	EventTypeFree = "free"
	EventTypePaid = "paid"

	PricingModeFlat    = "flat"
	PricingModePerYear = "per_year"
)

// Event model
type Event struct {
	BaseModel
	Name         string    `json:"name" gorm:"size:255;not null"`
	Description  string    `json:"description" gorm:"type:text"`
	EventDate    time.Time `json:"event_date" gorm:"not null"`
	Location     string    `json:"location" gorm:"size:255"`
	Capacity     int       `json:"capacity" gorm:"default:0"` // 0 = unlimited
	Active       bool      `json:"active" gorm:"default:true"`
	EventType    string    `json:"event_type" gorm:"size:20;not null;default:'paid'"`
	PricingMode  string    `json:"pricing_mode" gorm:"size:20;not null;default:'flat'"`
	FreeForYears JSON      `json:"free_for_years" gorm:"type:json"` // e.g. [1]
	PaidForYears JSON      `json:"paid_for_years" gorm:"type:json"` // e.g. [2,3,4]
	YearPrices   JSON      `json:"year_prices" gorm:"type:json"`    // {"2":99,"3":99,"4":149}
	BasePrice    int       `json:"base_price" gorm:"default:0"`     // rupees
}

// Registration types and payment statuses
const (
	RegistrationTypeFresher = "fresher"
	RegistrationTypeSenior  = "senior"

	PaymentStatusPending   = "pending"
	PaymentStatusConfirmed = "confirmed" // free registrations, no payment owed
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Registration model, one per (user, event); the fresher and senior variants
// share the shape and are tagged by Type. The composite unique index is the
// storage-layer guard against duplicate tickets.
type Registration struct {
	BaseModel
	Type    string `json:"type" gorm:"size:20;not null"`
	UserID  uint   `json:"user_id" gorm:"not null;uniqueIndex:idx_user_event"`
	EventID uint   `json:"event_id" gorm:"not null;uniqueIndex:idx_user_event"`

	// Contact snapshot taken at registration time
	FullName     string `json:"full_name" gorm:"size:200;not null"`
	Email        string `json:"email" gorm:"size:255;not null"`
	Mobile       string `json:"mobile" gorm:"size:20"`
	StudyingYear int    `json:"studying_year" gorm:"not null"`

	Amount        int        `json:"amount" gorm:"default:0"`
	PaymentStatus string     `json:"payment_status" gorm:"size:20;not null;default:'pending'"`
	QRCode        string     `json:"qr_code" gorm:"size:255;not null"`
	CheckedIn     bool       `json:"checked_in" gorm:"default:false"`
	CheckedInAt   *time.Time `json:"checked_in_at"`

	// Relationships
	User  User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Event Event `json:"event,omitempty" gorm:"foreignKey:EventID"`
}

// Confirmed reports whether the registration entitles the holder to a ticket.
func (r *Registration) Confirmed() bool {
	return r.PaymentStatus == PaymentStatusConfirmed || r.PaymentStatus == PaymentStatusCompleted
}

// Payment verification statuses
const (
	VerificationStatusPending  = "pending"
	VerificationStatusVerified = "verified"
	VerificationStatusRejected = "rejected"
	VerificationStatusExpired  = "expired"
)

// PaymentVerification links a senior registration to a proof-of-payment
// submission. pending is the only non-terminal state: it moves to verified or
// rejected by admin action, or to expired when the submission window lapses.
type PaymentVerification struct {
	BaseModel
	RegistrationID uint `json:"registration_id" gorm:"not null;index"`
	EventID        uint `json:"event_id" gorm:"not null"`
	UserID         uint `json:"user_id" gorm:"not null;index"`

	Amount           int        `json:"amount" gorm:"not null"`
	UPIID            string     `json:"upi_id" gorm:"size:255;not null"`
	Status           string     `json:"status" gorm:"size:20;not null;default:'pending'"`
	ScreenshotURL    string     `json:"screenshot_url" gorm:"size:500"`
	PaymentReference string     `json:"payment_reference" gorm:"size:255"`
	AdminNotes       string     `json:"admin_notes" gorm:"type:text"`
	VerifiedBy       *uint      `json:"verified_by"`
	VerifiedAt       *time.Time `json:"verified_at"`
	ExpiresAt        time.Time  `json:"expires_at" gorm:"not null;index"`

	// Relationships
	Registration Registration `json:"registration,omitempty" gorm:"foreignKey:RegistrationID"`
	Event        Event        `json:"event,omitempty" gorm:"foreignKey:EventID"`
	User         User         `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Terminal reports whether the verification can no longer transition.
func (pv *PaymentVerification) Terminal() bool {
	return pv.Status != VerificationStatusPending
}

// CanTransition enforces the verification state machine: only pending moves,
// and only into one of the three terminal states.
func (pv *PaymentVerification) CanTransition(to string) bool {
	if pv.Terminal() {
		return false
	}
	switch to {
	case VerificationStatusVerified, VerificationStatusRejected, VerificationStatusExpired:
		return true
	}
	return false
}

// Notification model
type Notification struct {
	BaseModel
	UserID  uint       `json:"user_id" gorm:"not null;index"`
	Title   string     `json:"title" gorm:"size:255;not null"`
	Message string     `json:"message" gorm:"type:text;not null"`
	Type    string     `json:"type" gorm:"size:50;not null"` // info, warning, error, success
	Read    bool       `json:"read" gorm:"default:false"`
	ReadAt  *time.Time `json:"read_at"`
	Data    JSON       `json:"data" gorm:"type:json"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// LogArchive model for tracking archived logs
type LogArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending'"` // pending, completed, failed
	Error       string    `json:"error" gorm:"type:text"`
}
