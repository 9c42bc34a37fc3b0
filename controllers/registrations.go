package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"freshersparty_go/database"
	"freshersparty_go/middleware"
	"freshersparty_go/models"
	"freshersparty_go/services"
)

type RegistrationController struct {
	registrations *services.RegistrationService
}

func NewRegistrationController() *RegistrationController {
	return &RegistrationController{registrations: services.NewRegistrationService()}
}

// Register signs the current user up for an event. Free-priced students get
// a confirmed ticket immediately; paying students get payment instructions
// with a submission deadline.
func (rc *RegistrationController) Register(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	eventID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid event ID",
		})
	}

	var event models.Event
	if err := database.DB.First(&event, uint(eventID)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Event not found",
		})
	}

	var profile models.UserProfile
	if err := database.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Complete your profile before registering",
		})
	}

	result, err := rc.registrations.Register(user, &profile, &event)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEventInactive):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrEventFull):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrInvalidYear):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to register",
			})
		}
	}

	if result.Existing {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":        "Already registered for this event",
			"registration": result.Registration,
		})
	}

	middleware.LogActivity(c, "CREATE", "registrations", result.Registration.ID, fiber.Map{
		"event_id": event.ID,
		"type":     result.Registration.Type,
		"amount":   result.Registration.Amount,
	})

	response := fiber.Map{
		"message":      "Registered successfully",
		"registration": result.Registration,
	}
	if result.Verification != nil {
		response["message"] = "Registration pending payment"
		response["payment"] = fiber.Map{
			"verification_id": result.Verification.ID,
			"amount":          result.Verification.Amount,
			"upi_id":          result.Verification.UPIID,
			"expires_at":      result.Verification.ExpiresAt,
			"instructions": fmt.Sprintf(
				"Pay ₹%d to %s and upload the screenshot before the deadline",
				result.Verification.Amount, result.Verification.UPIID),
		}
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

// MyRegistrations lists the current user's registrations with their events
// and any payment verifications still attached to them.
func (rc *RegistrationController) MyRegistrations(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var registrations []models.Registration
	if err := database.DB.Preload("Event").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&registrations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch registrations",
		})
	}

	var verifications []models.PaymentVerification
	if len(registrations) > 0 {
		ids := make([]uint, 0, len(registrations))
		for _, r := range registrations {
			ids = append(ids, r.ID)
		}
		database.DB.Where("registration_id IN ?", ids).Find(&verifications)
	}

	return c.JSON(fiber.Map{
		"registrations": registrations,
		"verifications": verifications,
		"total":         len(registrations),
	})
}

// CheckIn marks a ticket as used at the door. Staff scan the QR code and
// post its payload; a second scan reports the earlier check-in instead of
// failing.
func (rc *RegistrationController) CheckIn(c *fiber.Ctx) error {
	var req struct {
		Payload string `json:"payload" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	registrationID, email, eventID, err := services.ParseTicketPayload(req.Payload)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unreadable ticket",
		})
	}

	var registration models.Registration
	if err := database.DB.Preload("Event").First(&registration, registrationID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Registration not found",
		})
	}

	if registration.Email != email || registration.EventID != eventID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Ticket does not match the registration",
		})
	}
	if !registration.Confirmed() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":          "Registration is not confirmed",
			"payment_status": registration.PaymentStatus,
		})
	}

	if registration.CheckedIn {
		return c.JSON(fiber.Map{
			"message":       "Already checked in",
			"checked_in_at": registration.CheckedInAt,
			"registration":  registration,
		})
	}

	now := time.Now()
	if err := database.DB.Model(&registration).Updates(map[string]interface{}{
		"checked_in":    true,
		"checked_in_at": now,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check in",
		})
	}

	middleware.LogActivity(c, "CHECKIN", "registrations", registration.ID, fiber.Map{
		"event_id": registration.EventID,
		"email":    registration.Email,
	})

	registration.CheckedIn = true
	registration.CheckedInAt = &now

	return c.JSON(fiber.Map{
		"message":      "Checked in",
		"registration": registration,
	})
}

// GetAllRegistrations is the admin listing across events, filterable by
// event, type and payment status. format=csv or format=xlsx downloads the
// same filtered set as a spreadsheet.
func (rc *RegistrationController) GetAllRegistrations(c *fiber.Ctx) error {
	query := database.DB.Preload("Event").Model(&models.Registration{})

	if eventID := c.Query("event_id"); eventID != "" {
		query = query.Where("event_id = ?", eventID)
	}
	if regType := c.Query("type"); regType != "" {
		query = query.Where("type = ?", regType)
	}
	if status := c.Query("payment_status"); status != "" {
		query = query.Where("payment_status = ?", status)
	}
	if checkedIn := c.Query("checked_in"); checkedIn != "" {
		query = query.Where("checked_in = ?", checkedIn == "true")
	}

	format := c.Query("format")
	if format == "csv" || format == "xlsx" {
		return rc.exportRegistrations(c, query, format)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var total int64
	query.Count(&total)

	var registrations []models.Registration
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&registrations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch registrations",
		})
	}

	return c.JSON(fiber.Map{
		"registrations": registrations,
		"total":         total,
		"page":          page,
		"limit":         limit,
	})
}

func (rc *RegistrationController) exportRegistrations(c *fiber.Ctx, query *gorm.DB, format string) error {
	var registrations []models.Registration
	if err := query.Order("created_at ASC").Find(&registrations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch registrations",
		})
	}

	stamp := time.Now().Format("2006-01-02")
	if format == "csv" {
		data, err := services.RegistrationsCSV(registrations)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to build CSV export",
			})
		}
		c.Set("Content-Type", "text/csv")
		c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="registrations-%s.csv"`, stamp))
		return c.Send(data)
	}

	data, err := services.RegistrationsXLSX(registrations)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build Excel export",
		})
	}
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="registrations-%s.xlsx"`, stamp))
	return c.Send(data)
}
