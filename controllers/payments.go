package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"freshersparty_go/database"
	"freshersparty_go/middleware"
	"freshersparty_go/models"
	"freshersparty_go/services"
)

type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController() *PaymentController {
	return &PaymentController{payments: services.NewPaymentService()}
}

// SubmitProof accepts the UPI payment screenshot for a pending
// verification. Multipart field "screenshot" carries the image; an optional
// "payment_reference" form value carries the UPI transaction id.
func (pc *PaymentController) SubmitProof(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	verificationID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid verification ID",
		})
	}

	file, err := c.FormFile("screenshot")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Screenshot file is required",
		})
	}
	paymentReference := c.FormValue("payment_reference")

	verification, err := pc.payments.SubmitProof(uint(verificationID), user.ID, file, paymentReference)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Verification not found"})
		case errors.Is(err, services.ErrNotVerificationOwner):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrVerificationClosed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrVerificationExpired):
			return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	middleware.LogActivity(c, "UPDATE", "payments", verification.ID, fiber.Map{
		"action":            "submit_proof",
		"payment_reference": paymentReference,
	})

	return c.JSON(fiber.Map{
		"message":      "Payment proof submitted, awaiting verification",
		"verification": verification,
	})
}

// GetStatus is polled by the student's payment screen until the
// verification reaches a terminal state.
func (pc *PaymentController) GetStatus(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	verificationID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid verification ID",
		})
	}

	var verification models.PaymentVerification
	if err := database.DB.First(&verification, uint(verificationID)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Verification not found",
		})
	}

	if verification.UserID != user.ID && user.Role != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not your verification",
		})
	}

	return c.JSON(fiber.Map{
		"verification": fiber.Map{
			"id":          verification.ID,
			"status":      verification.Status,
			"amount":      verification.Amount,
			"upi_id":      verification.UPIID,
			"expires_at":  verification.ExpiresAt,
			"verified_at": verification.VerifiedAt,
			"admin_notes": verification.AdminNotes,
			"terminal":    verification.Terminal(),
		},
	})
}

// GetPendingPayments lists verifications for the admin review queue.
// status defaults to pending; pass status=all for the full history.
func (pc *PaymentController) GetPendingPayments(c *fiber.Ctx) error {
	query := database.DB.Model(&models.PaymentVerification{}).
		Preload("Registration").
		Preload("Event").
		Preload("User")

	status := c.Query("status", models.VerificationStatusPending)
	if status != "all" {
		query = query.Where("status = ?", status)
	}
	if eventID := c.Query("event_id"); eventID != "" {
		query = query.Where("event_id = ?", eventID)
	}

	var verifications []models.PaymentVerification
	if err := query.Order("created_at ASC").Find(&verifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch payment verifications",
		})
	}

	return c.JSON(fiber.Map{
		"verifications": verifications,
		"total":         len(verifications),
	})
}

// VerifyPayment approves a pending verification and completes its
// registration in the same transaction.
func (pc *PaymentController) VerifyPayment(c *fiber.Ctx) error {
	admin, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	verificationID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid verification ID",
		})
	}

	var req struct {
		AdminNotes       string `json:"admin_notes"`
		PaymentReference string `json:"payment_reference"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	verification, err := pc.payments.Verify(uint(verificationID), admin.ID, req.AdminNotes, req.PaymentReference)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Verification not found"})
		case errors.Is(err, services.ErrVerificationClosed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to verify payment",
			})
		}
	}

	middleware.LogActivity(c, "UPDATE", "payments", verification.ID, fiber.Map{
		"action":          "verify",
		"registration_id": verification.RegistrationID,
	})

	return c.JSON(fiber.Map{
		"message":      "Payment verified, registration completed",
		"verification": verification,
	})
}

// RejectPayment declines a pending verification. Notes are required so the
// student knows what to fix.
func (pc *PaymentController) RejectPayment(c *fiber.Ctx) error {
	admin, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	verificationID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid verification ID",
		})
	}

	var req struct {
		AdminNotes string `json:"admin_notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.AdminNotes == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "admin_notes is required when rejecting",
		})
	}

	verification, err := pc.payments.Reject(uint(verificationID), admin.ID, req.AdminNotes)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Verification not found"})
		case errors.Is(err, services.ErrVerificationClosed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to reject payment",
			})
		}
	}

	middleware.LogActivity(c, "UPDATE", "payments", verification.ID, fiber.Map{
		"action":          "reject",
		"registration_id": verification.RegistrationID,
	})

	return c.JSON(fiber.Map{
		"message":      "Payment rejected",
		"verification": verification,
	})
}
