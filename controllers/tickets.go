package controllers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"freshersparty_go/database"
	"freshersparty_go/middleware"
	"freshersparty_go/models"
	"freshersparty_go/services"
)

type TicketController struct{}

// loadTicketRegistration fetches the registration and enforces that the
// requester owns it or is staff, and that it entitles the holder to a
// ticket.
func (tc *TicketController) loadTicketRegistration(c *fiber.Ctx) (*models.Registration, error) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	registrationID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid registration ID",
		})
	}

	var registration models.Registration
	if err := database.DB.Preload("Event").First(&registration, uint(registrationID)).Error; err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Registration not found",
		})
	}

	if registration.UserID != user.ID && user.Role != "admin" && user.Role != "staff" {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not your registration",
		})
	}
	if !registration.Confirmed() {
		return nil, c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":          "Ticket is available once payment is confirmed",
			"payment_status": registration.PaymentStatus,
		})
	}

	return &registration, nil
}

// GetTicketPNG renders the registration's QR code as a PNG. size is the
// image edge in pixels, clamped to a sane range.
func (tc *TicketController) GetTicketPNG(c *fiber.Ctx) error {
	registration, err := tc.loadTicketRegistration(c)
	if registration == nil {
		return err
	}

	size, _ := strconv.Atoi(c.Query("size", "256"))
	if size < 128 || size > 1024 {
		size = 256
	}

	png, err := services.TicketPNG(registration, size)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to render ticket",
		})
	}

	c.Set("Content-Type", "image/png")
	c.Set("Content-Disposition", fmt.Sprintf(`inline; filename="ticket-%d.png"`, registration.ID))
	return c.Send(png)
}

// GetTicketPDF renders a printable A5 ticket with the event details and the
// embedded QR code.
func (tc *TicketController) GetTicketPDF(c *fiber.Ctx) error {
	registration, err := tc.loadTicketRegistration(c)
	if registration == nil {
		return err
	}

	pdf, err := services.TicketPDF(registration, &registration.Event)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to render ticket",
		})
	}

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ticket-%d.pdf"`, registration.ID))
	return c.Send(pdf)
}
