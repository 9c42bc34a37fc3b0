package middleware

import (
	"context"
	"fmt"
	"freshersparty_go/database"
	"freshersparty_go/models"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AdminDecision is the outcome of an admin-membership lookup.
type AdminDecision int

const (
	// AdminAuthorized: the email is an admin member.
	AdminAuthorized AdminDecision = iota
	// AdminUnauthorized: the lookup succeeded and found no membership.
	AdminUnauthorized
	// AdminIndeterminate: the lookup kept failing; the caller should treat
	// this as retryable rather than as a denial. Mapping a slow backend to
	// "not an admin" would lock out legitimate admins.
	AdminIndeterminate
)

const adminCheckTimeout = 8 * time.Second

// Lookup attempts are spaced to mask read-after-write latency between the
// session store and the membership table.
var adminCheckBackoff = []time.Duration{0, 300 * time.Millisecond, 600 * time.Millisecond}

// CheckAdminAccess looks the email up in the admin membership table, retrying
// with backoff. Returns the decision plus a human-readable reason.
func CheckAdminAccess(ctx context.Context, email string) (AdminDecision, string) {
	if email == "" {
		return AdminUnauthorized, "no email on session"
	}

	var lastErr error
	for attempt, delay := range adminCheckBackoff {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return AdminIndeterminate, "authorization check cancelled"
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, adminCheckTimeout)
		var count int64
		err := database.DB.WithContext(attemptCtx).
			Model(&models.AdminUser{}).
			Where("email = ?", email).
			Count(&count).Error
		cancel()

		if err == nil {
			if count > 0 {
				return AdminAuthorized, ""
			}
			return AdminUnauthorized, fmt.Sprintf("%s is not an admin", email)
		}
		lastErr = err
		logrus.WithError(err).WithField("attempt", attempt+1).Warn("Admin membership lookup failed")
	}

	return AdminIndeterminate, fmt.Sprintf("admin lookup failed after %d attempts: %v", len(adminCheckBackoff), lastErr)
}

// RequireAdmin gates a route on admin membership. Indeterminate lookups map
// to 503 so the client retries instead of being denied outright.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*Claims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing user claims",
			})
		}

		decision, reason := CheckAdminAccess(c.Context(), claims.Email)
		switch decision {
		case AdminAuthorized:
			return c.Next()
		case AdminIndeterminate:
			logrus.WithField("email", claims.Email).Warn(reason)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Authorization check unavailable, please retry",
			})
		default:
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}
	}
}
