package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"freshersparty_go/database"
	"freshersparty_go/middleware"
	"freshersparty_go/models"
	"freshersparty_go/services"
	"freshersparty_go/utils"
)

type EventController struct {
	cache *services.CacheService
}

func NewEventController() *EventController {
	return &EventController{cache: services.NewCacheService()}
}

const (
	eventsCachePrefix = "cache:events"
	eventsCacheTTL    = 2 * time.Minute
)

// EventRequest carries the admin create/update payload.
type EventRequest struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	EventDate    time.Time      `json:"event_date"`
	Location     string         `json:"location"`
	Capacity     int            `json:"capacity"`
	Active       *bool          `json:"active"`
	EventType    string         `json:"event_type"`
	PricingMode  string         `json:"pricing_mode"`
	FreeForYears []int          `json:"free_for_years"`
	PaidForYears []int          `json:"paid_for_years"`
	YearPrices   map[string]int `json:"year_prices"`
	BasePrice    int            `json:"base_price"`
}

func (r *EventRequest) validate() string {
	if r.Name == "" {
		return "Event name is required"
	}
	if r.EventDate.IsZero() {
		return "Event date is required"
	}
	if r.EventType != models.EventTypeFree && r.EventType != models.EventTypePaid {
		return "event_type must be free or paid"
	}
	if r.PricingMode != models.PricingModeFlat && r.PricingMode != models.PricingModePerYear {
		return "pricing_mode must be flat or per_year"
	}
	if r.Capacity < 0 {
		return "Capacity cannot be negative"
	}
	if r.BasePrice < 0 {
		return "Base price cannot be negative"
	}
	for _, p := range r.YearPrices {
		if p < 0 {
			return "Year prices cannot be negative"
		}
	}
	return ""
}

func (r *EventRequest) apply(event *models.Event) {
	event.Name = utils.SanitizeString(r.Name)
	event.Description = r.Description
	event.EventDate = r.EventDate
	event.Location = utils.SanitizeString(r.Location)
	event.Capacity = r.Capacity
	if r.Active != nil {
		event.Active = *r.Active
	}
	event.EventType = r.EventType
	event.PricingMode = r.PricingMode
	event.FreeForYears = models.MustJSON(r.FreeForYears)
	event.PaidForYears = models.MustJSON(r.PaidForYears)
	event.YearPrices = models.MustJSON(r.YearPrices)
	event.BasePrice = r.BasePrice
}

// GetEvents lists active events for the public landing page. Reads go
// through the cache; admin mutations invalidate the prefix.
func (ec *EventController) GetEvents(c *fiber.Ctx) error {
	ctx := c.Context()
	cacheKey := eventsCachePrefix + ":list"

	var events []models.Event
	if err := ec.cache.Get(ctx, cacheKey, &events); err == nil {
		return c.JSON(fiber.Map{"events": events, "total": len(events)})
	}

	if err := database.DB.Where("active = ?", true).
		Order("event_date ASC").Find(&events).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch events",
		})
	}

	ec.cache.Set(ctx, cacheKey, events, eventsCacheTTL)

	return c.JSON(fiber.Map{"events": events, "total": len(events)})
}

// GetEvent returns a single event by ID
func (ec *EventController) GetEvent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid event ID",
		})
	}

	ctx := c.Context()
	cacheKey := eventsCachePrefix + ":" + c.Params("id")

	var event models.Event
	if err := ec.cache.Get(ctx, cacheKey, &event); err == nil {
		return c.JSON(fiber.Map{"event": event})
	}

	if err := database.DB.First(&event, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Event not found",
		})
	}

	ec.cache.Set(ctx, cacheKey, event, eventsCacheTTL)

	return c.JSON(fiber.Map{"event": event})
}

// CreateEvent creates a new event (admin only)
func (ec *EventController) CreateEvent(c *fiber.Ctx) error {
	var req EventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if msg := req.validate(); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	var event models.Event
	event.Active = true
	req.apply(&event)

	if err := database.DB.Create(&event).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create event",
		})
	}

	ec.cache.InvalidatePrefix(c.Context(), eventsCachePrefix)
	middleware.LogActivity(c, "CREATE", "events", event.ID, fiber.Map{"name": event.Name})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Event created",
		"event":   event,
	})
}

// UpdateEvent updates an existing event (admin only)
func (ec *EventController) UpdateEvent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid event ID",
		})
	}

	var event models.Event
	if err := database.DB.First(&event, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Event not found",
		})
	}

	var req EventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if msg := req.validate(); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	req.apply(&event)
	if err := database.DB.Save(&event).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update event",
		})
	}

	ec.cache.InvalidatePrefix(c.Context(), eventsCachePrefix)
	middleware.LogActivity(c, "UPDATE", "events", event.ID, fiber.Map{"name": event.Name})

	return c.JSON(fiber.Map{
		"message": "Event updated",
		"event":   event,
	})
}

// DeleteEvent soft-deletes an event (admin only). Existing registrations
// are kept for bookkeeping.
func (ec *EventController) DeleteEvent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid event ID",
		})
	}

	var event models.Event
	if err := database.DB.First(&event, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Event not found",
		})
	}

	if err := database.DB.Delete(&event).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete event",
		})
	}

	ec.cache.InvalidatePrefix(c.Context(), eventsCachePrefix)
	middleware.LogActivity(c, "DELETE", "events", event.ID, fiber.Map{"name": event.Name})

	return c.JSON(fiber.Map{"message": "Event deleted"})
}
