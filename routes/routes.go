package routes

import (
	"freshersparty_go/controllers"
	"freshersparty_go/middleware"
	"freshersparty_go/services/websocket"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, wsHub *websocket.Hub) {
	// Initialize controllers
	authController := &controllers.AuthController{}
	eventController := controllers.NewEventController()
	registrationController := controllers.NewRegistrationController()
	paymentController := controllers.NewPaymentController()
	ticketController := &controllers.TicketController{}
	notificationController := &controllers.NotificationController{}
	wsController := controllers.NewWebSocketController(wsHub)

	// API group
	api := app.Group("/api")

	// Public routes (no authentication required)
	api.Get("/events", eventController.GetEvents)
	api.Get("/events/:id", eventController.GetEvent)

	// Authentication routes (no middleware)
	auth := api.Group("/auth")
	auth.Post("/signup", authController.Signup)
	auth.Post("/verify-otp", authController.VerifyOTP)
	auth.Post("/resend-otp", authController.ResendOTP)
	auth.Post("/login", authController.Login)

	// WebSocket upgrade; authentication happens via ?token= inside the handler
	app.Use("/ws", wsController.UpgradeMiddleware())
	app.Get("/ws", wsController.Handler())

	// Protected routes (require authentication)
	protected := api.Group("/", middleware.JWTMiddleware())

	protected.Post("/auth/logout", authController.Logout)
	protected.Get("/profile", authController.GetProfile)
	protected.Put("/profile", authController.UpdateProfile)

	// Registration workflow
	protected.Post("/events/:id/register", registrationController.Register)
	protected.Get("/registrations", registrationController.MyRegistrations)
	protected.Get("/registrations/:id/ticket", ticketController.GetTicketPNG)
	protected.Get("/registrations/:id/ticket.pdf", ticketController.GetTicketPDF)

	// Payment verification workflow
	protected.Post("/payments/:id/proof", paymentController.SubmitProof)
	protected.Get("/payments/:id", paymentController.GetStatus)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Patch("/:id/read", notificationController.MarkRead)
	notifications.Patch("/read-all", notificationController.MarkAllRead)

	// Door staff
	protected.Post("/checkin", middleware.RequireStaffOrAdmin(), registrationController.CheckIn)

	// Admin routes; membership is checked against the admin_users table on
	// every request, not just the JWT role claim
	admin := protected.Group("/admin", middleware.RequireAdmin())
	admin.Post("/events", eventController.CreateEvent)
	admin.Put("/events/:id", eventController.UpdateEvent)
	admin.Delete("/events/:id", eventController.DeleteEvent)
	admin.Get("/registrations", registrationController.GetAllRegistrations)
	admin.Get("/payments", paymentController.GetPendingPayments)
	admin.Post("/payments/:id/verify", paymentController.VerifyPayment)
	admin.Post("/payments/:id/reject", paymentController.RejectPayment)
	admin.Get("/ws/stats", wsController.GetStats)
}
