package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"freshersparty_go/config"
	"freshersparty_go/database"
	"freshersparty_go/middleware"
	"freshersparty_go/models"
	"freshersparty_go/services"
	"freshersparty_go/utils"
)

type AuthController struct{}

// SignupRequest represents the signup request body
type SignupRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	FullName     string `json:"full_name" validate:"required"`
	Mobile       string `json:"mobile"`
	StudyingYear int    `json:"studying_year" validate:"required"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Signup creates an account in pending_verification and emails a one-time
// code. The account cannot log in until the code is confirmed.
func (ac *AuthController) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	req.Email = strings.ToLower(utils.SanitizeString(req.Email))
	req.FullName = utils.SanitizeString(req.FullName)

	if !utils.IsValidEmail(req.Email) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid email address",
		})
	}
	if len(req.Password) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Password must be at least 6 characters",
		})
	}
	if req.FullName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Full name is required",
		})
	}
	if !utils.IsValidStudyingYear(req.StudyingYear) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Studying year must be between 1 and 4",
		})
	}

	var existingUser models.User
	if err := database.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Email already registered",
		})
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	otp, err := utils.GenerateOTP()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate verification code",
		})
	}
	otpExpires := time.Now().Add(config.AppConfig.OTPExpiresIn)

	user := models.User{
		Email:        req.Email,
		Password:     hashedPassword,
		Role:         "student",
		Status:       "pending_verification",
		OTPCode:      otp,
		OTPExpiresAt: &otpExpires,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create account",
		})
	}

	profile := models.UserProfile{
		UserID:       user.ID,
		FullName:     req.FullName,
		Mobile:       req.Mobile,
		StudyingYear: req.StudyingYear,
	}
	if err := database.DB.Create(&profile).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create profile",
		})
	}

	if err := services.SendOTPEmail(user.Email, otp); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Account created but verification email failed; use resend",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account created. Check your email for the verification code.",
		"user": fiber.Map{
			"id":     user.ID,
			"email":  user.Email,
			"status": user.Status,
		},
	})
}

// VerifyOTP confirms the emailed code and activates the account.
func (ac *AuthController) VerifyOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email" validate:"required"`
		Code  string `json:"code" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var user models.User
	if err := database.DB.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Account not found",
		})
	}

	if user.EmailVerified {
		return c.JSON(fiber.Map{"message": "Email already verified"})
	}
	if user.OTPCode == "" || user.OTPCode != req.Code {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid verification code",
		})
	}
	if user.OTPExpiresAt == nil || time.Now().After(*user.OTPExpiresAt) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Verification code expired; request a new one",
		})
	}

	updates := map[string]interface{}{
		"email_verified": true,
		"status":         "active",
		"otp_code":       "",
		"otp_expires_at": nil,
	}
	if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to verify account",
		})
	}

	return c.JSON(fiber.Map{"message": "Email verified, you can log in now"})
}

// ResendOTP issues a fresh verification code.
func (ac *AuthController) ResendOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var user models.User
	if err := database.DB.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Account not found",
		})
	}
	if user.EmailVerified {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email already verified",
		})
	}

	otp, err := utils.GenerateOTP()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate verification code",
		})
	}
	otpExpires := time.Now().Add(config.AppConfig.OTPExpiresIn)

	if err := database.DB.Model(&user).Updates(map[string]interface{}{
		"otp_code":       otp,
		"otp_expires_at": otpExpires,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save verification code",
		})
	}

	if err := services.SendOTPEmail(user.Email, otp); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to send verification email",
		})
	}

	return c.JSON(fiber.Map{"message": "Verification code sent"})
}

// Login authenticates a user and returns a JWT token
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var user models.User
	if err := database.DB.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	if err := utils.CheckPassword(req.Password, user.Password); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	if user.Status == "pending_verification" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Email not verified; check your inbox for the code",
		})
	}
	if user.Status != "active" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Account is suspended",
		})
	}

	token, err := middleware.GenerateToken(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	database.DB.Preload("Profile").First(&user, user.ID)

	middleware.LogActivity(c, "LOGIN", "auth", user.ID, fiber.Map{
		"email": user.Email,
		"role":  user.Role,
	})

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user": fiber.Map{
			"id":      user.ID,
			"email":   user.Email,
			"role":    user.Role,
			"avatar":  user.Avatar,
			"profile": user.Profile,
		},
	})
}

// Logout invalidates the current JWT by storing it in the Redis blacklist
// until it would have expired anyway.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing authorization header"})
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid authorization header format"})
	}

	if rc := database.GetRedisClient(); rc != nil {
		key := "blacklist:jwt:" + tokenString
		if err := rc.Set(context.Background(), key, "1", config.AppConfig.JWTExpiresIn).Err(); err != nil {
			middleware.LogActivity(c, "LOGOUT", "auth", 0, fiber.Map{"error": err.Error()})
		}
	}

	if user, err := middleware.GetCurrentUser(c); err == nil {
		middleware.LogActivity(c, "LOGOUT", "auth", user.ID, fiber.Map{"email": user.Email})
	}

	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// GetProfile returns the current user's profile, materializing it from
// account data when no row exists yet.
func (ac *AuthController) GetProfile(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var profile models.UserProfile
	if err := database.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		// Accounts created outside signup (seeded admins) get a default row
		profile = models.UserProfile{
			UserID:       user.ID,
			FullName:     strings.SplitN(user.Email, "@", 2)[0],
			StudyingYear: 1,
		}
		if err := database.DB.Create(&profile).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to materialize profile",
			})
		}
	}

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"id":             user.ID,
			"email":          user.Email,
			"role":           user.Role,
			"status":         user.Status,
			"avatar":         user.Avatar,
			"email_verified": user.EmailVerified,
			"profile":        profile,
		},
	})
}

// UpdateProfile lets the user change their contact details and year.
func (ac *AuthController) UpdateProfile(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var req struct {
		FullName     string `json:"full_name"`
		Mobile       string `json:"mobile"`
		StudyingYear int    `json:"studying_year"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updates := map[string]interface{}{}
	if name := utils.SanitizeString(req.FullName); name != "" {
		updates["full_name"] = name
	}
	if req.Mobile != "" {
		updates["mobile"] = utils.SanitizeString(req.Mobile)
	}
	if req.StudyingYear != 0 {
		if !utils.IsValidStudyingYear(req.StudyingYear) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Studying year must be between 1 and 4",
			})
		}
		updates["studying_year"] = req.StudyingYear
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Nothing to update",
		})
	}

	var profile models.UserProfile
	if err := database.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Profile not found",
		})
	}

	if err := database.DB.Model(&profile).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update profile",
		})
	}

	middleware.LogActivity(c, "UPDATE", "profile", profile.ID, updates)

	return c.JSON(fiber.Map{
		"message": "Profile updated",
		"profile": profile,
	})
}
