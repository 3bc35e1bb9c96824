package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/qforge/qpgen-backend/internal/mailer"
	"github.com/qforge/qpgen-backend/internal/middleware"
	"github.com/qforge/qpgen-backend/internal/model"
	"github.com/qforge/qpgen-backend/internal/repository"
	"github.com/qforge/qpgen-backend/internal/response"
	"github.com/qforge/qpgen-backend/internal/service"
	"github.com/qforge/qpgen-backend/internal/validator"
	"github.com/rs/zerolog"
)

// AuthHandler handles account and session endpoints.
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	mail        mailer.Mailer
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	userService *service.UserService,
	mail mailer.Mailer,
	log zerolog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		mail:        mail,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// Register godoc
// POST /api/v1/auth/register
// Creates an unverified account and emails a verification OTP.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.userService.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			response.Fail(c, http.StatusConflict, response.ErrEmailTaken)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.sendVerifyOTP(c, user)

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// Login godoc
// POST /api/v1/auth/login
// Validates email + password and returns a JWT. A new login replaces any
// earlier session for the same account.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckPassword(user.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateToken(c.Request.Context(), user.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, model.LoginResponse{Token: token, User: *user})
}

// Logout godoc
// POST /api/v1/auth/logout
// Clears the active session, invalidating the current token.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.ClearSession(c.Request.Context(), userID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// IsAuth godoc
// GET /api/v1/auth/is-auth
// Confirms the token and session are still valid.
func (h *AuthHandler) IsAuth(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"is_auth":     true,
		"is_verified": user.IsVerified,
	})
}

// Profile godoc
// GET /api/v1/auth/profile
// Returns the authenticated user's profile.
func (h *AuthHandler) Profile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// SendVerifyOTP godoc
// POST /api/v1/auth/send-verify-otp
// Emails a fresh account-verification OTP to the authenticated user.
func (h *AuthHandler) SendVerifyOTP(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if user.IsVerified {
		response.Fail(c, http.StatusConflict, response.ErrAlreadyVerified)
		return
	}

	h.sendVerifyOTP(c, user)

	response.Success(c, http.StatusOK, gin.H{})
}

// VerifyAccount godoc
// POST /api/v1/auth/verify-account
// Consumes the emailed OTP and marks the account verified.
func (h *AuthHandler) VerifyAccount(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if user.IsVerified {
		response.Fail(c, http.StatusConflict, response.ErrAlreadyVerified)
		return
	}

	var req model.VerifyAccountRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.authService.CheckVerifyOTP(c.Request.Context(), user.ID, req.OTP); err != nil {
		if errors.Is(err, service.ErrOTPMismatch) {
			response.Fail(c, http.StatusBadRequest, response.ErrOTPInvalid)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if err := h.userService.MarkVerified(c.Request.Context(), user.ID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"is_verified": true})
}

// UpdateProfile godoc
// PUT /api/v1/auth/profile
// Changes the authenticated user's display name.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.userService.UpdateName(c.Request.Context(), user.ID, req.Name); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	user.Name = req.Name
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// UpdatePassword godoc
// PUT /api/v1/auth/password
// Changes the password after verifying the old one. The session stays
// active; only a new login or logout rotates the token.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req model.UpdatePasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.authService.CheckPassword(user.PasswordHash, req.OldPassword); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	hash, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if err := h.userService.UpdatePassword(c.Request.Context(), user.ID, hash); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// SendResetOTP godoc
// POST /api/v1/auth/send-reset-otp
// Emails a password-reset OTP. Always answers 200 so the endpoint cannot be
// used to probe which emails are registered.
func (h *AuthHandler) SendResetOTP(c *gin.Context) {
	var req model.SendResetOTPRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.GetByEmail(c.Request.Context(), req.Email)
	if err == nil {
		otp, err := h.authService.IssueResetOTP(c.Request.Context(), user.ID)
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		if err := h.mail.SendResetOTP(c.Request.Context(), user.Email, user.Name, otp); err != nil {
			h.log.Error().Err(err).Str("email", user.Email).Msg("Failed to send reset OTP")
		}
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ResetPassword godoc
// POST /api/v1/auth/reset-password
// Completes a password reset with the emailed OTP and clears any active
// session.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		// Same code as a wrong OTP so the response does not reveal whether
		// the email exists.
		response.Fail(c, http.StatusBadRequest, response.ErrOTPInvalid)
		return
	}

	if err := h.authService.CheckResetOTP(c.Request.Context(), user.ID, req.OTP); err != nil {
		if errors.Is(err, service.ErrOTPMismatch) {
			response.Fail(c, http.StatusBadRequest, response.ErrOTPInvalid)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	hash, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if err := h.userService.UpdatePassword(c.Request.Context(), user.ID, hash); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if err := h.authService.ClearSession(c.Request.Context(), user.ID); err != nil {
		h.log.Error().Err(err).Int("user_id", user.ID).Msg("Failed to clear session after reset")
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// currentUser loads the authenticated user or writes the error response.
func (h *AuthHandler) currentUser(c *gin.Context) (*model.User, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return nil, false
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return nil, false
	}
	return user, true
}

// sendVerifyOTP issues and mails a verification OTP. Delivery failures are
// logged, not surfaced; the user can request another OTP.
func (h *AuthHandler) sendVerifyOTP(c *gin.Context, user *model.User) {
	otp, err := h.authService.IssueVerifyOTP(c.Request.Context(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Int("user_id", user.ID).Msg("Failed to issue verify OTP")
		return
	}
	if err := h.mail.SendVerifyOTP(c.Request.Context(), user.Email, user.Name, otp); err != nil {
		h.log.Error().Err(err).Str("email", user.Email).Msg("Failed to send verify OTP")
	}
}
