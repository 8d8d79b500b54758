package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/triovision/erpauth/internal"
	"github.com/triovision/erpauth/internal/stores"
	"github.com/triovision/erpauth/middleware"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type tokenData struct {
	Token string `json:"token"`
}

type otpRequest struct {
	Email    string `json:"email"`
	UserName string `json:"userName"`
}

type verifyRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	UserName string `json:"userName"`
}

type registerRequest struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	UserID     string `json:"userId"`
	Password   string `json:"password"`
}

type resetRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Success: false, Message: message})
}

func ok(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}

// issueCode stores a fresh code for email and mails it.
func (s *Server) issueCode(c *gin.Context, email string, purpose stores.Purpose) error {
	code, err := s.newCode(s.config.OTPDigits)
	if err != nil {
		return err
	}
	record := &stores.OTPRecord{Purpose: purpose, SecretHash: internal.HashOTP(code)}
	if err := s.otps.Save(c.Request.Context(), email, record, s.config.OTPTTL); err != nil {
		return err
	}
	return s.mailer.SendOTP(c.Request.Context(), email, code, purpose)
}

// sendOTP serves both send-otp and resend-otp; a resend replaces the code.
func (s *Server) sendOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := foldKey(req.Email)
	if !validEmail(email) {
		fail(c, http.StatusBadRequest, "A valid email is required")
		return
	}
	if s.users.emailTaken(email) {
		fail(c, http.StatusConflict, "Email already registered")
		return
	}
	if err := s.issueCode(c, email, stores.PurposeRegistration); err != nil {
		s.logger.Error("issue registration otp failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Could not send OTP")
		return
	}
	ok(c, http.StatusOK, "OTP sent to your email.", nil)
}

func (s *Server) verifyOTP(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.OTP) == "" {
		fail(c, http.StatusBadRequest, "Email and OTP are required")
		return
	}

	_, err := s.otps.Verify(c.Request.Context(), req.Email, internal.HashOTP(req.OTP), s.config.MaxOTPAttempts)
	switch {
	case err == nil:
		ok(c, http.StatusOK, "OTP verified successfully", nil)
	case errors.Is(err, stores.ErrOTPNotFound):
		fail(c, http.StatusBadRequest, "OTP expired or not requested")
	case errors.Is(err, stores.ErrOTPMismatch):
		fail(c, http.StatusBadRequest, "Invalid OTP")
	case errors.Is(err, stores.ErrOTPAttemptsExceeded):
		fail(c, http.StatusTooManyRequests, "Too many attempts. Request a new OTP.")
	default:
		s.logger.Error("verify otp failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "OTP verification unavailable")
	}
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.UserName = strings.TrimSpace(req.UserName)
	email := foldKey(req.Email)
	if req.UserID == "" || req.UserName == "" || !validEmail(email) {
		fail(c, http.StatusBadRequest, "User ID, user name and a valid email are required")
		return
	}
	if utf8.RuneCountInString(req.Password) < s.config.MinPasswordLength {
		fail(c, http.StatusBadRequest, "Password is too short")
		return
	}
	if err := s.users.conflict(req.UserID, email); err != nil {
		fail(c, http.StatusConflict, conflictMessage(err))
		return
	}

	if _, err := s.otps.Consume(c.Request.Context(), email, internal.HashOTP(req.OTP), stores.PurposeRegistration); err != nil {
		if errors.Is(err, stores.ErrOTPRedisUnavailable) {
			s.logger.Error("consume registration otp failed", zap.Error(err))
			fail(c, http.StatusInternalServerError, "Registration unavailable")
			return
		}
		fail(c, http.StatusBadRequest, "Email not verified")
		return
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	created, err := s.users.insert(user{
		UserID:       req.UserID,
		UserName:     req.UserName,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		fail(c, http.StatusConflict, conflictMessage(err))
		return
	}
	s.logger.Info("user registered", zap.String("user_id", created.UserID), zap.String("id", created.ID))
	ok(c, http.StatusCreated, "Registration successful", nil)
}

func conflictMessage(err error) string {
	if errors.Is(err, errUserIDTaken) {
		return "User ID already taken"
	}
	return "Email already registered"
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	identifier := req.Identifier
	if strings.TrimSpace(identifier) == "" {
		identifier = req.UserID
	}
	if strings.TrimSpace(identifier) == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, "Identifier and password are required")
		return
	}

	u, found := s.users.lookup(identifier)
	if !found {
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	match, err := s.hasher.Verify(req.Password, u.PasswordHash)
	if err != nil || !match {
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.tokens.Issue(u.UserID, u.UserName, u.Email)
	if err != nil {
		s.logger.Error("issue token failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Login unavailable")
		return
	}
	ok(c, http.StatusOK, "Login successful", tokenData{Token: token})
}

// requestReset answers identically for known and unknown emails.
func (s *Server) requestReset(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := foldKey(req.Email)
	if !validEmail(email) {
		fail(c, http.StatusBadRequest, "A valid email is required")
		return
	}
	if s.users.emailTaken(email) {
		if err := s.issueCode(c, email, stores.PurposeReset); err != nil {
			s.logger.Error("issue reset otp failed", zap.Error(err))
		}
	}
	ok(c, http.StatusOK, "If the email is registered, an OTP has been sent.", nil)
}

func (s *Server) resetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := foldKey(req.Email)
	if utf8.RuneCountInString(req.NewPassword) < s.config.MinPasswordLength {
		fail(c, http.StatusBadRequest, "Password is too short")
		return
	}
	if _, err := s.otps.Consume(c.Request.Context(), email, internal.HashOTP(req.OTP), stores.PurposeReset); err != nil {
		if errors.Is(err, stores.ErrOTPRedisUnavailable) {
			s.logger.Error("consume reset otp failed", zap.Error(err))
			fail(c, http.StatusInternalServerError, "Password reset unavailable")
			return
		}
		fail(c, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if !s.users.setPassword(email, hash) {
		fail(c, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	ok(c, http.StatusOK, "Password updated successfully", nil)
}

type meData struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
	Email    string `json:"email,omitempty"`
}

// me reports the account behind a bearer token already verified by the guard.
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	claims, found := middleware.ClaimsFromContext(r.Context())
	if !found {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	u, found := s.users.lookup(claims.UserID)
	if !found {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(envelope{Message: "User not found"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(envelope{
		Success: true,
		Message: "ok",
		Data:    meData{UserID: u.UserID, UserName: u.UserName, Email: u.Email},
	})
}
