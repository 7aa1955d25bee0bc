package controllers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	auth "github.com/phillip/donation-portal-go/auth"
	middleware "github.com/phillip/donation-portal-go/middleware"
	models "github.com/phillip/donation-portal-go/models"
	services "github.com/phillip/donation-portal-go/services"
	store "github.com/phillip/donation-portal-go/store"
)

type phoneInput struct {
	Phone string `json:"phone" binding:"required"`
}

func SendOTP(env *Env) gin.HandlerFunc {
	return sendOTP(env, "otp sent")
}

// ResendOTP is SendOTP with the same cooldown; it exists for the donor site's resend link.
func ResendOTP(env *Env) gin.HandlerFunc {
	return sendOTP(env, "otp resent")
}

func sendOTP(env *Env, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input phoneInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "phone is required"})
			return
		}
		phone, ok := parsePhone(c, input.Phone)
		if !ok {
			return
		}

		err := env.OTP.Send(c.Request.Context(), phone)
		var rle *services.RateLimitError
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"message": message})
		case errors.As(err, &rle):
			c.Header("Retry-After", retryAfter(rle))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrOTPCooldown):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		default:
			env.Logger.Error("otp send failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send otp"})
		}
	}
}

func retryAfter(rle *services.RateLimitError) string {
	return strconv.Itoa(int(math.Ceil(rle.RetryAfter.Seconds())))
}

func VerifyOTP(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Phone string `json:"phone" binding:"required"`
			Code  string `json:"code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "phone and code are required"})
			return
		}
		phone, ok := parsePhone(c, input.Phone)
		if !ok {
			return
		}
		if !services.ValidCode(input.Code) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code must be 6 digits"})
			return
		}

		err := env.OTP.Verify(c.Request.Context(), phone, input.Code)
		var rle *services.RateLimitError
		switch {
		case err == nil:
		case errors.As(err, &rle):
			c.Header("Retry-After", retryAfter(rle))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		case errors.Is(err, services.ErrOTPNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		case errors.Is(err, services.ErrOTPInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		case errors.Is(err, services.ErrOTPTooManyAttempts):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		default:
			env.Logger.Error("otp verify failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify otp"})
			return
		}

		token, err := env.Issuer.Generate(auth.Claims{Phone: phone, Role: models.RoleDonor})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "role": models.RoleDonor, "phone": phone})
	}
}

func Login(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		user, err := env.Users.FindUserByEmail(c.Request.Context(), input.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			storeError(env, c, err, "user")
			return
		}
		if auth.CheckPassword(input.Password, user.PasswordHash) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := env.Issuer.Generate(auth.Claims{
			UserID: user.ID.Hex(),
			Email:  user.Email,
			Role:   user.Role,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "role": user.Role})
	}
}

// RefreshToken re-issues the caller's token with a fresh expiry.
func RefreshToken(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := env.Issuer.Generate(auth.Claims{
			UserID: c.GetString(middleware.KeyUserID),
			Email:  c.GetString(middleware.KeyEmail),
			Phone:  c.GetString(middleware.KeyPhone),
			Role:   c.GetString(middleware.KeyRole),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}
