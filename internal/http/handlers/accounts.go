package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/virtuline/accounthub/internal/config"
	"github.com/virtuline/accounthub/internal/domain/account"
	"github.com/virtuline/accounthub/internal/http/middlewares"
)

// AccountService is the lifecycle core as seen from the HTTP layer.
type AccountService interface {
	CreateUser(ctx context.Context, email, password, fullName string) (account.Public, error)
	LoginUser(ctx context.Context, email, password string) (string, error)
	ValidateEmail(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Logout(ctx context.Context, token string) error
}

type AccountsHandler struct {
	svc AccountService
}

func NewAccountsHandler(svc AccountService) *AccountsHandler {
	return &AccountsHandler{svc: svc}
}

type CreateAccountRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"fullName" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ValidateEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

type RequestPasswordResetRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func (h *AccountsHandler) CreateAccount(ctx *gin.Context) {
	var req CreateAccountRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// generous deadline: one bcrypt hash alone costs ~100ms
	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	pub, err := h.svc.CreateUser(cctx, req.Email, req.Password, req.FullName)

	if err != nil {
		switch {
		case errors.Is(err, account.ErrInvalidEmailFormat):
			RespondError(ctx, http.StatusBadRequest, "invalid_email_format", err.Error(), nil)
		case errors.Is(err, account.ErrPasswordComplexity):
			RespondError(ctx, http.StatusBadRequest, "password_complexity", err.Error(), nil)
		default:
			// every other failure, duplicate email and store errors alike,
			// collapses into one response: status, code and wording must not
			// reveal whether the email was already registered
			RespondError(ctx, http.StatusBadRequest, "account_creation_failed", account.ErrAccountCreationGeneric.Error(), nil)
		}
		return
	}

	ctx.JSON(http.StatusCreated, pub)
}

func (h *AccountsHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	token, err := h.svc.LoginUser(cctx, req.Email, req.Password)

	if err != nil {
		switch {
		case errors.Is(err, account.ErrInvalidEmailFormat):
			RespondError(ctx, http.StatusBadRequest, "invalid_email_format", err.Error(), nil)
		case errors.Is(err, account.ErrInvalidCredentials):
			RespondUnAuthorized(ctx, "invalid_credentials", err.Error())
		case errors.Is(err, account.ErrAccountPendingValidation):
			RespondForbidden(ctx, "account_pending_validation", err.Error())
		case errors.Is(err, account.ErrAccountInactive):
			RespondForbidden(ctx, "account_inactive", err.Error())
		default:
			RespondInternal(ctx, "Could not log in")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"sessionToken": token,
	})
}

func (h *AccountsHandler) Logout(ctx *gin.Context) {
	raw, ok := middlewares.RawTokenFromContext(ctx)

	if !ok || raw == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	err := h.svc.Logout(cctx, raw)

	if err != nil {
		RespondInternal(ctx, "Could not log out")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *AccountsHandler) ValidateEmail(ctx *gin.Context) {
	var req ValidateEmailRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	err := h.svc.ValidateEmail(cctx, req.Token)

	if err != nil {
		switch {
		case errors.Is(err, account.ErrValidationTokenInvalid):
			RespondError(ctx, http.StatusBadRequest, "validation_token_invalid", err.Error(), nil)
		case errors.Is(err, account.ErrValidationTokenExpired):
			RespondError(ctx, http.StatusBadRequest, "validation_token_expired", err.Error(), nil)
		case errors.Is(err, account.ErrAccountAlreadyActive):
			RespondConflict(ctx, "account_already_active", err.Error())
		default:
			RespondInternal(ctx, "Could not validate email")
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *AccountsHandler) RequestPasswordReset(ctx *gin.Context) {
	var req RequestPasswordResetRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	err := h.svc.RequestPasswordReset(cctx, req.Email)

	if err != nil {
		if errors.Is(err, account.ErrInvalidEmailFormat) {
			RespondError(ctx, http.StatusBadRequest, "invalid_email_format", err.Error(), nil)
			return
		}

		RespondInternal(ctx, "Could not process the request")
		return
	}

	// same body whether or not the account exists
	ctx.JSON(http.StatusAccepted, gin.H{
		"message": account.PasswordResetRequestedInfo,
	})
}

func (h *AccountsHandler) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	err := h.svc.ResetPassword(cctx, req.Token, req.NewPassword)

	if err != nil {
		switch {
		case errors.Is(err, account.ErrResetTokenInvalid):
			RespondError(ctx, http.StatusBadRequest, "reset_token_invalid", err.Error(), nil)
		case errors.Is(err, account.ErrResetTokenExpired):
			RespondError(ctx, http.StatusBadRequest, "reset_token_expired", err.Error(), nil)
		case errors.Is(err, account.ErrPasswordComplexity):
			RespondError(ctx, http.StatusBadRequest, "password_complexity", err.Error(), nil)
		default:
			RespondInternal(ctx, "Could not reset password")
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}
