package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/prn-tf/warden/internal/domain"
)

// AccountService is the account capability the handler exposes over HTTP.
type AccountService interface {
	CreateUser(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (domain.LoginResult, error)
	DisableUser(ctx context.Context, username string) error
	EnableUser(ctx context.Context, username string) error
}

// AccountHandler maps account operations onto JSON endpoints.
type AccountHandler struct {
	accounts  AccountService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts AccountService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts:  accounts,
		validator: newValidator(),
		logger:    logger.With().Str("handler", "account").Logger(),
	}
}

// RegisterRoutes registers account routes.
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Post("/add_user", h.handleAddUser)
	r.Post("/login", h.handleLogin)
	r.Post("/disable_user", h.handleDisableUser)
	r.Post("/enable_user", h.handleEnableUser)
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

type usernameRequest struct {
	Username string `json:"username" validate:"required,max=255"`
}

// newValidator returns a validator with the maxbytes tag, which bounds a
// string by its encoded length rather than its rune count.
func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("maxbytes", validateMaxBytes); err != nil {
		panic(err)
	}
	return v
}

func validateMaxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// decode parses and validates a JSON body into dst.
func (h *AccountHandler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	if err := h.validator.Struct(dst); err != nil {
		return err
	}
	return nil
}

func (h *AccountHandler) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := h.decode(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	if _, err := h.accounts.CreateUser(r.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			writeFailure(w, http.StatusBadRequest, "User already exists")
			return
		}
		if errors.Is(err, domain.ErrPasswordTooLong) {
			writeFailure(w, http.StatusBadRequest, "Password is too long")
			return
		}
		h.internalError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "User created successfully")
}

func (h *AccountHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := h.decode(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.internalError(w, err)
		return
	}

	switch result {
	case domain.LoginSuccess:
		writeSuccess(w, http.StatusOK, "Login successful")
	case domain.LoginAccountDisabled:
		writeFailure(w, http.StatusForbidden, "Account revoked")
	default:
		writeFailure(w, http.StatusUnauthorized, "Invalid credentials")
	}
}

func (h *AccountHandler) handleDisableUser(w http.ResponseWriter, r *http.Request) {
	h.handleSetActive(w, r, false)
}

func (h *AccountHandler) handleEnableUser(w http.ResponseWriter, r *http.Request) {
	h.handleSetActive(w, r, true)
}

func (h *AccountHandler) handleSetActive(w http.ResponseWriter, r *http.Request, active bool) {
	var req usernameRequest
	if err := h.decode(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Username is required")
		return
	}

	var err error
	verb := "disabled"
	if active {
		verb = "enabled"
		err = h.accounts.EnableUser(r.Context(), req.Username)
	} else {
		err = h.accounts.DisableUser(r.Context(), req.Username)
	}

	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeFailure(w, http.StatusNotFound, "User not found")
			return
		}
		h.internalError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, fmt.Sprintf("User %s %s", req.Username, verb))
}

func (h *AccountHandler) internalError(w http.ResponseWriter, err error) {
	h.logger.Error().Err(err).Msg("request failed")
	writeFailure(w, http.StatusInternalServerError, "Internal server error")
}
