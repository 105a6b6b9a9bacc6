package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/piar/backoffice/internal/core/domain"
	"github.com/piar/backoffice/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	tokens      ports.TokenService
}

func NewAuthHandler(authService ports.AuthService, tokens ports.TokenService) *AuthHandler {
	return &AuthHandler{authService: authService, tokens: tokens}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	AccountCode string `json:"accountCode" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,max=72"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type updateRoleRequest struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"required,oneof=admin user"`
}

type accountResponse struct {
	Account *domain.Account `json:"account"`
}

type logoutResponse struct {
	Success bool `json:"success"`
}

// bindAndValidate decodes the body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.NewBadRequestError("Invalid request payload").WithCause(err)
	}
	return c.Validate(req)
}

// Login authenticates an account and returns it with a signed session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  ports.LoginResult
// @Failure      400   {object}  domain.Envelope
// @Failure      401   {object}  domain.Envelope
// @Failure      500   {object}  domain.Envelope
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Register creates a new account with the user role.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  accountResponse
// @Failure      400   {object}  domain.Envelope
// @Failure      409   {object}  domain.Envelope
// @Failure      500   {object}  domain.Envelope
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.authService.Register(c.Request().Context(), req.AccountCode, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, accountResponse{Account: account})
}

// ForgotPassword starts a password reset. An unknown email is a 200 with
// success=false.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  ports.ForgotPasswordResult
// @Failure      400   {object}  domain.Envelope
// @Failure      500   {object}  domain.Envelope
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// UpdateRole changes the role of an account. Admin only.
//
// @Summary      Update an account role
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateRoleRequest  true  "Target account and role"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  domain.Envelope
// @Failure      401   {object}  domain.Envelope
// @Failure      403   {object}  domain.Envelope
// @Failure      404   {object}  domain.Envelope
// @Failure      500   {object}  domain.Envelope
// @Router       /auth/roles [patch]
func (h *AuthHandler) UpdateRole(c echo.Context) error {
	var req updateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	role, _ := domain.ParseRole(req.Role)
	account, err := h.authService.UpdateUserRole(c.Request().Context(), req.UserID, role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{Account: account})
}

// Me returns the verified token payload of the caller.
//
// @Summary      Current caller
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  domain.TokenPayload
// @Failure      401   {object}  domain.Envelope
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	payload, err := ctxPayload(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payload)
}

// Logout revokes the caller's token when revocation is enabled. Without it the
// token stays valid until expiry and the client just discards it.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  logoutResponse
// @Failure      401   {object}  domain.Envelope
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token, err := ctxToken(c)
	if err != nil {
		return err
	}
	if err := h.tokens.Revoke(c.Request().Context(), token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logoutResponse{Success: true})
}
