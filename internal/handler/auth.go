package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecofinds-marketplace/internal/service"
)

// AuthHandler serves registration, login and the caller's own account.
type AuthHandler struct {
	base
	Accounts *service.Accounts
}

func NewAuthHandler(accounts *service.Accounts, opts Options) *AuthHandler {
	return &AuthHandler{base: newBase(opts), Accounts: accounts}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileReq struct {
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     *string `json:"newPassword"`
}

// Register: create the user and sign them in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, badRequest("Invalid request body"))
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	s, err := h.Accounts.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User created successfully",
		"token":   s.Token,
		"user":    s.User,
	})
}

// Login: verify credentials and issue a fresh token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, badRequest("Invalid request body"))
	}
	if req.Email == "" || req.Password == "" {
		return h.fail(c, badRequest("Email and password are required"))
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	s, err := h.Accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"token":   s.Token,
		"user":    s.User,
	})
}

// Me returns the caller's account record.
func (h *AuthHandler) Me(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.Accounts.Me(ctx, u.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// Verify echoes the identity the token resolved to.
func (h *AuthHandler) Verify(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Token is valid", "user": u})
}

// UpdateProfile changes username, email or password.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, badRequest("Invalid request body"))
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.Accounts.UpdateProfile(ctx, u.ID, service.ProfileUpdate{
		Username:        req.Username,
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully", "user": user})
}
