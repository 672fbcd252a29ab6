package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/khatriaman123/Todo/internal/auth"
	dom "github.com/khatriaman123/Todo/internal/domain"
	"github.com/khatriaman123/Todo/internal/dto"
	"github.com/khatriaman123/Todo/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles registration, login, user lookup and password changes.
type AuthHandler struct {
	tokens  *auth.TokenManager
	userSvc *service.UserService
}

// NewAuthHandler returns a new AuthHandler.
func NewAuthHandler(tokens *auth.TokenManager, userSvc *service.UserService) *AuthHandler {
	return &AuthHandler{tokens: tokens, userSvc: userSvc}
}

// Register godoc
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "Name, email and password"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "all fields are required"})
		return
	}
	user, err := h.userSvc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrMissingFields) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "all fields are required"})
			return
		}
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"message": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "registration failed", "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "user registered successfully", "user": userToResponse(user)})
}

// Login godoc
// @Summary      Login with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "Credentials"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email and password required"})
		return
	}
	user, err := h.userSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// Unknown email and wrong password return the same body so callers
		// cannot probe which emails are registered.
		if errors.Is(err, service.ErrUnknownEmail) {
			c.JSON(http.StatusNotFound, gin.H{"message": "invalid credentials"})
			return
		}
		if errors.Is(err, service.ErrWrongPassword) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "login failed", "error": err.Error()})
		return
	}
	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "login failed", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.LoginResponse{Token: token, User: userToResponse(user)})
}

// ListUsers godoc
// @Summary      List all users
// @Tags         auth
// @Produce      json
// @Success      200  {object}  dto.ListUsersResponse
// @Failure      500  {object}  map[string]string
// @Router       /auth/users [get]
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.userSvc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch users", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.ListUsersResponse{Users: usersToResponses(users)})
}

// GetUser godoc
// @Summary      Get a user by ID
// @Tags         auth
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  map[string]dto.UserResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /auth/user/{id} [get]
func (h *AuthHandler) GetUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
		return
	}
	user, err := h.userSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to fetch user", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToResponse(user)})
}

// UpdatePassword godoc
// @Summary      Change the authenticated user's password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.UpdatePasswordRequest  true  "Current and new passwords"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/update-password [post]
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req dto.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "both current and new passwords are required"})
		return
	}
	userID := auth.UserIDFromContext(c)
	err := h.userSvc.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		case errors.Is(err, service.ErrWrongPassword):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "current password is incorrect"})
		case errors.Is(err, service.ErrSamePassword):
			c.JSON(http.StatusBadRequest, gin.H{"message": "new password must be different from the current password"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to update password", "error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated successfully"})
}

func userToResponse(u dom.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func usersToResponses(list []dom.User) []dto.UserResponse {
	out := make([]dto.UserResponse, len(list))
	for i := range list {
		out[i] = userToResponse(list[i])
	}
	return out
}
