package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SOS-Tag/sos-tag-api/internal/core/port"
	"github.com/SOS-Tag/sos-tag-api/internal/transport/http/middleware"
	"github.com/SOS-Tag/sos-tag-api/internal/usecase"
)

// UserHandler exposes the profile and administrative account endpoints.
type UserHandler struct {
	users *usecase.UserService
	auth  *usecase.AuthService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *usecase.UserService, auth *usecase.AuthService) *UserHandler {
	return &UserHandler{users: users, auth: auth}
}

// RegisterRoutes binds the user routes. The protection matrix is static:
// /me reads the bearer when present, profile updates require authentication,
// and the remaining operations additionally require the admin role.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", middleware.OptionalAuth(h.auth), h.currentUser)
	r.PATCH("/me", middleware.RequireAuth(h.auth), h.updateCurrentUser)

	admin := r.Group("", middleware.RequireAuth(h.auth), middleware.RequireRole("admin"))
	admin.GET("", h.listUsers)
	admin.PATCH("/:id", h.updateUser)
	admin.DELETE("/:id", h.deleteUser)
	admin.POST("/:id/revoke-tokens", h.revokeTokens)
}

func (h *UserHandler) currentUser(c *gin.Context) {
	account, err := h.users.CurrentUser(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if account == nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": accountView(*account)})
}

func (h *UserHandler) updateCurrentUser(c *gin.Context) {
	var req UpdateUserRequest
	bindJSON(c, &req)

	account, err := h.users.UpdateCurrentUser(c.Request.Context(), middleware.AccountID(c), updateInput(req))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, accountView(*account))
}

func (h *UserHandler) updateUser(c *gin.Context) {
	var req UpdateUserRequest
	bindJSON(c, &req)

	account, err := h.users.UpdateUser(c.Request.Context(), c.Param("id"), updateInput(req))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, accountView(*account))
}

func (h *UserHandler) deleteUser(c *gin.Context) {
	ok, err := h.users.DeleteAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: ok})
}

func (h *UserHandler) listUsers(c *gin.Context) {
	opts := port.ListOptions{
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
		Filter: c.Query("filter"),
		SortBy: c.Query("sortBy"),
		Desc:   c.Query("order") == "desc",
	}

	page, err := h.users.AllUsers(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]AccountView, 0, len(page.Users))
	for _, user := range page.Users {
		views = append(views, accountView(user))
	}

	c.JSON(http.StatusOK, UsersResponse{
		Users: views,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	})
}

func (h *UserHandler) revokeTokens(c *gin.Context) {
	version, err := h.auth.RevokeRefreshTokens(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, RevokeTokensResponse{TokenVersion: version})
}

func updateInput(req UpdateUserRequest) usecase.UpdateInput {
	return usecase.UpdateInput{
		Fname:   req.Fname,
		Lname:   req.Lname,
		Phone:   req.Phone,
		Street:  req.Street,
		City:    req.City,
		ZipCode: req.ZipCode,
		Country: req.Country,
	}
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
