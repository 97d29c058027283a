package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SOS-Tag/sos-tag-api/internal/usecase"
)

// RegistrationHandler exposes the registration and confirmation endpoints.
type RegistrationHandler struct {
	registration *usecase.RegistrationService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registration *usecase.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registration: registration}
}

// RegisterRoutes binds registration routes, applying optional middleware
// ahead of the registration handler.
func (h *RegistrationHandler) RegisterRoutes(r *gin.RouterGroup, registerMiddlewares ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{}, registerMiddlewares...)
	r.POST("/register", append(chain, h.register)...)
	r.POST("/confirm", h.confirm)
	r.POST("/confirm/resend", h.resendConfirmation)
}

func (h *RegistrationHandler) register(c *gin.Context) {
	var req RegisterRequest
	bindJSON(c, &req)

	account, err := h.registration.Register(c.Request.Context(), usecase.RegisterInput{
		Fname:    req.Fname,
		Lname:    req.Lname,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, accountView(*account))
}

func (h *RegistrationHandler) confirm(c *gin.Context) {
	var req TokenRequest
	bindJSON(c, &req)

	ok, err := h.registration.ConfirmUser(c.Request.Context(), req.Token)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: ok})
}

func (h *RegistrationHandler) resendConfirmation(c *gin.Context) {
	var req EmailRequest
	bindJSON(c, &req)

	ok, err := h.registration.ResendConfirmationLink(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: ok})
}
