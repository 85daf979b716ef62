package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppisng/ppis-api/internal/models"
	"github.com/ppisng/ppis-api/internal/service"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
	"github.com/ppisng/ppis-api/pkg/response"
)

// AuthHandler wires HTTP endpoints to the auth and reconciliation services.
type AuthHandler struct {
	auth      *service.AuthService
	reconcile *service.ReconcileService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(auth *service.AuthService, reconcile *service.ReconcileService) *AuthHandler {
	return &AuthHandler{auth: auth, reconcile: reconcile}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by username (admission number or staff handle) and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Signup godoc
// @Summary Register a new account
// @Description Create an account that has no pre-seeded registry row
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SignupRequest true "Signup payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid signup payload"))
		return
	}

	res, err := h.auth.Signup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// Resolve godoc
// @Summary Resolve session identity
// @Description Reconcile an authenticated identity against the pre-seeded registry
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body object true "Session payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/resolve [post]
func (h *AuthHandler) Resolve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}

	profile, err := h.reconcile.Resolve(c.Request.Context(), claims.UserID, payload.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	if profile == nil {
		// No registry row; the account keeps its current role.
		response.NoContent(c)
		return
	}

	response.JSON(c, http.StatusOK, profile, nil)
}

// Me godoc
// @Summary Current profile
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	profile, err := h.auth.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, profile, nil)
}
