package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tritium/internal/pkg/apperr"
	"tritium/internal/pkg/response"
)

// Handler manages the HTTP side of authentication.
type Handler struct {
	service *Service
	log     zerolog.Logger
}

func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Login godoc
// @Summary		Log in
// @Description	Exchanges email and password for a bearer token.
// @Tags		Auth
// @Accept		json
// @Produce		json
// @Success		200	{object}	map[string]interface{}
// @Failure		400,401,423	{object}	map[string]interface{}
// @Router		/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if verr, ok := apperr.AsValidation(err); ok {
			response.FieldErrors(c, http.StatusBadRequest, verr.Fields)
			return
		}
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		case errors.Is(err, ErrAccountLocked):
			response.Error(c, http.StatusLocked, "ACCOUNT_LOCKED", "Too many failed attempts, try again later")
		default:
			h.log.Error().Err(err).Msg("login failed")
			response.Error(c, http.StatusInternalServerError, "LOGIN_FAILED", "Failed to log in")
		}
		return
	}

	response.Success(c, http.StatusOK, res)
}
