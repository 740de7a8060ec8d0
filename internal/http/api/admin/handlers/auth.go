package handlers

import (
	"net/http"

	"github.com/estatehub/backoffice/internal/audit"
	"github.com/estatehub/backoffice/internal/auth"
	internalhttp "github.com/estatehub/backoffice/internal/http"
	"github.com/gin-gonic/gin"
)

// defaultEventLimit bounds the audit events returned by Events.
const defaultEventLimit = 50

// AuthHandler serves the /api/auth endpoints.
type AuthHandler struct {
	service *auth.Service
	events  *audit.Recorder
}

// NewAuthHandler constructs an AuthHandler. events may be nil.
func NewAuthHandler(service *auth.Service, events *audit.Recorder) *AuthHandler {
	return &AuthHandler{service: service, events: events}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// sessionResponse flattens a session next to an informational message.
type sessionResponse struct {
	Message string `json:"message"`
	auth.TokenPair
	Admin auth.AdminView `json:"admin"`
}

// Register creates an administrator account. The registration gate is
// checked before the body is read.
func (h *AuthHandler) Register(c *gin.Context) {
	if !h.service.RegistrationEnabled() {
		internalhttp.AbortWithError(c, auth.ErrRegistrationDisabled)
		return
	}
	var body registerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		internalhttp.AbortWithError(c, auth.ErrInvalidBody)
		return
	}
	session, errRegister := h.service.Register(c.Request.Context(), body.Username, body.Email, body.Password, requestMeta(c))
	if errRegister != nil {
		internalhttp.AbortWithError(c, errRegister)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{
		Message:   "Admin registered successfully",
		TokenPair: session.TokenPair,
		Admin:     session.Admin,
	})
}

// Login verifies credentials and opens a session.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		internalhttp.AbortWithError(c, auth.ErrInvalidBody)
		return
	}
	session, errLogin := h.service.Login(c.Request.Context(), body.Email, body.Password, requestMeta(c))
	if errLogin != nil {
		internalhttp.AbortWithError(c, errLogin)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{
		Message:   "Login successful",
		TokenPair: session.TokenPair,
		Admin:     session.Admin,
	})
}

// Refresh rotates a refresh token into a new token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var body refreshRequest
	// An empty or malformed body is reported as a missing token.
	_ = c.ShouldBindJSON(&body)
	pair, errRefresh := h.service.Refresh(c.Request.Context(), body.RefreshToken, requestMeta(c))
	if errRefresh != nil {
		internalhttp.AbortWithError(c, errRefresh)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Logout revokes the supplied refresh token, if any.
func (h *AuthHandler) Logout(c *gin.Context) {
	var body refreshRequest
	_ = c.ShouldBindJSON(&body)
	if errLogout := h.service.Logout(c.Request.Context(), body.RefreshToken, requestMeta(c)); errLogout != nil {
		internalhttp.AbortWithError(c, errLogout)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated administrator.
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := internalhttp.IdentityFromContext(c)
	if !ok {
		internalhttp.AbortWithError(c, auth.ErrUnauthorized)
		return
	}
	view, errMe := h.service.Me(c.Request.Context(), identity)
	if errMe != nil {
		internalhttp.AbortWithError(c, errMe)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RevokeAllSessions signs the caller out everywhere.
func (h *AuthHandler) RevokeAllSessions(c *gin.Context) {
	identity, ok := internalhttp.IdentityFromContext(c)
	if !ok {
		internalhttp.AbortWithError(c, auth.ErrUnauthorized)
		return
	}
	if errRevoke := h.service.RevokeAllSessions(c.Request.Context(), identity, requestMeta(c)); errRevoke != nil {
		internalhttp.AbortWithError(c, errRevoke)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All sessions revoked"})
}

// Unlock clears the lockout of the admin named by :adminId.
func (h *AuthHandler) Unlock(c *gin.Context) {
	identity, ok := internalhttp.IdentityFromContext(c)
	if !ok {
		internalhttp.AbortWithError(c, auth.ErrUnauthorized)
		return
	}
	targetID, okID := parseIDParam(c, "adminId")
	if !okID {
		internalhttp.AbortWithError(c, auth.ErrNotFound)
		return
	}
	view, errUnlock := h.service.UnlockAccount(c.Request.Context(), identity, targetID, requestMeta(c))
	if errUnlock != nil {
		internalhttp.AbortWithError(c, errUnlock)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account unlocked", "admin": view})
}

// Events lists the caller's most recent security events.
func (h *AuthHandler) Events(c *gin.Context) {
	identity, ok := internalhttp.IdentityFromContext(c)
	if !ok {
		internalhttp.AbortWithError(c, auth.ErrUnauthorized)
		return
	}
	events, errList := h.events.ListForAdmin(c.Request.Context(), identity.AdminID, defaultEventLimit)
	if errList != nil {
		internalhttp.AbortWithError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
