package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/corkboard/backend/internal/model"
	"github.com/corkboard/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// Lifetime of the transient cookies carrying OIDC state/nonce/verifier
// between the redirect and the callback.
const oidcFlowCookieMaxAge = 600

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register godoc
// @Summary Register a new user
// @Description Sign up when ALLOW_SIGNUP is true.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.AuthRequest true "Login ID and password"
// @Success 200 {object} model.AuthResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	issued, err := h.svc.Register(c.Request.Context(), req.ID, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	h.setSessionCookie(c, issued)
	c.JSON(http.StatusOK, model.AuthResponse{
		AccessToken: issued.AccessToken,
		ExpiresIn:   issued.ExpiresIn,
	})
}

// Login godoc
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.AuthRequest true "Login ID and password"
// @Success 200 {object} model.AuthResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	issued, err := h.svc.Login(c.Request.Context(), req.ID, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	h.setSessionCookie(c, issued)
	c.JSON(http.StatusOK, model.AuthResponse{
		AccessToken: issued.AccessToken,
		ExpiresIn:   issued.ExpiresIn,
	})
}

// Refresh godoc
// @Summary Refresh access token
// @Description Renews the access token from the session cookie and rotates the stored refresh token.
// @Tags auth
// @Produce json
// @Success 200 {object} model.AuthResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	sessionID, _ := c.Cookie(h.svc.CookieConfig().Name)
	issued, err := h.svc.Refresh(c.Request.Context(), sessionID)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	h.setSessionCookie(c, issued)
	c.JSON(http.StatusOK, model.AuthResponse{
		AccessToken: issued.AccessToken,
		ExpiresIn:   issued.ExpiresIn,
	})
}

// Logout godoc
// @Summary Logout
// @Description Deletes the refresh session (if present) and clears the cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} model.AuthLogoutResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, _ := c.Cookie(h.svc.CookieConfig().Name)
	_ = h.svc.Logout(c.Request.Context(), sessionID)
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, model.AuthLogoutResponse{Status: "logged_out"})
}

// Config godoc
// @Summary Get auth config
// @Tags auth
// @Produce json
// @Success 200 {object} model.AuthConfigResponse
// @Router /api/v1/auth/config [get]
func (h *AuthHandler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, model.AuthConfigResponse{
		AllowSignup: h.svc.AllowSignup(),
		OIDCEnabled: h.svc.OIDCEnabled(),
	})
}

// Me godoc
// @Summary Get current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.AuthMeResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, model.AuthMeResponse{
		UserID:  user.ID,
		LoginID: user.LoginID,
	})
}

// OIDCLogin godoc
// @Summary Start external-IdP login
// @Description Redirects to the configured OIDC provider with state, nonce, and a PKCE challenge.
// @Tags auth
// @Success 302
// @Failure 404 {object} model.ErrorResponse
// @Router /api/v1/auth/oidc/login [get]
func (h *AuthHandler) OIDCLogin(c *gin.Context) {
	oidcSvc := h.svc.OIDC()
	if oidcSvc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "oidc not configured"})
		return
	}

	state, err := service.NewOpaqueToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	nonce, err := service.NewOpaqueToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	verifier := oidcSvc.NewPKCEVerifier()

	h.setFlowCookie(c, "oidc_state", state)
	h.setFlowCookie(c, "oidc_nonce", nonce)
	h.setFlowCookie(c, "oidc_verifier", verifier)

	c.Redirect(http.StatusFound, oidcSvc.AuthCodeURL(state, nonce, verifier))
}

// OIDCCallback godoc
// @Summary Complete external-IdP login
// @Description Verifies state, exchanges the code, and issues a session of type oidc.
// @Tags auth
// @Produce json
// @Success 200 {object} model.AuthResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/v1/auth/oidc/callback [get]
func (h *AuthHandler) OIDCCallback(c *gin.Context) {
	if h.svc.OIDC() == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "oidc not configured"})
		return
	}

	stateCookie, _ := c.Cookie("oidc_state")
	nonce, _ := c.Cookie("oidc_nonce")
	verifier, _ := c.Cookie("oidc_verifier")
	h.clearFlowCookie(c, "oidc_state")
	h.clearFlowCookie(c, "oidc_nonce")
	h.clearFlowCookie(c, "oidc_verifier")

	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" || stateCookie == "" ||
		subtle.ConstantTimeCompare([]byte(state), []byte(stateCookie)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	issued, err := h.svc.LoginWithOIDC(c.Request.Context(), code, verifier, nonce)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	h.setSessionCookie(c, issued)
	c.JSON(http.StatusOK, model.AuthResponse{
		AccessToken: issued.AccessToken,
		ExpiresIn:   issued.ExpiresIn,
	})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, issued *service.Issued) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(cfg.Name, issued.SessionID, cfg.MaxAge, cfg.Path, cfg.Domain, cfg.Secure, true)
}

// clearSessionCookie must match name/path/domain/SameSite of the set path,
// or browsers keep the stale cookie.
func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(cfg.Name, "", -1, cfg.Path, cfg.Domain, cfg.Secure, true)
}

func (h *AuthHandler) setFlowCookie(c *gin.Context, name, value string) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, oidcFlowCookieMaxAge, cfg.Path, cfg.Domain, cfg.Secure, true)
}

func (h *AuthHandler) clearFlowCookie(c *gin.Context, name string) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, cfg.Path, cfg.Domain, cfg.Secure, true)
}

func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "signup disabled"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
