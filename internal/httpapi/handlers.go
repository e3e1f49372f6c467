package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"declaration-platform/internal/audit"
	"declaration-platform/internal/auth"
	"declaration-platform/internal/declaration"
	"declaration-platform/internal/rbac"
	"declaration-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth         *auth.Manager
	Audit        *audit.Service
	Declarations *declaration.Service
}

// Ping answers liveness checks from the client.
func (h Handlers) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login issues an access token for the given username.
//
// NOTE: no password is checked; identity verification is expected upstream.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username required"})
		return
	}

	tok, err := h.Auth.IssueToken(c.Request.Context(), time.Now(), username)
	if err != nil {
		logger.FromGin(c).Error("token issuance failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	h.audit(c, func(a audit.Actor) error {
		return h.Audit.LogLogin(c.Request.Context(), a)
	}, audit.Actor{Username: username, Role: string(tok.Role), IP: c.ClientIP()})

	c.JSON(http.StatusOK, loginResponse{Token: tok.Value})
}

// Logout revokes the caller's token until it would have expired.
func (h Handlers) Logout(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c.Request.Context())
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if err := h.Auth.Revoke(c.Request.Context(), claims); err != nil {
		logger.FromGin(c).Error("token revocation failed", "err", err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "logout unavailable"})
		return
	}

	h.audit(c, func(a audit.Actor) error {
		return h.Audit.LogLogout(c.Request.Context(), a)
	}, audit.Actor{Username: claims.Username, Role: string(claims.Role), IP: c.ClientIP()})

	c.Status(http.StatusNoContent)
}

// Me echoes the verified identity of the caller.
func (h Handlers) Me(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c.Request.Context())
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username":   claims.Username,
		"role":       claims.Role,
		"can_commit": rbac.CanCommit(claims.Role),
	})
}

// --- Declarations ---

type submitDeclarationRequest struct {
	Text string `json:"text"`
}

func (h Handlers) SubmitDeclaration(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req submitDeclarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	d, err := h.Declarations.Submit(c.Request.Context(), actor, req.Text)
	if err != nil {
		h.declarationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": d.ID, "plan": d.Plan})
}

func (h Handlers) ListDeclarations(c *gin.Context) {
	out, err := h.Declarations.List(c.Request.Context())
	if err != nil {
		h.declarationError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CommitDeclaration reconciles a submitted plan.
// RBAC: Admin only (rbac.RequireCommitter on the route, re-checked by the service).
func (h Handlers) CommitDeclaration(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if id == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}

	if _, err := h.Declarations.Commit(c.Request.Context(), actor, id); err != nil {
		h.declarationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Handlers) declarationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, declaration.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "text required"})
	case errors.Is(err, declaration.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "declaration not found"})
	case errors.Is(err, declaration.ErrAlreadyCommitted):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "declaration already committed"})
	case errors.Is(err, declaration.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		logger.FromGin(c).Error("declaration request failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "declaration request failed"})
	}
}

// --- Audit ---

func (h Handlers) ListAudit(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	out, err := h.Audit.List(c.Request.Context(), limit)
	if err != nil {
		logger.FromGin(c).Error("audit list failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit unavailable"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// audit writes are best-effort; a failure is logged and the request proceeds.
func (h Handlers) audit(c *gin.Context, write func(audit.Actor) error, a audit.Actor) {
	if h.Audit == nil {
		return
	}
	if err := write(a); err != nil {
		logger.FromGin(c).Warn("audit write failed", "err", err)
	}
}

func actorFrom(c *gin.Context) (declaration.Actor, bool) {
	claims, ok := auth.ClaimsFrom(c.Request.Context())
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return declaration.Actor{}, false
	}
	return declaration.Actor{Username: claims.Username, Role: claims.Role, IP: c.ClientIP()}, true
}
