package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/winterveil/parkslot-backend/internal/auth"
)

type AuthHandler struct {
	authService *auth.Service
	jwtManager  *auth.JWTManager
}

func NewAuthHandler(authService *auth.Service, jwtManager *auth.JWTManager) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtManager:  jwtManager,
	}
}

//
// POST /v1/auth/login
//

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx := c.Request.Context()

	cred, ok, err := h.authService.VerifyCredentials(ctx, req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "credential lookup failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	token, err := h.jwtManager.GenerateAccessToken(cred.Username, cred.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		Username:    cred.Username,
		Role:        cred.Role,
	})
}
