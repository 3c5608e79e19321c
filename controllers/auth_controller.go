package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/baro-studio/baro-api/config"
	"github.com/baro-studio/baro-api/models"
	"github.com/baro-studio/baro-api/utils"
)

// AuthController handles manager credential sessions. There is no public
// registration; the manager row comes from boot-time seeding.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Login verifies manager credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		ID       string `json:"id" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var manager models.Manager
	if err := a.db.Where("id = ?", req.ID).First(&manager).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid id or password")
		return
	}

	if !utils.CheckPassword(manager.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid id or password")
		return
	}

	cfg := config.Get()
	duration := time.Duration(cfg.SessionHours) * time.Hour
	token, err := utils.GenerateToken(manager.ID, duration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token":      token,
		"manager":    gin.H{"id": manager.ID},
		"expires_in": int(duration.Seconds()),
	})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(time.Duration(config.Get().SessionHours) * time.Hour)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated manager.
func (a *AuthController) Me(ctx *gin.Context) {
	managerID, ok := getManagerID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var manager models.Manager
	if err := a.db.Where("id = ?", managerID).First(&manager).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40408, "manager not found")
		return
	}

	utils.Success(ctx, gin.H{"id": manager.ID, "created_at": manager.CreatedAt})
}
