package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/baro-studio/baro-api/config"
	"github.com/baro-studio/baro-api/utils"
)

// Maintenance returns 503 for API traffic while the maintenance flag is set.
// Health checks and the login route stay reachable so operators can verify
// the process and sign in once the flag is cleared.
func Maintenance() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !config.Get().MaintenanceMode {
			ctx.Next()
			return
		}
		path := ctx.Request.URL.Path
		if path == "/health" || path == "/api/auth/login" {
			ctx.Next()
			return
		}
		utils.Error(ctx, http.StatusServiceUnavailable, 50301, "service under maintenance")
		ctx.Abort()
	}
}
