package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/helping-hands-dev/helping-hands/internal/auth"
	"github.com/helping-hands-dev/helping-hands/internal/models"
	"github.com/helping-hands-dev/helping-hands/internal/types"
)

type AuthenticatedUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// RequireAuth rejects requests without a valid bearer token and puts the
// resolved user into the context.
func RequireAuth(database *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := resolveBearerUser(ctx, database)

		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authorization token is required"})
			return
		}

		ctx.Set(types.ContextUserKey, user)
		ctx.Next()
	}
}

// OptionalAuth resolves the caller when a valid bearer token is present but
// lets anonymous requests straight through. Used on the public donation path
// so logged-in donors get their totals credited.
func OptionalAuth(database *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if user, ok := resolveBearerUser(ctx, database); ok {
			ctx.Set(types.ContextUserKey, user)
		}
		ctx.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value, exists := ctx.Get(types.ContextUserKey)

		if !exists {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authorization token is required"})
			return
		}

		user, ok := value.(AuthenticatedUser)

		if !ok || user.Role != models.RoleAdministrator {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Administrator access required"})
			return
		}

		ctx.Next()
	}
}

func resolveBearerUser(ctx *gin.Context, database *gorm.DB) (AuthenticatedUser, bool) {
	authHeader := ctx.GetHeader("Authorization")

	if authHeader == "" {
		return AuthenticatedUser{}, false
	}

	parts := strings.SplitN(authHeader, " ", 2)

	if len(parts) != 2 || parts[0] != "Bearer" {
		return AuthenticatedUser{}, false
	}

	token, err := auth.VerifyJWT(parts[1])

	if err != nil || !token.Valid {
		return AuthenticatedUser{}, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)

	if !ok {
		return AuthenticatedUser{}, false
	}

	userIDFloat, ok := claims["user_id"].(float64)

	if !ok {
		return AuthenticatedUser{}, false
	}

	var user models.User

	if err := database.Where("id = ?", uint(userIDFloat)).First(&user).Error; err != nil {
		return AuthenticatedUser{}, false
	}

	return AuthenticatedUser{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}, true
}
