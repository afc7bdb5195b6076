package middleware

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lunaria-mx/lunaria-api/internal/auth"
)

// bearerToken extracts the token from an "Authorization: Bearer xxx" header.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// CustomerAuth validates a customer-scoped JWT and stores the customer ID
// in the context as "customerID".
func CustomerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		id, scope, err := auth.ValidateToken(token)
		if err != nil || scope != auth.ScopeCustomer {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("customerID", id)
		c.Next()
	}
}

// AdminAuth validates an admin-scoped JWT, confirms the admin user still
// exists, and stores "adminID" and "adminRole" in the context.
func AdminAuth(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		id, scope, err := auth.ValidateToken(token)
		if err != nil || scope != auth.ScopeAdmin {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		var role string
		err = db.QueryRow("SELECT role FROM admin_users WHERE id = $1", id).Scan(&role)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Admin account no longer exists"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking admin"})
			}
			c.Abort()
			return
		}

		c.Set("adminID", id)
		c.Set("adminRole", role)
		c.Next()
	}
}

// RequireAdminRole restricts a route to role "admin". Managers can reach every
// other admin page; only the admin-users CRUD sits behind this gate.
func RequireAdminRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("adminRole")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "AdminAuth must run first"})
			c.Abort()
			return
		}
		if role.(string) != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied: admin role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
