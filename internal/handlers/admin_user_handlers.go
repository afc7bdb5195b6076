package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/lunaria-mx/lunaria-api/internal/auth"
	"github.com/lunaria-mx/lunaria-api/internal/models"
)

type AdminLoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AdminLogin is the handler for POST /v1/admin/login
func (h *Handlers) AdminLogin(c *gin.Context) {
	var input AdminLoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 1. --- Find the Admin User ---
	var user models.AdminUser
	query := `SELECT id, email, name, role, password_hash FROM admin_users WHERE LOWER(email) = $1`
	err := h.DB.QueryRow(query, strings.ToLower(input.Email)).Scan(
		&user.ID, &user.Email, &user.Name, &user.Role, &user.PasswordHash,
	)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	// 2. --- Check the Password ---
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	// 3. --- Generate a Token ---
	token, err := auth.GenerateToken(user.ID, auth.ScopeAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

//
// --- Admin User Management (role "admin" only) ---
//

type CreateAdminUserInput struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=admin manager"`
}

// AdminCreateUser is the handler for POST /v1/admin/users
func (h *Handlers) AdminCreateUser(c *gin.Context) {
	var input CreateAdminUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	var user models.AdminUser
	query := `
		INSERT INTO admin_users (email, name, role, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, name, role, created_at, updated_at`
	err = h.DB.QueryRow(query, strings.ToLower(input.Email), input.Name, input.Role, string(hash)).Scan(
		&user.ID, &user.Email, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "An admin user with that email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create admin user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// AdminListUsers is the handler for GET /v1/admin/users
func (h *Handlers) AdminListUsers(c *gin.Context) {
	rows, err := h.DB.Query(`SELECT id, email, name, role, created_at, updated_at FROM admin_users ORDER BY id ASC`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch admin users"})
		return
	}
	defer rows.Close()

	users := []models.AdminUser{}
	for rows.Next() {
		var u models.AdminUser
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan admin user"})
			return
		}
		users = append(users, u)
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

type UpdateAdminUserInput struct {
	Name     *string `json:"name"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin manager"`
	Password *string `json:"password" binding:"omitempty,min=8"`
}

// AdminUpdateUser is the handler for PATCH /v1/admin/users/:id
func (h *Handlers) AdminUpdateUser(c *gin.Context) {
	var input UpdateAdminUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var newHash *string
	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		s := string(hash)
		newHash = &s
	}

	query := `
		UPDATE admin_users SET
			name          = COALESCE($1, name),
			role          = COALESCE($2, role),
			password_hash = COALESCE($3, password_hash),
			updated_at    = NOW()
		WHERE id = $4`

	result, err := h.DB.Exec(query, input.Name, input.Role, newHash, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update admin user"})
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Admin user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Admin user updated"})
}

// AdminDeleteUser is the handler for DELETE /v1/admin/users/:id
// An admin cannot delete their own account.
func (h *Handlers) AdminDeleteUser(c *gin.Context) {
	adminID := c.MustGet("adminID").(int64)
	if c.Param("id") == strconv.FormatInt(adminID, 10) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}

	result, err := h.DB.Exec(`DELETE FROM admin_users WHERE id = $1`, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete admin user"})
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Admin user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Admin user deleted"})
}
