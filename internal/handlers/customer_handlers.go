package handlers

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lunaria-mx/lunaria-api/internal/auth"
	"github.com/lunaria-mx/lunaria-api/internal/models"
)

//
// --- Customer Auth Handlers ---
//

type SignupInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
}

// Signup is the handler for POST /v1/signup
// If the email already exists WITHOUT a password (guest checkout account),
// the signup claims it by setting the password instead of failing.
func (h *Handlers) Signup(c *gin.Context) {
	var input SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	// 1. Check for an existing account
	var existingID int64
	var existingHash *string
	err := h.DB.QueryRow("SELECT id, password_hash FROM customers WHERE email = $1", email).
		Scan(&existingID, &existingHash)

	switch {
	case err == sql.ErrNoRows:
		// 2a. Fresh account
		var customerID int64
		insert := `
			INSERT INTO customers (email, name, phone, password_hash, created_at, updated_at)
			VALUES ($1, $2, NULLIF($3, ''), $4, NOW(), NOW())
			RETURNING id`
		if err := h.DB.QueryRow(insert, email, input.Name, input.Phone, password.Hash).Scan(&customerID); err != nil {
			// A concurrent signup can win the race between the check above
			// and this insert; the unique constraint catches it.
			if isDuplicateKey(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
			return
		}
		h.respondWithCustomerToken(c, http.StatusCreated, customerID)

	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})

	case existingHash != nil:
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})

	default:
		// 2b. Guest-checkout account without credentials: claim it
		update := `
			UPDATE customers
			SET name = $1, phone = COALESCE(NULLIF($2, ''), phone), password_hash = $3, updated_at = NOW()
			WHERE id = $4`
		if _, err := h.DB.Exec(update, input.Name, input.Phone, password.Hash, existingID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
			return
		}
		h.respondWithCustomerToken(c, http.StatusCreated, existingID)
	}
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /v1/login
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var customerID int64
	var hash *string
	err := h.DB.QueryRow("SELECT id, password_hash FROM customers WHERE email = $1", email).
		Scan(&customerID, &hash)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if hash == nil {
		// Provisioned during guest checkout; there is no hash to compare.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "This account has no password yet. Use signup to set one."})
		return
	}

	password := models.Password{Hash: *hash}
	match, err := password.Matches(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify password"})
		return
	}
	if !match {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	h.respondWithCustomerToken(c, http.StatusOK, customerID)
}

func (h *Handlers) respondWithCustomerToken(c *gin.Context, status int, customerID int64) {
	token, err := auth.GenerateToken(customerID, auth.ScopeCustomer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(status, gin.H{"token": token, "customerId": customerID})
}

//
// --- Customer Profile Handlers ---
//

// GetProfile is the handler for GET /v1/auth/profile
func (h *Handlers) GetProfile(c *gin.Context) {
	customerID := c.MustGet("customerID").(int64)

	var cust models.Customer
	query := `
		SELECT id, email, name, phone, street, ext_number, colonia, city, state,
		       postal_code, created_at, updated_at
		FROM customers WHERE id = $1`
	err := h.DB.QueryRow(query, customerID).Scan(
		&cust.ID, &cust.Email, &cust.Name, &cust.Phone, &cust.Street,
		&cust.ExtNumber, &cust.Colonia, &cust.City, &cust.State,
		&cust.PostalCode, &cust.CreatedAt, &cust.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"customer": cust})
}

type UpdateProfileInput struct {
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	Street     *string `json:"street"`
	ExtNumber  *string `json:"extNumber"`
	Colonia    *string `json:"colonia"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postalCode"`
}

// UpdateProfile is the handler for PATCH /v1/auth/profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	customerID := c.MustGet("customerID").(int64)

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := `
		UPDATE customers SET
			name        = COALESCE($1, name),
			phone       = COALESCE($2, phone),
			street      = COALESCE($3, street),
			ext_number  = COALESCE($4, ext_number),
			colonia     = COALESCE($5, colonia),
			city        = COALESCE($6, city),
			state       = COALESCE($7, state),
			postal_code = COALESCE($8, postal_code),
			updated_at  = NOW()
		WHERE id = $9`

	_, err := h.DB.Exec(query,
		input.Name, input.Phone, input.Street, input.ExtNumber, input.Colonia,
		input.City, input.State, input.PostalCode, customerID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}
