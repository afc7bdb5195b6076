package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"

	"github.com/lunaria-mx/lunaria-api/internal/models"
)

//
// --- Public Category Handlers ---
//

// ListCategories is the handler for GET /v1/categories
// Only active categories are shown on the storefront, with a live count of
// their active products.
func (h *Handlers) ListCategories(c *gin.Context) {
	query := `
		SELECT c.id, c.name, c.slug, c.description, c.image, c.status,
		       c.created_at, c.updated_at,
		       COUNT(p.id) FILTER (WHERE p.status = 'active')
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		WHERE c.status = 'active'
		GROUP BY c.id
		ORDER BY c.name ASC`

	rows, err := h.DB.Query(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(
			&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.Image,
			&cat.Status, &cat.CreatedAt, &cat.UpdatedAt, &cat.ProductCount,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan category row"})
			return
		}
		categories = append(categories, &cat)
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

//
// --- Admin Category Handlers ---
//

type CreateCategoryInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Status      string `json:"status" binding:"required,oneof=active draft archived"`
}

// AdminCreateCategory is the handler for POST /v1/admin/categories
func (h *Handlers) AdminCreateCategory(c *gin.Context) {
	var input CreateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := `
		INSERT INTO categories (name, slug, description, image, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id`

	var categoryID int64
	err := h.DB.QueryRow(query,
		input.Name, slug.Make(input.Name), input.Description, input.Image, input.Status,
	).Scan(&categoryID)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to create category (duplicate name?)"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Category created", "categoryId": categoryID})
}

type UpdateCategoryInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	Status      *string `json:"status" binding:"omitempty,oneof=active draft archived"`
}

// AdminUpdateCategory is the handler for PATCH /v1/admin/categories/:id
func (h *Handlers) AdminUpdateCategory(c *gin.Context) {
	var input UpdateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := `
		UPDATE categories SET
			name        = COALESCE($1, name),
			description = COALESCE($2, description),
			image       = COALESCE($3, image),
			status      = COALESCE($4, status),
			updated_at  = NOW()
		WHERE id = $5`

	result, err := h.DB.Exec(query, input.Name, input.Description, input.Image, input.Status, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category updated"})
}

// AdminListCategories is the handler for GET /v1/admin/categories
func (h *Handlers) AdminListCategories(c *gin.Context) {
	query := `
		SELECT id, name, slug, description, image, status, created_at, updated_at
		FROM categories
		ORDER BY name ASC`

	rows, err := h.DB.Query(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(
			&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.Image,
			&cat.Status, &cat.CreatedAt, &cat.UpdatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan category row"})
			return
		}
		categories = append(categories, &cat)
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// AdminDeleteCategory is the handler for DELETE /v1/admin/categories/:id
// Products in the category survive with category_id reset to NULL.
func (h *Handlers) AdminDeleteCategory(c *gin.Context) {
	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction failed"})
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec("UPDATE products SET category_id = NULL WHERE category_id = $1", c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to detach products"})
		return
	}

	result, err := tx.Exec("DELETE FROM categories WHERE id = $1", c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Commit failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}
