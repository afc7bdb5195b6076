package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"

	"github.com/lunaria-mx/lunaria-api/internal/models"
)

const productColumns = `
	p.id, p.sku, p.name, p.slug, p.description, p.price, p.status,
	p.category_id, p.main_image, p.featured, p.gallery, p.variants,
	p.created_at, p.updated_at`

// scanProduct scans one row of productColumns (+ category name) and unpacks
// the JSON columns.
func scanProduct(rows interface{ Scan(...interface{}) error }) (*models.Product, error) {
	var p models.Product
	var gallery, variants []byte
	var categoryName sql.NullString

	err := rows.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Status,
		&p.CategoryID, &p.MainImage, &p.Featured, &gallery, &variants,
		&p.CreatedAt, &p.UpdatedAt, &categoryName,
	)
	if err != nil {
		return nil, err
	}

	if len(gallery) > 0 {
		json.Unmarshal(gallery, &p.Gallery)
	}
	if p.Gallery == nil {
		p.Gallery = []string{}
	}
	if len(variants) > 0 {
		json.Unmarshal(variants, &p.Variants)
	}
	p.CategoryName = categoryName.String
	return &p, nil
}

//
// --- Public Catalog Handlers ---
//

// ListProducts is the handler for GET /v1/products
// Filters: ?category=<slug>, ?featured=true, ?q=<search>, ?page, ?limit
func (h *Handlers) ListProducts(c *gin.Context) {
	query := `
		SELECT ` + productColumns + `, c.name
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.status = 'active'`

	var args []interface{}
	n := 0
	arg := func(v interface{}) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if categorySlug := c.Query("category"); categorySlug != "" {
		query += " AND c.slug = " + arg(categorySlug)
	}
	if c.Query("featured") == "true" {
		query += " AND p.featured = TRUE"
	}
	if q := c.Query("q"); q != "" {
		query += " AND p.name ILIKE " + arg("%"+q+"%")
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "24"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 24
	}

	query += " ORDER BY p.created_at DESC"
	query += " LIMIT " + arg(limit) + " OFFSET " + arg((page-1)*limit)

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan product row"})
			return
		}
		products = append(products, p)
	}

	c.JSON(http.StatusOK, gin.H{"products": products, "page": page})
}

// GetProductBySlug is the handler for GET /v1/products/:slug
func (h *Handlers) GetProductBySlug(c *gin.Context) {
	query := `
		SELECT ` + productColumns + `, c.name
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.slug = $1 AND p.status = 'active'`

	row := h.DB.QueryRow(query, c.Param("slug"))
	p, err := scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": p})
}

//
// --- Admin Product Handlers ---
//

type CreateProductInput struct {
	SKU         string                  `json:"sku" binding:"required"`
	Name        string                  `json:"name" binding:"required"`
	Description string                  `json:"description"`
	Price       int64                   `json:"price" binding:"required,gt=0"` // centavos
	Status      string                  `json:"status" binding:"required,oneof=active draft archived"`
	CategoryID  *int64                  `json:"categoryId"`
	MainImage   string                  `json:"mainImage"`
	Gallery     []string                `json:"gallery"`
	Featured    bool                    `json:"featured"`
	Variants    *models.ProductVariants `json:"variants"`
}

// AdminCreateProduct is the handler for POST /v1/admin/products
func (h *Handlers) AdminCreateProduct(c *gin.Context) {
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	variants := models.ProductVariants{}
	if input.Variants != nil {
		variants = *input.Variants
	}
	galleryJSON, _ := json.Marshal(input.Gallery)
	variantsJSON, _ := json.Marshal(variants)

	query := `
		INSERT INTO products
		(sku, name, slug, description, price, status, category_id, main_image,
		 gallery, featured, variants, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $11::jsonb, NOW(), NOW())
		RETURNING id`

	var productID int64
	err := h.DB.QueryRow(query,
		input.SKU, input.Name, slug.Make(input.Name), input.Description,
		input.Price, input.Status, input.CategoryID, input.MainImage,
		string(galleryJSON), input.Featured, string(variantsJSON),
	).Scan(&productID)
	if err != nil {
		// Most likely a UNIQUE violation on sku or slug
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to create product (duplicate SKU or name?)"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Product created", "productId": productID})
}

type UpdateProductInput struct {
	SKU         *string                 `json:"sku"`
	Name        *string                 `json:"name"`
	Description *string                 `json:"description"`
	Price       *int64                  `json:"price" binding:"omitempty,gt=0"`
	Status      *string                 `json:"status" binding:"omitempty,oneof=active draft archived"`
	CategoryID  *int64                  `json:"categoryId"`
	MainImage   *string                 `json:"mainImage"`
	Gallery     *[]string               `json:"gallery"`
	Featured    *bool                   `json:"featured"`
	Variants    *models.ProductVariants `json:"variants"`
}

// AdminUpdateProduct is the handler for PATCH /v1/admin/products/:id
// Partial update: absent fields keep their current value (COALESCE).
func (h *Handlers) AdminUpdateProduct(c *gin.Context) {
	productID := c.Param("id")

	var input UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// nil pointers pass through as SQL NULL and COALESCE keeps the old value
	var galleryJSON, variantsJSON interface{}
	if input.Gallery != nil {
		b, _ := json.Marshal(*input.Gallery)
		galleryJSON = string(b)
	}
	if input.Variants != nil {
		b, _ := json.Marshal(*input.Variants)
		variantsJSON = string(b)
	}

	query := `
		UPDATE products SET
			sku         = COALESCE($1, sku),
			name        = COALESCE($2, name),
			description = COALESCE($3, description),
			price       = COALESCE($4, price),
			status      = COALESCE($5, status),
			category_id = COALESCE($6, category_id),
			main_image  = COALESCE($7, main_image),
			gallery     = COALESCE($8::jsonb, gallery),
			featured    = COALESCE($9, featured),
			variants    = COALESCE($10::jsonb, variants),
			updated_at  = NOW()
		WHERE id = $11`

	result, err := h.DB.Exec(query,
		input.SKU, input.Name, input.Description, input.Price, input.Status,
		input.CategoryID, input.MainImage, galleryJSON, input.Featured,
		variantsJSON, productID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated"})
}

// AdminListProducts is the handler for GET /v1/admin/products
// Unlike the public listing, drafts and archived products are included.
func (h *Handlers) AdminListProducts(c *gin.Context) {
	query := `
		SELECT ` + productColumns + `, c.name
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id`

	var args []interface{}
	if status := c.Query("status"); status != "" {
		query += " WHERE p.status = $1"
		args = append(args, status)
	}
	query += " ORDER BY p.created_at DESC"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan product row"})
			return
		}
		products = append(products, p)
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// AdminDeleteProduct is the handler for DELETE /v1/admin/products/:id
// Hard delete; order_items keep their denormalized snapshot either way.
func (h *Handlers) AdminDeleteProduct(c *gin.Context) {
	result, err := h.DB.Exec("DELETE FROM products WHERE id = $1", c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
