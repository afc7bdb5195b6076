package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lunaria-mx/lunaria-api/internal/models"
)

const orderColumns = `
	id, order_number, customer_id, customer_email, customer_name, status,
	subtotal, shipping, tax, total, shipping_address, notes, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	var o models.Order
	var address []byte
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.CustomerEmail, &o.CustomerName,
		&o.Status, &o.Subtotal, &o.Shipping, &o.Tax, &o.Total,
		&address, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(address) > 0 {
		json.Unmarshal(address, &o.ShippingAddress)
	}
	return &o, nil
}

func (h *Handlers) orderItems(orderID int64) ([]models.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, product_sku, product_image,
		       quantity, unit_price, total_price, variant_size, variant_color
		FROM order_items
		WHERE order_id = $1
		ORDER BY id ASC`

	rows, err := h.DB.Query(query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.ProductSKU,
			&it.ProductImage, &it.Quantity, &it.UnitPrice, &it.TotalPrice,
			&it.VariantSize, &it.VariantColor,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

//
// --- Customer Order Handlers ---
//

// GetMyOrders is the handler for GET /v1/auth/orders
func (h *Handlers) GetMyOrders(c *gin.Context) {
	customerID := c.MustGet("customerID").(int64)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`
	rows, err := h.DB.Query(query, customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan order"})
			return
		}
		orders = append(orders, o)
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetMyOrderDetails is the handler for GET /v1/auth/orders/:id
// Ownership is enforced in the WHERE clause.
func (h *Handlers) GetMyOrderDetails(c *gin.Context) {
	customerID := c.MustGet("customerID").(int64)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND customer_id = $2`
	o, err := scanOrder(h.DB.QueryRow(query, c.Param("id"), customerID))
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	if o.Items, err = h.orderItems(o.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": o})
}

// LookupOrder is the handler for GET /v1/orders/:number?email=...
// The post-checkout status page uses it; guests have no token, so the pair
// (order number, email) works as the lookup credential.
func (h *Handlers) LookupOrder(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.Query("email")))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter is required"})
		return
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1 AND LOWER(customer_email) = $2`
	o, err := scanOrder(h.DB.QueryRow(query, c.Param("number"), email))
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	if o.Items, err = h.orderItems(o.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": o})
}

//
// --- Admin Order Handlers ---
//

// AdminListOrders is the handler for GET /v1/admin/orders
// Filters: ?status=, ?page, ?limit
func (h *Handlers) AdminListOrders(c *gin.Context) {
	query := `SELECT ` + orderColumns + ` FROM orders`

	var args []interface{}
	if status := c.Query("status"); status != "" {
		if !models.ValidOrderStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown order status"})
			return
		}
		args = append(args, status)
		query += " WHERE status = $1"
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, (page-1)*limit)
	query += " ORDER BY created_at DESC"
	query += " LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan order"})
			return
		}
		orders = append(orders, o)
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "page": page})
}

// AdminGetOrder is the handler for GET /v1/admin/orders/:id
func (h *Handlers) AdminGetOrder(c *gin.Context) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(h.DB.QueryRow(query, c.Param("id")))
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	if o.Items, err = h.orderItems(o.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": o})
}

type UpdateOrderInput struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

// AdminUpdateOrder is the handler for PATCH /v1/admin/orders/:id
func (h *Handlers) AdminUpdateOrder(c *gin.Context) {
	var input UpdateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Status != nil && !models.ValidOrderStatus(*input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown order status"})
		return
	}

	query := `
		UPDATE orders SET
			status     = COALESCE($1, status),
			notes      = COALESCE($2, notes),
			updated_at = NOW()
		WHERE id = $3`

	result, err := h.DB.Exec(query, input.Status, input.Notes, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order updated"})
}

//
// --- Background Worker ---
//

// staleOrderCutoff is how long a pending order may wait for its payment
// before the worker cancels it. OXXO vouchers are valid for 3 days.
const staleOrderCutoff = 72 * time.Hour

// ProcessStaleOrders cancels pending orders whose payment never settled.
// Called periodically from a ticker goroutine in main.
func (h *Handlers) ProcessStaleOrders() {
	result, err := h.DB.Exec(`
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND created_at < $3`,
		models.OrderStatusCancelled, models.OrderStatusPending, time.Now().Add(-staleOrderCutoff),
	)
	if err != nil {
		log.Printf("stale-order sweep failed: %v", err)
		return
	}
	if n, _ := result.RowsAffected(); n > 0 {
		log.Printf("stale-order sweep cancelled %d unpaid order(s)", n)
	}
}
