package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lunaria-mx/lunaria-api/internal/models"
)

// revenueStatuses are the order states that count toward revenue: everything
// from paid onward except cancelled and refunded.
var revenueStatuses = []string{
	models.OrderStatusPaid,
	models.OrderStatusConfirmed,
	models.OrderStatusProcessing,
	models.OrderStatusShipped,
	models.OrderStatusDelivered,
}

// pgStringArray renders ss as a Postgres array literal for a $n::text[]
// parameter. database/sql has no native slice binding.
func pgStringArray(ss []string) string {
	return "{" + strings.Join(ss, ",") + "}"
}

type dashboardTopProduct struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	UnitsSold   int64  `json:"unitsSold"`
	Revenue     int64  `json:"revenue"`
}

// AdminDashboard is the handler for GET /v1/admin/dashboard
// Figures are recomputed per request; nothing is cached or pre-aggregated.
func (h *Handlers) AdminDashboard(c *gin.Context) {
	// 1. --- Revenue and Order Counts ---
	var totalRevenue, paidOrders, pendingOrders, totalOrders int64
	err := h.DB.QueryRow(`
		SELECT
			COALESCE(SUM(total) FILTER (WHERE status = ANY($1::text[])), 0),
			COUNT(*) FILTER (WHERE status = ANY($1::text[])),
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*)
		FROM orders`,
		pgStringArray(revenueStatuses), models.OrderStatusPending,
	).Scan(&totalRevenue, &paidOrders, &pendingOrders, &totalOrders)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute order stats"})
		return
	}

	// 2. --- Revenue for the Last 30 Days ---
	var monthRevenue int64
	err = h.DB.QueryRow(`
		SELECT COALESCE(SUM(total), 0)
		FROM orders
		WHERE status = ANY($1::text[]) AND created_at >= $2`,
		pgStringArray(revenueStatuses), time.Now().AddDate(0, 0, -30),
	).Scan(&monthRevenue)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute revenue stats"})
		return
	}

	// 3. --- Customer and Product Counts ---
	var customerCount, productCount int64
	err = h.DB.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM customers),
			(SELECT COUNT(*) FROM products WHERE status = 'active')`,
	).Scan(&customerCount, &productCount)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute counts"})
		return
	}

	// 4. --- Recent Orders ---
	rows, err := h.DB.Query(`SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT 10`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recent orders"})
		return
	}
	defer rows.Close()

	recentOrders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan order"})
			return
		}
		recentOrders = append(recentOrders, o)
	}

	// 5. --- Top Products by Units Sold ---
	topRows, err := h.DB.Query(`
		SELECT oi.product_id, oi.product_name, SUM(oi.quantity), SUM(oi.total_price)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = ANY($1::text[])
		GROUP BY oi.product_id, oi.product_name
		ORDER BY SUM(oi.quantity) DESC
		LIMIT 10`,
		pgStringArray(revenueStatuses),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute top products"})
		return
	}
	defer topRows.Close()

	topProducts := []dashboardTopProduct{}
	for topRows.Next() {
		var tp dashboardTopProduct
		if err := topRows.Scan(&tp.ProductID, &tp.ProductName, &tp.UnitsSold, &tp.Revenue); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan top product"})
			return
		}
		topProducts = append(topProducts, tp)
	}

	c.JSON(http.StatusOK, gin.H{
		"totalRevenue":  totalRevenue,
		"monthRevenue":  monthRevenue,
		"totalOrders":   totalOrders,
		"paidOrders":    paidOrders,
		"pendingOrders": pendingOrders,
		"customerCount": customerCount,
		"productCount":  productCount,
		"recentOrders":  recentOrders,
		"topProducts":   topProducts,
	})
}
