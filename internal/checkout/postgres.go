package checkout

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lunaria-mx/lunaria-api/internal/models"
)

// PostgresCatalog implements Catalog against the products table.
type PostgresCatalog struct {
	DB *sql.DB
}

// ProductsByIDs fetches products by primary key. Missing IDs are simply
// absent from the result map; the caller decides what that means.
func (c *PostgresCatalog) ProductsByIDs(ctx context.Context, ids []int64) (map[int64]models.Product, error) {
	products := make(map[int64]models.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, sku, name, slug, description, price, status, category_id,
		       main_image, featured, gallery, variants, created_at, updated_at
		FROM products
		WHERE id IN (%s)`, strings.Join(placeholders, ", "))

	rows, err := c.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		var gallery, variants []byte
		if err := rows.Scan(
			&p.ID, &p.SKU, &p.Name, &p.Slug, &p.Description, &p.Price,
			&p.Status, &p.CategoryID, &p.MainImage, &p.Featured,
			&gallery, &variants, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if len(gallery) > 0 {
			json.Unmarshal(gallery, &p.Gallery)
		}
		if len(variants) > 0 {
			json.Unmarshal(variants, &p.Variants)
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

// PostgresOrders implements Orders with a single transaction per order:
// the order row plus all item rows commit together or roll back together.
type PostgresOrders struct {
	DB *sql.DB
}

func (o *PostgresOrders) Create(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := o.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}

	orderQuery := `
		INSERT INTO orders
		(order_number, customer_id, customer_email, customer_name, status,
		 subtotal, shipping, tax, total, shipping_address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11, $12, $13)
		RETURNING id`

	err = tx.QueryRowContext(ctx, orderQuery,
		order.OrderNumber, order.CustomerID, order.CustomerEmail, order.CustomerName,
		order.Status, order.Subtotal, order.Shipping, order.Tax, order.Total,
		string(addressJSON), order.Notes, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return err
	}

	itemQuery := `
		INSERT INTO order_items
		(order_id, product_id, product_name, product_sku, product_image,
		 quantity, unit_price, total_price, variant_size, variant_color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.QueryRowContext(ctx, itemQuery,
			order.ID, items[i].ProductID, items[i].ProductName, items[i].ProductSKU,
			items[i].ProductImage, items[i].Quantity, items[i].UnitPrice,
			items[i].TotalPrice, items[i].VariantSize, items[i].VariantColor,
		).Scan(&items[i].ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
