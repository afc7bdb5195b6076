package models

import "time"

// Product is the model for the 'products' table.
// Prices are stored as integer centavos to avoid floating-point rounding.
type Product struct {
	ID          int64  `json:"id" db:"id"`
	SKU         string `json:"sku" db:"sku"`
	Name        string `json:"name" db:"name"`
	Slug        string `json:"slug" db:"slug"`
	Description string `json:"description" db:"description"`
	Price       int64  `json:"price" db:"price"`
	Status      string `json:"status" db:"status"` // active, draft, archived
	CategoryID  *int64 `json:"categoryId,omitempty" db:"category_id"`
	MainImage   string `json:"mainImage" db:"main_image"`
	Featured    bool   `json:"featured" db:"featured"`

	// Stored as JSON columns, unmarshalled manually after Scan.
	Gallery  []string        `json:"gallery" db:"-"`
	Variants ProductVariants `json:"variants" db:"-"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Flattened join field for listings (populated manually if needed)
	CategoryName string `json:"categoryName,omitempty" db:"-"`
}

// ProductVariants defines the variants JSON column: optional size and color lists.
type ProductVariants struct {
	Sizes  []string `json:"sizes,omitempty"`
	Colors []string `json:"colors,omitempty"`
}

// HasSize reports whether the product offers the given size.
// An empty size list means the product has no size dimension.
func (v ProductVariants) HasSize(size string) bool {
	if len(v.Sizes) == 0 {
		return size == ""
	}
	for _, s := range v.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// HasColor reports whether the product offers the given color.
func (v ProductVariants) HasColor(color string) bool {
	if len(v.Colors) == 0 {
		return color == ""
	}
	for _, c := range v.Colors {
		if c == color {
			return true
		}
	}
	return false
}
