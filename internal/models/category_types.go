package models

import "time"

// Category defines the struct for the 'categories' table
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	Image       string    `json:"image" db:"image"`
	Status      string    `json:"status" db:"status"` // active, draft, archived
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	// Populated by listing queries, not a table column
	ProductCount int `json:"productCount,omitempty" db:"-"`
}
