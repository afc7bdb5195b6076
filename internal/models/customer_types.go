package models

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Customer is the model for the 'customers' table.
// PasswordHash is a pointer: NULL means the account was provisioned during a
// guest checkout and has no local credentials yet.
type Customer struct {
	ID           int64   `json:"id" db:"id"`
	Email        string  `json:"email" db:"email"`
	Name         string  `json:"name" db:"name"`
	Phone        *string `json:"phone,omitempty" db:"phone"`
	PasswordHash *string `json:"-" db:"password_hash"`

	// --- Address fields (all optional) ---
	Street     *string `json:"street,omitempty" db:"street"`
	ExtNumber  *string `json:"extNumber,omitempty" db:"ext_number"`
	Colonia    *string `json:"colonia,omitempty" db:"colonia"`
	City       *string `json:"city,omitempty" db:"city"`
	State      *string `json:"state,omitempty" db:"state"`
	PostalCode *string `json:"postalCode,omitempty" db:"postal_code"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Password Helper (Standard)
type Password struct {
	Plaintext *string
	Hash      string
}

func (p *Password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.Hash = string(hash)
	p.Plaintext = &plaintextPassword
	return nil
}

func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(p.Hash), []byte(plaintextPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
