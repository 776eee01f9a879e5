// internal/model/customer.go
package model

import "time"

type Customer struct {
	ID           int        `db:"id" json:"id"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	Email        string     `db:"email" json:"email"`
	Phone        string     `db:"phone" json:"phone"`
	City         string     `db:"city" json:"city"`
	Age          int        `db:"age" json:"age"`
	TotalSpend   float64    `db:"total_spend" json:"total_spend"`
	Visits       int        `db:"visits" json:"visits"`
	LastActiveAt *time.Time `db:"last_active_at" json:"last_active_at,omitempty"`
}
