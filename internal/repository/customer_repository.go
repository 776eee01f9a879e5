package repository

import (
	"database/sql"
	"time"

	"github.com/campaignforge/minicrm-backend/internal/model"
)

// CustomerRepositoryInterface defines methods used by the service layer.
type CustomerRepositoryInterface interface {
	GetByID(id int) (*model.Customer, error)
	ListAll() ([]model.Customer, error)
	Create(c *model.Customer) error
}

// CustomerRepository is the concrete implementation
type CustomerRepository struct {
	DB *sql.DB
}

// GetByID fetches a customer by ID
func (r *CustomerRepository) GetByID(id int) (*model.Customer, error) {
	query := `
        SELECT id, first_name, last_name, email, phone, city, age, total_spend, visits, last_active_at
        FROM customers
        WHERE id = $1
    `
	row := r.DB.QueryRow(query, id)

	var c model.Customer
	if err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.City,
		&c.Age, &c.TotalSpend, &c.Visits, &c.LastActiveAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &c, nil
}

// ListAll fetches the entire current customer population. The rule engine
// evaluates over this on every call; no caching.
func (r *CustomerRepository) ListAll() ([]model.Customer, error) {
	query := `
        SELECT id, first_name, last_name, email, phone, city, age, total_spend, visits, last_active_at
        FROM customers
        ORDER BY id
    `
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.City,
			&c.Age, &c.TotalSpend, &c.Visits, &c.LastActiveAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// Create inserts a customer from the ingestion surface.
func (r *CustomerRepository) Create(c *model.Customer) error {
	if c.LastActiveAt == nil {
		now := time.Now()
		c.LastActiveAt = &now
	}
	query := `
        INSERT INTO customers (first_name, last_name, email, phone, city, age, total_spend, visits, last_active_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		c.FirstName, c.LastName, c.Email, c.Phone, c.City,
		c.Age, c.TotalSpend, c.Visits, c.LastActiveAt,
	).Scan(&c.ID)
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
