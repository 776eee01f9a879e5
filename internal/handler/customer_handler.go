// internal/handler/customer_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/campaignforge/minicrm-backend/internal/model"
	"github.com/campaignforge/minicrm-backend/internal/repository"
)

// CustomerHandler is the customer ingestion surface.
type CustomerHandler struct {
	Repo repository.CustomerRepositoryInterface
}

// Create ingests one customer record.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c model.Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(c.Email) == "" && strings.TrimSpace(c.Phone) == "" {
		http.Error(w, "customer needs an email or phone", http.StatusBadRequest)
		return
	}

	if err := h.Repo.Create(&c); err != nil {
		http.Error(w, "failed to create customer: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(c)
}
