package dto

import (
	"time"

	"github.com/spec-kit/sweet-shop/internal/domain"
)

// CreateSweetRequest is the body of POST /sweets.
type CreateSweetRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=255"`
	Category    string   `json:"category" validate:"required,min=1,max=100"`
	Description *string  `json:"description" validate:"omitnil,max=1000"`
	Price       *float64 `json:"price" validate:"required,gt=0"`
	Quantity    *int     `json:"quantity" validate:"required,gte=0,lte=2147483647"`
}

// UpdateSweetRequest is the body of PUT /sweets/{id}. Absent and null
// fields are left unchanged.
type UpdateSweetRequest struct {
	Name        *string  `json:"name" validate:"omitnil,min=1,max=255"`
	Category    *string  `json:"category" validate:"omitnil,min=1,max=100"`
	Description *string  `json:"description" validate:"omitnil,max=1000"`
	Price       *float64 `json:"price" validate:"omitnil,gt=0"`
	Quantity    *int     `json:"quantity" validate:"omitnil,gte=0,lte=2147483647"`
}

// Patch converts the request into a domain patch.
func (r UpdateSweetRequest) Patch() domain.SweetPatch {
	return domain.SweetPatch{
		Name:        r.Name,
		Category:    r.Category,
		Description: r.Description,
		Price:       r.Price,
		Quantity:    r.Quantity,
	}
}

// RestockRequest is the body of POST /sweets/{id}/restock.
type RestockRequest struct {
	Quantity *int `json:"quantity" validate:"required,lte=2147483647"`
}

// SweetResponse is the public projection of a sweet.
type SweetResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description *string   `json:"description"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewSweetResponse projects a sweet.
func NewSweetResponse(sweet *domain.Sweet) SweetResponse {
	return SweetResponse{
		ID:          sweet.ID,
		Name:        sweet.Name,
		Category:    sweet.Category,
		Description: sweet.Description,
		Price:       sweet.Price,
		Quantity:    sweet.Quantity,
		CreatedAt:   sweet.CreatedAt,
		UpdatedAt:   sweet.UpdatedAt,
	}
}

// NewSweetListResponse projects a slice of sweets, never returning null.
func NewSweetListResponse(sweets []domain.Sweet) []SweetResponse {
	out := make([]SweetResponse, 0, len(sweets))
	for i := range sweets {
		out = append(out, NewSweetResponse(&sweets[i]))
	}
	return out
}
