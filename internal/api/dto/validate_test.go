package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/sweet-shop/pkg/util/errorutil"
)

func TestValidateReportsJSONFieldNames(t *testing.T) {
	zero := 0.0
	err := Validate(&CreateSweetRequest{Name: "Fudge", Price: &zero})
	require.Error(t, err)

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Equal(t, map[string]any{
		"category": "category is required",
		"price":    "price must be greater than 0",
		"quantity": "quantity is required",
	}, domainErr.Details)
}

func TestValidateAcceptsZeroQuantity(t *testing.T) {
	price, qty := 1.0, 0
	assert.NoError(t, Validate(&CreateSweetRequest{Name: "Fudge", Category: "Candy", Price: &price, Quantity: &qty}))
}

func TestUpdateRequestPatch(t *testing.T) {
	assert.NoError(t, Validate(&UpdateSweetRequest{}))
	assert.True(t, UpdateSweetRequest{}.Patch().Empty())

	empty := ""
	assert.Error(t, Validate(&UpdateSweetRequest{Name: &empty}))
}

func TestRegisterRequestRole(t *testing.T) {
	base := RegisterRequest{Name: "Ann", Email: "ann@example.com", Password: "password123"}
	assert.NoError(t, Validate(&base))

	base.Role = "admin"
	assert.NoError(t, Validate(&base))

	base.Role = "owner"
	err := Validate(&base)
	require.Error(t, err)
	assert.Contains(t, apperrors.ToDomainError(err).Details, "role")
}

func TestQuantityUpperBound(t *testing.T) {
	price, qty := 1.0, int(int64(1)<<40)
	err := Validate(&CreateSweetRequest{Name: "Fudge", Category: "Candy", Price: &price, Quantity: &qty})
	require.Error(t, err)
	assert.Equal(t, "quantity must be at most 2147483647", apperrors.ToDomainError(err).Details["quantity"])

	assert.Error(t, Validate(&RestockRequest{Quantity: &qty}))
	assert.Error(t, Validate(&UpdateSweetRequest{Quantity: &qty}))
}
