package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sweet-shop/internal/api/dto"
	"github.com/spec-kit/sweet-shop/internal/auth"
	"github.com/spec-kit/sweet-shop/internal/domain"
	"github.com/spec-kit/sweet-shop/internal/service"
	apperrors "github.com/spec-kit/sweet-shop/pkg/util/errorutil"
)

// SweetsHandler exposes catalog endpoints.
type SweetsHandler struct {
	inventory *service.InventoryService
}

// NewSweetsHandler constructs handler.
func NewSweetsHandler(inventory *service.InventoryService) *SweetsHandler {
	return &SweetsHandler{inventory: inventory}
}

// List handles GET /sweets.
func (h *SweetsHandler) List(c *fiber.Ctx) error {
	sweets, err := h.inventory.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSweetListResponse(sweets))
}

// Search handles GET /sweets/search.
func (h *SweetsHandler) Search(c *fiber.Ctx) error {
	filter, err := parseFilter(c)
	if err != nil {
		return err
	}
	sweets, err := h.inventory.Search(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSweetListResponse(sweets))
}

// Get handles GET /sweets/:id.
func (h *SweetsHandler) Get(c *fiber.Ctx) error {
	sweet, err := h.inventory.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSweetResponse(sweet))
}

// Create handles POST /sweets.
func (h *SweetsHandler) Create(c *fiber.Ctx) error {
	user, _ := auth.PrincipalFromContext(c)

	var req dto.CreateSweetRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	sweet, err := h.inventory.Create(c.UserContext(), user, service.CreateSweetInput{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Price:       *req.Price,
		Quantity:    *req.Quantity,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewSweetResponse(sweet))
}

// Update handles PUT /sweets/:id.
func (h *SweetsHandler) Update(c *fiber.Ctx) error {
	user, _ := auth.PrincipalFromContext(c)

	var req dto.UpdateSweetRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	sweet, err := h.inventory.Update(c.UserContext(), user, c.Params("id"), req.Patch())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSweetResponse(sweet))
}

// Delete handles DELETE /sweets/:id.
func (h *SweetsHandler) Delete(c *fiber.Ctx) error {
	user, _ := auth.PrincipalFromContext(c)

	if err := h.inventory.Delete(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Purchase handles POST /sweets/:id/purchase.
func (h *SweetsHandler) Purchase(c *fiber.Ctx) error {
	user, _ := auth.PrincipalFromContext(c)

	sweet, err := h.inventory.Purchase(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSweetResponse(sweet))
}

// Restock handles POST /sweets/:id/restock.
func (h *SweetsHandler) Restock(c *fiber.Ctx) error {
	user, _ := auth.PrincipalFromContext(c)

	var req dto.RestockRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	sweet, err := h.inventory.Restock(c.UserContext(), user, c.Params("id"), *req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSweetResponse(sweet))
}

func parseFilter(c *fiber.Ctx) (domain.SweetFilter, error) {
	var filter domain.SweetFilter
	details := map[string]any{}

	if name := strings.TrimSpace(c.Query("name")); name != "" {
		filter.Name = &name
	}
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		filter.Category = &category
	}
	for _, bound := range []struct {
		key string
		dst **float64
	}{
		{"minPrice", &filter.MinPrice},
		{"maxPrice", &filter.MaxPrice},
	} {
		raw := strings.TrimSpace(c.Query(bound.key))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			details[bound.key] = bound.key + " must be a number"
			continue
		}
		*bound.dst = &value
	}

	if len(details) > 0 {
		return domain.SweetFilter{}, apperrors.NewValidationError("Request validation failed", details)
	}
	return filter, nil
}
