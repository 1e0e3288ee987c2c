package ledgerevents

import (
	lesvc "propertydeals-backend/internal/application/ledgerevents"
	"propertydeals-backend/internal/pkg/response"
	"propertydeals-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *lesvc.Service
}

// GET /api/v1/ledger-events?property_id=&name=
func (h *Handlers) GetPropertyEvents(c *fiber.Ctx) error {
	var id uint64
	if raw := c.Query("property_id"); raw != "" {
		parsed, err := validation.PropertyID(raw)
		if err != nil {
			return response.FromError(c, err)
		}
		id = parsed
	}
	events, err := h.Service.GetPropertyEvents(c.Context(), id, c.Query("name"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Ledger events fetched successfully", events, fiber.Map{"count": len(events)})
}
