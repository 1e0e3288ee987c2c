package transactions

import (
	txsvc "propertydeals-backend/internal/application/transactions"
	"propertydeals-backend/internal/pkg/response"
	"propertydeals-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *txsvc.Service
}

// GET /api/v1/transactions?account=&property_id=&status=&limit=
func (h *Handlers) GetTransactions(c *fiber.Ctx) error {
	f := txsvc.Filter{
		Account: c.Query("account"),
		Status:  c.Query("status"),
		Limit:   c.QueryInt("limit", 0),
	}
	if raw := c.Query("property_id"); raw != "" {
		id, err := validation.PropertyID(raw)
		if err != nil {
			return response.FromError(c, err)
		}
		f.PropertyID = id
	}
	data, err := h.Service.ViewTransactions(c.Context(), f)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Transactions fetched successfully", data, fiber.Map{"count": len(data)})
}
