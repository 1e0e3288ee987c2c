package properties

import (
	"propertydeals-backend/internal/application/coordinator"
	"propertydeals-backend/internal/interfaces/handlers/present"
	"propertydeals-backend/internal/pkg/response"
	"propertydeals-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Coordinator *coordinator.Coordinator
}

// GET /api/v1/properties
func (h *Handlers) List(c *fiber.Ctx) error {
	props := h.Coordinator.Properties()
	return response.Success(c, "Properties fetched successfully", present.NewProperties(props), fiber.Map{"count": len(props)})
}

// GET /api/v1/properties/:id: falls back to a ledger read on a cache miss.
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := validation.PropertyID(c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	p, err := h.Coordinator.Property(c.Context(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Property fetched successfully", present.NewProperty(p), nil)
}

// GET /api/v1/properties/owned/:account
func (h *Handlers) OwnedBy(c *fiber.Ctx) error {
	addr, err := validation.Address("account", c.Params("account"))
	if err != nil {
		return response.FromError(c, err)
	}
	props := h.Coordinator.OwnedBy(addr)
	return response.Success(c, "Properties fetched successfully", present.NewProperties(props), fiber.Map{"count": len(props)})
}

// POST /api/v1/properties: { price, owner }
func (h *Handlers) Create(c *fiber.Ctx) error {
	b, err := present.Parse(c)
	if err != nil {
		return err
	}
	res, err := h.Coordinator.ListProperty(c.Context(), b.String("price"), b.String("owner"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Property listed successfully", present.NewConfirmation(*res), nil)
}

// PUT /api/v1/properties/:id/price: { price, caller }
func (h *Handlers) ChangePrice(c *fiber.Ctx) error {
	id, err := validation.PropertyID(c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	b, err := present.Parse(c)
	if err != nil {
		return err
	}
	res, err := h.Coordinator.ChangePrice(c.Context(), id, b.String("price"), b.String("caller"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Price changed successfully", present.NewConfirmation(*res), nil)
}

// POST /api/v1/properties/:id/buy: { price, buyer }
func (h *Handlers) Buy(c *fiber.Ctx) error {
	id, err := validation.PropertyID(c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	b, err := present.Parse(c)
	if err != nil {
		return err
	}
	res, err := h.Coordinator.BuyProperty(c.Context(), id, b.String("price"), b.String("buyer"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Property purchased successfully", present.NewConfirmation(*res), nil)
}

// POST /api/v1/properties/rebuild?full=true
func (h *Handlers) Rebuild(c *fiber.Ctx) error {
	full := c.QueryBool("full", false)
	res, err := h.Coordinator.Rebuild(c.Context(), full)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Registry rebuilt successfully", res, nil)
}
