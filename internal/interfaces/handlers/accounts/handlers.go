package accounts

import (
	"propertydeals-backend/internal/application/coordinator"
	"propertydeals-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Coordinator *coordinator.Coordinator
}

// GET /api/v1/accounts: ledger accounts with decimal balances; is_default marks the signer
// used when a request names no account.
func (h *Handlers) List(c *fiber.Ctx) error {
	accts, err := h.Coordinator.ListAccounts(c.Context())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Accounts fetched successfully", accts, fiber.Map{"count": len(accts)})
}
