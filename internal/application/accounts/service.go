// Package accounts resolves the signing account for a coordinator call.
package accounts

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"propertydeals-backend/internal/domain"
	"propertydeals-backend/internal/infrastructure/ledger"
	"propertydeals-backend/internal/pkg/units"
	"propertydeals-backend/internal/pkg/validation"

	"github.com/ethereum/go-ethereum/common"
)

// Service resolves accounts against the ledger's unlocked account list.
type Service struct {
	Ledger       ledger.Client
	DefaultIndex int
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidAccount, fmt.Sprintf(format, args...))
}

// Resolve returns the account that signs a submission. raw must be a ledger-known account.
// When raw is empty, strict callers fail and the rest fall back to the default account.
func (s *Service) Resolve(ctx context.Context, raw string, strict bool) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" && strict {
		return common.Address{}, invalid("account required")
	}
	if raw != "" && !validation.IsValidAddress(raw) {
		return common.Address{}, invalid("malformed account %q", raw)
	}
	known, err := s.Ledger.ListAccounts(ctx)
	if err != nil {
		return common.Address{}, err
	}
	if raw == "" {
		return s.pickDefault(known)
	}
	addr := common.HexToAddress(raw)
	for _, k := range known {
		if k == addr {
			return addr, nil
		}
	}
	return common.Address{}, invalid("account %s is not known to the ledger", addr.Hex())
}

func (s *Service) pickDefault(known []common.Address) (common.Address, error) {
	if len(known) == 0 {
		return common.Address{}, invalid("ledger exposes no accounts")
	}
	if s.DefaultIndex < 0 || s.DefaultIndex >= len(known) {
		return common.Address{}, invalid("default account index %d out of range (%d accounts)", s.DefaultIndex, len(known))
	}
	return known[s.DefaultIndex], nil
}

// Account is a ledger account with its balance.
type Account struct {
	Address    string `json:"address"`
	BalanceWei string `json:"balance_wei"`
	Balance    string `json:"balance"`
	IsDefault  bool   `json:"is_default"`
}

// List returns every ledger account with its current balance.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	known, err := s.Ledger.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(known))
	for i, addr := range known {
		bal, err := s.Ledger.AccountBalance(ctx, addr)
		if err != nil {
			return nil, err
		}
		if bal == nil {
			bal = new(big.Int)
		}
		out = append(out, Account{
			Address:    addr.Hex(),
			BalanceWei: bal.String(),
			Balance:    units.MustDecimal(bal),
			IsDefault:  i == s.DefaultIndex,
		})
	}
	return out, nil
}
