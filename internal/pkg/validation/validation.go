package validation

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"propertydeals-backend/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Operator usernames: letters, digits, dot, underscore and hyphen.
var usernameRe = regexp.MustCompile(`^[A-Za-z0-9._\-]{1,64}$`)

var (
	errNotPositive = errors.New("must be a positive integer")
	errNotAddress  = errors.New("must be a 0x-prefixed 20-byte hex address")
)

func IsValidAddress(s string) bool {
	return addressRe.MatchString(strings.TrimSpace(s))
}

func IsValidUsername(s string) bool {
	return usernameRe.MatchString(s)
}

// PropertyID parses a positive property id.
func PropertyID(raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, domain.Missing("propertyId")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &domain.ValidationError{Field: "propertyId", Err: errNotPositive}
	}
	return id, nil
}

// Address parses a hex account address. An empty string is reported as missing.
func Address(field, raw string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return common.Address{}, domain.Missing(field)
	}
	if !IsValidAddress(raw) {
		return common.Address{}, &domain.ValidationError{Field: field, Err: errNotAddress}
	}
	return common.HexToAddress(raw), nil
}

// Duration parses a positive auction duration in seconds.
func Duration(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, domain.Missing("duration")
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, &domain.ValidationError{Field: "duration", Err: errNotPositive}
	}
	return n, nil
}
