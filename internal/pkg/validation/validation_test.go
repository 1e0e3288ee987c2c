package validation

import (
	"testing"

	"propertydeals-backend/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyID(t *testing.T) {
	id, err := PropertyID(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, uint64(12), id)

	for _, raw := range []string{"", "0", "-1", "abc", "1.5"} {
		_, err := PropertyID(raw)
		assert.ErrorIs(t, err, domain.ErrValidation, raw)
	}
}

func TestAddress(t *testing.T) {
	raw := "0x00000000000000000000000000000000000010a0"
	addr, err := Address("bidder", raw)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(raw), addr)

	_, err = Address("bidder", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "bidder")

	_, err = Address("bidder", "0x1234")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDuration(t *testing.T) {
	d, err := Duration("3600")
	require.NoError(t, err)
	assert.Equal(t, int64(3600), d)

	_, err = Duration("0")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = Duration("-5")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = Duration("")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIsValidUsername(t *testing.T) {
	assert.True(t, IsValidUsername("operator.1"))
	assert.False(t, IsValidUsername(""))
	assert.False(t, IsValidUsername("has space"))
}
