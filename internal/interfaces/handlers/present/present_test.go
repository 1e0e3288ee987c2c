package present

import (
	"math/big"
	"testing"
	"time"

	"propertydeals-backend/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProperty_Listed(t *testing.T) {
	p := domain.Property{
		ID:       3,
		Owner:    common.HexToAddress("0x1000"),
		Price:    big.NewInt(1500000000000000000),
		IsListed: true,
	}
	v := NewProperty(p)
	assert.Equal(t, uint64(3), v.ID)
	assert.Equal(t, "1.5", v.Price)
	assert.Equal(t, "1500000000000000000", v.PriceWei)
	assert.True(t, v.IsListed)
	assert.False(t, v.IsAuctionStarted)
	assert.Nil(t, v.Auction)
}

func TestNewProperty_AuctionWithBid(t *testing.T) {
	end := time.Unix(1700000000, 0).UTC()
	p := domain.Property{
		ID:    1,
		Owner: common.HexToAddress("0x1000"),
		Price: big.NewInt(0),
		Auction: &domain.Auction{
			EndTime:    &end,
			HighestBid: &domain.Bid{Amount: big.NewInt(2000000000000000000), Bidder: common.HexToAddress("0x1001")},
		},
	}
	v := NewProperty(p)
	require.NotNil(t, v.Auction)
	assert.True(t, v.IsAuctionStarted)
	require.NotNil(t, v.Auction.HighestBid)
	assert.Equal(t, "2", *v.Auction.HighestBid)
	assert.Equal(t, common.HexToAddress("0x1001").Hex(), *v.Auction.HighestBidder)
	assert.Equal(t, end, *v.Auction.EndTime)
}

func TestNewConfirmation_WithoutProperty(t *testing.T) {
	v := NewConfirmation(domain.Confirmation{PropertyID: 4, TxHash: "0xabc", Stale: true})
	assert.Nil(t, v.Property)
	assert.True(t, v.Stale)
}

func TestBody_StringAcceptsNumbers(t *testing.T) {
	b, err := ParseBody([]byte(`{"price":"1.25","duration":3600,"big":1000000000000000000000,"nothing":null}`))
	require.NoError(t, err)
	assert.Equal(t, "1.25", b.String("price"))
	assert.Equal(t, "3600", b.String("duration"))
	assert.Equal(t, "1000000000000000000000", b.String("big"))
	assert.Equal(t, "", b.String("nothing"))
	assert.Equal(t, "", b.String("missing"))
}

func TestParseBody_EmptyAndInvalid(t *testing.T) {
	b, err := ParseBody(nil)
	require.NoError(t, err)
	assert.Empty(t, b)

	_, err = ParseBody([]byte(`{not json`))
	assert.Error(t, err)
}
