package notify

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"
	"time"

	"propertydeals-backend/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_PublishesToPropertyChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, Channel(7))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	p := domain.Property{
		ID: 7, Owner: common.HexToAddress("0x1000"), Price: big.NewInt(25),
		Auction: &domain.Auction{HighestBid: &domain.Bid{Amount: big.NewInt(30), Bidder: common.HexToAddress("0x1001")}},
	}
	require.NoError(t, (&Redis{Client: rdb}).Publish(ctx, NewUpdate(p, "bid")))

	select {
	case msg := <-sub.Channel():
		var got PropertyUpdate
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, uint64(7), got.PropertyID)
		assert.Equal(t, "bid", got.Reason)
		assert.True(t, got.AuctionOpen)
		assert.Equal(t, "30", got.HighestBidWei)
		assert.Equal(t, common.HexToAddress("0x1001").Hex(), got.HighestBidder)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

type failing struct{ err error }

func (f failing) Publish(context.Context, PropertyUpdate) error { return f.err }

type counting struct{ n int }

func (c *counting) Publish(context.Context, PropertyUpdate) error {
	c.n++
	return nil
}

func TestMulti_PublishesToAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	c := &counting{}
	err := Multi{failing{err: boom}, c}.Publish(context.Background(), NewUpdate(domain.Property{ID: 1}, "listed"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, c.n)
}

func TestSubjectAndChannel(t *testing.T) {
	assert.Equal(t, "property.events.12", Subject(12))
	assert.Equal(t, "property_events:12", Channel(12))
}
