package listings

import (
	"context"
	"testing"

	"propertydeals-backend/internal/application/accounts"
	"propertydeals-backend/internal/application/registry"
	"propertydeals-backend/internal/domain"
	"propertydeals-backend/internal/infrastructure/ledger"
	"propertydeals-backend/internal/infrastructure/ledger/memledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventlessReceipts confirms transactions but drops the logs from their receipts.
type eventlessReceipts struct {
	ledger.Client
}

func (e eventlessReceipts) SubmitTransaction(ctx context.Context, tx ledger.Tx) (*ledger.Receipt, error) {
	rec, err := e.Client.SubmitTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	rec.Events = nil
	return rec, nil
}

func newService(client ledger.Client) *Service {
	return &Service{
		Ledger:   client,
		Registry: registry.New(client, registry.Options{}),
		Accounts: &accounts.Service{Ledger: client},
	}
}

func TestListProperty_CachesConfirmedListing(t *testing.T) {
	l := memledger.New(1, memledger.Ether(100))
	s := newService(l)

	c, err := s.ListProperty(context.Background(), "1.5", l.Account(0).Hex())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.PropertyID)
	assert.False(t, c.Stale)
	require.NotNil(t, c.Property)
	assert.Equal(t, l.Account(0), c.Property.Owner)
}

func TestListProperty_ReceiptWithoutEventStillSucceeds(t *testing.T) {
	l := memledger.New(1, memledger.Ether(100))
	s := newService(eventlessReceipts{Client: l})

	c, err := s.ListProperty(context.Background(), "2", l.Account(0).Hex())
	require.NoError(t, err)
	assert.True(t, c.Stale)
	assert.Zero(t, c.PropertyID)
	assert.NotEmpty(t, c.TxHash)
	assert.NotZero(t, c.BlockNumber)

	p, ok := s.Registry.Get(1)
	require.True(t, ok)
	assert.Equal(t, l.Account(0), p.Owner)
	assert.True(t, p.IsListed)
}

func TestListProperty_InvalidPriceNeverReachesLedger(t *testing.T) {
	l := memledger.New(1, memledger.Ether(100))
	s := newService(l)

	_, err := s.ListProperty(context.Background(), "-1", l.Account(0).Hex())
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, l.Submitted())
}
