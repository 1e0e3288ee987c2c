package ledger

import (
	"context"
	"math/big"
	"time"

	"propertydeals-backend/internal/domain"
	"propertydeals-backend/internal/infrastructure/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// Recorder receives every submission outcome and every decoded event. Implementations must
// not fail the caller; the journal is an audit trail, not a source of truth.
type Recorder interface {
	RecordTransaction(ctx context.Context, tx Tx, rec *Receipt, err error)
	RecordEvents(ctx context.Context, events []Event)
}

// Instrumented decorates a Client with logging, metrics and an optional Recorder.
type Instrumented struct {
	next     Client
	recorder Recorder
}

func Instrument(next Client, recorder Recorder) *Instrumented {
	return &Instrumented{next: next, recorder: recorder}
}

func (c *Instrumented) SubmitTransaction(ctx context.Context, tx Tx) (*Receipt, error) {
	started := time.Now()
	rec, err := c.next.SubmitTransaction(ctx, tx)
	metrics.ObserveLedgerCall(tx.Method, started, err)
	if err != nil {
		log.Warn().Err(err).Str("method", tx.Method).Str("from", tx.From.Hex()).
			Str("class", domain.Class(err)).Dur("elapsed", time.Since(started)).
			Msg("ledger transaction failed")
	} else {
		log.Info().Str("method", tx.Method).Str("from", tx.From.Hex()).
			Str("tx_hash", rec.TxHash.Hex()).Uint64("block", rec.BlockNumber).
			Dur("elapsed", time.Since(started)).Msg("ledger transaction confirmed")
	}
	if c.recorder != nil {
		c.recorder.RecordTransaction(ctx, tx, rec, err)
		if rec != nil && len(rec.Events) > 0 {
			c.recorder.RecordEvents(ctx, rec.Events)
		}
	}
	return rec, err
}

func (c *Instrumented) CallReadOnly(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	started := time.Now()
	vals, err := c.next.CallReadOnly(ctx, method, args...)
	metrics.ObserveLedgerCall(method, started, err)
	if err != nil {
		log.Debug().Err(err).Str("method", method).Msg("ledger read failed")
	}
	return vals, err
}

func (c *Instrumented) EventsSince(ctx context.Context, eventName string, fromBlock uint64) ([]Event, error) {
	started := time.Now()
	events, err := c.next.EventsSince(ctx, eventName, fromBlock)
	metrics.ObserveLedgerCall("events:"+eventName, started, err)
	if err != nil {
		log.Warn().Err(err).Str("event", eventName).Uint64("from_block", fromBlock).Msg("ledger event replay failed")
		return nil, err
	}
	log.Debug().Str("event", eventName).Uint64("from_block", fromBlock).Int("count", len(events)).Msg("ledger events replayed")
	if c.recorder != nil && len(events) > 0 {
		c.recorder.RecordEvents(ctx, events)
	}
	return events, nil
}

func (c *Instrumented) ListAccounts(ctx context.Context) ([]common.Address, error) {
	started := time.Now()
	accounts, err := c.next.ListAccounts(ctx)
	metrics.ObserveLedgerCall("eth_accounts", started, err)
	return accounts, err
}

func (c *Instrumented) AccountBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	started := time.Now()
	bal, err := c.next.AccountBalance(ctx, account)
	metrics.ObserveLedgerCall("eth_getBalance", started, err)
	return bal, err
}
