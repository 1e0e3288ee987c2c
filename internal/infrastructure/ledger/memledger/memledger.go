// Package memledger is an in-process PropertyMarket ledger. It backs LEDGER_MODE=memory and
// the coordinator tests, and follows the same error contract as ledger.EthLedger.
package memledger

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"
	"time"

	"propertydeals-backend/internal/domain"
	"propertydeals-backend/internal/infrastructure/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Ledger is safe for concurrent use; every call is serialized like a single-node chain.
type Ledger struct {
	mu        sync.Mutex
	accounts  []common.Address
	balances  map[common.Address]*big.Int
	props     map[uint64]*property
	count     uint64
	block     uint64
	logs      []ledger.Event
	submitted []ledger.Tx
	failNext  error
	now       func() time.Time

	// NormalizePrice, when set, is applied to listing and price-change amounts before storing.
	NormalizePrice func(*big.Int) *big.Int
	// AfterSubmit runs after a transaction is applied and before its receipt is returned.
	AfterSubmit func(tx ledger.Tx)
}

var _ ledger.Client = (*Ledger)(nil)

// New creates a ledger with n funded accounts.
func New(n int, balance *big.Int) *Ledger {
	l := &Ledger{
		balances: make(map[common.Address]*big.Int),
		props:    make(map[uint64]*property),
		now:      time.Now,
	}
	for i := 0; i < n; i++ {
		acct := common.BigToAddress(big.NewInt(int64(0x1000 + i)))
		l.accounts = append(l.accounts, acct)
		l.balances[acct] = new(big.Int).Set(balance)
	}
	return l
}

// Ether returns n ether in wei.
func Ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

// Account returns the i-th funded account.
func (l *Ledger) Account(i int) common.Address {
	return l.accounts[i]
}

// SetClock replaces the clock used for auction end times.
func (l *Ledger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// FailNext makes the next call fail as a transport error.
func (l *Ledger) FailNext(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failNext = err
}

// Submitted returns every transaction that reached the ledger, accepted or not.
func (l *Ledger) Submitted() []ledger.Tx {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ledger.Tx, len(l.submitted))
	copy(out, l.submitted)
	return out
}

func (l *Ledger) takeFailure(method string) error {
	if l.failNext == nil {
		return nil
	}
	err := l.failNext
	l.failNext = nil
	return domain.Unavailable(method, err)
}

func (l *Ledger) SubmitTransaction(ctx context.Context, tx ledger.Tx) (*ledger.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Unavailable(tx.Method, err)
	}
	rec, err := l.apply(tx)
	if err != nil {
		return nil, err
	}
	if l.AfterSubmit != nil {
		l.AfterSubmit(tx)
	}
	return rec, nil
}

func (l *Ledger) apply(tx ledger.Tx) (*ledger.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.takeFailure(tx.Method); err != nil {
		return nil, err
	}
	if _, err := ledger.MarketABI.Pack(tx.Method, tx.Args...); err != nil {
		return nil, &domain.ValidationError{Field: "arguments", Err: err}
	}
	l.submitted = append(l.submitted, tx)

	if _, ok := l.balances[tx.From]; !ok {
		return nil, domain.Rejected(tx.Method, "sender account not recognized")
	}
	value := new(big.Int)
	if tx.Value != nil {
		value.Set(tx.Value)
	}
	if value.Sign() < 0 {
		return nil, domain.Rejected(tx.Method, "negative value")
	}
	if l.balances[tx.From].Cmp(value) < 0 {
		return nil, domain.Rejected(tx.Method, "sender doesn't have enough funds to send tx")
	}
	method, ok := ledger.MarketABI.Methods[tx.Method]
	if !ok || method.IsConstant() {
		return nil, domain.Rejected(tx.Method, "not a transaction method")
	}
	if !method.IsPayable() && value.Sign() > 0 {
		return nil, domain.Rejected(tx.Method, "function is not payable")
	}

	c := call{l: l, from: tx.From, value: value}
	var events []ledger.Event
	var reason string
	switch tx.Method {
	case ledger.MethodListProperty:
		events, reason = c.listProperty(uintArg(tx, 0))
	case ledger.MethodChangePrice:
		events, reason = c.changePrice(uintArg(tx, 0), uintArg(tx, 1))
	case ledger.MethodBuyProperty:
		events, reason = c.buyProperty(uintArg(tx, 0), uintArg(tx, 1))
	case ledger.MethodStartAuction:
		events, reason = c.startAuction(uintArg(tx, 0), uintArg(tx, 1), uintArg(tx, 2))
	case ledger.MethodBid:
		events, reason = c.bid(uintArg(tx, 0), uintArg(tx, 1))
	case ledger.MethodStopAuction:
		events, reason = c.stopAuction(uintArg(tx, 0))
	default:
		reason = "unsupported method"
	}
	if reason != "" {
		return nil, domain.Rejected(tx.Method, reason)
	}

	l.block++
	l.balances[tx.From].Sub(l.balances[tx.From], value)
	hash := txHash(l.block, len(l.submitted))
	for i := range events {
		events[i].BlockNumber = l.block
		events[i].LogIndex = uint(i)
		events[i].TxHash = hash
	}
	l.logs = append(l.logs, events...)
	return &ledger.Receipt{
		TxHash:      hash,
		BlockNumber: l.block,
		GasUsed:     21_000,
		Events:      copyEvents(events),
	}, nil
}

func (l *Ledger) CallReadOnly(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Unavailable(method, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.takeFailure(method); err != nil {
		return nil, err
	}
	if _, err := ledger.MarketABI.Pack(method, args...); err != nil {
		return nil, &domain.ValidationError{Field: "arguments", Err: err}
	}
	var id uint64
	if len(args) > 0 {
		id = args[0].(*big.Int).Uint64()
	}
	p := l.props[id]
	switch method {
	case ledger.MethodProperties:
		if p == nil {
			return []interface{}{new(big.Int), common.Address{}, new(big.Int), false, false, new(big.Int)}, nil
		}
		return []interface{}{
			new(big.Int).SetUint64(p.id), p.owner, new(big.Int).Set(p.price),
			p.listed, p.auction, big.NewInt(p.endTime),
		}, nil
	case ledger.MethodHighestBid:
		if p == nil {
			return []interface{}{new(big.Int)}, nil
		}
		return []interface{}{new(big.Int).Set(p.highestBid)}, nil
	case ledger.MethodHighestBidder:
		if p == nil {
			return []interface{}{common.Address{}}, nil
		}
		return []interface{}{p.highestBidder}, nil
	case ledger.MethodGetPropertyCount:
		return []interface{}{new(big.Int).SetUint64(l.count)}, nil
	default:
		return nil, domain.Rejected(method, "not a view method")
	}
}

func (l *Ledger) EventsSince(ctx context.Context, eventName string, fromBlock uint64) ([]ledger.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Unavailable("eth_getLogs", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.takeFailure("eth_getLogs"); err != nil {
		return nil, err
	}
	if _, ok := ledger.MarketABI.Events[eventName]; !ok {
		return nil, fmt.Errorf("unknown event %q", eventName)
	}
	var out []ledger.Event
	for _, ev := range l.logs {
		if ev.Name == eventName && ev.BlockNumber >= fromBlock {
			out = append(out, ev)
		}
	}
	return copyEvents(out), nil
}

func (l *Ledger) ListAccounts(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Unavailable("eth_accounts", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.takeFailure("eth_accounts"); err != nil {
		return nil, err
	}
	out := make([]common.Address, len(l.accounts))
	copy(out, l.accounts)
	return out, nil
}

func (l *Ledger) AccountBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Unavailable("eth_getBalance", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.takeFailure("eth_getBalance"); err != nil {
		return nil, err
	}
	bal, ok := l.balances[account]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(bal), nil
}

func uintArg(tx ledger.Tx, i int) *big.Int {
	return new(big.Int).Set(tx.Args[i].(*big.Int))
}

func txHash(block uint64, nonce int) common.Hash {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], block)
	binary.BigEndian.PutUint64(buf[8:], uint64(nonce))
	return crypto.Keccak256Hash(buf[:])
}

func copyEvents(in []ledger.Event) []ledger.Event {
	out := make([]ledger.Event, len(in))
	for i, ev := range in {
		fields := make(map[string]interface{}, len(ev.Fields))
		for k, v := range ev.Fields {
			if n, ok := v.(*big.Int); ok {
				v = new(big.Int).Set(n)
			}
			fields[k] = v
		}
		ev.Fields = fields
		out[i] = ev
	}
	return out
}
