package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"propertydeals-backend/internal/domain"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Backend is the subset of ethclient used for reads and receipts.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// RPCCaller issues raw JSON-RPC calls (eth_sendTransaction, eth_accounts).
type RPCCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// EthLedger talks to a node holding unlocked accounts (Ganache, anvil, geth --dev).
// The node signs; the coordinator never holds keys.
type EthLedger struct {
	backend      Backend
	rpc          RPCCaller
	contract     common.Address
	pollInterval time.Duration
}

// Dial connects to the JSON-RPC endpoint.
func Dial(ctx context.Context, endpoint string, contract common.Address, pollInterval time.Duration) (*EthLedger, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, fmt.Errorf("ledger rpc endpoint required")
	}
	if (contract == common.Address{}) {
		return nil, fmt.Errorf("contract address required")
	}
	rc, err := rpc.DialContext(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("dial ledger: %w", err)
	}
	return NewEthLedger(ethclient.NewClient(rc), rc, contract, pollInterval), nil
}

func NewEthLedger(backend Backend, caller RPCCaller, contract common.Address, pollInterval time.Duration) *EthLedger {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &EthLedger{backend: backend, rpc: caller, contract: contract, pollInterval: pollInterval}
}

// SubmitTransaction sends tx through eth_sendTransaction and waits for its receipt.
// It never resubmits: a timeout while waiting is reported as unavailable with the tx hash.
func (l *EthLedger) SubmitTransaction(ctx context.Context, tx Tx) (*Receipt, error) {
	data, err := MarketABI.Pack(tx.Method, tx.Args...)
	if err != nil {
		return nil, &domain.ValidationError{Field: "arguments", Err: err}
	}
	args := map[string]interface{}{
		"from": tx.From,
		"to":   l.contract,
		"gas":  hexutil.Uint64(tx.Gas()),
		"data": hexutil.Bytes(data),
	}
	if tx.Value != nil && tx.Value.Sign() > 0 {
		args["value"] = (*hexutil.Big)(tx.Value)
	}
	var hash common.Hash
	if err := l.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return nil, classify(tx.Method, err)
	}
	rec, err := l.waitReceipt(ctx, tx.Method, hash)
	if err != nil {
		return nil, err
	}
	if rec.Status != types.ReceiptStatusSuccessful {
		return nil, domain.Rejected(tx.Method, l.revertReason(ctx, tx, data, rec.BlockNumber))
	}
	events, err := l.decodeLogs(rec.Logs)
	if err != nil {
		return nil, domain.Rejected(tx.Method, err.Error())
	}
	out := &Receipt{TxHash: hash, GasUsed: rec.GasUsed, Events: events}
	if rec.BlockNumber != nil {
		out.BlockNumber = rec.BlockNumber.Uint64()
	}
	return out, nil
}

func (l *EthLedger) waitReceipt(ctx context.Context, method string, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()
	for {
		rec, err := l.backend.TransactionReceipt(ctx, hash)
		if err == nil && rec != nil {
			return rec, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, classify(method, err)
		}
		select {
		case <-ctx.Done():
			return nil, domain.Unavailable(method, fmt.Errorf("waiting for receipt of %s: %w", hash.Hex(), ctx.Err()))
		case <-ticker.C:
		}
	}
}

// revertReason replays the failed call at its block to recover the revert string.
func (l *EthLedger) revertReason(ctx context.Context, tx Tx, data []byte, block *big.Int) string {
	msg := ethereum.CallMsg{From: tx.From, To: &l.contract, Gas: tx.Gas(), Value: tx.Value, Data: data}
	if _, err := l.backend.CallContract(ctx, msg, block); err != nil {
		return reasonOf(err)
	}
	return "transaction reverted"
}

func (l *EthLedger) CallReadOnly(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := MarketABI.Pack(method, args...)
	if err != nil {
		return nil, &domain.ValidationError{Field: "arguments", Err: err}
	}
	out, err := l.backend.CallContract(ctx, ethereum.CallMsg{To: &l.contract, Data: data}, nil)
	if err != nil {
		return nil, classify(method, err)
	}
	vals, err := MarketABI.Unpack(method, out)
	if err != nil {
		return nil, domain.Rejected(method, fmt.Sprintf("decode %s result: %v", method, err))
	}
	return vals, nil
}

func (l *EthLedger) EventsSince(ctx context.Context, eventName string, fromBlock uint64) ([]Event, error) {
	ev, ok := MarketABI.Events[eventName]
	if !ok {
		return nil, fmt.Errorf("unknown event %q", eventName)
	}
	logs, err := l.backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{l.contract},
		Topics:    [][]common.Hash{{ev.ID}},
	})
	if err != nil {
		return nil, classify("eth_getLogs", err)
	}
	ptrs := make([]*types.Log, len(logs))
	for i := range logs {
		ptrs[i] = &logs[i]
	}
	events, err := l.decodeLogs(ptrs)
	if err != nil {
		return nil, domain.Rejected("eth_getLogs", err.Error())
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}
		return events[i].LogIndex < events[j].LogIndex
	})
	return events, nil
}

func (l *EthLedger) ListAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := l.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, classify("eth_accounts", err)
	}
	return accounts, nil
}

func (l *EthLedger) AccountBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	bal, err := l.backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, classify("eth_getBalance", err)
	}
	return bal, nil
}

func (l *EthLedger) decodeLogs(logs []*types.Log) ([]Event, error) {
	events := make([]Event, 0, len(logs))
	for _, lg := range logs {
		if lg == nil || lg.Address != l.contract {
			continue
		}
		ev, ok, err := DecodeLog(*lg)
		if err != nil {
			return nil, err
		}
		if ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

// DecodeLog decodes a PropertyMarket log. ok is false for logs of other events.
func DecodeLog(lg types.Log) (Event, bool, error) {
	if len(lg.Topics) == 0 {
		return Event{}, false, nil
	}
	ev, err := MarketABI.EventByID(lg.Topics[0])
	if err != nil {
		return Event{}, false, nil
	}
	fields := make(map[string]interface{})
	if len(lg.Data) > 0 {
		if err := ev.Inputs.NonIndexed().UnpackIntoMap(fields, lg.Data); err != nil {
			return Event{}, false, fmt.Errorf("decode %s data: %w", ev.Name, err)
		}
	}
	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopicsIntoMap(fields, indexed, lg.Topics[1:]); err != nil {
		return Event{}, false, fmt.Errorf("decode %s topics: %w", ev.Name, err)
	}
	return Event{
		Name:        ev.Name,
		BlockNumber: lg.BlockNumber,
		LogIndex:    lg.Index,
		TxHash:      lg.TxHash,
		Fields:      fields,
	}, true, nil
}

// classify maps transport errors to ErrLedgerUnavailable and JSON-RPC errors to ErrLedgerRejected.
func classify(method string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.Unavailable(method, err)
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return domain.Rejected(method, reasonOf(err))
	}
	return domain.Unavailable(method, err)
}

// reasonOf prefers the decoded Error(string) revert payload over the node's message.
func reasonOf(err error) string {
	var de rpc.DataError
	if errors.As(err, &de) {
		if s, ok := de.ErrorData().(string); ok {
			if raw, decErr := hexutil.Decode(s); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return reason
				}
			}
		}
	}
	return err.Error()
}
