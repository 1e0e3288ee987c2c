// Package registry is the coordinator's local cache of ledger property state. It is
// disposable: Rebuild reconstructs it from the ledger at any time.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"propertydeals-backend/internal/domain"
	"propertydeals-backend/internal/infrastructure/ledger"
	"propertydeals-backend/internal/infrastructure/metrics"
	"propertydeals-backend/internal/infrastructure/notify"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

// Store persists the snapshot and the replay cursor.
type Store interface {
	LoadSnapshot(ctx context.Context) ([]domain.Property, uint64, error)
	SaveProperty(ctx context.Context, p domain.Property) error
	SaveSnapshot(ctx context.Context, props []domain.Property, cursor uint64) error
}

// Options configures optional collaborators. Zero values disable persistence and notifications.
type Options struct {
	Store       Store
	Notifier    notify.Notifier
	Concurrency int
}

// Registry maps property id to the last confirmed view of that property. All returned values
// are copies.
type Registry struct {
	mu     sync.RWMutex
	props  map[uint64]domain.Property
	cursor uint64
	loaded bool
	// touched collects ids upserted while a rebuild is reading; nil outside Rebuild.
	touched map[uint64]struct{}

	rebuildMu   sync.Mutex
	client      ledger.Client
	market      ledger.Market
	store       Store
	notifier    notify.Notifier
	concurrency int
}

func New(client ledger.Client, opts Options) *Registry {
	n := opts.Concurrency
	if n <= 0 {
		n = defaultConcurrency
	}
	return &Registry{
		props:       make(map[uint64]domain.Property),
		client:      client,
		market:      ledger.Market{Client: client},
		store:       opts.Store,
		notifier:    opts.Notifier,
		concurrency: n,
	}
}

func (r *Registry) Get(id uint64) (domain.Property, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.props[id]
	if !ok {
		return domain.Property{}, false
	}
	return p.Clone(), true
}

// List returns every cached property ordered by id.
func (r *Registry) List() []domain.Property {
	r.mu.RLock()
	out := make([]domain.Property, 0, len(r.props))
	for _, p := range r.props {
		out = append(out, p.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OwnedBy returns the cached properties whose owner is account.
func (r *Registry) OwnedBy(account common.Address) []domain.Property {
	var out []domain.Property
	for _, p := range r.List() {
		if p.Owner == account {
			out = append(out, p)
		}
	}
	return out
}

// Cursor returns the last ledger block whose PropertyListed events were replayed.
func (r *Registry) Cursor() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cursor
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.props)
}

// Load warms the cache from the persisted snapshot without touching the ledger.
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	props, cursor, err := r.store.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	next := make(map[uint64]domain.Property, len(props))
	for _, p := range props {
		next[p.ID] = p
	}
	r.mu.Lock()
	r.props = next
	r.cursor = cursor
	r.loaded = true
	r.mu.Unlock()
	metrics.SetRegistrySize(len(next))
	return nil
}

// Upsert stores p, persists it and publishes the change. Persistence and publishing failures
// are logged; the in-memory record is already authoritative for this process.
func (r *Registry) Upsert(ctx context.Context, p domain.Property, reason string) {
	p = p.Clone()
	r.mu.Lock()
	r.props[p.ID] = p
	if r.touched != nil {
		r.touched[p.ID] = struct{}{}
	}
	size := len(r.props)
	r.mu.Unlock()
	metrics.SetRegistrySize(size)

	if r.store != nil {
		if err := r.store.SaveProperty(ctx, p); err != nil {
			log.Warn().Err(err).Uint64("property_id", p.ID).Msg("registry: persist property")
		}
	}
	if r.notifier != nil {
		if err := r.notifier.Publish(ctx, notify.NewUpdate(p, reason)); err != nil {
			log.Warn().Err(err).Uint64("property_id", p.ID).Msg("registry: publish update")
		}
	}
}

// Refresh point-reads id from the ledger and upserts the result.
func (r *Registry) Refresh(ctx context.Context, id uint64) (domain.Property, error) {
	return r.RefreshAfter(ctx, id, 0, "refresh")
}

// RefreshAfter is Refresh following a confirmed receipt at block.
func (r *Registry) RefreshAfter(ctx context.Context, id uint64, block uint64, reason string) (domain.Property, error) {
	p, err := r.market.ReadProperty(ctx, id)
	if err != nil {
		return domain.Property{}, err
	}
	p.SyncedBlock = block
	if prev, ok := r.Get(id); ok && prev.SyncedBlock > block {
		p.SyncedBlock = prev.SyncedBlock
	}
	r.Upsert(ctx, p, reason)
	return p.Clone(), nil
}

// RebuildResult summarizes a completed rebuild.
type RebuildResult struct {
	Full       bool   `json:"full"`
	FromBlock  uint64 `json:"from_block"`
	ToBlock    uint64 `json:"to_block"`
	Discovered int    `json:"discovered"`
	Properties int    `json:"properties"`
}

// Rebuild replays PropertyListed events and point-reads every known property. Incremental
// rebuilds start from the persisted cursor; full rebuilds replay from genesis. The cache is
// replaced only when every read succeeds, and records confirmed while the reads were in
// flight are kept over the rebuilt ones.
func (r *Registry) Rebuild(ctx context.Context, full bool) (res RebuildResult, err error) {
	r.rebuildMu.Lock()
	defer r.rebuildMu.Unlock()

	r.mu.Lock()
	r.touched = make(map[uint64]struct{})
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.touched = nil
		r.mu.Unlock()
	}()

	started := time.Now()
	mode := "incremental"
	if full {
		mode = "full"
	}
	defer func() { metrics.ObserveRebuild(mode, started, err) }()

	known, from, err := r.baseline(ctx, full)
	if err != nil {
		return RebuildResult{}, err
	}
	events, err := r.client.EventsSince(ctx, ledger.EventPropertyListed, from)
	if err != nil {
		return RebuildResult{}, err
	}

	ids := make(map[uint64]struct{}, len(known)+len(events))
	for _, id := range known {
		ids[id] = struct{}{}
	}
	to := from
	discovered := 0
	for _, ev := range events {
		id := ev.Uint("propertyId")
		if id == nil || !id.IsUint64() || id.Sign() == 0 {
			return RebuildResult{}, fmt.Errorf("rebuild: PropertyListed at block %d has no property id", ev.BlockNumber)
		}
		if _, seen := ids[id.Uint64()]; !seen {
			discovered++
		}
		ids[id.Uint64()] = struct{}{}
		if ev.BlockNumber > to {
			to = ev.BlockNumber
		}
	}

	// Ids are assigned sequentially, so the count covers listings whose events were missed.
	count, err := r.market.PropertyCount(ctx)
	if err != nil {
		return RebuildResult{}, err
	}
	for id := uint64(1); id <= count; id++ {
		if _, seen := ids[id]; !seen {
			discovered++
			ids[id] = struct{}{}
		}
	}

	next, err := r.readAll(ctx, ids, to)
	if err != nil {
		return RebuildResult{}, err
	}

	r.mu.Lock()
	for id := range r.touched {
		if cur, ok := r.props[id]; ok {
			next[id] = cur
		}
	}
	r.props = next
	r.cursor = to
	r.loaded = true
	snapshot := make([]domain.Property, 0, len(next))
	for _, p := range next {
		snapshot = append(snapshot, p.Clone())
	}
	r.mu.Unlock()
	metrics.SetRegistrySize(len(snapshot))

	if r.store != nil {
		if err := r.store.SaveSnapshot(ctx, snapshot, to); err != nil {
			log.Warn().Err(err).Uint64("cursor", to).Msg("registry: persist snapshot")
		}
	}

	res = RebuildResult{Full: full, FromBlock: from, ToBlock: to, Discovered: discovered, Properties: len(snapshot)}
	log.Info().Str("mode", mode).Uint64("from_block", from).Uint64("to_block", to).
		Int("discovered", discovered).Int("properties", len(snapshot)).Dur("elapsed", time.Since(started)).
		Msg("registry rebuilt")
	return res, nil
}

// baseline returns the ids already known and the block to replay from.
func (r *Registry) baseline(ctx context.Context, full bool) ([]uint64, uint64, error) {
	if full {
		return nil, 0, nil
	}
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if !loaded && r.store != nil {
		props, cursor, err := r.store.LoadSnapshot(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("rebuild: load snapshot: %w", err)
		}
		ids := make([]uint64, 0, len(props))
		for _, p := range props {
			ids = append(ids, p.ID)
		}
		return ids, cursor, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uint64, 0, len(r.props))
	for id := range r.props {
		ids = append(ids, id)
	}
	return ids, r.cursor, nil
}

func (r *Registry) readAll(ctx context.Context, ids map[uint64]struct{}, block uint64) (map[uint64]domain.Property, error) {
	var mu sync.Mutex
	out := make(map[uint64]domain.Property, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for id := range ids {
		id := id
		g.Go(func() error {
			p, err := r.market.ReadProperty(gctx, id)
			if err != nil {
				return fmt.Errorf("rebuild: read property %d: %w", id, err)
			}
			p.SyncedBlock = block
			mu.Lock()
			out[id] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Confirm refreshes id after a confirmed receipt. A failed read does not fail the operation:
// the result is marked stale and fallback, when given, supplies the record to cache from the
// previous cached value (ok reports whether one existed).
func (r *Registry) Confirm(ctx context.Context, id uint64, rec *ledger.Receipt, reason string,
	fallback func(cached domain.Property, ok bool) (domain.Property, bool)) domain.Confirmation {
	c := domain.Confirmation{PropertyID: id}
	if rec != nil {
		c.TxHash = rec.TxHash.Hex()
		c.BlockNumber = rec.BlockNumber
	}
	p, err := r.RefreshAfter(ctx, id, c.BlockNumber, reason)
	if err == nil {
		c.Property = &p
		return c
	}
	log.Warn().Err(err).Uint64("property_id", id).Str("tx_hash", c.TxHash).
		Msg("registry: refresh after confirmed transaction failed; serving stale view")
	c.Stale = true
	cached, ok := r.Get(id)
	if fallback != nil {
		if next, use := fallback(cached, ok); use {
			next.SyncedBlock = c.BlockNumber
			r.Upsert(ctx, next, reason)
			c.Property = &next
			return c
		}
	}
	if ok {
		c.Property = &cached
	}
	return c
}
