package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/safecoin/interest-api/database/models"
	"github.com/safecoin/interest-api/types"
	"golang.org/x/sync/errgroup"
)

var (
	ErrQueueFull = errors.New("fetch queue is full")
	ErrStopped   = errors.New("fetcher stopped")
)

// Source is where balances and outputs come from.
type Source interface {
	Balance(ctx context.Context, address string) (types.BalanceInfo, error)
	Unspents(ctx context.Context, address string) ([]types.UnspentOutput, error)
}

// Store caches what the source returned.
type Store interface {
	SaveBalance(ctx context.Context, address string, info types.BalanceInfo) error
	DeleteBalance(ctx context.Context, address string) error
	SaveUnspents(ctx context.Context, address string, outputs []types.UnspentOutput) error
	GetUnspents(ctx context.Context, filter models.Filter) ([]types.UnspentOutput, error)
	GetLastFetch(ctx context.Context, address string) (*models.LastFetch, error)
}

type jobKind int

const (
	balanceJob jobKind = iota
	utxosJob
)

type job struct {
	kind         jobKind
	address      string
	balanceReply func(types.BalanceInfo)
	utxosReply   func([]types.UnspentOutput, error)
}

// Fetcher answers view requests from a pool of workers.
type Fetcher struct {
	// mu guards stopped against enqueues racing the final drain
	mu      sync.RWMutex
	stopped bool

	source  Source
	store   Store
	jobs    chan job
	workers int
	timeout time.Duration
	logger  *slog.Logger
}

type FetcherOpts struct {
	Source    Source
	Store     Store
	Logger    *slog.Logger
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

func NewFetcher(opts FetcherOpts) *Fetcher {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 64
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	return &Fetcher{
		source:  opts.Source,
		store:   opts.Store,
		jobs:    make(chan job, opts.QueueSize),
		workers: opts.Workers,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
}

// Run processes queued requests until ctx is cancelled. Requests still
// queued at that point, and any made afterwards, are answered with ErrStopped.
func (f *Fetcher) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < f.workers; i++ {
		g.Go(func() error {
			return f.work(gctx)
		})
	}

	f.logger.Info("fetcher started", "workers", f.workers)

	err := g.Wait()
	f.stop()

	return err
}

func (f *Fetcher) stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()

	drained := 0
	for {
		select {
		case j := <-f.jobs:
			f.fail(j, ErrStopped)
			drained++
		default:
			f.logger.Info("fetcher stopped", "abandoned", drained)
			return
		}
	}
}

// fail answers j without doing it.
func (f *Fetcher) fail(j job, err error) {
	switch j.kind {
	case balanceJob:
		j.balanceReply(types.FailedBalance(types.CodeTransport, err.Error()))
	case utxosJob:
		j.utxosReply(nil, err)
	}
}

func (f *Fetcher) work(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-f.jobs:
			f.handle(ctx, j)
		}
	}
}

func (f *Fetcher) RequestBalance(address string, reply func(types.BalanceInfo)) {
	f.enqueue(job{kind: balanceJob, address: address, balanceReply: reply})
}

func (f *Fetcher) RequestUtxos(address string, reply func([]types.UnspentOutput, error)) {
	f.enqueue(job{kind: utxosJob, address: address, utxosReply: reply})
}

// enqueue never blocks. Rejected jobs are answered from a new goroutine
// since the caller may still hold locks.
func (f *Fetcher) enqueue(j job) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.stopped {
		go f.fail(j, ErrStopped)
		return
	}

	select {
	case f.jobs <- j:
	default:
		f.logger.Warn("dropping request", "address", j.address, "error", ErrQueueFull)
		switch j.kind {
		case balanceJob:
			go j.balanceReply(types.FailedBalance(types.CodeBusy, ErrQueueFull.Error()))
		case utxosJob:
			go j.utxosReply(nil, ErrQueueFull)
		}
	}
}

// ResetInterestState forgets the cached balance of address.
func (f *Fetcher) ResetInterestState(address string) {
	if f.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	if err := f.store.DeleteBalance(ctx, address); err != nil {
		f.logger.Error("failed to reset interest state", "address", address, "error", err)
	}
}

func (f *Fetcher) handle(ctx context.Context, j job) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	switch j.kind {
	case balanceJob:
		j.balanceReply(f.balance(ctx, j.address))
	case utxosJob:
		j.utxosReply(f.unspents(ctx, j.address))
	}
}

func (f *Fetcher) balance(ctx context.Context, address string) types.BalanceInfo {
	info, err := f.source.Balance(ctx, address)
	if err != nil {
		f.logger.Warn("balance lookup failed", "address", address, "error", err)
		return LookupFailure(err)
	}

	if f.store != nil {
		if err := f.store.SaveBalance(ctx, address, info); err != nil {
			f.logger.Error("failed to cache balance", "address", address, "error", err)
		}
	}

	return info
}

func (f *Fetcher) unspents(ctx context.Context, address string) ([]types.UnspentOutput, error) {
	outputs, err := f.source.Unspents(ctx, address)
	if err != nil {
		return f.cachedUnspents(ctx, address, err)
	}

	if f.store != nil {
		if err := f.store.SaveUnspents(ctx, address, outputs); err != nil {
			f.logger.Error("failed to cache unspents", "address", address, "error", err)
		}
	}

	return outputs, nil
}

// cachedUnspents falls back to the last snapshot when the node is unavailable.
// The snapshot comes with a *types.StaleError.
func (f *Fetcher) cachedUnspents(ctx context.Context, address string, cause error) ([]types.UnspentOutput, error) {
	if f.store == nil {
		return nil, fmt.Errorf("failed to fetch unspents: %w", cause)
	}

	cached, err := f.store.GetUnspents(ctx, models.Filter{Address: address})
	if err != nil || len(cached) == 0 {
		return nil, fmt.Errorf("failed to fetch unspents: %w", cause)
	}

	stale := &types.StaleError{Err: cause}
	last, err := f.store.GetLastFetch(ctx, address)
	if err != nil {
		f.logger.Error("failed to get last fetch", "address", address, "error", err)
	} else if last != nil {
		stale.FetchedAt = last.FetchedAt
	}

	f.logger.Warn("serving cached unspents", "address", address, "count", len(cached), "fetched_at", stale.FetchedAt, "error", cause)

	return cached, stale
}

// LookupFailure converts a source error into a failed BalanceInfo, keeping
// the node's error code when there is one.
func LookupFailure(err error) types.BalanceInfo {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return types.FailedBalance(types.ErrorCode(rpcErr.ErrorCode()), rpcErr.Error())
	}
	return types.FailedBalance(types.CodeTransport, err.Error())
}
