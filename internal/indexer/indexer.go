// Package indexer orchestrates batched ingestion: it fans out RPC calls
// across bounded concurrency, derives secondary aggregates from
// notification streams, and commits each range transactionally before
// advancing. A singleton guard prevents overlapping runs within a process.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"shrike/internal/config"
	"shrike/internal/conversion"
	"shrike/internal/models"
	"shrike/internal/priceclient"
	"shrike/internal/rpcclient"
	"shrike/internal/store"
)

// ErrAlreadyRunning is returned when a run is requested while another is in
// flight; callers map it to a 409 Conflict at the HTTP boundary.
var ErrAlreadyRunning = errors.New("indexer: a run is already in progress")

const flamingoMinBlockIndex = 664000

// flamingoCutoffSeconds is 23:59:40 expressed as seconds-since-midnight,
// compared with strict ">" against a block's time-of-day.
const flamingoCutoffSeconds = 23*3600 + 59*60 + 40

// Pipeline is the indexer's entry point. One instance is expected per
// process; Run and RunOnce share the same singleton guard.
type Pipeline struct {
	rpc     *rpcclient.Client
	price   *priceclient.Client
	store   *store.Store
	cfg     config.IndexerConfig
	running atomic.Bool
}

// New builds a Pipeline over the given clients, store, and configuration.
func New(rpc *rpcclient.Client, price *priceclient.Client, st *store.Store, cfg config.IndexerConfig) *Pipeline {
	return &Pipeline{rpc: rpc, price: price, store: st, cfg: cfg}
}

// Run performs an initial catch-up to the current chain tip and, if
// KeepAlive is configured, continues tailing new blocks until ctx is
// cancelled. It is meant to be the long-running loop started once by the
// process entrypoint.
func (p *Pipeline) Run(ctx context.Context) error {
	for {
		if !p.running.CompareAndSwap(false, true) {
			return ErrAlreadyRunning
		}
		err := p.syncToTip(ctx)
		p.running.Store(false)
		if err != nil {
			return err
		}

		if !p.cfg.KeepAlive {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(p.cfg.KeepAliveInterval) * time.Second):
		}
	}
}

// RunOnce performs a single catch-up to the current chain tip without
// entering a tail loop; it is what the read façade's POST /v1/indexer/run
// triggers. alreadyRunning is true when another run is currently in
// flight, in which case err is always nil and no RPC/store call was made.
func (p *Pipeline) RunOnce(ctx context.Context) (alreadyRunning bool, err error) {
	if !p.running.CompareAndSwap(false, true) {
		return true, nil
	}
	defer p.running.Store(false)

	return false, p.syncToTip(ctx)
}

func (p *Pipeline) syncToTip(ctx context.Context) error {
	chainHeight, err := p.rpc.GetCurrentHeight(ctx)
	if err != nil {
		return fmt.Errorf("indexer: get current height: %w", err)
	}
	stored, err := p.store.LastId(ctx, "blocks")
	if err != nil {
		return fmt.Errorf("indexer: get last indexed height: %w", err)
	}

	if chainHeight < stored {
		log.Printf("[indexer] chain height %d is below stored height %d; skipping without acting", chainHeight, stored)
		return nil
	}

	start := firstSyncHeight(stored, p.cfg.StartBlock)
	for start < chainHeight {
		end := start + p.cfg.BatchSize
		if end > chainHeight {
			end = chainHeight
		}

		if err := p.SyncRange(ctx, start, end); err != nil {
			return fmt.Errorf("indexer: sync range [%d, %d): %w", start, end, err)
		}
		start = end
	}
	return nil
}

// firstSyncHeight picks the floor of the next range to sync: one past the
// highest already-stored block, unless indexer.start_block configures a
// later floor, in which case that floor wins. A start_block at or below
// the stored height has no effect.
func firstSyncHeight(stored, startBlock uint64) uint64 {
	start := stored + 1
	if startBlock > start {
		return startBlock
	}
	return start
}

type heightResult struct {
	height uint64
	block  *rpcclient.BlockResult
	appLog *rpcclient.BlockAppLog
}

type txResult struct {
	blockHeight uint64
	tx          rpcclient.TransactionResult
	appLog      *rpcclient.TransactionAppLog
}

// SyncRange fetches, converts, and commits the half-open block range
// [lo, hi). Fan-out width within a phase is p.workerCount(); phases run
// strictly in sequence. A failure in block fetch, transaction fetch,
// balance derivation, or CommitBatch aborts the whole range with nothing
// persisted, so a retry resumes from the same watermark. The commit steps
// after CommitBatch (contracts, balances, prices) are separate
// transactions: a failure in one of them leaves the range's blocks and
// transactions stored, and the watermark has advanced past it.
func (p *Pipeline) SyncRange(ctx context.Context, lo, hi uint64) error {
	// Phase A: block fetch.
	heights := make([]uint64, 0, hi-lo)
	for h := lo; h < hi; h++ {
		heights = append(heights, h)
	}
	blockResults, err := fanOut(ctx, heights, p.workerCount(), func(ctx context.Context, height uint64) (heightResult, error) {
		block, appLog, err := p.rpc.FetchFullBlock(ctx, height)
		if err != nil {
			return heightResult{}, fmt.Errorf("fetch block %d: %w", height, err)
		}
		return heightResult{height: height, block: block, appLog: appLog}, nil
	})
	if err != nil {
		return err
	}

	// Phase B: transaction envelope flatten.
	var flattened []txResult
	for _, br := range blockResults {
		for _, tx := range br.block.Tx {
			flattened = append(flattened, txResult{
				blockHeight: br.height,
				tx: rpcclient.TransactionResult{
					Hash:            tx.Hash,
					BlockHash:       br.block.Hash,
					Timestamp:       br.block.Time,
					Size:            tx.Size,
					Version:         tx.Version,
					Nonce:           tx.Nonce,
					Sender:          tx.Sender,
					SysFee:          tx.SysFee,
					NetFee:          tx.NetFee,
					ValidUntilBlock: tx.ValidUntilBlock,
					Signers:         tx.Signers,
					Script:          tx.Script,
					Witnesses:       tx.Witnesses,
				},
			})
		}
	}

	// Phase C: transaction app-log fetch.
	fullTxs, err := fanOut(ctx, flattened, p.workerCount(), func(ctx context.Context, item txResult) (txResult, error) {
		_, appLog, err := p.rpc.FetchFullTransaction(ctx, item.tx)
		if err != nil {
			return txResult{}, fmt.Errorf("fetch transaction %s: %w", item.tx.Hash, err)
		}
		item.appLog = appLog
		return item, nil
	})
	if err != nil {
		return err
	}

	// Phase D: price fetch, gated by the end-of-day heuristic, soft-failing
	// to an empty list per block.
	var flamingoPrices []priceclient.FlamingoPrice
	for _, br := range blockResults {
		if !priceGateOpen(br.block.Index, br.block.Time) {
			continue
		}
		prices, err := p.price.GetPricesFromBlock(ctx, br.block.Index)
		if err != nil {
			prices = nil
		}
		for i := range prices {
			idx := br.block.Index
			ts := int64(br.block.Time)
			prices[i].BlockIndex = &idx
			prices[i].Timestamp = &ts
		}
		flamingoPrices = append(flamingoPrices, prices...)
	}

	// Phase E: conversion.
	blocks := make([]models.Block, 0, len(blockResults))
	for _, br := range blockResults {
		blocks = append(blocks, conversion.ToStoreBlock(*br.block, *br.appLog))
	}

	txs := make([]models.Transaction, 0, len(fullTxs))
	for _, ft := range fullTxs {
		txs = append(txs, conversion.ToStoreTransaction(ft.tx, *ft.appLog, ft.blockHeight))
	}

	var contracts []models.Contract
	for _, t := range txs {
		contracts = append(contracts, conversion.DetectContractDeployments(t.ScriptHex, t.Notifications, t.BlockID)...)
	}

	// Phase F: balance derivation. A probe failure (node can't serve historic
	// state for this range) aborts the whole batch rather than committing a
	// partial one.
	balanceGroups, err := fanOut(ctx, txs, p.workerCount(), func(ctx context.Context, t models.Transaction) ([]models.DailyAddressBalance, error) {
		return conversion.DeriveDailyBalances(ctx, t.Notifications, t.BlockID, t.BlockTimeMs, p.rpc)
	})
	if err != nil {
		return fmt.Errorf("indexer: derive daily balances: %w", err)
	}
	var balances []models.DailyAddressBalance
	for _, g := range balanceGroups {
		balances = append(balances, g...)
	}

	prices := make([]models.DailyTokenPrice, 0, len(flamingoPrices))
	for _, fp := range flamingoPrices {
		if fp.BlockIndex == nil || fp.Timestamp == nil {
			continue
		}
		prices = append(prices, models.DailyTokenPrice{
			BlockID:       *fp.BlockIndex,
			TimestampMs:   uint64(*fp.Timestamp),
			TokenContract: fp.Hash,
			Price:         fp.USDPrice,
		})
	}

	// Phase G: commit, each step its own transaction.
	if err := p.store.CommitBatch(ctx, blocks, txs); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	if err := p.store.InsertContracts(ctx, contracts); err != nil {
		return fmt.Errorf("insert contracts: %w", err)
	}
	if err := p.store.UpsertDailyAddressBalances(ctx, balances); err != nil {
		return fmt.Errorf("upsert daily address balances: %w", err)
	}
	if err := p.store.UpsertDailyTokenPrices(ctx, prices); err != nil {
		return fmt.Errorf("upsert daily token prices: %w", err)
	}

	return nil
}

func (p *Pipeline) workerCount() int {
	if p.cfg.WorkerCount > 0 {
		return p.cfg.WorkerCount
	}
	return int(p.cfg.BatchSize)
}

// priceGateOpen implements the end-of-day price-fetch heuristic: strictly
// past block 664000 and strictly past 23:59:40 time-of-day. Both bounds are
// preserved verbatim for compatibility with existing data.
func priceGateOpen(blockIndex uint64, timeMs uint64) bool {
	if blockIndex <= flamingoMinBlockIndex {
		return false
	}
	t := time.UnixMilli(int64(timeMs)).UTC()
	secondsOfDay := t.Hour()*3600 + t.Minute()*60 + t.Second()
	return secondsOfDay > flamingoCutoffSeconds
}

// fanOut runs fn over items with bounded concurrency, preserving input
// order in the result slice (each goroutine writes to its own pre-assigned
// index, so no sort is needed afterward). The first error observed is
// returned once every goroutine has finished.
func fanOut[T, R any](ctx context.Context, items []T, workers int, fn func(context.Context, T) (R, error)) ([]R, error) {
	if workers <= 0 {
		workers = 1
	}

	results := make([]R, len(items))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	for i, item := range items {
		sem <- struct{}{}
		wg.Add(1)
		go func(idx int, it T) {
			defer wg.Done()
			defer func() { <-sem }()

			r, err := fn(ctx, it)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			results[idx] = r
		}(i, item)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
