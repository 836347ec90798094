package api

import (
	"context"
	"log"
	"sync"
	"time"

	"shrike/internal/store"
)

// statsSnapshot is the aggregate payload served by GET /v1/stats. Every
// field is a cheap COUNT(*)/MAX(id)/SUM aggregate recomputed periodically
// rather than on every request.
type statsSnapshot struct {
	TotalBlocks             uint64  `json:"total_blocks"`
	TotalTransactions       uint64  `json:"total_transactions"`
	TotalSysFee             float64 `json:"total_sysfee"`
	TotalTransfers          uint64  `json:"total_transfers"`
	TotalSenders            uint64  `json:"total_senders"`
	TotalContracts          uint64  `json:"total_contracts"`
	ContractsCurrentWeek    uint64  `json:"contracts_current_week"`
	TransactionsCurrentWeek uint64  `json:"transactions_current_week"`
}

const statsRefreshInterval = 15 * time.Second

// statsCache holds the latest snapshot behind a RWMutex, following the same
// swap-the-whole-struct pattern as internal/market's price cache: the
// refresher runs its queries without holding the lock, so readers wait only
// for the snapshot assignment itself.
type statsCache struct {
	mu   sync.RWMutex
	snap statsSnapshot
}

func newStatsCache() *statsCache {
	return &statsCache{}
}

func (c *statsCache) get() statsSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

func (c *statsCache) set(snap statsSnapshot) {
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
}

// refreshLoop recomputes the snapshot on a fixed tick until ctx-less
// process exit; it is started once from Server.Start. A failed refresh
// logs and keeps the previous snapshot rather than zeroing it out.
func (c *statsCache) refreshLoop(st *store.Store) {
	ticker := time.NewTicker(statsRefreshInterval)
	defer ticker.Stop()

	c.refreshOnce(st)
	for range ticker.C {
		c.refreshOnce(st)
	}
}

func (c *statsCache) refreshOnce(st *store.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var snap statsSnapshot
	var err error

	if snap.TotalBlocks, err = st.StatTotalBlocks(ctx); err != nil {
		log.Printf("[api] stats refresh: %v", err)
		return
	}
	if snap.TotalTransactions, err = st.StatTotalTransactions(ctx); err != nil {
		log.Printf("[api] stats refresh: %v", err)
		return
	}
	if snap.TotalSysFee, err = st.StatTotalSysFee(ctx); err != nil {
		log.Printf("[api] stats refresh: %v", err)
		return
	}
	if snap.TotalTransfers, err = st.StatTotalTransfers(ctx); err != nil {
		log.Printf("[api] stats refresh: %v", err)
		return
	}
	if snap.TotalSenders, err = st.StatTotalSenders(ctx); err != nil {
		log.Printf("[api] stats refresh: %v", err)
		return
	}
	if snap.TotalContracts, err = st.StatTotalContracts(ctx); err != nil {
		log.Printf("[api] stats refresh: %v", err)
		return
	}
	if snap.ContractsCurrentWeek, err = st.StatContractsCurrentWeek(ctx); err != nil {
		log.Printf("[api] stats refresh: %v", err)
		return
	}
	if snap.TransactionsCurrentWeek, err = st.StatTransactionsCurrentWeek(ctx); err != nil {
		log.Printf("[api] stats refresh: %v", err)
		return
	}

	c.set(snap)
}
