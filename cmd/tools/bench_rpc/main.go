// Command bench_rpc measures round-trip latency of the node calls the
// indexer pipeline makes per block, against the RPC endpoint in config.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"shrike/internal/config"
	"shrike/internal/rpcclient"
)

func main() {
	height := flag.Uint64("height", 0, "starting block height to benchmark (0 = the most recent -count blocks)")
	count := flag.Int("count", 5, "number of consecutive blocks to fetch")
	flag.Parse()

	cfg, err := config.Load("config/default.toml", "config/local.toml")
	if err != nil {
		log.Fatalf("bench_rpc: load config: %v", err)
	}

	c := rpcclient.New(cfg.RPC.BaseURL, time.Duration(cfg.RPC.TimeoutMs)*time.Millisecond)
	ctx := context.Background()

	start := *height
	if start == 0 {
		t0 := time.Now()
		tip, err := c.GetCurrentHeight(ctx)
		if err != nil {
			log.Fatalf("bench_rpc: GetCurrentHeight: %v", err)
		}
		fmt.Printf("GetCurrentHeight: OK [%v] height=%d\n", time.Since(t0), tip)
		start = tip - uint64(*count)
	}

	fmt.Printf("\n========== %s (from height=%d, count=%d) ==========\n", cfg.RPC.BaseURL, start, *count)

	var totalBlock, totalFull time.Duration
	for i := 0; i < *count; i++ {
		h := start + uint64(i)

		t0 := time.Now()
		block, err := c.GetBlock(ctx, h)
		d := time.Since(t0)
		totalBlock += d
		if err != nil {
			fmt.Printf("  GetBlock[%d]: FAIL (%v) [%v]\n", h, err, d)
			continue
		}
		fmt.Printf("  GetBlock[%d]: OK [%v] txs=%d\n", h, d, len(block.Tx))

		t1 := time.Now()
		if _, _, err := c.FetchFullBlock(ctx, h); err != nil {
			fmt.Printf("  FetchFullBlock[%d]: FAIL (%v) [%v]\n", h, err, time.Since(t1))
			continue
		}
		df := time.Since(t1)
		totalFull += df
		fmt.Printf("  FetchFullBlock[%d] (block+applog): OK [%v]\n", h, df)
	}

	fmt.Printf("\n%d blocks: GetBlock avg=%v, FetchFullBlock avg=%v\n",
		*count, totalBlock/time.Duration(*count), totalFull/time.Duration(*count))
}
