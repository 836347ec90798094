// Command reset_checkpoint sets a named runner's last_height in
// indexing_checkpoints to 0. The indexer pipeline does not read this
// table: it resumes from the highest stored block id, so this reset does
// not change where the pipeline's next run starts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"shrike/internal/config"
	"shrike/internal/store"
)

func main() {
	serviceName := flag.String("service", "indexer", "checkpoint service_name to reset")
	flag.Parse()

	cfg, err := config.Load("config/default.toml", "config/local.toml")
	if err != nil {
		log.Fatalf("reset_checkpoint: load config: %v", err)
	}

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		log.Fatalf("reset_checkpoint: resolve db path: %v", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("reset_checkpoint: open store: %v", err)
	}
	defer st.Close()

	if err := st.SetCheckpoint(context.Background(), *serviceName, 0, time.Now().Unix()); err != nil {
		log.Fatalf("reset_checkpoint: reset %q: %v", *serviceName, err)
	}
	fmt.Printf("checkpoint for %q reset to 0\n", *serviceName)
}

func resolveDBPath(cfg *config.Config) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	network := "default"
	if u, err := url.Parse(cfg.RPC.BaseURL); err == nil && u.Hostname() != "" {
		network = u.Hostname()
	}
	dir := cfg.Database.Dir
	if dir == "" || dir == "data" {
		dir = filepath.Join(base, "shrike", network)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "shrike.db3"), nil
}
