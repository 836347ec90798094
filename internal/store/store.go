// Package store owns shrike's on-disk SQLite database: schema, indexes, and
// the atomic batch-commit operations the indexer depends on for
// resumability. Correctness of the composite unique keys and upsert
// semantics here is as much a part of the indexer's contract as the
// pipeline code that calls it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"shrike/internal/models"
)

// Store wraps two pools over the same SQLite file: rw serves the indexer's
// writes (a single connection, since SQLite allows one writer at a time);
// ro serves the read façade and may hold several concurrent connections,
// since WAL permits concurrent readers during a writer.
type Store struct {
	rw *sql.DB
	ro *sql.DB
}

// Open opens (or creates) the SQLite file at path, enables WAL mode
// idempotently, and ensures the schema and all required indexes exist.
func Open(path string) (*Store, error) {
	rw, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open rw pool: %w", err)
	}
	rw.SetMaxOpenConns(1)

	ro, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&mode=ro")
	if err != nil {
		rw.Close()
		return nil, fmt.Errorf("store: open ro pool: %w", err)
	}

	s := &Store{rw: rw, ro: ro}
	if err := s.migrate(); err != nil {
		rw.Close()
		ro.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	var mode string
	if err := s.rw.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		return fmt.Errorf("store: read journal_mode: %w", err)
	}
	if !strings.EqualFold(mode, "wal") {
		if _, err := s.rw.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("store: set WAL mode: %w", err)
		}
	}

	for _, stmt := range strings.Split(schema, ";\n\n") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.rw.Exec(stmt); err != nil {
			return fmt.Errorf("store: apply schema: %w", err)
		}
	}

	for _, idx := range indexes {
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", idx.name, idx.table, idx.column)
		if _, err := s.rw.Exec(stmt); err != nil {
			return fmt.Errorf("store: create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// Close closes both pools.
func (s *Store) Close() error {
	err1 := s.rw.Close()
	err2 := s.ro.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// ReadPool exposes the read-only pool for the façade's query layer.
func (s *Store) ReadPool() *sql.DB { return s.ro }

var lastIDTables = map[string]bool{
	"blocks":                    true,
	"transactions":              true,
	"contracts":                 true,
	"daily_address_balances":    true,
	"daily_token_price_history": true,
}

// LastId returns max(id) for table, or 0 if the table is empty. table must
// be one of the tables in lastIDTables; LastId("blocks") is the indexer's
// resume watermark.
func (s *Store) LastId(ctx context.Context, table string) (uint64, error) {
	if !lastIDTables[table] {
		return 0, fmt.Errorf("store: LastId: unknown table %q", table)
	}

	var id sql.NullInt64
	query := fmt.Sprintf("SELECT MAX(id) FROM %s", table)
	if err := s.rw.QueryRowContext(ctx, query).Scan(&id); err != nil {
		return 0, fmt.Errorf("store: LastId(%s): %w", table, err)
	}
	if !id.Valid {
		return 0, nil
	}
	return uint64(id.Int64), nil
}

// CommitBatch inserts blocks and transactions (with their witnesses,
// notifications, and ordered state values) in a single transaction, and
// bumps daily_contract_usage for every notification. On any failure the
// whole batch rolls back and the watermark is unchanged.
func (s *Store) CommitBatch(ctx context.Context, blocks []models.Block, transactions []models.Transaction) error {
	tx, err := s.rw.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin CommitBatch: %w", err)
	}
	defer tx.Rollback()

	for _, b := range blocks {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO blocks (
				hash, size, version, merkle_root, time_ms, nonce, speaker,
				next_consensus, reward, reward_receiver_address
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.Hash, b.Size, b.Version, b.MerkleRoot, b.TimeMs, b.Nonce, b.Speaker,
			b.NextConsensus, b.Reward, b.RewardReceiverAddress)
		if err != nil {
			return fmt.Errorf("store: insert block %s: %w", b.Hash, err)
		}
		blockID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("store: block %s last insert id: %w", b.Hash, err)
		}

		for _, w := range b.Witnesses {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO witnesses (block_id, tx_id, invocation, verification)
				VALUES (?, NULL, ?, ?)`, blockID, w.Invocation, w.Verification); err != nil {
				return fmt.Errorf("store: insert block witness: %w", err)
			}
		}
	}

	for _, t := range transactions {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (
				hash, block_id, vm_state, size, version, nonce, sender_address,
				sysfee_str, netfee_str, valid_until, signers_json, script_hex, stack_result_json
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Hash, t.BlockID, t.VMState, t.Size, t.Version, t.Nonce, t.SenderAddress,
			t.SysFee, t.NetFee, t.ValidUntil, t.SignersJSON, t.ScriptHex, nullableString(t.StackResultJSON))
		if err != nil {
			return fmt.Errorf("store: insert transaction %s: %w", t.Hash, err)
		}
		txID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("store: transaction %s last insert id: %w", t.Hash, err)
		}

		for _, w := range t.Witnesses {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO witnesses (block_id, tx_id, invocation, verification)
				VALUES (NULL, ?, ?, ?)`, txID, w.Invocation, w.Verification); err != nil {
				return fmt.Errorf("store: insert tx witness: %w", err)
			}
		}

		for _, n := range t.Notifications {
			nres, err := tx.ExecContext(ctx, `
				INSERT INTO transaction_notifications (transaction_hash, contract_hash, event_name, state_type)
				VALUES (?, ?, ?, ?)`, t.Hash, n.ContractHash, n.EventName, n.StateType)
			if err != nil {
				return fmt.Errorf("store: insert notification: %w", err)
			}
			notificationID, err := nres.LastInsertId()
			if err != nil {
				return fmt.Errorf("store: notification last insert id: %w", err)
			}

			for _, sv := range n.StateValues {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO notification_state_values (notification_id, type_tag, value_text)
					VALUES (?, ?, ?)`, notificationID, sv.TypeTag, sv.ValueText); err != nil {
					return fmt.Errorf("store: insert state value: %w", err)
				}
			}

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO daily_contract_usage (date, contract, usage_int)
				VALUES (strftime('%Y-%m-%d', ?/1000, 'unixepoch'), ?, 1)
				ON CONFLICT (date, contract) DO UPDATE SET usage_int = usage_int + 1`,
				t.BlockTimeMs, n.ContractHash); err != nil {
				return fmt.Errorf("store: bump daily_contract_usage: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit batch: %w", err)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// InsertContracts bulk inserts deploy-event rows. Conflict on hash is a hard
// error: deploy events are expected unique.
func (s *Store) InsertContracts(ctx context.Context, contracts []models.Contract) error {
	if len(contracts) == 0 {
		return nil
	}

	tx, err := s.rw.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin InsertContracts: %w", err)
	}
	defer tx.Rollback()

	for _, c := range contracts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO contracts (block_id, hash, contract_type_json) VALUES (?, ?, ?)`,
			c.BlockID, c.Hash, c.ContractTypeJSON); err != nil {
			return fmt.Errorf("store: insert contract %s: %w", c.Hash, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit contracts: %w", err)
	}
	return nil
}

// UpsertDailyAddressBalances bulk upserts keyed on (date, address,
// token_contract); last-writer-wins on balance and block_id.
func (s *Store) UpsertDailyAddressBalances(ctx context.Context, balances []models.DailyAddressBalance) error {
	if len(balances) == 0 {
		return nil
	}

	tx, err := s.rw.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin UpsertDailyAddressBalances: %w", err)
	}
	defer tx.Rollback()

	for _, b := range balances {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO daily_address_balances (block_id, date, address, token_contract, balance_i64)
			VALUES (?, strftime('%Y-%m-%d', ?/1000, 'unixepoch'), ?, ?, ?)
			ON CONFLICT (date, address, token_contract)
			DO UPDATE SET balance_i64 = excluded.balance_i64, block_id = excluded.block_id`,
			b.BlockID, b.TimestampMs, b.Address, b.TokenContract, b.Balance); err != nil {
			return fmt.Errorf("store: upsert daily address balance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit daily address balances: %w", err)
	}
	return nil
}

// UpsertDailyTokenPrices bulk upserts keyed on (date, token_contract);
// last-writer-wins on price and block_id.
func (s *Store) UpsertDailyTokenPrices(ctx context.Context, prices []models.DailyTokenPrice) error {
	if len(prices) == 0 {
		return nil
	}

	tx, err := s.rw.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin UpsertDailyTokenPrices: %w", err)
	}
	defer tx.Rollback()

	for _, p := range prices {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO daily_token_price_history (block_id, date, token_contract, price_float)
			VALUES (?, strftime('%Y-%m-%d', ?/1000, 'unixepoch'), ?, ?)
			ON CONFLICT (date, token_contract)
			DO UPDATE SET price_float = excluded.price_float, block_id = excluded.block_id`,
			p.BlockID, p.TimestampMs, p.TokenContract, p.Price); err != nil {
			return fmt.Errorf("store: upsert daily token price: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit daily token prices: %w", err)
	}
	return nil
}

// SetCheckpoint records the resume watermark for a named runner.
func (s *Store) SetCheckpoint(ctx context.Context, serviceName string, lastHeight uint64, updatedAt int64) error {
	_, err := s.rw.ExecContext(ctx, `
		INSERT INTO indexing_checkpoints (service_name, last_height, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (service_name) DO UPDATE SET last_height = excluded.last_height, updated_at = excluded.updated_at`,
		serviceName, lastHeight, updatedAt)
	if err != nil {
		return fmt.Errorf("store: set checkpoint %s: %w", serviceName, err)
	}
	return nil
}
