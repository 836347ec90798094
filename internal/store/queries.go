package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"shrike/internal/models"
	"shrike/internal/neoutil"
)

// ErrNotFound is returned when a well-formed identifier (height, hash,
// address) resolves to no row. The read façade maps it to HTTP 404.
var ErrNotFound = errors.New("store: not found")

// ErrInvalidInput is returned when a caller-supplied identifier or
// pagination parameter is malformed. The read façade maps most occurrences
// to a 200 response carrying an error body, per the validation policy in
// spec.md's Error Handling Design table.
var ErrInvalidInput = errors.New("store: invalid input")

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func looksLikeHash(s string) bool {
	if !strings.HasPrefix(s, "0x") || len(s) != 66 {
		return false
	}
	for _, c := range s[2:] {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// resolveBlockID accepts a decimal height or a "0x"-prefixed 32-byte hash
// and returns the matching block's surrogate id.
func (s *Store) resolveBlockID(ctx context.Context, idOrHash string) (uint64, error) {
	trimmed := strings.TrimSpace(idOrHash)
	if height, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
		var exists bool
		if err := s.ro.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM blocks WHERE id = ?)", height).Scan(&exists); err != nil {
			return 0, fmt.Errorf("store: resolve block id %d: %w", height, err)
		}
		if !exists {
			return 0, ErrNotFound
		}
		return height, nil
	}

	if !looksLikeHash(trimmed) {
		return 0, fmt.Errorf("%w: invalid block hash %q", ErrInvalidInput, idOrHash)
	}

	var id uint64
	err := s.ro.QueryRowContext(ctx, "SELECT id FROM blocks WHERE hash = ?", trimmed).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("store: resolve block hash %s: %w", trimmed, err)
	}
	return id, nil
}

const blockColumns = "id, hash, size, version, merkle_root, time_ms, nonce, speaker, next_consensus, reward, reward_receiver_address"

func scanBlock(row rowScanner) (models.Block, error) {
	var b models.Block
	err := row.Scan(&b.ID, &b.Hash, &b.Size, &b.Version, &b.MerkleRoot, &b.TimeMs, &b.Nonce, &b.Speaker, &b.NextConsensus, &b.Reward, &b.RewardReceiverAddress)
	return b, err
}

// GetBlock resolves idOrHash (decimal height or hex hash) and returns the
// block with its witnesses loaded.
func (s *Store) GetBlock(ctx context.Context, idOrHash string) (*models.Block, error) {
	id, err := s.resolveBlockID(ctx, idOrHash)
	if err != nil {
		return nil, err
	}

	row := s.ro.QueryRowContext(ctx, "SELECT "+blockColumns+" FROM blocks WHERE id = ?", id)
	b, err := scanBlock(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get block %d: %w", id, err)
	}

	witnesses, err := s.loadWitnesses(ctx, "block_id", id)
	if err != nil {
		return nil, err
	}
	b.Witnesses = witnesses
	return &b, nil
}

// GetBlockTime returns a resolved block's time_ms, used to enrich
// transaction-derived views that need the owning block's timestamp.
func (s *Store) GetBlockTime(ctx context.Context, idOrHash string) (uint64, error) {
	id, err := s.resolveBlockID(ctx, idOrHash)
	if err != nil {
		return 0, err
	}
	return s.blockTimeByID(ctx, id)
}

func (s *Store) blockTimeByID(ctx context.Context, id uint64) (uint64, error) {
	var t uint64
	if err := s.ro.QueryRowContext(ctx, "SELECT time_ms FROM blocks WHERE id = ?", id).Scan(&t); err != nil {
		return 0, fmt.Errorf("store: block time by id %d: %w", id, err)
	}
	return t, nil
}

func (s *Store) loadWitnesses(ctx context.Context, ownerColumn string, ownerID uint64) ([]models.Witness, error) {
	query := fmt.Sprintf("SELECT invocation, verification FROM witnesses WHERE %s = ?", ownerColumn)
	rows, err := s.ro.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("store: load witnesses: %w", err)
	}
	defer rows.Close()

	var out []models.Witness
	for rows.Next() {
		var w models.Witness
		if err := rows.Scan(&w.Invocation, &w.Verification); err != nil {
			return nil, fmt.Errorf("store: scan witness: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

const transactionColumns = "id, hash, block_id, vm_state, size, version, nonce, sender_address, sysfee_str, netfee_str, valid_until, signers_json, script_hex, stack_result_json"

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var t models.Transaction
	var stackResult sql.NullString
	err := row.Scan(&t.ID, &t.Hash, &t.BlockID, &t.VMState, &t.Size, &t.Version, &t.Nonce, &t.SenderAddress,
		&t.SysFee, &t.NetFee, &t.ValidUntil, &t.SignersJSON, &t.ScriptHex, &stackResult)
	if err != nil {
		return models.Transaction{}, err
	}
	if stackResult.Valid {
		t.StackResultJSON = stackResult.String
	}
	return t, nil
}

// ListBlockTransactions returns a resolved block's transactions without
// witnesses or notifications loaded, matching the teacher's block-listing
// endpoints which intentionally keep per-transaction payloads lean.
func (s *Store) ListBlockTransactions(ctx context.Context, idOrHash string) ([]models.Transaction, error) {
	id, err := s.resolveBlockID(ctx, idOrHash)
	if err != nil {
		return nil, err
	}

	rows, err := s.ro.QueryContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE block_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("store: list block transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan block transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTransactionByHash returns a transaction with its witnesses and full
// notification (with ordered state values) tree loaded.
func (s *Store) GetTransactionByHash(ctx context.Context, hash string) (*models.Transaction, error) {
	row := s.ro.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE hash = ?", hash)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get transaction %s: %w", hash, err)
	}

	witnesses, err := s.loadWitnesses(ctx, "tx_id", t.ID)
	if err != nil {
		return nil, err
	}
	t.Witnesses = witnesses

	notifications, err := s.loadNotifications(ctx, t.Hash)
	if err != nil {
		return nil, err
	}
	t.Notifications = notifications

	return &t, nil
}

func (s *Store) loadNotifications(ctx context.Context, txHash string) ([]models.TransactionNotification, error) {
	rows, err := s.ro.QueryContext(ctx, `
		SELECT id, transaction_hash, contract_hash, event_name, state_type
		FROM transaction_notifications
		WHERE transaction_hash = ?
		ORDER BY id`, txHash)
	if err != nil {
		return nil, fmt.Errorf("store: load notifications: %w", err)
	}

	var out []models.TransactionNotification
	for rows.Next() {
		var n models.TransactionNotification
		if err := rows.Scan(&n.ID, &n.TransactionHash, &n.ContractHash, &n.EventName, &n.StateType); err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		values, err := s.loadStateValues(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].StateValues = values
	}
	return out, nil
}

func (s *Store) loadStateValues(ctx context.Context, notificationID uint64) ([]models.NotificationStateValue, error) {
	rows, err := s.ro.QueryContext(ctx, `
		SELECT id, notification_id, type_tag, value_text
		FROM notification_state_values
		WHERE notification_id = ?
		ORDER BY id`, notificationID)
	if err != nil {
		return nil, fmt.Errorf("store: load state values: %w", err)
	}
	defer rows.Close()

	var out []models.NotificationStateValue
	for rows.Next() {
		var v models.NotificationStateValue
		var text sql.NullString
		if err := rows.Scan(&v.ID, &v.NotificationID, &v.TypeTag, &text); err != nil {
			return nil, fmt.Errorf("store: scan state value: %w", err)
		}
		if text.Valid {
			v.ValueText = &text.String
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

var sortColumnsIDOnly = map[string]bool{"id": true}
var sortColumnsIDOrDate = map[string]bool{"id": true, "date": true}

// orderClause builds a validated "ORDER BY" fragment, or an empty string
// when no sort was requested. sortBy/order are checked against allowed
// before being interpolated, since a table/column name cannot be a bind
// parameter in SQLite.
func orderClause(sortBy, order string, allowed map[string]bool) (string, error) {
	if sortBy == "" && order == "" {
		return "", nil
	}
	if !allowed[sortBy] {
		return "", fmt.Errorf("%w: invalid sort_by %q", ErrInvalidInput, sortBy)
	}
	lowered := strings.ToLower(order)
	if lowered != "asc" && lowered != "desc" {
		return "", fmt.Errorf("%w: invalid order %q", ErrInvalidInput, order)
	}
	return fmt.Sprintf(" ORDER BY %s %s", sortBy, lowered), nil
}

// ListSenderTransactions returns transactions sent by address, paginated.
func (s *Store) ListSenderTransactions(ctx context.Context, address string, page, perPage int, sortBy, order string) ([]models.Transaction, error) {
	clause, err := orderClause(sortBy, order, sortColumnsIDOnly)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + transactionColumns + " FROM transactions WHERE sender_address = ?" + clause + " LIMIT ? OFFSET ?"
	rows, err := s.ro.QueryContext(ctx, query, address, perPage, page*perPage)
	if err != nil {
		return nil, fmt.Errorf("store: list sender transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan sender transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListAddressTransfers finds transactions whose notifications reference
// address (matched against the same base64 encoding the indexer persists),
// loads each one's full notification tree and owning block time, and splits
// the result by whether address is the transaction's sender.
func (s *Store) ListAddressTransfers(ctx context.Context, address string, page, perPage int, sortBy, order string) (asSender, asParticipant []models.Transaction, err error) {
	// The join against transaction_notifications/notification_state_values
	// makes a bare "id" ambiguous, so this query needs its own "t."-qualified
	// clause; the shared orderClause helper only validates sortBy/order here.
	clause, err := orderClause(sortBy, order, sortColumnsIDOnly)
	if err != nil {
		return nil, nil, err
	}
	if clause != "" {
		clause = " ORDER BY t.id " + strings.ToLower(order)
	}

	base64Value, err := neoutil.AddressToBase64(address)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid address %q", ErrInvalidInput, address)
	}

	query := `
		SELECT t.` + strings.ReplaceAll(transactionColumns, ", ", ", t.") + `
		FROM transactions t
		INNER JOIN transaction_notifications tn ON tn.transaction_hash = t.hash
		INNER JOIN notification_state_values nsv ON tn.id = nsv.notification_id
		WHERE nsv.value_text = ?
		GROUP BY t.hash` + clause + ` LIMIT ? OFFSET ?`

	rows, err := s.ro.QueryContext(ctx, query, base64Value, perPage, page*perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("store: list address transfers: %w", err)
	}

	var txs []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("store: scan transfer transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, nil, err
	}
	rows.Close()

	for i := range txs {
		notifications, err := s.loadNotifications(ctx, txs[i].Hash)
		if err != nil {
			return nil, nil, err
		}
		txs[i].Notifications = notifications

		blockTime, err := s.blockTimeByID(ctx, txs[i].BlockID)
		if err != nil {
			return nil, nil, err
		}
		txs[i].BlockTimeMs = blockTime

		if txs[i].SenderAddress == address {
			asSender = append(asSender, txs[i])
		} else {
			asParticipant = append(asParticipant, txs[i])
		}
	}
	return asSender, asParticipant, nil
}

// ListDailyAddressBalances range-queries daily_address_balances for
// address+token between dateInit and dateEnd (inclusive), paginated.
func (s *Store) ListDailyAddressBalances(ctx context.Context, address, token string, page, perPage int, sortBy, order, dateInit, dateEnd string) ([]models.DailyAddressBalance, error) {
	clause, err := orderClause(sortBy, order, sortColumnsIDOrDate)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, block_id, date, address, token_contract, balance_i64
		FROM daily_address_balances
		WHERE address = ? AND token_contract = ? AND date BETWEEN ? AND ?` + clause + ` LIMIT ? OFFSET ?`
	rows, err := s.ro.QueryContext(ctx, query, address, token, dateInit, dateEnd, perPage, page*perPage)
	if err != nil {
		return nil, fmt.Errorf("store: list daily address balances: %w", err)
	}
	defer rows.Close()

	var out []models.DailyAddressBalance
	for rows.Next() {
		var b models.DailyAddressBalance
		if err := rows.Scan(&b.ID, &b.BlockID, &b.Date, &b.Address, &b.TokenContract, &b.Balance); err != nil {
			return nil, fmt.Errorf("store: scan daily address balance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListDailyTokenPrices range-queries daily_token_price_history for token
// between dateInit and dateEnd (inclusive), paginated.
func (s *Store) ListDailyTokenPrices(ctx context.Context, token string, page, perPage int, sortBy, order, dateInit, dateEnd string) ([]models.DailyTokenPrice, error) {
	clause, err := orderClause(sortBy, order, sortColumnsIDOrDate)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, block_id, date, token_contract, price_float
		FROM daily_token_price_history
		WHERE token_contract = ? AND date BETWEEN ? AND ?` + clause + ` LIMIT ? OFFSET ?`
	rows, err := s.ro.QueryContext(ctx, query, token, dateInit, dateEnd, perPage, page*perPage)
	if err != nil {
		return nil, fmt.Errorf("store: list daily token prices: %w", err)
	}
	defer rows.Close()

	var out []models.DailyTokenPrice
	for rows.Next() {
		var p models.DailyTokenPrice
		if err := rows.Scan(&p.ID, &p.BlockID, &p.Date, &p.TokenContract, &p.Price); err != nil {
			return nil, fmt.Errorf("store: scan daily token price: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListDailyContractUsage range-queries daily_contract_usage for contract
// between dateInit and dateEnd (inclusive), paginated.
func (s *Store) ListDailyContractUsage(ctx context.Context, contract string, page, perPage int, sortBy, order, dateInit, dateEnd string) ([]models.DailyContractUsage, error) {
	clause, err := orderClause(sortBy, order, sortColumnsIDOrDate)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, date, contract, usage_int
		FROM daily_contract_usage
		WHERE contract = ? AND date BETWEEN ? AND ?` + clause + ` LIMIT ? OFFSET ?`
	rows, err := s.ro.QueryContext(ctx, query, contract, dateInit, dateEnd, perPage, page*perPage)
	if err != nil {
		return nil, fmt.Errorf("store: list daily contract usage: %w", err)
	}
	defer rows.Close()

	var out []models.DailyContractUsage
	for rows.Next() {
		var u models.DailyContractUsage
		if err := rows.Scan(&u.ID, &u.Date, &u.Contract, &u.Usage); err != nil {
			return nil, fmt.Errorf("store: scan daily contract usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Stats aggregates for the read façade's periodic refresher (C9). Each is a
// single scalar query; COALESCE keeps an empty table from surfacing as a
// NULL scan error.

func (s *Store) StatTotalBlocks(ctx context.Context) (uint64, error) {
	return s.scalarUint64(ctx, "SELECT COALESCE((SELECT MAX(id) FROM blocks), 0)")
}

func (s *Store) StatTotalTransactions(ctx context.Context) (uint64, error) {
	return s.scalarUint64(ctx, "SELECT COALESCE((SELECT MAX(id) FROM transactions), 0)")
}

func (s *Store) StatTotalSysFee(ctx context.Context) (float64, error) {
	var total float64
	err := s.ro.QueryRowContext(ctx, "SELECT COALESCE(SUM(CAST(sysfee_str AS REAL)), 0) FROM transactions").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("store: stat total sysfee: %w", err)
	}
	return total, nil
}

func (s *Store) StatTotalTransfers(ctx context.Context) (uint64, error) {
	return s.scalarUint64(ctx, "SELECT COALESCE(COUNT(*), 0) FROM transaction_notifications WHERE event_name = 'Transfer'")
}

func (s *Store) StatTotalSenders(ctx context.Context) (uint64, error) {
	return s.scalarUint64(ctx, "SELECT COALESCE(COUNT(DISTINCT sender_address), 0) FROM transactions")
}

func (s *Store) StatTotalContracts(ctx context.Context) (uint64, error) {
	return s.scalarUint64(ctx, "SELECT COALESCE(COUNT(*), 0) FROM contracts")
}

func (s *Store) StatContractsCurrentWeek(ctx context.Context) (uint64, error) {
	return s.scalarUint64(ctx, `
		SELECT COALESCE(COUNT(*), 0)
		FROM contracts
		INNER JOIN blocks ON blocks.id = contracts.block_id
		WHERE blocks.time_ms >= strftime('%s', 'now', '-7 days') * 1000`)
}

func (s *Store) StatTransactionsCurrentWeek(ctx context.Context) (uint64, error) {
	return s.scalarUint64(ctx, `
		SELECT COALESCE(COUNT(*), 0)
		FROM transactions
		INNER JOIN blocks ON blocks.id = transactions.block_id
		WHERE blocks.time_ms >= strftime('%s', 'now', '-7 days') * 1000`)
}

func (s *Store) scalarUint64(ctx context.Context, query string) (uint64, error) {
	var v uint64
	if err := s.ro.QueryRowContext(ctx, query).Scan(&v); err != nil {
		return 0, fmt.Errorf("store: scalar query: %w", err)
	}
	return v, nil
}
