package store

const schema = `
CREATE TABLE IF NOT EXISTS blocks (
	id                      INTEGER PRIMARY KEY AUTOINCREMENT,
	hash                    TEXT NOT NULL UNIQUE,
	size                    INTEGER NOT NULL,
	version                 INTEGER NOT NULL,
	merkle_root             TEXT NOT NULL,
	time_ms                 INTEGER NOT NULL,
	nonce                   TEXT NOT NULL,
	speaker                 INTEGER NOT NULL,
	next_consensus          TEXT NOT NULL,
	reward                  REAL NOT NULL,
	reward_receiver_address TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS witnesses (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	block_id     INTEGER,
	tx_id        INTEGER,
	invocation   TEXT NOT NULL,
	verification TEXT NOT NULL,
	FOREIGN KEY (block_id) REFERENCES blocks (id),
	FOREIGN KEY (tx_id) REFERENCES transactions (id)
);

CREATE TABLE IF NOT EXISTS transactions (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	hash              TEXT NOT NULL UNIQUE,
	block_id          INTEGER NOT NULL,
	vm_state          TEXT NOT NULL,
	size              INTEGER NOT NULL,
	version           INTEGER NOT NULL,
	nonce             INTEGER NOT NULL,
	sender_address    TEXT NOT NULL,
	sysfee_str        TEXT NOT NULL,
	netfee_str        TEXT NOT NULL,
	valid_until       INTEGER NOT NULL,
	signers_json      TEXT NOT NULL,
	script_hex        TEXT NOT NULL,
	stack_result_json TEXT,
	FOREIGN KEY (block_id) REFERENCES blocks (id)
);

CREATE TABLE IF NOT EXISTS transaction_notifications (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_hash TEXT NOT NULL,
	contract_hash    TEXT NOT NULL,
	event_name       TEXT NOT NULL,
	state_type       TEXT NOT NULL,
	FOREIGN KEY (transaction_hash) REFERENCES transactions (hash)
);

CREATE TABLE IF NOT EXISTS notification_state_values (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	notification_id INTEGER NOT NULL,
	type_tag        TEXT NOT NULL,
	value_text      TEXT,
	FOREIGN KEY (notification_id) REFERENCES transaction_notifications (id)
);

CREATE TABLE IF NOT EXISTS contracts (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	block_id            INTEGER NOT NULL,
	hash                TEXT NOT NULL UNIQUE,
	contract_type_json  TEXT NOT NULL,
	FOREIGN KEY (block_id) REFERENCES blocks (id)
);

CREATE TABLE IF NOT EXISTS daily_address_balances (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	block_id       INTEGER NOT NULL,
	date           TEXT NOT NULL,
	address        TEXT NOT NULL,
	token_contract TEXT NOT NULL,
	balance_i64    INTEGER NOT NULL,
	UNIQUE (date, address, token_contract),
	FOREIGN KEY (block_id) REFERENCES blocks (id)
);

CREATE TABLE IF NOT EXISTS daily_token_price_history (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	block_id       INTEGER NOT NULL,
	date           TEXT NOT NULL,
	token_contract TEXT NOT NULL,
	price_float    REAL NOT NULL,
	UNIQUE (date, token_contract),
	FOREIGN KEY (block_id) REFERENCES blocks (id)
);

CREATE TABLE IF NOT EXISTS daily_contract_usage (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	date      TEXT NOT NULL,
	contract  TEXT NOT NULL,
	usage_int INTEGER NOT NULL,
	UNIQUE (date, contract)
);

CREATE TABLE IF NOT EXISTS indexing_checkpoints (
	service_name TEXT PRIMARY KEY,
	last_height  INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
);
`

var indexes = []struct {
	name, table, column string
}{
	{"idx_blocks_hash", "blocks", "hash"},
	{"idx_transactions_hash", "transactions", "hash"},
	{"idx_transactions_sender", "transactions", "sender_address"},
	{"idx_transactions_block_id", "transactions", "block_id"},
	{"idx_notifications_event_name", "transaction_notifications", "event_name"},
	{"idx_state_values_value", "notification_state_values", "value_text"},
	{"idx_daily_address_balances_address", "daily_address_balances", "address"},
	{"idx_daily_address_balances_date", "daily_address_balances", "date"},
	{"idx_daily_token_price_date", "daily_token_price_history", "date"},
	{"idx_contracts_hash", "contracts", "hash"},
	{"idx_daily_contract_usage_date", "daily_contract_usage", "date"},
	{"idx_daily_contract_usage_contract", "daily_contract_usage", "contract"},
}
