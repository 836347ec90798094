// Package models defines the store's row shapes. They map close to 1:1
// with the schema in internal/store; JSON tags drive the read façade's
// response bodies directly.
package models

// Block represents the 'blocks' table.
type Block struct {
	ID                   uint64  `json:"id"`
	Hash                 string  `json:"hash"`
	Size                 uint32  `json:"size"`
	Version              uint32  `json:"version"`
	MerkleRoot           string  `json:"merkle_root"`
	TimeMs               uint64  `json:"time"`
	Nonce                string  `json:"nonce"`
	Speaker              uint32  `json:"speaker"`
	NextConsensus        string  `json:"next_consensus"`
	Reward               float64 `json:"reward"`
	RewardReceiverAddress string `json:"reward_receiver_address"`

	Witnesses []Witness `json:"witnesses,omitempty"`
}

// Witness represents the 'witnesses' table. Exactly one of BlockID or TxID
// is set; the owner is polymorphic.
type Witness struct {
	ID           uint64 `json:"id"`
	BlockID      *uint64 `json:"block_id,omitempty"`
	TxID         *uint64 `json:"tx_id,omitempty"`
	Invocation   string  `json:"invocation"`
	Verification string  `json:"verification"`
}

// Transaction represents the 'transactions' table.
type Transaction struct {
	ID              uint64 `json:"id"`
	Hash            string `json:"hash"`
	BlockID         uint64 `json:"block_id"`
	VMState         string `json:"vm_state"`
	Size            uint32 `json:"size"`
	Version         uint32 `json:"version"`
	Nonce           uint64 `json:"nonce"`
	SenderAddress   string `json:"sender_address"`
	SysFee          string `json:"sysfee"`
	NetFee          string `json:"netfee"`
	ValidUntil      uint64 `json:"valid_until"`
	SignersJSON     string `json:"signers"`
	ScriptHex       string `json:"script"`
	StackResultJSON string `json:"stack_result,omitempty"`

	// populated by conversion, not persisted as a column: raw notifications
	// carried through the pipeline until commit/derivation consumes them.
	Notifications []TransactionNotification `json:"-"`
	// populated by conversion: the owning block's time, needed for downstream
	// daily-bucket derivation without a join back to blocks.
	BlockTimeMs uint64 `json:"-"`

	Witnesses []Witness `json:"witnesses,omitempty"`
}

// TransactionNotification represents the 'transaction_notifications' table.
type TransactionNotification struct {
	ID              uint64 `json:"id"`
	TransactionHash string `json:"transaction_hash"`
	ContractHash    string `json:"contract_hash"`
	EventName       string `json:"event_name"`
	StateType       string `json:"state_type"`

	StateValues []NotificationStateValue `json:"state_values,omitempty"`
}

// NotificationStateValue represents the 'notification_state_values' table.
// Order is recovered via ascending id within a notification, never via join
// order alone.
type NotificationStateValue struct {
	ID             uint64  `json:"id"`
	NotificationID uint64  `json:"notification_id"`
	TypeTag        string  `json:"type"`
	ValueText      *string `json:"value,omitempty"`
}

// Contract represents the 'contracts' table: one row per deploy event seen
// from the native contract management contract.
type Contract struct {
	ID               uint64 `json:"id"`
	BlockID          uint64 `json:"block_id"`
	Hash             string `json:"hash"`
	ContractTypeJSON string `json:"contract_type"`
}

// DailyAddressBalance represents the 'daily_address_balances' table,
// unique on (date, address, token_contract).
type DailyAddressBalance struct {
	ID            uint64 `json:"id"`
	BlockID       uint64 `json:"block_id"`
	Date          string `json:"date"`
	Address       string `json:"address"`
	TokenContract string `json:"token_contract"`
	Balance       int64  `json:"balance"`

	// TimestampMs is set by conversion on the write path; the store derives
	// Date from it via strftime at insert time rather than trusting a
	// precomputed string. Unused on the read path, where Date already
	// carries the persisted column value.
	TimestampMs uint64 `json:"-"`
}

// DailyTokenPrice represents the 'daily_token_price_history' table, unique
// on (date, token_contract).
type DailyTokenPrice struct {
	ID            uint64  `json:"id"`
	BlockID       uint64  `json:"block_id"`
	Date          string  `json:"date"`
	TokenContract string  `json:"token_contract"`
	Price         float64 `json:"price"`

	TimestampMs uint64 `json:"-"`
}

// DailyContractUsage represents the 'daily_contract_usage' table, unique on
// (date, contract).
type DailyContractUsage struct {
	ID       uint64 `json:"id"`
	Date     string `json:"date"`
	Contract string `json:"contract"`
	Usage    uint64 `json:"usage"`
}

// IndexingCheckpoint represents the 'indexing_checkpoints' table: the
// resume watermark for a named runner.
type IndexingCheckpoint struct {
	ServiceName string `json:"service_name"`
	LastHeight  uint64 `json:"last_height"`
	UpdatedAt   int64  `json:"updated_at"`
}
