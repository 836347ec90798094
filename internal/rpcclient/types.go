package rpcclient

// BlockResult is the verbose getblock(h, 1) shape.
type BlockResult struct {
	Hash          string        `json:"hash"`
	Size          uint32        `json:"size"`
	Version       uint32        `json:"version"`
	MerkleRoot    string        `json:"merkleroot"`
	Time          uint64        `json:"time"`
	Nonce         string        `json:"nonce"`
	Index         uint64        `json:"index"`
	Primary       uint32        `json:"primary"`
	NextConsensus string        `json:"nextconsensus"`
	Witnesses     []Witness     `json:"witnesses"`
	Tx            []TxEnvelope  `json:"tx"`
}

// TxEnvelope is a transaction as it appears embedded in a verbose block:
// hash and envelope only, no application log.
type TxEnvelope struct {
	Hash            string     `json:"hash"`
	Size            uint32     `json:"size"`
	Version         uint32     `json:"version"`
	Nonce           uint64     `json:"nonce"`
	Sender          string     `json:"sender"`
	SysFee          string     `json:"sysfee"`
	NetFee          string     `json:"netfee"`
	ValidUntilBlock uint64     `json:"validuntilblock"`
	Signers         []Signer   `json:"signers"`
	Script          string     `json:"script"`
	Witnesses       []Witness  `json:"witnesses"`
}

// TransactionResult is a flattened transaction, enriched with the owning
// block's hash and time during Phase B of a sync range.
type TransactionResult struct {
	Hash            string    `json:"hash"`
	BlockHash       string    `json:"blockhash,omitempty"`
	Timestamp       uint64    `json:"timestamp,omitempty"`
	Size            uint32    `json:"size"`
	Version         uint32    `json:"version"`
	Nonce           uint64    `json:"nonce"`
	Sender          string    `json:"sender"`
	SysFee          string    `json:"sysfee"`
	NetFee          string    `json:"netfee"`
	ValidUntilBlock uint64    `json:"validuntilblock"`
	Signers         []Signer  `json:"signers"`
	Script          string    `json:"script"`
	Witnesses       []Witness `json:"witnesses"`
}

// Witness is a Neo N3 invocation/verification witness pair.
type Witness struct {
	Invocation   string `json:"invocation"`
	Verification string `json:"verification"`
}

// Signer is a transaction signer entry (account + scopes).
type Signer struct {
	Account string `json:"account"`
	Scopes  string `json:"scopes"`
}

// BlockAppLog is the getapplicationlog(blockHash) shape.
type BlockAppLog struct {
	BlockHash  string      `json:"blockhash"`
	Executions []Execution `json:"executions"`
}

// TransactionAppLog is the getapplicationlog(txHash) shape.
type TransactionAppLog struct {
	TxID       string      `json:"txid"`
	Executions []Execution `json:"executions"`
}

// Execution is a single trigger's post-execution state.
type Execution struct {
	Trigger       string         `json:"trigger"`
	State         string         `json:"vmstate"`
	GasConsumed   string         `json:"gasconsumed"`
	Stack         []StackItem    `json:"stack"`
	Notifications []Notification `json:"notifications"`
}

// StackItem is a single VM result stack entry.
type StackItem struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// Notification is a single contract notification emitted during execution.
type Notification struct {
	Contract  string     `json:"contract"`
	EventName string     `json:"eventname"`
	State     StateValue `json:"state"`
}

// StateValue is a notification's state payload: a typed container of
// ordered values.
type StateValue struct {
	Type  string      `json:"type"`
	Value []StackItem `json:"value"`
}
