package api

import (
	"strconv"

	"shrike/internal/models"
)

const (
	gasPrecision   = 100_000_000.0
	fusdtPrecision = 1_000_000.0
	fusdtContract  = "0xcd48b160c1bbc9d74997b803b9a7ad50a4bef020"
)

// transferPrecision returns the divisor used to turn a Transfer
// notification's raw integer amount into a display value: FUSDT divides by
// 10^6, everything else (GAS-class and default) by 10^8.
func transferPrecision(contractHash string) float64 {
	if contractHash == fusdtContract {
		return fusdtPrecision
	}
	return gasPrecision
}

func parseFloatOrZero(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// notificationView shadows models.TransactionNotification with an added
// Amount, populated only for Transfer events with a non-null third state
// value (from, to, amount); a third value that does not parse as a number
// yields an amount of 0. Everything else is carried through as-is.
type notificationView struct {
	models.TransactionNotification
	Amount *float64 `json:"amount,omitempty"`
}

func newNotificationView(n models.TransactionNotification) notificationView {
	v := notificationView{TransactionNotification: n}
	if n.EventName != "Transfer" || len(n.StateValues) < 3 || n.StateValues[2].ValueText == nil {
		return v
	}
	amount := parseFloatOrZero(*n.StateValues[2].ValueText) / transferPrecision(n.ContractHash)
	v.Amount = &amount
	return v
}

func newNotificationViews(ns []models.TransactionNotification) []notificationView {
	out := make([]notificationView, 0, len(ns))
	for _, n := range ns {
		out = append(out, newNotificationView(n))
	}
	return out
}

// transactionView shadows models.Transaction's json:"-" Notifications and
// BlockTimeMs fields so the façade can surface the full notification tree
// (with derived transfer amounts) and the owning block's time on endpoints
// that load them, while the base model keeps those fields internal-only for
// the conversion/indexer package.
type transactionView struct {
	models.Transaction
	Notifications []notificationView `json:"notifications,omitempty"`
	BlockTime     uint64             `json:"block_time,omitempty"`
}

func newTransactionView(t models.Transaction) transactionView {
	return transactionView{
		Transaction:   t,
		Notifications: newNotificationViews(t.Notifications),
		BlockTime:     t.BlockTimeMs,
	}
}

func newTransactionViews(txs []models.Transaction) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, newTransactionView(t))
	}
	return out
}

// addressTransfersView is the response body for GET
// /v1/transaction/transfers/{address}: the same address-filtered
// transaction set split by whether the address initiated each transaction.
type addressTransfersView struct {
	AsSender      []transactionView `json:"as_sender"`
	AsParticipant []transactionView `json:"as_participant"`
}
