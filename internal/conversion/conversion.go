// Package conversion turns raw RPC shapes into store entities. It is pure
// aside from DeriveDailyBalances' historic balance probes, which call back
// into the node RPC client.
package conversion

import (
	"context"
	"encoding/json"
	"strconv"

	"shrike/internal/models"
	"shrike/internal/neoutil"
	"shrike/internal/rpcclient"
)

// nativeManagementContractHash is Neo N3's native ContractManagement
// contract, the emitter of "Deploy" notifications.
const nativeManagementContractHash = "0xfffdc93764dbaddd97c48f252a53ea4643faa3fd"

const satoshiDivisor = 1e8

// ToStoreBlock builds a Block row from a verbose block and its application
// log. The reward and its receiver are read from the PostPersist execution
// (index 1): the first notification's state values at index 1 (receiver,
// base64) and 2 (reward, decimal string).
func ToStoreBlock(block rpcclient.BlockResult, appLog rpcclient.BlockAppLog) models.Block {
	b := models.Block{
		Hash:          block.Hash,
		Size:          block.Size,
		Version:       block.Version,
		MerkleRoot:    block.MerkleRoot,
		TimeMs:        block.Time,
		Nonce:         block.Nonce,
		Speaker:       block.Primary,
		NextConsensus: block.NextConsensus,
	}

	for _, w := range block.Witnesses {
		b.Witnesses = append(b.Witnesses, models.Witness{Invocation: w.Invocation, Verification: w.Verification})
	}

	if len(appLog.Executions) > 1 {
		postPersist := appLog.Executions[1]
		if len(postPersist.Notifications) > 0 {
			state := postPersist.Notifications[0].State.Value
			if len(state) > 2 {
				if receiverB64, ok := state[1].Value.(string); ok {
					if addr, err := neoutil.Base64ToAddress(receiverB64); err == nil {
						b.RewardReceiverAddress = addr
					}
				}
				if rewardStr, ok := state[2].Value.(string); ok {
					if satoshis, err := strconv.ParseInt(rewardStr, 10, 64); err == nil {
						b.Reward = float64(satoshis) / satoshiDivisor
					}
				}
			}
		}
	}

	return b
}

// ToStoreTransaction builds a Transaction row from a flattened envelope and
// its (sole-execution) application log.
func ToStoreTransaction(tx rpcclient.TransactionResult, appLog rpcclient.TransactionAppLog, blockHeight uint64) models.Transaction {
	out := models.Transaction{
		Hash:          tx.Hash,
		BlockID:       blockHeight,
		Size:          tx.Size,
		Version:       tx.Version,
		Nonce:         tx.Nonce,
		SenderAddress: tx.Sender,
		SysFee:        tx.SysFee,
		NetFee:        tx.NetFee,
		ValidUntil:    tx.ValidUntilBlock,
		SignersJSON:   marshalJSON(tx.Signers),
		BlockTimeMs:   tx.Timestamp,
	}

	if scriptHex, err := neoutil.Base64ToHex(tx.Script); err == nil {
		out.ScriptHex = scriptHex
	} else {
		out.ScriptHex = tx.Script
	}

	for _, w := range tx.Witnesses {
		out.Witnesses = append(out.Witnesses, models.Witness{Invocation: w.Invocation, Verification: w.Verification})
	}

	if len(appLog.Executions) > 0 {
		exec := appLog.Executions[0]
		out.VMState = exec.State
		out.StackResultJSON = marshalJSON(exec.Stack)

		for _, n := range exec.Notifications {
			notification := models.TransactionNotification{
				TransactionHash: tx.Hash,
				ContractHash:    n.Contract,
				EventName:       n.EventName,
				StateType:       n.State.Type,
			}
			for _, sv := range n.State.Value {
				notification.StateValues = append(notification.StateValues, models.NotificationStateValue{
					TypeTag:   sv.Type,
					ValueText: encodeStateValue(sv.Value),
				})
			}
			out.Notifications = append(out.Notifications, notification)
		}
	}

	return out
}

// encodeStateValue implements the store's documented text-encoding rule:
// strings store verbatim, numbers store as decimal text, JSON null stores as
// SQL NULL, everything else stores as compact JSON.
func encodeStateValue(v any) *string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return &val
	case float64:
		s := strconv.FormatFloat(val, 'f', -1, 64)
		return &s
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			s := ""
			return &s
		}
		s := string(raw)
		return &s
	}
}

func marshalJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

// DetectContractDeployments scans a transaction's notifications for
// "Deploy" events from the native management contract and extracts a
// Contract row for each, reading supported-standards metadata out of the
// deploying script's PUSHDATA2 operand.
func DetectContractDeployments(scriptHex string, notifications []models.TransactionNotification, blockHeight uint64) []models.Contract {
	var contracts []models.Contract

	for _, n := range notifications {
		if n.EventName != "Deploy" || n.ContractHash != nativeManagementContractHash {
			continue
		}
		if len(n.StateValues) == 0 || n.StateValues[0].ValueText == nil {
			continue
		}

		hash, err := neoutil.Base64ToDisplayScriptHash(*n.StateValues[0].ValueText)
		if err != nil {
			continue
		}

		contracts = append(contracts, models.Contract{
			BlockID:          blockHeight,
			Hash:             hash,
			ContractTypeJSON: extractSupportedStandards(scriptHex),
		})
	}

	return contracts
}

func extractSupportedStandards(scriptHex string) string {
	operand, ok := neoutil.FindPushData2Operand(scriptHex)
	if !ok {
		return "[]"
	}

	var manifest struct {
		SupportedStandards json.RawMessage `json:"supportedstandards"`
	}
	if err := json.Unmarshal(operand, &manifest); err != nil || manifest.SupportedStandards == nil {
		return "[]"
	}
	return string(manifest.SupportedStandards)
}

// BalanceProbe is the subset of rpcclient.Client DeriveDailyBalances needs,
// narrowed for testability.
type BalanceProbe interface {
	GetBalanceOfHistoric(ctx context.Context, block uint64, tokenHash string, addressHash160 []byte) (int64, error)
}

// DeriveDailyBalances scans a transaction's notifications for "Transfer"
// events and, for each side of the transfer, probes the token's balance at
// blockHeight. Any notification whose first two state values are not both
// ByteString is skipped without issuing RPC. A probe failure aborts
// immediately and propagates: it may mean the node cannot serve this
// block's historic state at all, which the caller needs to know before
// committing a partial range.
func DeriveDailyBalances(ctx context.Context, notifications []models.TransactionNotification, blockHeight uint64, timestampMs uint64, rpc BalanceProbe) ([]models.DailyAddressBalance, error) {
	var balances []models.DailyAddressBalance

	for _, n := range notifications {
		if n.EventName != "Transfer" {
			continue
		}
		if len(n.StateValues) < 2 {
			continue
		}
		from, to := n.StateValues[0], n.StateValues[1]
		if from.TypeTag != "ByteString" || to.TypeTag != "ByteString" {
			continue
		}
		if from.ValueText == nil || to.ValueText == nil {
			continue
		}

		for _, sv := range []models.NotificationStateValue{from, to} {
			addr, err := neoutil.Base64ToAddress(*sv.ValueText)
			if err != nil {
				continue
			}
			hash160, err := neoutil.AddressToHash160(addr)
			if err != nil {
				continue
			}

			balance, err := rpc.GetBalanceOfHistoric(ctx, blockHeight, n.ContractHash, hash160)
			if err != nil {
				return nil, err
			}
			balances = append(balances, models.DailyAddressBalance{
				BlockID:       blockHeight,
				TimestampMs:   timestampMs,
				Address:       addr,
				TokenContract: n.ContractHash,
				Balance:       balance,
			})
		}
	}

	return balances, nil
}
