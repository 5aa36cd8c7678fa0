package gateway

import "encoding/json"

// Wire types for the marketplace contract RPC endpoint. Amounts travel as
// decimal strings in the ledger's smallest unit; addresses are fixed-format
// hex strings.

// rpcRequest is the envelope for every call to the ledger node.
type rpcRequest struct {
	ID       string      `json:"id"`
	Contract string      `json:"contract"`
	Method   string      `json:"method"`
	Params   interface{} `json:"params,omitempty"`
}

// rpcResponse is the common response envelope. Code "0" means success.
type rpcResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

const (
	codeOK       = "0"
	codeNotFound = "4004"
)

// RPC method names exposed by the marketplace contract endpoint.
const (
	methodItemCount  = "market.itemCount"
	methodGetItem    = "market.getItem"
	methodOwnedItems = "market.ownedItems"
	methodList       = "market.list"
	methodBuy        = "market.buy"
	methodTransfer   = "market.transfer"
	methodReceipt    = "market.receipt"
)

type itemResult struct {
	Name   string `json:"name"`
	Price  string `json:"price"`
	Owner  string `json:"owner"`
	IsSold bool   `json:"isSold"`
}

type itemCountResult struct {
	Count uint64 `json:"count"`
}

type ownedItemsParams struct {
	Owner string `json:"owner"`
}

type ownedItemsResult struct {
	IDs []uint64 `json:"ids"`
}

type getItemParams struct {
	ID uint64 `json:"id"`
}

type listParams struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type buyParams struct {
	ID    uint64 `json:"id"`
	Value string `json:"value"` // purchase value attached to the transaction
}

type transferParams struct {
	ID uint64 `json:"id"`
	To string `json:"to"`
}

type submitResult struct {
	TxHash string `json:"txHash"`
}

type receiptParams struct {
	TxHash string `json:"txHash"`
}

// Transaction status values reported by market.receipt.
const (
	txPending   = "pending"
	txConfirmed = "confirmed"
	txRejected  = "rejected"
	txReverted  = "reverted"
)

type receiptResult struct {
	Status      string `json:"status"`
	BlockNumber uint64 `json:"blockNumber"`
	Reason      string `json:"reason,omitempty"`
}
