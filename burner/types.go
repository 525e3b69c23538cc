// Package burner implements the source-side ledger of the bridge: it
// escrows assets, keeps the pending-migration work queue, and finalizes
// each migration exactly once with a compensating burn or refund.
package burner

import (
	"fmt"
	"math/big"

	"github.com/LUCAS95222/HashedV2/agreement"
)

// Limits carried over from the deployed contracts.
const (
	// default / max number of items one relayer poll may return
	RelayerTxHandleLimitDefault uint8 = 10
	RelayerTxHandleLimitMax     uint8 = 20

	// max requests in a single RequestMigrations batch, and page size
	// of the per-user audit trail
	UserInfoLimit uint8 = 20
)

type Status string

const (
	StatusCreated  Status = "created"   // escrowed, waiting for the relayer
	StatusSwapped  Status = "swapped"   // destination mint succeeded
	StatusPaidBack Status = "paid_back" // destination failed, asset refunded
)

// Tx is one migration in the burner ledger. A Tx is created in
// StatusCreated and transitions exactly once to StatusSwapped or
// StatusPaidBack; afterwards it is immutable.
type Tx struct {
	ID              uint64
	Status          Status
	From            string // user on the burner chain
	To              string // recipient on the minter chain
	UserReqID       uint32
	TokenAddr       string
	MinterTokenAddr string
	Amount          *big.Int // zero for cw721
	NftID           string   // empty for cw20
	Msg             string   // relayer-reported detail, empty if none
	MinterID        *uint64  // minter-side tx id, set at finalization
	MinterTxHash    string   // minter-side tx hash, set at finalization
}

func (t *Tx) String() string {
	return fmt.Sprintf("Tx { ID: %d, Status: %s, From: %s, To: %s, Token: %s, Amount: %v, NftID: %s }",
		t.ID, t.Status, t.From, t.To, t.TokenAddr, t.Amount, t.NftID)
}

// UserReqInfo aggregates one RequestMigrations batch. InProgress starts
// at the batch size and is decremented exactly once per contained tx as
// results come in. Never deleted, it is the user's audit trail.
type UserReqInfo struct {
	TxIDs      []uint64
	BlockNum   uint64
	Timestamp  int64 // unix milliseconds
	Success    uint8
	Fail       uint8
	InProgress uint8
}

// Config is the burner's persisted configuration. TxIdx is the last
// allocated migration id; the id space is global and never reused.
type Config struct {
	Owner        string
	BurnContract string
	TxIdx        uint64
	TxLimit      uint8
}

// InstantiateMsg seeds a fresh burner ledger.
type InstantiateMsg struct {
	Owner           string // defaults to the instantiating sender
	SupportedTokens []agreement.SupportedToken
	TxLimit         *uint8 // defaults to RelayerTxHandleLimitDefault
	BurnContract    string
}

// TxResponse is the query-side view of a Tx.
type TxResponse struct {
	ID           uint64             `json:"id"`
	Status       Status             `json:"status"`
	Msg          string             `json:"msg,omitempty"`
	From         string             `json:"from"`
	To           string             `json:"to"`
	UserReqID    uint32             `json:"user_req_id"`
	TokenAddr    string             `json:"token_addr"`
	Amount       string             `json:"amount,omitempty"`
	NftInfo      *agreement.NftInfo `json:"nft_info,omitempty"`
	MinterID     *uint64            `json:"minter_id,omitempty"`
	MinterTxHash string             `json:"minter_tx_hash,omitempty"`
}

// UserMigrationsItem is one batch summary in the audit trail listing.
type UserMigrationsItem struct {
	ReqID      uint32 `json:"req_id"`
	BlockNum   uint64 `json:"block_num"`
	Timestamp  int64  `json:"timestamp"`
	Success    uint8  `json:"success"`
	Fail       uint8  `json:"fail"`
	InProgress uint8  `json:"in_progress"`
}
