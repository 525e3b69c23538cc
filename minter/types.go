// Package minter implements the destination-side executor of the
// bridge. It mints or transfers assets exactly once per burner tx id,
// guarded by the write-once burner-id index.
package minter

import (
	"fmt"
	"math/big"

	"github.com/LUCAS95222/HashedV2/agreement"
)

// NativeDenom is the reserved denom string of the destination chain's
// native coin. A native token registration must use it verbatim.
const NativeDenom = "axpla"

// Config is the minter's persisted configuration. TxIdx is the last
// allocated local tx id.
type Config struct {
	Owner string
	TxIdx uint64
}

// Tx records one executed migration on the minter side.
type Tx struct {
	ID        uint64
	BurnerID  uint64
	Recipient string
	Asset     string // burner-side asset address, the registry key
	TokenReq  *TokenMigrationReq
	NftReq    *NftMigrationReq
}

func (t *Tx) String() string {
	return fmt.Sprintf("Tx { ID: %d, BurnerID: %d, Recipient: %s, Asset: %s }",
		t.ID, t.BurnerID, t.Recipient, t.Asset)
}

// TokenMigrationReq carries the fungible half of an execution request.
type TokenMigrationReq struct {
	Amount *big.Int `json:"amount"`
}

// NftMigrationReq carries the non-fungible half.
type NftMigrationReq struct {
	ID        string                  `json:"id"`
	URI       string                  `json:"uri,omitempty"`
	Extension *agreement.NftExtension `json:"extension,omitempty"`
}

// ExecuteMigrationReq is one relayer-submitted execution call.
type ExecuteMigrationReq struct {
	BurnerID uint64
	Asset    string
	TokenReq *TokenMigrationReq
	NftReq   *NftMigrationReq
	To       string
}

// InstantiateMsg seeds a fresh minter ledger.
type InstantiateMsg struct {
	Owner           string // defaults to the instantiating sender
	SupportedTokens []agreement.SupportedToken
}

// MigrationResult links a burner tx id to the minter tx that served it.
type MigrationResult struct {
	BurnerID uint64 `json:"burner_id"`
	MinterID uint64 `json:"minter_id"`
}
