// Package agreement holds the data structures both sides of the bridge
// agree on: token registration info, migration requests, the messages a
// ledger call emits for the host chain to execute, and the error taxonomy.
package agreement

import (
	"fmt"
	"math/big"
)

// Result status code reported back by the relayer after it observed the
// destination-side outcome. Zero means success, anything else is a failure.
const (
	TxResultSuccess int16 = 0
	TxResultFailure int16 = 1
)

type TokenType string

const (
	TokenTypeNative TokenType = "native"
	TokenTypeCw20   TokenType = "cw20"
	TokenTypeCw721  TokenType = "cw721"
)

func (t TokenType) Valid() bool {
	switch t {
	case TokenTypeNative, TokenTypeCw20, TokenTypeCw721:
		return true
	}
	return false
}

func (t TokenType) String() string {
	return string(t)
}

// TokenInfo is the destination-side counterpart of a registered source
// asset. For a native token Addr is the reserved denom string, otherwise
// it is a validated contract address.
type TokenInfo struct {
	Addr      string    `json:"addr"`
	TokenType TokenType `json:"token_type"`
}

// SupportedToken is one entry of the token registry as exposed by queries
// and accepted at instantiation.
type SupportedToken struct {
	BurnerTokenAddr string    `json:"burner_token_addr"`
	MinterTokenAddr string    `json:"minter_token_addr"`
	TokenType       TokenType `json:"token_type"`
}

// MigrationReq is a single user request to move one asset across the
// bridge. Amount is set for cw20 assets, NftID for cw721 assets.
type MigrationReq struct {
	Asset  string   `json:"asset"`
	Amount *big.Int `json:"amount,omitempty"`
	NftID  string   `json:"nft_id,omitempty"`
	To     string   `json:"to"`
}

// TxContext carries the call environment the host hands to every
// mutating entry point: who signed the call, which ledger account the
// call runs under, and when it executes.
type TxContext struct {
	Sender    string
	Contract  string // the ledger's own account, escrow destination
	BlockNum  uint64
	Timestamp int64 // unix milliseconds
}

// NftInfo describes one non-fungible token, optionally enriched with
// live metadata read from the owning contract.
type NftInfo struct {
	ID        string        `json:"id"`
	URI       string        `json:"uri,omitempty"`
	Extension *NftExtension `json:"extension,omitempty"`
}

// NftExtension is the standard cw721 metadata extension.
type NftExtension struct {
	Image           string                `json:"image,omitempty"`
	ImageData       string                `json:"image_data,omitempty"`
	ExternalURL     string                `json:"external_url,omitempty"`
	Description     string                `json:"description,omitempty"`
	Name            string                `json:"name,omitempty"`
	Attributes      []NftExtensionDisplay `json:"attributes,omitempty"`
	BackgroundColor string                `json:"background_color,omitempty"`
	AnimationURL    string                `json:"animation_url,omitempty"`
	YoutubeURL      string                `json:"youtube_url,omitempty"`
}

type NftExtensionDisplay struct {
	DisplayType string `json:"display_type,omitempty"`
	TraitType   string `json:"trait_type,omitempty"`
	Value       string `json:"value,omitempty"`
}

func (n *NftInfo) String() string {
	return fmt.Sprintf("NftInfo { ID: %s, URI: %s }", n.ID, n.URI)
}
