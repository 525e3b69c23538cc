package agreement

import (
	"fmt"
	"math/big"
)

// TokenMsg is a token operation emitted by a ledger call. The bridge
// only constructs these messages; executing them against the actual
// token contracts is the host's job.
type TokenMsg interface {
	isTokenMsg()
}

// Cw20TransferFrom moves a pre-approved amount from Owner into the
// bridge escrow.
type Cw20TransferFrom struct {
	Token     string
	Owner     string
	Recipient string
	Amount    *big.Int
}

// Cw20Transfer pays out from the escrow, used to refund a failed
// migration to its original sender.
type Cw20Transfer struct {
	Token     string
	Recipient string
	Amount    *big.Int
}

// Cw20Burn destroys escrowed tokens after they were re-minted on the
// destination chain.
type Cw20Burn struct {
	Token  string
	Amount *big.Int
}

// Cw20Mint issues destination-side tokens to the migration recipient.
type Cw20Mint struct {
	Token     string
	Recipient string
	Amount    *big.Int
}

// Cw721TransferNft moves one NFT, either into escrow, back to the
// sender, or to the designated burn contract.
type Cw721TransferNft struct {
	Token     string
	Recipient string
	TokenID   string
}

// Cw721Mint issues the destination-side NFT.
type Cw721Mint struct {
	Token     string
	TokenID   string
	Owner     string
	URI       string
	Extension *NftExtension
}

// BankSend pays out native coins from the minter's balance.
type BankSend struct {
	Denom     string
	Recipient string
	Amount    *big.Int
}

// Cw20UpdateMinter re-points minting authority of a cw20 token.
type Cw20UpdateMinter struct {
	Token     string
	NewMinter string
}

// Cw721UpdateMinter re-points minting authority of a cw721 token.
type Cw721UpdateMinter struct {
	Token     string
	NewMinter string
}

func (Cw20TransferFrom) isTokenMsg()  {}
func (Cw20Transfer) isTokenMsg()      {}
func (Cw20Burn) isTokenMsg()          {}
func (Cw20Mint) isTokenMsg()          {}
func (Cw721TransferNft) isTokenMsg()  {}
func (Cw721Mint) isTokenMsg()         {}
func (BankSend) isTokenMsg()          {}
func (Cw20UpdateMinter) isTokenMsg()  {}
func (Cw721UpdateMinter) isTokenMsg() {}

func (m Cw20Burn) String() string {
	return fmt.Sprintf("Cw20Burn { Token: %s, Amount: %v }", m.Token, m.Amount)
}

func (m Cw721TransferNft) String() string {
	return fmt.Sprintf("Cw721TransferNft { Token: %s, Recipient: %s, TokenID: %s }", m.Token, m.Recipient, m.TokenID)
}
