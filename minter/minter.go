package minter

import (
	"database/sql"

	logger "github.com/sirupsen/logrus"

	"github.com/LUCAS95222/HashedV2/agreement"
	"github.com/LUCAS95222/HashedV2/database"
)

// Minter is the destination-side executor service.
type Minter struct {
	st *StateDB
}

func New(st *StateDB) *Minter {
	return &Minter{st: st}
}

// Instantiate seeds a fresh ledger. It fails with a conflict if the
// ledger was already instantiated.
func (m *Minter) Instantiate(tc agreement.TxContext, msg InstantiateMsg) error {
	_, ok, err := m.st.GetConfig()
	if err != nil {
		return err
	}
	if ok {
		return agreement.ErrConflict.Newf("already instantiated")
	}

	owner := msg.Owner
	if owner == "" {
		owner = tc.Sender
	}
	if err := agreement.ValidateAddr(owner); err != nil {
		return err
	}

	return m.st.WithinTx(func(tx *sql.Tx) error {
		for _, token := range msg.SupportedTokens {
			if err := validateRegistration(token); err != nil {
				return err
			}
			info := &agreement.TokenInfo{Addr: token.MinterTokenAddr, TokenType: token.TokenType}
			if err := m.st.InsertToken(tx, token.BurnerTokenAddr, info); err != nil {
				if database.IsUniqueViolation(err) {
					return agreement.ErrBadRequest.Newf("already exist")
				}
				return err
			}
		}
		return m.st.InitConfig(tx, &Config{Owner: owner, TxIdx: 0})
	})
}

// ExecuteMigration executes one migration exactly once. Replays of the
// same burner id are rejected with a bad request before any message is
// built, so a retried relayer submission can never double-mint. It
// returns the minter-local tx id alongside the emitted message.
func (m *Minter) ExecuteMigration(tc agreement.TxContext, req ExecuteMigrationReq) (uint64, agreement.TokenMsg, error) {
	cfg, err := m.mustConfig()
	if err != nil {
		return 0, nil, err
	}
	if cfg.Owner != tc.Sender {
		return 0, nil, agreement.ErrUnauthorized.Newf("sender %s is not the owner", tc.Sender)
	}

	ti, ok, err := m.st.GetToken(req.Asset)
	if err != nil {
		return 0, nil, err
	}
	if !ok {
		return 0, nil, agreement.ErrNotFound.Newf("token %s is not supported", req.Asset)
	}

	if err := agreement.ValidateAddr(req.To); err != nil {
		return 0, nil, err
	}

	var msg agreement.TokenMsg
	switch ti.TokenType {
	case agreement.TokenTypeNative:
		if req.TokenReq == nil || req.TokenReq.Amount == nil {
			return 0, nil, agreement.ErrBadRequest.Newf("token_req is required")
		}
		msg = agreement.BankSend{Denom: ti.Addr, Recipient: req.To, Amount: req.TokenReq.Amount}
	case agreement.TokenTypeCw20:
		if req.TokenReq == nil || req.TokenReq.Amount == nil {
			return 0, nil, agreement.ErrBadRequest.Newf("token_req is required")
		}
		msg = agreement.Cw20Mint{Token: ti.Addr, Recipient: req.To, Amount: req.TokenReq.Amount}
	case agreement.TokenTypeCw721:
		if req.NftReq == nil {
			return 0, nil, agreement.ErrBadRequest.Newf("nft_req is required")
		}
		msg = agreement.Cw721Mint{
			Token:     ti.Addr,
			TokenID:   req.NftReq.ID,
			Owner:     req.To,
			URI:       req.NftReq.URI,
			Extension: req.NftReq.Extension,
		}
	default:
		return 0, nil, agreement.ErrInternal.Newf("registered token %s has unknown type %q", req.Asset, ti.TokenType)
	}

	cfg.TxIdx++
	err = m.st.WithinTx(func(tx *sql.Tx) error {
		if err := m.st.InsertBurnerIdx(tx, req.BurnerID, cfg.TxIdx); err != nil {
			if database.IsUniqueViolation(err) {
				return agreement.ErrBadRequest.Newf("burner_id already exists")
			}
			return err
		}

		t := &Tx{
			ID:        cfg.TxIdx,
			BurnerID:  req.BurnerID,
			Recipient: req.To,
			Asset:     req.Asset,
			TokenReq:  req.TokenReq,
			NftReq:    req.NftReq,
		}
		if err := m.st.InsertTx(tx, t); err != nil {
			return err
		}
		return m.st.SaveConfig(tx, cfg)
	})
	if err != nil {
		return 0, nil, err
	}

	logger.WithFields(logger.Fields{
		"minter_id": cfg.TxIdx,
		"burner_id": req.BurnerID,
		"token":     ti.Addr,
		"type":      ti.TokenType,
	}).Info("migration executed")

	return cfg.TxIdx, msg, nil
}

// UpdateMinter re-points minting authority of a cw20/cw721 asset.
// Native coins have no minter to update.
func (m *Minter) UpdateMinter(tc agreement.TxContext, asset, newMinter string) (agreement.TokenMsg, error) {
	cfg, err := m.mustConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Owner != tc.Sender {
		return nil, agreement.ErrUnauthorized.Newf("sender %s is not the owner", tc.Sender)
	}
	if err := agreement.ValidateAddr(newMinter); err != nil {
		return nil, err
	}

	ti, ok, err := m.st.GetToken(asset)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, agreement.ErrNotFound.Newf("token %s is not supported", asset)
	}

	switch ti.TokenType {
	case agreement.TokenTypeNative:
		return nil, agreement.ErrBadRequest.Newf("cannot update native token minter")
	case agreement.TokenTypeCw721:
		return agreement.Cw721UpdateMinter{Token: ti.Addr, NewMinter: newMinter}, nil
	default:
		return agreement.Cw20UpdateMinter{Token: ti.Addr, NewMinter: newMinter}, nil
	}
}

// AddToken registers a new asset. Owner only. A native registration
// must use the reserved denom, any other type a valid address.
func (m *Minter) AddToken(tc agreement.TxContext, burnerTokenAddr, minterTokenAddr string, tokenType agreement.TokenType) error {
	cfg, err := m.mustConfig()
	if err != nil {
		return err
	}
	if cfg.Owner != tc.Sender {
		return agreement.ErrUnauthorized.Newf("sender %s is not the owner", tc.Sender)
	}

	token := agreement.SupportedToken{
		BurnerTokenAddr: burnerTokenAddr,
		MinterTokenAddr: minterTokenAddr,
		TokenType:       tokenType,
	}
	if err := validateRegistration(token); err != nil {
		return err
	}

	return m.st.WithinTx(func(tx *sql.Tx) error {
		info := &agreement.TokenInfo{Addr: minterTokenAddr, TokenType: tokenType}
		if err := m.st.InsertToken(tx, burnerTokenAddr, info); err != nil {
			if database.IsUniqueViolation(err) {
				return agreement.ErrBadRequest.Newf("already exist")
			}
			return err
		}
		return nil
	})
}

// RemoveToken drops an asset from the registry. Owner only.
func (m *Minter) RemoveToken(tc agreement.TxContext, burnerTokenAddr string) error {
	cfg, err := m.mustConfig()
	if err != nil {
		return err
	}
	if cfg.Owner != tc.Sender {
		return agreement.ErrUnauthorized.Newf("sender %s is not the owner", tc.Sender)
	}
	if burnerTokenAddr == "" {
		return agreement.ErrBadRequest.Newf("burner_token_addr is empty")
	}

	return m.st.WithinTx(func(tx *sql.Tx) error {
		return m.st.RemoveToken(tx, burnerTokenAddr)
	})
}

// UpdateOwner hands the ledger over to a new owner.
func (m *Minter) UpdateOwner(tc agreement.TxContext, newOwner string) error {
	cfg, err := m.mustConfig()
	if err != nil {
		return err
	}
	if cfg.Owner != tc.Sender {
		return agreement.ErrUnauthorized.Newf("sender %s is not the owner", tc.Sender)
	}
	if err := agreement.ValidateAddr(newOwner); err != nil {
		return err
	}

	cfg.Owner = newOwner
	return m.st.WithinTx(func(tx *sql.Tx) error {
		return m.st.SaveConfig(tx, cfg)
	})
}

// MigrationResult resolves the minter tx id that served a burner tx id.
func (m *Minter) MigrationResult(burnerID uint64) (*MigrationResult, error) {
	minterID, ok, err := m.st.GetBurnerIdx(burnerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, agreement.ErrNotFound.Newf("burner_id %d not found", burnerID)
	}
	return &MigrationResult{BurnerID: burnerID, MinterID: minterID}, nil
}

// SupportedTokens dumps the registry with an exclusive cursor.
func (m *Minter) SupportedTokens(startAfter string) ([]agreement.SupportedToken, error) {
	return m.st.ListTokens(startAfter)
}

func (m *Minter) mustConfig() (*Config, error) {
	cfg, ok, err := m.st.GetConfig()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, agreement.ErrInternal.Newf("ledger is not instantiated")
	}
	return cfg, nil
}

func validateRegistration(token agreement.SupportedToken) error {
	if token.BurnerTokenAddr == "" {
		return agreement.ErrBadRequest.Newf("burner_token_addr is required")
	}
	if !token.TokenType.Valid() {
		return agreement.ErrBadRequest.Newf("unknown token type %q", token.TokenType)
	}
	if token.TokenType == agreement.TokenTypeNative {
		if token.MinterTokenAddr != NativeDenom {
			return agreement.ErrBadRequest.Newf("minter_token_addr is not native token")
		}
		return nil
	}
	if token.MinterTokenAddr == NativeDenom {
		return agreement.ErrBadRequest.Newf("token_type is not native token")
	}
	return agreement.ValidateAddr(token.MinterTokenAddr)
}
