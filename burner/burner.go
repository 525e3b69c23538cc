package burner

import (
	"database/sql"

	logger "github.com/sirupsen/logrus"

	"github.com/LUCAS95222/HashedV2/agreement"
	"github.com/LUCAS95222/HashedV2/database"
)

// Burner is the source-side ledger service. Every mutating entry point
// runs inside one sql transaction, so an error leaves no partial state.
// Cross-call safety comes from compare-and-insert idempotency keys, not
// locks: tx-id uniqueness, the per-NFT reservation set, and the
// created-status guard at finalization.
type Burner struct {
	st  *StateDB
	nft NftInfoProvider
}

// NftInfoProvider reads live metadata from an external NFT contract.
// The unprocessed-queue query uses it to enrich cw721 items.
type NftInfoProvider interface {
	NftInfo(tokenAddr, tokenID string) (*agreement.NftInfo, error)
}

func New(st *StateDB, nft NftInfoProvider) *Burner {
	return &Burner{st: st, nft: nft}
}

// Instantiate seeds a fresh ledger. It fails with a conflict if the
// ledger was already instantiated.
func (b *Burner) Instantiate(tc agreement.TxContext, msg InstantiateMsg) error {
	_, ok, err := b.st.GetConfig()
	if err != nil {
		return err
	}
	if ok {
		return agreement.ErrConflict.Newf("already instantiated")
	}

	txLimit := RelayerTxHandleLimitDefault
	if msg.TxLimit != nil {
		txLimit = *msg.TxLimit
	}
	if txLimit > RelayerTxHandleLimitMax {
		return agreement.ErrBadRequest.Newf("max tx limit is %d", RelayerTxHandleLimitMax)
	}

	owner := msg.Owner
	if owner == "" {
		owner = tc.Sender
	}
	if err := agreement.ValidateAddr(owner); err != nil {
		return err
	}
	if err := agreement.ValidateAddr(msg.BurnContract); err != nil {
		return err
	}

	return b.st.WithinTx(func(tx *sql.Tx) error {
		for _, token := range msg.SupportedTokens {
			if err := agreement.ValidateAddr(token.BurnerTokenAddr); err != nil {
				return err
			}
			if token.MinterTokenAddr == "" {
				return agreement.ErrBadRequest.Newf("minter_token is empty")
			}
			if !token.TokenType.Valid() {
				return agreement.ErrBadRequest.Newf("unknown token type %q", token.TokenType)
			}
			info := &agreement.TokenInfo{Addr: token.MinterTokenAddr, TokenType: token.TokenType}
			if err := b.st.InsertToken(tx, token.BurnerTokenAddr, info); err != nil {
				if database.IsUniqueViolation(err) {
					return agreement.ErrBadRequest.Newf("already exist")
				}
				return err
			}
		}

		return b.st.InitConfig(tx, &Config{
			Owner:        owner,
			BurnContract: msg.BurnContract,
			TxIdx:        0,
			TxLimit:      txLimit,
		})
	})
}

// RequestMigrations escrows the requested assets and enqueues one
// created tx per request, all under a single fresh user_req batch. The
// returned messages move the assets from the user into the bridge.
func (b *Burner) RequestMigrations(tc agreement.TxContext, reqs []agreement.MigrationReq) ([]agreement.TokenMsg, error) {
	cfg, err := b.mustConfig()
	if err != nil {
		return nil, err
	}

	if len(reqs) == 0 {
		return nil, agreement.ErrBadRequest.Newf("no requests")
	}
	if len(reqs) > int(UserInfoLimit) {
		return nil, agreement.ErrBadRequest.Newf("too many requests, tx limit is %d", UserInfoLimit)
	}

	lastReqID, err := b.st.LastUserReqID(tc.Sender)
	if err != nil {
		return nil, err
	}
	userReqID := lastReqID + 1

	var msgs []agreement.TokenMsg
	info := &UserReqInfo{
		BlockNum:  tc.BlockNum,
		Timestamp: tc.Timestamp,
	}

	err = b.st.WithinTx(func(tx *sql.Tx) error {
		txIdx := cfg.TxIdx
		for _, req := range reqs {
			if err := agreement.ValidateAddr(req.Asset); err != nil {
				return err
			}
			ti, ok, err := b.st.GetToken(req.Asset)
			if err != nil {
				return err
			}
			if !ok {
				return agreement.ErrNotFound.Newf("token %s is not supported", req.Asset)
			}

			if req.To == "" {
				return agreement.ErrBadRequest.Newf("to is required")
			}

			switch ti.TokenType {
			case agreement.TokenTypeCw721:
				if req.NftID == "" {
					return agreement.ErrBadRequest.Newf("nft_id is required for Cw721 token")
				}
				if err := b.st.ReserveNft(tx, req.Asset, req.NftID); err != nil {
					if database.IsUniqueViolation(err) {
						return agreement.ErrBadRequest.Newf("nft_id %s is already in use", req.NftID)
					}
					return err
				}
				msgs = append(msgs, agreement.Cw721TransferNft{
					Token:     req.Asset,
					Recipient: tc.Contract,
					TokenID:   req.NftID,
				})
			case agreement.TokenTypeCw20:
				if req.Amount == nil || req.Amount.Sign() <= 0 {
					return agreement.ErrBadRequest.Newf("amount is required for cw20 token")
				}
				msgs = append(msgs, agreement.Cw20TransferFrom{
					Token:     req.Asset,
					Owner:     tc.Sender,
					Recipient: tc.Contract,
					Amount:    req.Amount,
				})
			default:
				return agreement.ErrBadRequest.Newf("token type %s cannot be migrated from this side", ti.TokenType)
			}

			txIdx++
			info.TxIDs = append(info.TxIDs, txIdx)

			if err := b.st.EnqueueUnprocessed(tx, txIdx); err != nil {
				if database.IsUniqueViolation(err) {
					return agreement.ErrInternal.Newf("tx id %d is already in use", txIdx)
				}
				return err
			}

			item := &Tx{
				ID:              txIdx,
				Status:          StatusCreated,
				From:            tc.Sender,
				To:              req.To,
				UserReqID:       userReqID,
				TokenAddr:       req.Asset,
				MinterTokenAddr: ti.Addr,
				Amount:          amountOrZero(ti.TokenType, req.Amount),
				NftID:           req.NftID,
			}
			if err := b.st.InsertTx(tx, item); err != nil {
				if database.IsUniqueViolation(err) {
					return agreement.ErrInternal.Newf("tx_idx duplicated")
				}
				return err
			}
		}

		info.InProgress = uint8(len(info.TxIDs))
		if err := b.st.InsertUserReq(tx, tc.Sender, userReqID, info); err != nil {
			return err
		}

		cfg.TxIdx = txIdx
		return b.st.SaveConfig(tx, cfg)
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"sender":      tc.Sender,
		"user_req_id": userReqID,
		"tx_ids":      info.TxIDs,
	}).Info("migrations requested")

	return msgs, nil
}

// RecordMigrationResult is the single point of truth for asset
// disposition. It finalizes one tx exactly once and emits exactly one
// compensating message: burn or forward on success, refund on failure.
func (b *Burner) RecordMigrationResult(
	tc agreement.TxContext,
	id uint64,
	status int16,
	minterID *uint64,
	minterTxHash string,
	message string,
) (agreement.TokenMsg, error) {
	cfg, err := b.mustConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Owner != tc.Sender {
		return nil, agreement.ErrUnauthorized.Newf("sender %s is not the owner", tc.Sender)
	}

	t, ok, err := b.st.GetTx(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, agreement.ErrNotFound.Newf("tx %d not found", id)
	}
	if t.Status != StatusCreated {
		return nil, agreement.ErrConflict.Newf("tx already processed")
	}

	ti, ok, err := b.st.GetToken(t.TokenAddr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, agreement.ErrInternal.Newf("token %s of queued tx %d is not registered", t.TokenAddr, id)
	}

	succeeded := status == agreement.TxResultSuccess
	if succeeded {
		t.Status = StatusSwapped
	} else {
		t.Status = StatusPaidBack
	}
	t.MinterID = minterID
	t.MinterTxHash = minterTxHash
	t.Msg = message

	err = b.st.WithinTx(func(tx *sql.Tx) error {
		if err := b.st.FinalizeTx(tx, t); err != nil {
			return err
		}
		if err := b.st.ApplyUserReqResult(tx, t.From, t.UserReqID, succeeded); err != nil {
			if err == sql.ErrNoRows {
				return agreement.ErrInternal.Newf("user_req_id not found")
			}
			return err
		}
		if err := b.st.DequeueUnprocessed(tx, id); err != nil {
			return err
		}
		if ti.TokenType == agreement.TokenTypeCw721 {
			return b.st.ReleaseNft(tx, t.TokenAddr, t.NftID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"id":     id,
		"status": t.Status,
	}).Info("migration result recorded")

	switch ti.TokenType {
	case agreement.TokenTypeCw721:
		recipient := t.From
		if succeeded {
			recipient = cfg.BurnContract
		}
		return agreement.Cw721TransferNft{Token: t.TokenAddr, Recipient: recipient, TokenID: t.NftID}, nil
	default:
		if succeeded {
			return agreement.Cw20Burn{Token: t.TokenAddr, Amount: t.Amount}, nil
		}
		return agreement.Cw20Transfer{Token: t.TokenAddr, Recipient: t.From, Amount: t.Amount}, nil
	}
}

// AddToken registers a new asset. Owner only.
func (b *Burner) AddToken(tc agreement.TxContext, burnerTokenAddr, minterTokenAddr string, tokenType agreement.TokenType) error {
	cfg, err := b.mustConfig()
	if err != nil {
		return err
	}
	if cfg.Owner != tc.Sender {
		return agreement.ErrUnauthorized.Newf("sender %s is not the owner", tc.Sender)
	}

	if minterTokenAddr == "" {
		return agreement.ErrBadRequest.Newf("minter_token_addr is empty")
	}
	if !tokenType.Valid() {
		return agreement.ErrBadRequest.Newf("unknown token type %q", tokenType)
	}
	if err := agreement.ValidateAddr(burnerTokenAddr); err != nil {
		return err
	}

	return b.st.WithinTx(func(tx *sql.Tx) error {
		info := &agreement.TokenInfo{Addr: minterTokenAddr, TokenType: tokenType}
		if err := b.st.InsertToken(tx, burnerTokenAddr, info); err != nil {
			if database.IsUniqueViolation(err) {
				return agreement.ErrBadRequest.Newf("already exist")
			}
			return err
		}
		return nil
	})
}

// RemoveToken drops an asset from the registry. Refused while the work
// queue still holds a tx for the asset, so no in-flight migration is
// orphaned.
func (b *Burner) RemoveToken(tc agreement.TxContext, burnerTokenAddr string) error {
	cfg, err := b.mustConfig()
	if err != nil {
		return err
	}
	if cfg.Owner != tc.Sender {
		return agreement.ErrUnauthorized.Newf("sender %s is not the owner", tc.Sender)
	}
	if err := agreement.ValidateAddr(burnerTokenAddr); err != nil {
		return err
	}

	pending, err := b.st.HasUnprocessedForToken(burnerTokenAddr)
	if err != nil {
		return err
	}
	if pending {
		return agreement.ErrBadRequest.Newf("there are unprocessed txs")
	}

	return b.st.WithinTx(func(tx *sql.Tx) error {
		return b.st.RemoveToken(tx, burnerTokenAddr)
	})
}

// UpdateTxLimit changes how many queue items one relayer poll may take.
func (b *Burner) UpdateTxLimit(tc agreement.TxContext, limit uint8) error {
	cfg, err := b.mustConfig()
	if err != nil {
		return err
	}
	if cfg.Owner != tc.Sender {
		return agreement.ErrUnauthorized.Newf("sender %s is not the owner", tc.Sender)
	}
	if limit == 0 || limit > RelayerTxHandleLimitMax {
		return agreement.ErrBadRequest.Newf("tx_limit must be 0 < tx_limit <= %d", RelayerTxHandleLimitMax)
	}

	cfg.TxLimit = limit
	return b.st.WithinTx(func(tx *sql.Tx) error {
		return b.st.SaveConfig(tx, cfg)
	})
}

// UpdateOwner hands the ledger over to a new owner.
func (b *Burner) UpdateOwner(tc agreement.TxContext, newOwner string) error {
	cfg, err := b.mustConfig()
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
	return b.st.WithinTx(func(tx *sql.Tx) error {
		return b.st.SaveConfig(tx, cfg)
	})
}

func (b *Burner) mustConfig() (*Config, error) {
	cfg, ok, err := b.st.GetConfig()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, agreement.ErrInternal.Newf("ledger is not instantiated")
	}
	return cfg, nil
}
