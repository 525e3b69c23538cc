package burner

import (
	"math/big"

	"github.com/LUCAS95222/HashedV2/agreement"
)

// MigrationRequest returns the query-side view of one tx.
func (b *Burner) MigrationRequest(id uint64) (*TxResponse, error) {
	t, ok, err := b.st.GetTx(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, agreement.ErrNotFound.Newf("tx %d not found", id)
	}
	return newTxResponse(t), nil
}

// UnprocessedMigrationRequests pages the work queue in ascending id
// order with an exclusive cursor. Zero itemsPerReq falls back to the
// configured tx limit, anything above the hard max is clamped. Cw721
// items are enriched with live metadata from the owning NFT contract;
// a metadata failure fails the whole query rather than omitting data.
func (b *Burner) UnprocessedMigrationRequests(itemsPerReq uint8, startAfter uint64) ([]*TxResponse, error) {
	limit := itemsPerReq
	if limit > RelayerTxHandleLimitMax {
		limit = RelayerTxHandleLimitMax
	} else if limit == 0 {
		cfg, err := b.mustConfig()
		if err != nil {
			return nil, err
		}
		limit = cfg.TxLimit
	}

	ids, err := b.st.UnprocessedIDs(limit, startAfter)
	if err != nil {
		return nil, err
	}

	var items []*TxResponse
	for _, id := range ids {
		res, err := b.MigrationRequest(id)
		if err != nil {
			return nil, err
		}

		ti, ok, err := b.st.GetToken(res.TokenAddr)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, agreement.ErrInternal.Newf("token %s of queued tx %d is not registered", res.TokenAddr, id)
		}
		if ti.TokenType == agreement.TokenTypeCw721 {
			if b.nft == nil {
				return nil, agreement.ErrInternal.Newf("no nft info provider configured")
			}
			info, err := b.nft.NftInfo(res.TokenAddr, res.NftInfo.ID)
			if err != nil {
				return nil, agreement.ErrInternal.Newf("nft info lookup for %s/%s failed: %v", res.TokenAddr, res.NftInfo.ID, err)
			}
			res.NftInfo = info
		}
		items = append(items, res)
	}
	return items, nil
}

// UserMigrations pages the user's batch summaries, ascending or
// descending by req id with an exclusive cursor. In descending order a
// zero cursor starts from the newest batch.
func (b *Burner) UserMigrations(addr string, startAfter uint32, descending bool) ([]UserMigrationsItem, error) {
	if err := agreement.ValidateAddr(addr); err != nil {
		return nil, err
	}

	ids, err := b.st.UserReqIDs(addr, startAfter, descending, UserInfoLimit)
	if err != nil {
		return nil, err
	}

	var items []UserMigrationsItem
	for _, reqID := range ids {
		info, ok, err := b.st.GetUserReq(addr, reqID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, agreement.ErrInternal.Newf("user_req %d vanished while listing", reqID)
		}
		items = append(items, UserMigrationsItem{
			ReqID:      reqID,
			BlockNum:   info.BlockNum,
			Timestamp:  info.Timestamp,
			Success:    info.Success,
			Fail:       info.Fail,
			InProgress: info.InProgress,
		})
	}
	return items, nil
}

// UserMigration lists the tx detail of one batch.
func (b *Burner) UserMigration(addr string, reqID uint32) ([]*TxResponse, error) {
	if err := agreement.ValidateAddr(addr); err != nil {
		return nil, err
	}

	info, ok, err := b.st.GetUserReq(addr, reqID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, agreement.ErrNotFound.Newf("user_req %d not found", reqID)
	}

	var txs []*TxResponse
	for _, id := range info.TxIDs {
		res, err := b.MigrationRequest(id)
		if err != nil {
			return nil, err
		}
		txs = append(txs, res)
	}
	return txs, nil
}

// SupportedTokens dumps the registry in ascending key order with an
// exclusive cursor.
func (b *Burner) SupportedTokens(startAfter string) ([]agreement.SupportedToken, error) {
	return b.st.ListTokens(startAfter)
}

func newTxResponse(t *Tx) *TxResponse {
	res := &TxResponse{
		ID:           t.ID,
		Status:       t.Status,
		Msg:          t.Msg,
		From:         t.From,
		To:           t.To,
		UserReqID:    t.UserReqID,
		TokenAddr:    t.TokenAddr,
		MinterID:     t.MinterID,
		MinterTxHash: t.MinterTxHash,
	}
	if t.Amount != nil && t.Amount.Sign() != 0 {
		res.Amount = t.Amount.String()
	}
	if t.NftID != "" {
		res.NftInfo = &agreement.NftInfo{ID: t.NftID}
	}
	return res
}

func amountOrZero(tt agreement.TokenType, amount *big.Int) *big.Int {
	if tt == agreement.TokenTypeCw20 && amount != nil {
		return amount
	}
	return new(big.Int)
}
