package burner

import (
	"database/sql"
	"fmt"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LUCAS95222/HashedV2/agreement"
)

// testDBSeq gives every test DB a unique name. A plain ":memory:" DSN
// creates a separate empty database per pooled connection, so the
// schema set up on one connection is invisible to the others; a named
// shared-cache in-memory DSN keeps one database per sql.DB.
var testDBSeq atomic.Uint64

func getMemoryDB(t *testing.T) *sql.DB {
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func newTestStateDBEnv(t *testing.T) (*StateDB, func()) {
	sqlDB := getMemoryDB(t)
	st, err := NewStateDB(sqlDB)
	if err != nil {
		t.Fatal(err)
	}
	return st, func() {
		st.Close()
		sqlDB.Close()
	}
}

func TestConfigRoundtrip(t *testing.T) {
	st, close := newTestStateDBEnv(t)
	defer close()

	_, ok, err := st.GetConfig()
	assert.NoError(t, err)
	assert.False(t, ok)

	owner := agreement.RandAccountAddr()
	burn := agreement.RandContractAddr()
	err = st.WithinTx(func(tx *sql.Tx) error {
		return st.InitConfig(tx, &Config{Owner: owner, BurnContract: burn, TxIdx: 0, TxLimit: 10})
	})
	assert.NoError(t, err)

	cfg, ok, err := st.GetConfig()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, owner, cfg.Owner)
	assert.Equal(t, burn, cfg.BurnContract)

	cfg.TxIdx = 7
	cfg.TxLimit = 15
	err = st.WithinTx(func(tx *sql.Tx) error {
		return st.SaveConfig(tx, cfg)
	})
	assert.NoError(t, err)

	cfg2, ok, err := st.GetConfig()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), cfg2.TxIdx)
	assert.Equal(t, uint8(15), cfg2.TxLimit)
}

func TestTokenRegistry(t *testing.T) {
	st, close := newTestStateDBEnv(t)
	defer close()

	asset1 := "xpla1aaa"
	asset2 := "xpla1bbb"
	err := st.WithinTx(func(tx *sql.Tx) error {
		if err := st.InsertToken(tx, asset2, &agreement.TokenInfo{Addr: "dest2", TokenType: agreement.TokenTypeCw721}); err != nil {
			return err
		}
		return st.InsertToken(tx, asset1, &agreement.TokenInfo{Addr: "dest1", TokenType: agreement.TokenTypeCw20})
	})
	assert.NoError(t, err)

	ti, ok, err := st.GetToken(asset1)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dest1", ti.Addr)
	assert.Equal(t, agreement.TokenTypeCw20, ti.TokenType)

	// listing is ascending by asset address
	tokens, err := st.ListTokens("")
	assert.NoError(t, err)
	assert.Len(t, tokens, 2)
	assert.Equal(t, asset1, tokens[0].BurnerTokenAddr)
	assert.Equal(t, asset2, tokens[1].BurnerTokenAddr)

	// cursor is exclusive
	tokens, err = st.ListTokens(asset1)
	assert.NoError(t, err)
	assert.Len(t, tokens, 1)
	assert.Equal(t, asset2, tokens[0].BurnerTokenAddr)

	err = st.WithinTx(func(tx *sql.Tx) error {
		return st.RemoveToken(tx, asset1)
	})
	assert.NoError(t, err)

	_, ok, err = st.GetToken(asset1)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestTxRoundtrip(t *testing.T) {
	st, close := newTestStateDBEnv(t)
	defer close()

	from := agreement.RandAccountAddr()
	item := &Tx{
		ID:              1,
		Status:          StatusCreated,
		From:            from,
		To:              "dest_user",
		UserReqID:       1,
		TokenAddr:       "xpla1token",
		MinterTokenAddr: "dest_token",
		Amount:          big.NewInt(123456789),
	}
	err := st.WithinTx(func(tx *sql.Tx) error {
		return st.InsertTx(tx, item)
	})
	assert.NoError(t, err)

	got, ok, err := st.GetTx(1)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, item.From, got.From)
	assert.Equal(t, StatusCreated, got.Status)
	assert.Equal(t, 0, got.Amount.Cmp(big.NewInt(123456789)))
	assert.Nil(t, got.MinterID)
	assert.Empty(t, got.Msg)

	minterID := uint64(42)
	got.Status = StatusSwapped
	got.MinterID = &minterID
	got.MinterTxHash = "abcd"
	got.Msg = "done"
	err = st.WithinTx(func(tx *sql.Tx) error {
		return st.FinalizeTx(tx, got)
	})
	assert.NoError(t, err)

	got2, ok, err := st.GetTx(1)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StatusSwapped, got2.Status)
	assert.Equal(t, uint64(42), *got2.MinterID)
	assert.Equal(t, "abcd", got2.MinterTxHash)
	assert.Equal(t, "done", got2.Msg)

	_, ok, err = st.GetTx(999)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestUnprocessedQueue(t *testing.T) {
	st, close := newTestStateDBEnv(t)
	defer close()

	err := st.WithinTx(func(tx *sql.Tx) error {
		for id := uint64(1); id <= 5; id++ {
			if err := st.EnqueueUnprocessed(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	assert.NoError(t, err)

	// duplicate id is a unique violation
	err = st.WithinTx(func(tx *sql.Tx) error {
		return st.EnqueueUnprocessed(tx, 3)
	})
	assert.Error(t, err)

	ids, err := st.UnprocessedIDs(3, 0)
	assert.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids)

	ids, err = st.UnprocessedIDs(3, 3)
	assert.NoError(t, err)
	assert.Equal(t, []uint64{4, 5}, ids)

	err = st.WithinTx(func(tx *sql.Tx) error {
		return st.DequeueUnprocessed(tx, 1)
	})
	assert.NoError(t, err)

	ids, err = st.UnprocessedIDs(10, 0)
	assert.NoError(t, err)
	assert.Equal(t, []uint64{2, 3, 4, 5}, ids)
}

func TestNftReservation(t *testing.T) {
	st, close := newTestStateDBEnv(t)
	defer close()

	asset := "xpla1nft"
	err := st.WithinTx(func(tx *sql.Tx) error {
		return st.ReserveNft(tx, asset, "7")
	})
	assert.NoError(t, err)

	reserved, err := st.IsNftReserved(asset, "7")
	assert.NoError(t, err)
	assert.True(t, reserved)

	// double reservation fails
	err = st.WithinTx(func(tx *sql.Tx) error {
		return st.ReserveNft(tx, asset, "7")
	})
	assert.Error(t, err)

	// same id under a different asset is a different key
	err = st.WithinTx(func(tx *sql.Tx) error {
		return st.ReserveNft(tx, "xpla1other", "7")
	})
	assert.NoError(t, err)

	err = st.WithinTx(func(tx *sql.Tx) error {
		return st.ReleaseNft(tx, asset, "7")
	})
	assert.NoError(t, err)

	reserved, err = st.IsNftReserved(asset, "7")
	assert.NoError(t, err)
	assert.False(t, reserved)
}

func TestUserReqLifecycle(t *testing.T) {
	st, close := newTestStateDBEnv(t)
	defer close()

	user := agreement.RandAccountAddr()

	last, err := st.LastUserReqID(user)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0), last)

	info := &UserReqInfo{
		TxIDs:      []uint64{1, 2, 3},
		BlockNum:   100,
		Timestamp:  1700000000000,
		InProgress: 3,
	}
	err = st.WithinTx(func(tx *sql.Tx) error {
		return st.InsertUserReq(tx, user, 1, info)
	})
	assert.NoError(t, err)

	last, err = st.LastUserReqID(user)
	assert.NoError(t, err)
	assert.Equal(t, uint32(1), last)

	got, ok, err := st.GetUserReq(user, 1)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []uint64{1, 2, 3}, got.TxIDs)
	assert.Equal(t, uint8(3), got.InProgress)

	err = st.WithinTx(func(tx *sql.Tx) error {
		return st.ApplyUserReqResult(tx, user, 1, true)
	})
	assert.NoError(t, err)
	err = st.WithinTx(func(tx *sql.Tx) error {
		return st.ApplyUserReqResult(tx, user, 1, false)
	})
	assert.NoError(t, err)

	got, _, err = st.GetUserReq(user, 1)
	assert.NoError(t, err)
	assert.Equal(t, uint8(1), got.Success)
	assert.Equal(t, uint8(1), got.Fail)
	assert.Equal(t, uint8(1), got.InProgress)

	// unknown batch surfaces as ErrNoRows
	err = st.WithinTx(func(tx *sql.Tx) error {
		return st.ApplyUserReqResult(tx, user, 9, true)
	})
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestUserReqIDsPaging(t *testing.T) {
	st, close := newTestStateDBEnv(t)
	defer close()

	user := agreement.RandAccountAddr()
	err := st.WithinTx(func(tx *sql.Tx) error {
		for reqID := uint32(1); reqID <= 5; reqID++ {
			info := &UserReqInfo{TxIDs: []uint64{uint64(reqID)}, InProgress: 1}
			if err := st.InsertUserReq(tx, user, reqID, info); err != nil {
				return err
			}
		}
		return nil
	})
	assert.NoError(t, err)

	ids, err := st.UserReqIDs(user, 0, false, 3)
	assert.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, ids)

	ids, err = st.UserReqIDs(user, 3, false, 3)
	assert.NoError(t, err)
	assert.Equal(t, []uint32{4, 5}, ids)

	// descending with a zero cursor starts from the newest
	ids, err = st.UserReqIDs(user, 0, true, 3)
	assert.NoError(t, err)
	assert.Equal(t, []uint32{5, 4, 3}, ids)

	ids, err = st.UserReqIDs(user, 3, true, 3)
	assert.NoError(t, err)
	assert.Equal(t, []uint32{2, 1}, ids)
}
