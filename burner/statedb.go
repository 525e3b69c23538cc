package burner

import (
	"database/sql"

	"github.com/LUCAS95222/HashedV2/agreement"
	"github.com/LUCAS95222/HashedV2/database"
)

// StateDB owns all burner-side tables. Reads go through cached prepared
// statements; writes always run inside a caller-supplied transaction so
// that one ledger call is one atomic unit.
type StateDB struct {
	db        *sql.DB
	stmtCache *database.StmtCache
}

func NewStateDB(db *sql.DB) (*StateDB, error) {
	schema := configTable + supportedTokenTable + txTable +
		unprocessedTxTable + unprocessedNftTable + userReqTable
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	return &StateDB{
		db:        db,
		stmtCache: database.NewStmtCache(db),
	}, nil
}

func (st *StateDB) Close() {
	st.stmtCache.Clear()
}

// WithinTx wraps fn in one transaction over the underlying db.
func (st *StateDB) WithinTx(fn func(tx *sql.Tx) error) error {
	return database.WithinTx(st.db, fn)
}

// ---- config ----

func (st *StateDB) InitConfig(tx *sql.Tx, cfg *Config) error {
	query := `INSERT INTO config (id, owner, burnContract, txIdx, txLimit) VALUES (1, ?, ?, ?, ?)`
	stmt, err := st.stmtCache.PrepareTx(tx, query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(cfg.Owner, cfg.BurnContract, cfg.TxIdx, cfg.TxLimit)
	return err
}

func (st *StateDB) GetConfig() (*Config, bool, error) {
	query := `SELECT owner, burnContract, txIdx, txLimit FROM config WHERE id = 1`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, false, err
	}

	var cfg Config
	if err := stmt.QueryRow().Scan(&cfg.Owner, &cfg.BurnContract, &cfg.TxIdx, &cfg.TxLimit); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &cfg, true, nil
}

func (st *StateDB) SaveConfig(tx *sql.Tx, cfg *Config) error {
	query := `UPDATE config SET owner = ?, burnContract = ?, txIdx = ?, txLimit = ? WHERE id = 1`
	stmt, err := st.stmtCache.PrepareTx(tx, query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(cfg.Owner, cfg.BurnContract, cfg.TxIdx, cfg.TxLimit)
	return err
}

// ---- supported tokens ----

// InsertToken fails with a unique violation if the asset is already
// registered. Callers map that onto the error taxonomy.
func (st *StateDB) InsertToken(tx *sql.Tx, asset string, info *agreement.TokenInfo) error {
	query := `INSERT INTO supported_token (assetAddr, minterTokenAddr, tokenType) VALUES (?, ?, ?)`
	stmt, err := st.stmtCache.PrepareTx(tx, query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(asset, info.Addr, string(info.TokenType))
	return err
}

func (st *StateDB) GetToken(asset string) (*agreement.TokenInfo, bool, error) {
	query := `SELECT minterTokenAddr, tokenType FROM supported_token WHERE assetAddr = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, false, err
	}

	var info agreement.TokenInfo
	if err := stmt.QueryRow(asset).Scan(&info.Addr, &info.TokenType); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &info, true, nil
}

func (st *StateDB) RemoveToken(tx *sql.Tx, asset string) error {
	query := `DELETE FROM supported_token WHERE assetAddr = ?`
	stmt, err := st.stmtCache.PrepareTx(tx, query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(asset)
	return err
}

func (st *StateDB) ListTokens(startAfter string) ([]agreement.SupportedToken, error) {
	query := `SELECT assetAddr, minterTokenAddr, tokenType FROM supported_token
		WHERE assetAddr > ? ORDER BY assetAddr ASC`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(startAfter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []agreement.SupportedToken
	for rows.Next() {
		var t agreement.SupportedToken
		if err := rows.Scan(&t.BurnerTokenAddr, &t.MinterTokenAddr, &t.TokenType); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// ---- txs ----

func (st *StateDB) InsertTx(tx *sql.Tx, t *Tx) error {
	query := `INSERT INTO tx (` + txParamList + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := st.stmtCache.PrepareTx(tx, query)
	if err != nil {
		return err
	}

	s := new(sqlTx).encode(t)
	_, err = stmt.Exec(
		s.ID, s.Status, s.FromAddr, s.ToAddr, s.UserReqID,
		s.TokenAddr, s.MinterTokenAddr, s.Amount, s.NftID,
		s.Msg, s.MinterID, s.MinterTxHash,
	)
	return err
}

func (st *StateDB) GetTx(id uint64) (*Tx, bool, error) {
	query := `SELECT` + txParamList + `FROM tx WHERE id = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, false, err
	}

	var s sqlTx
	if err := stmt.QueryRow(id).Scan(
		&s.ID, &s.Status, &s.FromAddr, &s.ToAddr, &s.UserReqID,
		&s.TokenAddr, &s.MinterTokenAddr, &s.Amount, &s.NftID,
		&s.Msg, &s.MinterID, &s.MinterTxHash,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}

	t, err := s.decode()
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

// FinalizeTx writes the terminal status and the minter-side result onto
// an existing tx row.
func (st *StateDB) FinalizeTx(tx *sql.Tx, t *Tx) error {
	query := `UPDATE tx SET status = ?, msg = ?, minterId = ?, minterTxHash = ? WHERE id = ?`
	stmt, err := st.stmtCache.PrepareTx(tx, query)
	if err != nil {
		return err
	}

	s := new(sqlTx).encode(t)
	_, err = stmt.Exec(s.Status, s.Msg, s.MinterID, s.MinterTxHash, s.ID)
	return err
}

// ---- work queue ----

// EnqueueUnprocessed inserts id into the work queue. A unique violation
// means the id was already allocated, which signals ledger corruption.
func (st *StateDB) EnqueueUnprocessed(tx *sql.Tx, id uint64) error {
	query := `INSERT INTO unprocessed_tx (id) VALUES (?)`
	stmt, err := st.stmtCache.PrepareTx(tx, query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(id)
	return err
}

func (st *StateDB) DequeueUnprocessed(tx *sql.Tx, id uint64) error {
	query := `DELETE FROM unprocessed_tx WHERE id = ?`
	stmt, err := st.stmtCache.PrepareTx(tx, query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(id)
	return err
}

// UnprocessedIDs lists queued ids in ascending order, start exclusive.
func (st *StateDB) UnprocessedIDs(limit uint8, startAfter uint64) ([]uint64, error) {
	query := `SELECT id FROM unprocessed_tx WHERE id > ? ORDER BY id ASC LIMIT ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(startAfter, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// HasUnprocessedForToken reports whether any queued tx still references
// the asset. Guards RemoveToken against orphaning in-flight work.
func (st *StateDB) HasUnprocessedForToken(asset string) (bool, error) {
	query := `SELECT COUNT(*) FROM unprocessed_tx u JOIN tx t ON u.id = t.id WHERE t.tokenAddr = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return false, err
	}

	var n int
	if err := stmt.QueryRow(asset).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ---- nft reservations ----

// ReserveNft marks (asset, nftID) as in flight. A unique violation
// means another created tx already holds the reservation.
func (st *StateDB) ReserveNft(tx *sql.Tx, asset, nftID string) error {
	query := `INSERT INTO unprocessed_nft (tokenAddr, nftId) VALUES (?, ?)`
	stmt, err := st.stmtCache.PrepareTx(tx, query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(asset, nftID)
	return err
}

func (st *StateDB) ReleaseNft(tx *sql.Tx, asset, nftID string) error {
	query := `DELETE FROM unprocessed_nft WHERE tokenAddr = ? AND nftId = ?`
	stmt, err := st.stmtCache.PrepareTx(tx, query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(asset, nftID)
	return err
}

func (st *StateDB) IsNftReserved(asset, nftID string) (bool, error) {
	query := `SELECT COUNT(*) FROM unprocessed_nft WHERE tokenAddr = ? AND nftId = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return false, err
	}

	var n int
	if err := stmt.QueryRow(asset, nftID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ---- per-user batches ----

// LastUserReqID returns the highest req id the user has used, 0 if none.
func (st *StateDB) LastUserReqID(user string) (uint32, error) {
	query := `SELECT COALESCE(MAX(reqId), 0) FROM user_req WHERE userAddr = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return 0, err
	}

	var id uint32
	if err := stmt.QueryRow(user).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (st *StateDB) InsertUserReq(tx *sql.Tx, user string, reqID uint32, info *UserReqInfo) error {
	query := `INSERT INTO user_req (userAddr, reqId, blockNum, timestamp, txIds, success, fail, inProgress)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := st.stmtCache.PrepareTx(tx, query)
	if err != nil {
		return err
	}

	txIDs, err := encodeTxIDs(info.TxIDs)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(user, reqID, info.BlockNum, info.Timestamp, txIDs, info.Success, info.Fail, info.InProgress)
	return err
}

func (st *StateDB) GetUserReq(user string, reqID uint32) (*UserReqInfo, bool, error) {
	query := `SELECT blockNum, timestamp, txIds, success, fail, inProgress FROM user_req
		WHERE userAddr = ? AND reqId = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, false, err
	}

	var (
		info  UserReqInfo
		txIDs []byte
	)
	if err := stmt.QueryRow(user, reqID).Scan(
		&info.BlockNum, &info.Timestamp, &txIDs, &info.Success, &info.Fail, &info.InProgress,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}

	ids, err := decodeTxIDs(txIDs)
	if err != nil {
		return nil, false, err
	}
	info.TxIDs = ids
	return &info, true, nil
}

// ApplyUserReqResult decrements inProgress and bumps the success or
// fail counter of the owning batch.
func (st *StateDB) ApplyUserReqResult(tx *sql.Tx, user string, reqID uint32, success bool) error {
	var query string
	if success {
		query = `UPDATE user_req SET inProgress = inProgress - 1, success = success + 1
			WHERE userAddr = ? AND reqId = ?`
	} else {
		query = `UPDATE user_req SET inProgress = inProgress - 1, fail = fail + 1
			WHERE userAddr = ? AND reqId = ?`
	}
	stmt, err := st.stmtCache.PrepareTx(tx, query)
	if err != nil {
		return err
	}

	res, err := stmt.Exec(user, reqID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UserReqIDs pages the user's batch ids with an exclusive cursor.
// A zero cursor in descending order means "from the newest".
func (st *StateDB) UserReqIDs(user string, startAfter uint32, descending bool, limit uint8) ([]uint32, error) {
	var query string
	if descending {
		if startAfter == 0 {
			query = `SELECT reqId FROM user_req WHERE userAddr = ? AND reqId > ? ORDER BY reqId DESC LIMIT ?`
		} else {
			query = `SELECT reqId FROM user_req WHERE userAddr = ? AND reqId < ? ORDER BY reqId DESC LIMIT ?`
		}
	} else {
		query = `SELECT reqId FROM user_req WHERE userAddr = ? AND reqId > ? ORDER BY reqId ASC LIMIT ?`
	}
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(user, startAfter, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint32
	for rows.Next() {
		var id uint32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
