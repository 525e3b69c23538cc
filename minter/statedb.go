package minter

import (
	"bytes"
	"database/sql"
	"encoding/gob"
	"errors"
	"math/big"

	"github.com/LUCAS95222/HashedV2/agreement"
	"github.com/LUCAS95222/HashedV2/database"
)

// StateDB owns the minter-side tables.
type StateDB struct {
	db        *sql.DB
	stmtCache *database.StmtCache
}

func NewStateDB(db *sql.DB) (*StateDB, error) {
	schema := configTable + supportedTokenTable + txTable + burnerMinterIdxTable
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

func (st *StateDB) WithinTx(fn func(tx *sql.Tx) error) error {
	return database.WithinTx(st.db, fn)
}

// ---- config ----

func (st *StateDB) InitConfig(tx *sql.Tx, cfg *Config) error {
	query := `INSERT INTO config (id, owner, txIdx) VALUES (1, ?, ?)`
	stmt, err := st.stmtCache.PrepareTx(tx, query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(cfg.Owner, cfg.TxIdx)
	return err
}

func (st *StateDB) GetConfig() (*Config, bool, error) {
	query := `SELECT owner, txIdx FROM config WHERE id = 1`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, false, err
	}

	var cfg Config
	if err := stmt.QueryRow().Scan(&cfg.Owner, &cfg.TxIdx); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &cfg, true, nil
}

func (st *StateDB) SaveConfig(tx *sql.Tx, cfg *Config) error {
	query := `UPDATE config SET owner = ?, txIdx = ? WHERE id = 1`
	stmt, err := st.stmtCache.PrepareTx(tx, query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(cfg.Owner, cfg.TxIdx)
	return err
}

// ---- supported tokens ----

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

// ---- burner-id index ----

// InsertBurnerIdx maps burnerID to minterID. The first insert wins; a
// unique violation marks a replayed execution.
func (st *StateDB) InsertBurnerIdx(tx *sql.Tx, burnerID, minterID uint64) error {
	query := `INSERT INTO burner_minter_idx (burnerId, minterId) VALUES (?, ?)`
	stmt, err := st.stmtCache.PrepareTx(tx, query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(burnerID, minterID)
	return err
}

func (st *StateDB) GetBurnerIdx(burnerID uint64) (uint64, bool, error) {
	query := `SELECT minterId FROM burner_minter_idx WHERE burnerId = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return 0, false, err
	}

	var minterID uint64
	if err := stmt.QueryRow(burnerID).Scan(&minterID); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return minterID, true, nil
}

// ---- txs ----

func (st *StateDB) InsertTx(tx *sql.Tx, t *Tx) error {
	query := `INSERT INTO tx (id, burnerId, recipient, assetAddr, amount, nftId, nftUri, nftExtension)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := st.stmtCache.PrepareTx(tx, query)
	if err != nil {
		return err
	}

	var (
		amount, nftID, nftURI sql.NullString
		nftExt                []byte
	)
	if t.TokenReq != nil {
		amount = sql.NullString{String: t.TokenReq.Amount.String(), Valid: true}
	}
	if t.NftReq != nil {
		nftID = sql.NullString{String: t.NftReq.ID, Valid: true}
		if t.NftReq.URI != "" {
			nftURI = sql.NullString{String: t.NftReq.URI, Valid: true}
		}
		if t.NftReq.Extension != nil {
			nftExt, err = encodeExtension(t.NftReq.Extension)
			if err != nil {
				return err
			}
		}
	}

	_, err = stmt.Exec(t.ID, t.BurnerID, t.Recipient, t.Asset, amount, nftID, nftURI, nftExt)
	return err
}

func (st *StateDB) GetTx(id uint64) (*Tx, bool, error) {
	query := `SELECT id, burnerId, recipient, assetAddr, amount, nftId, nftUri, nftExtension FROM tx WHERE id = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, false, err
	}

	var (
		t                     Tx
		amount, nftID, nftURI sql.NullString
		nftExt                []byte
	)
	if err := stmt.QueryRow(id).Scan(
		&t.ID, &t.BurnerID, &t.Recipient, &t.Asset, &amount, &nftID, &nftURI, &nftExt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}

	if amount.Valid {
		v, ok := new(big.Int).SetString(amount.String, 10)
		if !ok {
			return nil, false, errors.New("stored amount is not a decimal integer")
		}
		t.TokenReq = &TokenMigrationReq{Amount: v}
	}
	if nftID.Valid {
		req := &NftMigrationReq{ID: nftID.String}
		if nftURI.Valid {
			req.URI = nftURI.String
		}
		if len(nftExt) > 0 {
			ext, err := decodeExtension(nftExt)
			if err != nil {
				return nil, false, err
			}
			req.Extension = ext
		}
		t.NftReq = req
	}
	return &t, true, nil
}

func encodeExtension(ext *agreement.NftExtension) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ext); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeExtension(data []byte) (*agreement.NftExtension, error) {
	var ext agreement.NftExtension
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&ext); err != nil {
		return nil, err
	}
	return &ext, nil
}
