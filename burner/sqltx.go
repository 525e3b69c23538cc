package burner

import (
	"bytes"
	"database/sql"
	"encoding/gob"
	"errors"
	"math/big"
)

type sqlTx struct {
	ID              uint64
	Status          string
	FromAddr        string
	ToAddr          string
	UserReqID       uint32
	TokenAddr       string
	MinterTokenAddr string
	Amount          string
	NftID           string
	Msg             sql.NullString
	MinterID        sql.NullInt64
	MinterTxHash    sql.NullString
}

// encode converts a Tx to sql-storable field types. Amount is stored as
// a decimal string to keep arbitrary precision.
func (s *sqlTx) encode(t *Tx) *sqlTx {
	s.ID = t.ID
	s.Status = string(t.Status)
	s.FromAddr = t.From
	s.ToAddr = t.To
	s.UserReqID = t.UserReqID
	s.TokenAddr = t.TokenAddr
	s.MinterTokenAddr = t.MinterTokenAddr
	s.Amount = t.Amount.String()
	s.NftID = t.NftID
	if t.Msg != "" {
		s.Msg = sql.NullString{String: t.Msg, Valid: true}
	}
	if t.MinterID != nil {
		s.MinterID = sql.NullInt64{Int64: int64(*t.MinterID), Valid: true}
	}
	if t.MinterTxHash != "" {
		s.MinterTxHash = sql.NullString{String: t.MinterTxHash, Valid: true}
	}
	return s
}

func (s *sqlTx) decode() (*Tx, error) {
	amount, ok := new(big.Int).SetString(s.Amount, 10)
	if !ok {
		return nil, errors.New("stored amount is not a decimal integer")
	}

	t := &Tx{
		ID:              s.ID,
		Status:          Status(s.Status),
		From:            s.FromAddr,
		To:              s.ToAddr,
		UserReqID:       s.UserReqID,
		TokenAddr:       s.TokenAddr,
		MinterTokenAddr: s.MinterTokenAddr,
		Amount:          amount,
		NftID:           s.NftID,
	}
	if s.Msg.Valid {
		t.Msg = s.Msg.String
	}
	if s.MinterID.Valid {
		id := uint64(s.MinterID.Int64)
		t.MinterID = &id
	}
	if s.MinterTxHash.Valid {
		t.MinterTxHash = s.MinterTxHash.String
	}
	return t, nil
}

func encodeTxIDs(ids []uint64) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ids); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeTxIDs(data []byte) ([]uint64, error) {
	if len(data) == 0 {
		return nil, errors.New("expect non-empty bytes")
	}
	var ids []uint64
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&ids); err != nil {
		return nil, err
	}
	return ids, nil
}
