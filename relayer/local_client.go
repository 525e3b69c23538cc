package relayer

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/LUCAS95222/HashedV2/agreement"
	"github.com/LUCAS95222/HashedV2/minter"
)

// LocalMinterClient calls an in-process minter directly. It stands in
// for the destination-chain transport in tests and single-binary runs;
// the tx hash it reports is derived from the executed ids.
type LocalMinterClient struct {
	minter   *minter.Minter
	operator string
}

func NewLocalMinterClient(m *minter.Minter, operator string) *LocalMinterClient {
	return &LocalMinterClient{minter: m, operator: operator}
}

func (c *LocalMinterClient) ExecuteMigration(req minter.ExecuteMigrationReq) (*ExecutionResult, error) {
	tc := agreement.TxContext{
		Sender:    c.operator,
		Timestamp: time.Now().UnixMilli(),
	}
	minterID, _, err := c.minter.ExecuteMigration(tc, req)
	if err != nil {
		return nil, err
	}
	return &ExecutionResult{
		MinterID: minterID,
		TxHash:   localTxHash(req.BurnerID, minterID),
	}, nil
}

func (c *LocalMinterClient) MigrationResult(burnerID uint64) (*minter.MigrationResult, error) {
	return c.minter.MigrationResult(burnerID)
}

func localTxHash(burnerID, minterID uint64) string {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], burnerID)
	binary.BigEndian.PutUint64(buf[8:], minterID)
	sum := sha256.Sum256(buf[:])
	return hex.EncodeToString(sum[:])
}
