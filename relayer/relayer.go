// Package relayer drives the reconciliation loop between the two
// ledgers: it drains the burner's unprocessed queue, submits matching
// execution calls to the minter, and reports each outcome back so the
// burner can finalize. Duplicate submissions are expected and handled
// as benign no-ops thanks to the ledgers' idempotency guards.
package relayer

import (
	"context"
	"errors"
	"math/big"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/LUCAS95222/HashedV2/agreement"
	"github.com/LUCAS95222/HashedV2/burner"
	"github.com/LUCAS95222/HashedV2/minter"
)

// BurnerLedger is the slice of the burner surface the relayer needs.
type BurnerLedger interface {
	UnprocessedMigrationRequests(itemsPerReq uint8, startAfter uint64) ([]*burner.TxResponse, error)
	RecordMigrationResult(tc agreement.TxContext, id uint64, status int16, minterID *uint64, minterTxHash string, message string) (agreement.TokenMsg, error)
}

// ExecutionResult is what the relayer observed on the destination side.
type ExecutionResult struct {
	MinterID uint64
	TxHash   string
}

// MinterClient submits execution calls and resolves past results. The
// transport behind it may delay, duplicate, or reorder calls.
type MinterClient interface {
	ExecuteMigration(req minter.ExecuteMigrationReq) (*ExecutionResult, error)
	MigrationResult(burnerID uint64) (*minter.MigrationResult, error)
}

type Config struct {
	Operator  string // owner account both ledgers accept calls from
	Interval  time.Duration
	BatchSize uint8 // items per poll, 0 = burner's configured limit
}

type Relayer struct {
	cfg    Config
	burner BurnerLedger
	minter MinterClient
}

func New(cfg Config, b BurnerLedger, m MinterClient) *Relayer {
	return &Relayer{cfg: cfg, burner: b, minter: m}
}

// Run polls until ctx is cancelled.
func (r *Relayer) Run(ctx context.Context) error {
	logger.Info("starting relayer")
	defer logger.Info("stopping relayer")

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.ProcessOnce(); err != nil {
				logger.Errorf("relayer sweep failed: err=%v", err)
			}
		}
	}
}

// ProcessOnce drains the queue with the cursor protocol: page forward
// using the last-seen id as the exclusive lower bound until a page
// comes back empty. Items finalized during the sweep disappear from the
// queue, which the cursor tolerates. Returns the number of items
// finalized.
func (r *Relayer) ProcessOnce() (int, error) {
	var (
		cursor    uint64
		processed int
	)
	for {
		items, err := r.burner.UnprocessedMigrationRequests(r.cfg.BatchSize, cursor)
		if err != nil {
			return processed, err
		}
		if len(items) == 0 {
			return processed, nil
		}

		for _, item := range items {
			cursor = item.ID
			if err := r.handle(item); err != nil {
				// leave the item queued and move on, next sweep retries
				logger.Errorf("relay of tx %d failed: err=%v", item.ID, err)
				continue
			}
			processed++
		}
	}
}

func (r *Relayer) handle(item *burner.TxResponse) error {
	req, err := buildExecutionReq(item)
	if err != nil {
		return err
	}

	res, execErr := r.minter.ExecuteMigration(req)
	if execErr == nil {
		return r.record(item.ID, agreement.TxResultSuccess, &res.MinterID, res.TxHash, "")
	}

	// a replayed burner id is a benign rejection: resolve the result of
	// the earlier execution and report that instead
	if prior, err := r.minter.MigrationResult(item.ID); err == nil {
		return r.record(item.ID, agreement.TxResultSuccess, &prior.MinterID, "", "")
	} else if !errors.Is(err, agreement.ErrNotFound) {
		return err
	}

	// terminal rejections finalize the burner tx as failed so the user
	// is refunded; anything else is transient and retried next sweep
	switch agreement.StatusOf(execErr) {
	case agreement.ErrBadRequest.StatusCode(), agreement.ErrNotFound.StatusCode():
		return r.record(item.ID, agreement.TxResultFailure, nil, "", execErr.Error())
	default:
		return execErr
	}
}

func (r *Relayer) record(id uint64, status int16, minterID *uint64, txHash, message string) error {
	tc := agreement.TxContext{
		Sender:    r.cfg.Operator,
		Timestamp: time.Now().UnixMilli(),
	}
	msg, err := r.burner.RecordMigrationResult(tc, id, status, minterID, txHash, message)
	if err != nil {
		// someone else finalized it first, nothing left to do
		if errors.Is(err, agreement.ErrConflict) {
			return nil
		}
		return err
	}
	logger.Debugf("recorded result for tx %d, compensating msg: %v", id, msg)
	return nil
}

func buildExecutionReq(item *burner.TxResponse) (minter.ExecuteMigrationReq, error) {
	req := minter.ExecuteMigrationReq{
		BurnerID: item.ID,
		Asset:    item.TokenAddr,
		To:       item.To,
	}

	if item.NftInfo != nil {
		req.NftReq = &minter.NftMigrationReq{
			ID:        item.NftInfo.ID,
			URI:       item.NftInfo.URI,
			Extension: item.NftInfo.Extension,
		}
		return req, nil
	}

	amount, ok := new(big.Int).SetString(item.Amount, 10)
	if !ok {
		return req, agreement.ErrInternal.Newf("tx %d carries no usable amount", item.ID)
	}
	req.TokenReq = &minter.TokenMigrationReq{Amount: amount}
	return req, nil
}
