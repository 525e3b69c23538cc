// Server = burner ledger + minter ledger + relayer + http reporter.
// All components are configured via environment variables (strings!).

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/LUCAS95222/HashedV2/agreement"
	"github.com/LUCAS95222/HashedV2/burner"
	"github.com/LUCAS95222/HashedV2/minter"
	"github.com/LUCAS95222/HashedV2/nftinfo"
	"github.com/LUCAS95222/HashedV2/relayer"
	"github.com/LUCAS95222/HashedV2/reporter"
)

// Default params for server.
// More often we don't recommend users to tweak those.
// So we list them here.
const (
	// relayer config
	defaultRelayInterval = 5 * time.Second // poll the burner queue at this pace
)

// Keep the configuration's fields as "text" as possible.
// Its easier to load it from env vars or a config file.
type BridgeServerConfig struct {
	// burner side
	BurnerDbFilePath string // db file path of the source-side ledger
	BurnContract     string // address that swallows the burned assets

	// minter side
	MinterDbFilePath string // db file path of the destination-side ledger

	// relayer side
	OperatorAddr  string // owner account both ledgers accept calls from
	RelayInterval string // poll interval in seconds, "" = default
	RelayBatch    string // items per poll, "" = burner's configured limit

	// nft metadata source, "" = serve bare token ids
	NftInfoUrl string

	// Http side
	HttpIp   string // eg. 0.0.0.0
	HttpPort string // eg. 8080
}

// BridgeServer holds the objects that consists of the bridge server.
type BridgeServer struct {
	// Burner side
	MyBurnerDb *burner.StateDB
	MyBurner   *burner.Burner

	// Minter side
	MyMinterDb *minter.StateDB
	MyMinter   *minter.Minter

	// Relayer
	MyRelayer *relayer.Relayer
}

// NewBridgeServer creates a new bridge server.
// ctx is used for parental context to cancel the operation of bridge server.
// wg is used to wait for all the goroutines inside the server (relayer, reporter) to finish.
func NewBridgeServer(bsc *BridgeServerConfig, ctx context.Context, wg *sync.WaitGroup) (*BridgeServer, error) {
	// Burner side config

	// 1) Open the burner's sql db and create the state db over it.
	burnerSqlDb, err := sql.Open("sqlite3", bsc.BurnerDbFilePath)
	if err != nil {
		logger.Fatalf("failed to open burner db file: %v", err)
		return nil, err
	}
	myBurnerDb, err := burner.NewStateDB(burnerSqlDb)
	if err != nil {
		logger.Fatalf("failed to create burner state db: %v", err)
		return nil, err
	}

	// 2) Create the nft info provider.
	// This is SHARED between the burner queries and the relayer payloads.
	var nftProvider burner.NftInfoProvider
	if bsc.NftInfoUrl != "" {
		nftProvider = nftinfo.NewHTTPProvider(bsc.NftInfoUrl)
	} else {
		nftProvider = nftinfo.NewStaticProvider()
	}

	// 3) Create the burner ledger over the state db.
	myBurner := burner.New(myBurnerDb, nftProvider)

	// 4) Seed the burner config on first boot.
	// A restart finds the config already present, which is fine.
	err = myBurner.Instantiate(operatorCtx(bsc.OperatorAddr), burner.InstantiateMsg{
		Owner:        bsc.OperatorAddr,
		BurnContract: bsc.BurnContract,
	})
	if err != nil && !errors.Is(err, agreement.ErrConflict) {
		logger.Fatalf("failed to instantiate burner: %v", err)
		return nil, err
	}

	// Minter side config

	minterSqlDb, err := sql.Open("sqlite3", bsc.MinterDbFilePath)
	if err != nil {
		logger.Fatalf("failed to open minter db file: %v", err)
		return nil, err
	}
	myMinterDb, err := minter.NewStateDB(minterSqlDb)
	if err != nil {
		logger.Fatalf("failed to create minter state db: %v", err)
		return nil, err
	}
	myMinter := minter.New(myMinterDb)

	err = myMinter.Instantiate(operatorCtx(bsc.OperatorAddr), minter.InstantiateMsg{
		Owner: bsc.OperatorAddr,
	})
	if err != nil && !errors.Is(err, agreement.ErrConflict) {
		logger.Fatalf("failed to instantiate minter: %v", err)
		return nil, err
	}

	// Relayer config

	relayCfg := relayer.Config{
		Operator:  bsc.OperatorAddr,
		Interval:  ParseSeconds(bsc.RelayInterval, defaultRelayInterval),
		BatchSize: ParseBatch(bsc.RelayBatch),
	}
	myRelayer := relayer.New(relayCfg, myBurner, relayer.NewLocalMinterClient(myMinter, bsc.OperatorAddr))

	// Important: Turn on the relayer loop!
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := myRelayer.Run(ctx); err != nil {
			logger.Fatalf("relayer stopped: %v", err)
		}
	}()
	// Don't forget to call wg.Wait() in the main routine.

	// *** Setup a http server to report status ***
	http_server := reporter.NewHttpReporter(
		bsc.HttpIp,
		bsc.HttpPort,
		myBurner,
		myMinter,
	)
	// Turn on the http server
	go http_server.Run()

	// Give it some time to start the http server
	time.Sleep(1 * time.Second)
	// *** End the setup of http server ***

	return &BridgeServer{
		MyBurnerDb: myBurnerDb,
		MyBurner:   myBurner,
		MyMinterDb: myMinterDb,
		MyMinter:   myMinter,
		MyRelayer:  myRelayer,
	}, nil
}

// Create, then start the bridge server and wait.
// It contains a prepared bridge server and context + waitgroup.
// Press Ctrl-C to kill the server.
func StartBridgeServerAndWait(bsc *BridgeServerConfig) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up a signal channel to listen for Ctrl-C (SIGINT) or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Launch a new goroutine to handle the signal
	go func() {
		sig := <-sigCh
		fmt.Printf("Received signal: %v, cancelling context...\n", sig)
		cancel()
	}()

	var wg sync.WaitGroup

	_, err := NewBridgeServer(bsc, ctx, &wg)
	if err != nil {
		logger.Fatalf("failed to create bridge server: %v", err)
		return
	}

	// wait for all routines to finish
	wg.Wait()
}

// Helper function. The server acts on both ledgers as the operator.
func operatorCtx(operator string) agreement.TxContext {
	return agreement.TxContext{
		Sender:    operator,
		Timestamp: time.Now().UnixMilli(),
	}
}
