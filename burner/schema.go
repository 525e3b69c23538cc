package burner

var (
	// single-row configuration of the ledger
	configTable = `CREATE TABLE IF NOT EXISTS config (
		id INTEGER PRIMARY KEY NOT NULL CHECK (id = 1),
		owner VARCHAR(128) NOT NULL,
		burnContract VARCHAR(128) NOT NULL,
		txIdx INTEGER NOT NULL,
		txLimit INTEGER NOT NULL,
		CONSTRAINT chk_txLimit CHECK (txLimit > 0)
	);`

	// registry of assets the bridge accepts
	supportedTokenTable = `CREATE TABLE IF NOT EXISTS supported_token (
		assetAddr VARCHAR(128) PRIMARY KEY NOT NULL,
		minterTokenAddr VARCHAR(128) NOT NULL,
		tokenType VARCHAR(8) NOT NULL,
		CONSTRAINT chk_tokenType CHECK (tokenType IN ('native', 'cw20', 'cw721'))
	);`

	// table that stores the life cycle of a migration request.
	// amount is a decimal string so arbitrary-precision values survive.
	txTable = `CREATE TABLE IF NOT EXISTS tx (
		id INTEGER PRIMARY KEY NOT NULL,
		status VARCHAR(10) NOT NULL,
		fromAddr VARCHAR(128) NOT NULL,
		toAddr VARCHAR(128) NOT NULL,
		userReqId INTEGER NOT NULL,
		tokenAddr VARCHAR(128) NOT NULL,
		minterTokenAddr VARCHAR(128) NOT NULL,
		amount VARCHAR(80) NOT NULL,
		nftId VARCHAR(128) NOT NULL,
		msg TEXT,
		minterId INTEGER,
		minterTxHash VARCHAR(80),
		CONSTRAINT chk_status CHECK (status IN ('created', 'swapped', 'paid_back'))
	);`

	// work queue: id is a member iff tx.status == 'created'
	unprocessedTxTable = `CREATE TABLE IF NOT EXISTS unprocessed_tx (
		id INTEGER PRIMARY KEY NOT NULL
	);`

	// (asset, nftId) pairs reserved while a cw721 migration is in flight
	unprocessedNftTable = `CREATE TABLE IF NOT EXISTS unprocessed_nft (
		tokenAddr VARCHAR(128) NOT NULL,
		nftId VARCHAR(128) NOT NULL,
		PRIMARY KEY (tokenAddr, nftId)
	);`

	// per-user batch aggregates, keyed by (user, reqId)
	userReqTable = `CREATE TABLE IF NOT EXISTS user_req (
		userAddr VARCHAR(128) NOT NULL,
		reqId INTEGER NOT NULL,
		blockNum INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		txIds BLOB NOT NULL,
		success INTEGER NOT NULL,
		fail INTEGER NOT NULL,
		inProgress INTEGER NOT NULL,
		PRIMARY KEY (userAddr, reqId)
	);`

	txParamList = " id, status, fromAddr, toAddr, userReqId, tokenAddr, minterTokenAddr, amount, nftId, msg, minterId, minterTxHash "
)
