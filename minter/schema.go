package minter

var (
	configTable = `CREATE TABLE IF NOT EXISTS config (
		id INTEGER PRIMARY KEY NOT NULL CHECK (id = 1),
		owner VARCHAR(128) NOT NULL,
		txIdx INTEGER NOT NULL
	);`

	// registry keyed by the burner-side asset address
	supportedTokenTable = `CREATE TABLE IF NOT EXISTS supported_token (
		assetAddr VARCHAR(128) PRIMARY KEY NOT NULL,
		minterTokenAddr VARCHAR(128) NOT NULL,
		tokenType VARCHAR(8) NOT NULL,
		CONSTRAINT chk_tokenType CHECK (tokenType IN ('native', 'cw20', 'cw721'))
	);`

	// executed migrations; extension is a gob blob when present
	txTable = `CREATE TABLE IF NOT EXISTS tx (
		id INTEGER PRIMARY KEY NOT NULL,
		burnerId INTEGER NOT NULL,
		recipient VARCHAR(128) NOT NULL,
		assetAddr VARCHAR(128) NOT NULL,
		amount VARCHAR(80),
		nftId VARCHAR(128),
		nftUri TEXT,
		nftExtension BLOB
	);`

	// write-once map burnerId -> minter tx id. The primary key makes a
	// second insert for the same burnerId fail, which is the whole
	// idempotency story of ExecuteMigration.
	burnerMinterIdxTable = `CREATE TABLE IF NOT EXISTS burner_minter_idx (
		burnerId INTEGER PRIMARY KEY NOT NULL,
		minterId INTEGER NOT NULL
	);`
)
