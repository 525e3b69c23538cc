package reporter

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/LUCAS95222/HashedV2/agreement"
	"github.com/LUCAS95222/HashedV2/burner"
	"github.com/LUCAS95222/HashedV2/minter"
	"github.com/LUCAS95222/HashedV2/nftinfo"
)

type testReporterEnv struct {
	router *gin.Engine
	owner  string
	user   string
	cw20   string
	close  func()
}

// testDBSeq gives every test DB a unique name. A plain ":memory:" DSN
// creates a separate empty database per pooled connection, so the
// schema set up on one connection is invisible to the others; a named
// shared-cache in-memory DSN keeps one database per sql.DB.
var testDBSeq atomic.Uint64

func memoryDSN() string {
	return fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq.Add(1))
}

func newTestReporterEnv(t *testing.T) *testReporterEnv {
	gin.SetMode(gin.TestMode)

	burnerSQL, err := sql.Open("sqlite3", memoryDSN())
	if err != nil {
		t.Fatal(err)
	}
	minterSQL, err := sql.Open("sqlite3", memoryDSN())
	if err != nil {
		t.Fatal(err)
	}

	burnerDB, err := burner.NewStateDB(burnerSQL)
	if err != nil {
		t.Fatal(err)
	}
	minterDB, err := minter.NewStateDB(minterSQL)
	if err != nil {
		t.Fatal(err)
	}

	env := &testReporterEnv{
		owner: agreement.RandAccountAddr(),
		user:  agreement.RandAccountAddr(),
		cw20:  agreement.RandContractAddr(),
		close: func() {
			burnerDB.Close()
			minterDB.Close()
			burnerSQL.Close()
			minterSQL.Close()
		},
	}

	ownerCtx := agreement.TxContext{
		Sender:    env.owner,
		Contract:  agreement.RandContractAddr(),
		BlockNum:  100,
		Timestamp: 1700000000000,
	}

	b := burner.New(burnerDB, nftinfo.NewStaticProvider())
	err = b.Instantiate(ownerCtx, burner.InstantiateMsg{
		Owner:        env.owner,
		BurnContract: agreement.RandContractAddr(),
		SupportedTokens: []agreement.SupportedToken{
			{BurnerTokenAddr: env.cw20, MinterTokenAddr: agreement.RandContractAddr(), TokenType: agreement.TokenTypeCw20},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	m := minter.New(minterDB)
	err = m.Instantiate(ownerCtx, minter.InstantiateMsg{
		Owner: env.owner,
		SupportedTokens: []agreement.SupportedToken{
			{BurnerTokenAddr: env.cw20, MinterTokenAddr: agreement.RandContractAddr(), TokenType: agreement.TokenTypeCw20},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	// seed one pending migration and one executed one
	userCtx := ownerCtx
	userCtx.Sender = env.user
	_, err = b.RequestMigrations(userCtx, []agreement.MigrationReq{
		{Asset: env.cw20, Amount: big.NewInt(1000), To: agreement.RandAccountAddr()},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = m.ExecuteMigration(ownerCtx, minter.ExecuteMigrationReq{
		BurnerID: 1,
		Asset:    env.cw20,
		TokenReq: &minter.TokenMigrationReq{Amount: big.NewInt(1000)},
		To:       agreement.RandAccountAddr(),
	})
	if err != nil {
		t.Fatal(err)
	}

	env.router = NewHttpReporter("127.0.0.1", "0", b, m).SetupRouter()
	return env
}

func (env *testReporterEnv) get(t *testing.T, path string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	assert.NoError(t, err)
	env.router.ServeHTTP(w, req)

	body := map[string]json.RawMessage{}
	if w.Body.Len() > 0 {
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestHealthRoute(t *testing.T) {
	env := newTestReporterEnv(t)
	defer env.close()

	w, _ := env.get(t, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnprocessedRoute(t *testing.T) {
	env := newTestReporterEnv(t)
	defer env.close()

	w, body := env.get(t, "/migrations/unprocessed")
	assert.Equal(t, http.StatusOK, w.Code)

	var items []*burner.TxResponse
	assert.NoError(t, json.Unmarshal(body["items"], &items))
	assert.Len(t, items, 1)
	assert.Equal(t, uint64(1), items[0].ID)
	assert.Equal(t, "1000", items[0].Amount)

	// the exclusive cursor skips the only item
	w, body = env.get(t, "/migrations/unprocessed?start_after=1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", string(body["items"]))

	w, _ = env.get(t, "/migrations/unprocessed?items_per_req=junk")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMigrationRoute(t *testing.T) {
	env := newTestReporterEnv(t)
	defer env.close()

	w, _ := env.get(t, "/migrations/1")
	assert.Equal(t, http.StatusOK, w.Code)

	var res burner.TxResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, burner.StatusCreated, res.Status)

	// coded errors surface as their http status
	w, _ = env.get(t, "/migrations/99")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.get(t, "/migrations/junk")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserMigrationRoutes(t *testing.T) {
	env := newTestReporterEnv(t)
	defer env.close()

	w, body := env.get(t, "/users/"+env.user+"/migrations")
	assert.Equal(t, http.StatusOK, w.Code)

	var batches []burner.UserMigrationsItem
	assert.NoError(t, json.Unmarshal(body["migrations"], &batches))
	assert.Len(t, batches, 1)
	assert.Equal(t, uint32(1), batches[0].ReqID)

	w, body = env.get(t, "/users/"+env.user+"/migrations/1")
	assert.Equal(t, http.StatusOK, w.Code)
	var txs []*burner.TxResponse
	assert.NoError(t, json.Unmarshal(body["txs"], &txs))
	assert.Len(t, txs, 1)

	// a malformed address is a bad request, a missing batch a 404
	w, _ = env.get(t, "/users/nonsense/migrations")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = env.get(t, "/users/"+env.user+"/migrations/9")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTokenRoutes(t *testing.T) {
	env := newTestReporterEnv(t)
	defer env.close()

	w, body := env.get(t, "/tokens")
	assert.Equal(t, http.StatusOK, w.Code)
	var tokens []agreement.SupportedToken
	assert.NoError(t, json.Unmarshal(body["tokens"], &tokens))
	assert.Len(t, tokens, 1)
	assert.Equal(t, env.cw20, tokens[0].BurnerTokenAddr)

	w, body = env.get(t, "/minter/tokens")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(body["tokens"], &tokens))
	assert.Len(t, tokens, 1)
}

func TestMigrationResultRoute(t *testing.T) {
	env := newTestReporterEnv(t)
	defer env.close()

	w, _ := env.get(t, "/minter/results/1")
	assert.Equal(t, http.StatusOK, w.Code)

	var res minter.MigrationResult
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, uint64(1), res.BurnerID)
	assert.Equal(t, uint64(1), res.MinterID)

	w, _ = env.get(t, "/minter/results/99")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
