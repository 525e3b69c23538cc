// This is a http type of reporter.
// It publishes the query surface of both ledgers on http routes:
// the relayer's work queue, the user audit trail, and the token
// registries.

package reporter

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/LUCAS95222/HashedV2/agreement"
	"github.com/LUCAS95222/HashedV2/burner"
	"github.com/LUCAS95222/HashedV2/minter"
)

const (
	RouteHealth           = "/health"
	RouteUnprocessed      = "/migrations/unprocessed"
	RouteMigration        = "/migrations/:id"
	RouteUserMigrations   = "/users/:addr/migrations"
	RouteUserMigration    = "/users/:addr/migrations/:req_id"
	RouteBurnerTokens     = "/tokens"
	RouteMinterTokens     = "/minter/tokens"
	RouteMigrationResult  = "/minter/results/:burner_id"
)

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	// upstream data sources
	burner *burner.Burner
	minter *minter.Minter
}

func NewHttpReporter(serverIP, serverPort string, b *burner.Burner, m *minter.Minter) *HttpReporter {
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		burner:     b,
		minter:     m,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.Default()

	router.GET(RouteHealth, Health)
	router.GET(RouteUnprocessed, h.UnprocessedMigrations)
	router.GET(RouteMigration, h.Migration)
	router.GET(RouteUserMigrations, h.UserMigrations)
	router.GET(RouteUserMigration, h.UserMigration)
	router.GET(RouteBurnerTokens, h.BurnerTokens)
	router.GET(RouteMinterTokens, h.MinterTokens)
	router.GET(RouteMigrationResult, h.MigrationResult)

	return router
}

// Hook up router & ip:port
func (h *HttpReporter) Run() {
	router := h.SetupRouter()
	address := h.serverIP + ":" + h.serverPort
	if err := router.Run(address); err != nil {
		panic(err)
	}
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// The relayer's poll endpoint: pending work in ascending id order,
// start_after as exclusive cursor.
func (h *HttpReporter) UnprocessedMigrations(c *gin.Context) {
	itemsPerReq, ok := parseUint8(c, "items_per_req")
	if !ok {
		return
	}
	startAfter, ok := parseUint64Query(c, "start_after")
	if !ok {
		return
	}

	items, err := h.burner.UnprocessedMigrationRequests(itemsPerReq, startAfter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *HttpReporter) Migration(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an unsigned integer"})
		return
	}

	res, err := h.burner.MigrationRequest(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *HttpReporter) UserMigrations(c *gin.Context) {
	startAfter, ok := parseUint64Query(c, "start_after")
	if !ok {
		return
	}
	descending := c.Query("descending") == "true"

	items, err := h.burner.UserMigrations(c.Param("addr"), uint32(startAfter), descending)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"migrations": items})
}

func (h *HttpReporter) UserMigration(c *gin.Context) {
	reqID, err := strconv.ParseUint(c.Param("req_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "req_id must be an unsigned integer"})
		return
	}

	txs, err := h.burner.UserMigration(c.Param("addr"), uint32(reqID))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"txs": txs})
}

func (h *HttpReporter) BurnerTokens(c *gin.Context) {
	tokens, err := h.burner.SupportedTokens(c.Query("start_after"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

func (h *HttpReporter) MinterTokens(c *gin.Context) {
	tokens, err := h.minter.SupportedTokens(c.Query("start_after"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

func (h *HttpReporter) MigrationResult(c *gin.Context) {
	burnerID, err := strconv.ParseUint(c.Param("burner_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "burner_id must be an unsigned integer"})
		return
	}

	res, err := h.minter.MigrationResult(burnerID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(agreement.StatusOf(err), gin.H{"error": err.Error()})
}

func parseUint8(c *gin.Context, name string) (uint8, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an unsigned integer"})
		return 0, false
	}
	return uint8(v), true
}

func parseUint64Query(c *gin.Context, name string) (uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an unsigned integer"})
		return 0, false
	}
	return v, true
}
