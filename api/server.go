package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"bfs-chain/block"
	"bfs-chain/config"
	"bfs-chain/state"
	"bfs-chain/types"
	"bfs-chain/utils"
)

const (
	defaultLimit = 10
	maxLimit     = 100

	TraceIDHeader = "X-Trace-ID"
)

// Ledger is the read side of the chain the explorer serves.
type Ledger interface {
	LastBlock() *block.Block
	Block(number uint64) (*block.Block, bool)
	BlockByHash(hash common.Hash) (*block.Block, bool)
	Blocks(from, to uint64) []*block.Block
	MinedHeader(number uint64) (types.MiningBlockHeader, bool)
	Account(address string) (state.AccountState, bool)
	Accounts() []state.Account
	TotalSupply() *uint256.Int
	Difficulty() uint64
	Reward() *uint256.Int
}

type Server struct {
	router *gin.Engine
	srv    *http.Server

	ledger Ledger
	logger *zap.SugaredLogger
}

func New(ledger Ledger, cfg *config.ServerConfig) *Server {
	router := gin.Default()
	router.Use(cors.Default(), traceID())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HttpPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s := &Server{
		router: router,
		srv:    srv,
		ledger: ledger,
		logger: zap.S().Named("[api]"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/blocks", s.blocks)
	s.router.GET("/block/:id", s.block)
	s.router.GET("/acc/:address", s.account)
	s.router.GET("/tx/:block_number/:hash", s.tx)
	s.router.GET("/chain/head", s.head)
	s.router.GET("/accounts/top", s.topAccounts)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(err)
		}
	}()
	s.logger.Infof("Explorer API listening on [%s]", s.srv.Addr)
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Errorf("Shutdown explorer API: %v", err)
	}
}

// traceID echoes the caller's X-Trace-ID or assigns a fresh one.
func traceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(TraceIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("trace_id", id)
		c.Header(TraceIDHeader, id)
		c.Next()
	}
}

func abort(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{
		"code":     code,
		"error":    msg,
		"trace_id": c.GetString("trace_id"),
	})
}

func parseLimit(c *gin.Context) (int, bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		abort(c, http.StatusBadRequest, "invalid limit parameter")
		return 0, false
	}
	return min(limit, maxLimit), true
}

// blocks lists the latest blocks, newest first.
func (s *Server) blocks(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	head := s.ledger.LastBlock().Number()
	from := uint64(0)
	if head+1 > uint64(limit) {
		from = head + 1 - uint64(limit)
	}
	blocks := s.ledger.Blocks(from, head+1)

	summaries := make([]BlockSummary, 0, len(blocks))
	for i := len(blocks) - 1; i >= 0; i-- {
		summaries = append(summaries, newBlockSummary(blocks[i]))
	}
	c.JSON(http.StatusOK, summaries)
}

// block accepts either a block number or a 0x block hash.
func (s *Server) block(c *gin.Context) {
	id := c.Param("id")

	var (
		b     *block.Block
		found bool
	)
	if strings.HasPrefix(id, "0x") {
		if len(id) != 2+2*common.HashLength {
			abort(c, http.StatusBadRequest, "invalid block hash")
			return
		}
		b, found = s.ledger.BlockByHash(common.HexToHash(id))
	} else {
		number, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			abort(c, http.StatusBadRequest, "invalid block id")
			return
		}
		b, found = s.ledger.Block(number)
	}
	if !found {
		abort(c, http.StatusNotFound, "block not found")
		return
	}

	var mined *types.MiningBlockHeader
	if header, ok := s.ledger.MinedHeader(b.Number()); ok {
		mined = &header
	}
	c.JSON(http.StatusOK, newBlockView(b, mined))
}

func (s *Server) account(c *gin.Context) {
	address, err := utils.NormalizeAddress(c.Param("address"))
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid address")
		return
	}

	acc, ok := s.ledger.Account(address)
	if !ok {
		abort(c, http.StatusNotFound, "account not found")
		return
	}
	c.JSON(http.StatusOK, newAccountView(address, acc))
}

func (s *Server) tx(c *gin.Context) {
	number, err := strconv.ParseUint(c.Param("block_number"), 10, 64)
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid block number")
		return
	}
	hash := c.Param("hash")
	if !strings.HasPrefix(hash, "0x") || len(hash) != 2+2*common.HashLength {
		abort(c, http.StatusBadRequest, "invalid tx hash")
		return
	}

	b, ok := s.ledger.Block(number)
	if !ok {
		abort(c, http.StatusNotFound, "block not found")
		return
	}
	tx, ok := b.Tx(common.HexToHash(hash))
	if !ok {
		abort(c, http.StatusNotFound, "tx not found")
		return
	}
	c.JSON(http.StatusOK, newTxView(number, tx))
}

func (s *Server) head(c *gin.Context) {
	last := s.ledger.LastBlock()
	c.JSON(http.StatusOK, &HeadView{
		Number:      last.Number(),
		Hash:        last.Hash().Hex(),
		Difficulty:  s.ledger.Difficulty(),
		Reward:      s.ledger.Reward(),
		TotalSupply: s.ledger.TotalSupply(),
		Accounts:    len(s.ledger.Accounts()),
	})
}

// topAccounts lists the richest accounts.
func (s *Server) topAccounts(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	richest := utils.TopN(s.ledger.Accounts(), limit, func(a, b state.Account) bool {
		if cmp := a.Balance.Cmp(b.Balance); cmp != 0 {
			return cmp > 0
		}
		return a.Address < b.Address
	})

	views := make([]*AccountView, 0, len(richest))
	for _, acc := range richest {
		views = append(views, newAccountView(acc.Address, acc.AccountState))
	}
	c.JSON(http.StatusOK, views)
}
