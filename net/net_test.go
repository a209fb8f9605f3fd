package net

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"
	"github.com/holiman/uint256"

	"bfs-chain/api"
	"bfs-chain/block"
	"bfs-chain/chain"
	"bfs-chain/config"
	"bfs-chain/miner"
	"bfs-chain/types"
	"bfs-chain/wallet"
)

func newTestServer(t *testing.T) (*httptest.Server, *chain.Blockchain, *wallet.Wallet) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	a, err := wallet.New()
	assert.Equal(t, err, nil)
	b, err := wallet.New()
	assert.Equal(t, err, nil)

	txs, err := a.SignRandomTxs(b.Address(), 5)
	assert.Equal(t, err, nil)
	genesis, err := chain.NewGenesisBlock(block.NewValidator(), txs)
	assert.Equal(t, err, nil)
	bc, err := chain.FromGenesis(genesis, chain.WithDifficulty(1))
	assert.Equal(t, err, nil)

	m, err := wallet.New()
	assert.Equal(t, err, nil)
	tx, err := b.Send(a.Address(), uint256.NewInt(1), new(uint256.Int))
	assert.Equal(t, err, nil)
	_, err = bc.MineBlock(context.Background(), miner.New(m), []*types.Transaction{tx})
	assert.Equal(t, err, nil)

	srv := httptest.NewServer(api.New(chain.NewSynced(bc), &config.ServerConfig{}).Handler())
	t.Cleanup(srv.Close)
	return srv, bc, b
}

func TestClient(t *testing.T) {
	srv, bc, b := newTestServer(t)
	client := New(srv.URL)

	head, err := client.Head()
	assert.Equal(t, err, nil)
	assert.Equal(t, head.Number, uint64(1))
	assert.Equal(t, head.Hash, bc.LastBlock().Hash().Hex())

	blocks, err := client.Blocks(10)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(blocks), 2)

	view, err := client.Block(head.Hash)
	assert.Equal(t, err, nil)
	assert.Equal(t, view.Number, uint64(1))
	assert.Equal(t, len(view.Txs), 2)

	tx, err := client.Tx(1, view.Txs[1].Hash)
	assert.Equal(t, err, nil)
	assert.Equal(t, tx.From, b.Address())

	acc, err := client.Account(b.Address())
	assert.Equal(t, err, nil)
	assert.Equal(t, acc.Nonce, uint64(1))

	top, err := client.TopAccounts(2)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(top), 2)
}

func TestClientErrors(t *testing.T) {
	srv, _, _ := newTestServer(t)
	client := New(srv.URL)

	_, err := client.Block("42")
	assert.Equal(t, errors.Is(err, ErrNotFound), true)

	_, err = client.Block("nope")
	assert.NotEqual(t, err, nil)
	assert.Equal(t, errors.Is(err, ErrNotFound), false)
}
