package chain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/assert/v2"
	"github.com/holiman/uint256"

	"bfs-chain/block"
	"bfs-chain/chain"
	"bfs-chain/miner"
	"bfs-chain/state"
	"bfs-chain/types"
	"bfs-chain/wallet"
)

type fixture struct {
	a, b, c *wallet.Wallet
	miner   *miner.Miner
	mw      *wallet.Wallet
	bc      *chain.Blockchain
}

func mustWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	w, err := wallet.New()
	assert.Equal(t, err, nil)
	return w
}

// newFixture mints 10 random transfers from a to b at genesis.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{a: mustWallet(t), b: mustWallet(t), c: mustWallet(t), mw: mustWallet(t)}
	f.miner = miner.New(f.mw, miner.WithAttempts(1_000_000), miner.WithWorkers(2))

	txs, err := f.a.SignRandomTxs(f.b.Address(), 10)
	assert.Equal(t, err, nil)
	genesis, err := chain.NewGenesisBlock(block.NewValidator(), txs)
	assert.Equal(t, err, nil)

	f.bc, err = chain.FromGenesis(genesis, chain.WithDifficulty(1), chain.WithReward(uint256.NewInt(5)))
	assert.Equal(t, err, nil)
	return f
}

func (f *fixture) balance(t *testing.T, w *wallet.Wallet) uint64 {
	t.Helper()
	acc, ok := f.bc.Account(w.Address())
	if !ok {
		return 0
	}
	return acc.Balance.Uint64()
}

func (f *fixture) transfers(t *testing.T, from, to *wallet.Wallet, values ...uint64) []*types.Transaction {
	t.Helper()
	txs := make([]*types.Transaction, len(values))
	for i, v := range values {
		tx, err := from.Send(to.Address(), uint256.NewInt(v), uint256.NewInt(1))
		assert.Equal(t, err, nil)
		txs[i] = tx
	}
	return txs
}

// mine returns a valid mined header and block for txs without appending it.
func (f *fixture) mine(t *testing.T, txs []*types.Transaction) (types.MiningBlockHeader, *block.Block) {
	t.Helper()
	header, all, err := f.miner.Mine(context.Background(), f.bc.NextJob(txs))
	assert.Equal(t, err, nil)
	b, err := f.bc.BuildBlockCandidate(header, all)
	assert.Equal(t, err, nil)
	return header, b
}

func TestGenesis(t *testing.T) {
	f := newFixture(t)

	genesis := f.bc.LastBlock()
	assert.Equal(t, f.bc.Len(), 1)
	assert.Equal(t, genesis.Number(), uint64(0))
	assert.Equal(t, genesis.Header().PrevHash, types.GenesisPrevHash)
	assert.Equal(t, genesis.Len(), 10)
	assert.Equal(t, f.balance(t, f.b), genesis.Info().Volume.Uint64())

	_, ok := f.bc.MinedHeader(0)
	assert.Equal(t, ok, false)
}

func TestNewGenesisBlockRejectsEmpty(t *testing.T) {
	_, err := chain.NewGenesisBlock(block.NewValidator(), nil)
	assert.Equal(t, errors.Is(err, chain.ErrInvalidBlock), true)
}

func TestMineAndAppendBlocks(t *testing.T) {
	f := newFixture(t)

	for i := 1; i <= 3; i++ {
		supply := f.bc.TotalSupply()
		prev := f.bc.LastBlock()

		b, err := f.bc.MineBlock(context.Background(), f.miner, f.transfers(t, f.b, f.c, 1, 1))
		assert.Equal(t, err, nil)
		assert.Equal(t, f.bc.Len(), i+1)
		assert.Equal(t, b.Number(), uint64(i))
		assert.Equal(t, b.Header().PrevHash, prev.Hash())
		assert.Equal(t, f.bc.LastBlock().Hash(), b.Hash())

		// value only moves between accounts; reward and fees are new money
		want := new(uint256.Int).Add(supply, f.bc.Reward())
		want.Add(want, b.Info().TotalFees)
		assert.Equal(t, f.bc.TotalSupply().Eq(want), true)

		mined, ok := f.bc.MinedHeader(uint64(i))
		assert.Equal(t, ok, true)
		assert.Equal(t, mined.Finalize(), b.Header())
		assert.Equal(t, mined.MinerAddress, f.mw.Address())
	}

	assert.Equal(t, f.balance(t, f.c), uint64(6))
	// 3 rewards of 5 and 6 fees of 1
	assert.Equal(t, f.balance(t, f.mw), uint64(21))

	byHash, ok := f.bc.BlockByHash(f.bc.LastBlock().Hash())
	assert.Equal(t, ok, true)
	assert.Equal(t, byHash.Number(), uint64(3))
	assert.Equal(t, len(f.bc.Blocks(1, 100)), 3)
}

func TestAddBlockSortsByNonce(t *testing.T) {
	f := newFixture(t)
	txs := f.transfers(t, f.b, f.c, 1, 2, 3)
	txs[0], txs[2] = txs[2], txs[0]

	_, err := f.bc.MineBlock(context.Background(), f.miner, txs)
	assert.Equal(t, err, nil)
	assert.Equal(t, f.balance(t, f.c), uint64(6))
	acc, _ := f.bc.Account(f.b.Address())
	assert.Equal(t, acc.Nonce, uint64(3))
}

func TestAddBlockRejections(t *testing.T) {
	cases := map[string]func(t *testing.T, f *fixture, header *types.MiningBlockHeader, b **block.Block){
		"bad pow": func(t *testing.T, f *fixture, header *types.MiningBlockHeader, b **block.Block) {
			for header.IsPowComputationValid() {
				header.Nonce++
			}
		},
		"lower difficulty": func(t *testing.T, f *fixture, header *types.MiningBlockHeader, b **block.Block) {
			header.Difficulty = 0
		},
		"wrong reward": func(t *testing.T, f *fixture, header *types.MiningBlockHeader, b **block.Block) {
			header.Reward = uint256.NewInt(500)
			mined, err := miner.Search(context.Background(), *header, miner.SearchOptions{Attempts: 1_000_000})
			assert.Equal(t, err, nil)
			*header = mined
		},
		"wrong number": func(t *testing.T, f *fixture, header *types.MiningBlockHeader, b **block.Block) {
			header.BlockNumber = 2
			mined, err := miner.Search(context.Background(), *header, miner.SearchOptions{Attempts: 1_000_000})
			assert.Equal(t, err, nil)
			*header = mined
		},
		"wrong prev hash": func(t *testing.T, f *fixture, header *types.MiningBlockHeader, b **block.Block) {
			header.PrevHash = common.HexToHash("0x42")
			mined, err := miner.Search(context.Background(), *header, miner.SearchOptions{Attempts: 1_000_000})
			assert.Equal(t, err, nil)
			*header = mined
		},
		"block from other txs": func(t *testing.T, f *fixture, header *types.MiningBlockHeader, b **block.Block) {
			_, other := f.mine(t, f.transfers(t, f.b, f.c, 9))
			*b = other
		},
		"missing block": func(t *testing.T, f *fixture, header *types.MiningBlockHeader, b **block.Block) {
			*b = nil
		},
	}

	for name, tamper := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			header, b := f.mine(t, f.transfers(t, f.b, f.c, 1))
			tamper(t, f, &header, &b)

			supply := f.bc.TotalSupply()
			err := f.bc.AddBlock(header, b)
			assert.Equal(t, errors.Is(err, chain.ErrInvalidBlock), true)
			assert.Equal(t, f.bc.Len(), 1)
			assert.Equal(t, f.bc.TotalSupply().Eq(supply), true)
		})
	}
}

func TestInvalidTransactionRollsBackBlock(t *testing.T) {
	f := newFixture(t)
	bBalance := f.balance(t, f.b)

	txs := f.transfers(t, f.b, f.c, 1, 2)
	overdraft := f.transfers(t, f.b, f.c, bBalance*10)
	header, b := f.mine(t, append(txs, overdraft...))

	err := f.bc.AddBlock(header, b)
	assert.Equal(t, errors.Is(err, chain.ErrInvalidBlock), true)
	assert.Equal(t, errors.Is(err, state.ErrInvalidStateTransition), true)

	assert.Equal(t, f.bc.Len(), 1)
	assert.Equal(t, f.balance(t, f.b), bBalance)
	assert.Equal(t, f.balance(t, f.c), uint64(0))
	assert.Equal(t, f.balance(t, f.mw), uint64(0))
}

func TestAddBlockTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	header, b := f.mine(t, f.transfers(t, f.b, f.c, 1))

	assert.Equal(t, f.bc.AddBlock(header, b), nil)
	err := f.bc.AddBlock(header, b)
	assert.Equal(t, errors.Is(err, chain.ErrInvalidBlock), true)
	assert.Equal(t, f.bc.Len(), 2)
}

func TestGenesisBalanceCheckPolicy(t *testing.T) {
	a, b := mustWallet(t), mustWallet(t)
	txs, err := a.SignRandomTxs(b.Address(), 3)
	assert.Equal(t, err, nil)
	genesis, err := chain.NewGenesisBlock(block.NewValidator(), txs)
	assert.Equal(t, err, nil)

	_, err = chain.FromGenesis(genesis, chain.WithStateOptions(state.WithGenesisBalanceCheck(true)))
	assert.Equal(t, errors.Is(err, state.ErrInvalidStateTransition), true)
}
