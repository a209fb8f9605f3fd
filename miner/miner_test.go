package miner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/assert/v2"
	"github.com/holiman/uint256"

	bfscommon "bfs-chain/common"
	"bfs-chain/types"
	"bfs-chain/wallet"
)

func testHeader(difficulty uint64) types.MiningBlockHeader {
	return types.NewMiningBlockHeader(common.HexToHash("0xabcdef"), common.HexToHash("0x01"), 1, 3,
		difficulty, uint256.NewInt(50), "miner", 1700000000)
}

func firstValidNonce(header types.MiningBlockHeader) uint64 {
	prefix := header.PowPrefix()
	for n := uint64(0); ; n++ {
		if bfscommon.HasZeroPrefix(types.PowHash(prefix, n), header.Difficulty) {
			return n
		}
	}
}

func TestSearchFindsFirstNonce(t *testing.T) {
	header := testHeader(2)
	want := firstValidNonce(header)

	mined, err := Search(context.Background(), header, SearchOptions{Attempts: want + 1, Workers: 1})
	assert.Equal(t, err, nil)
	assert.Equal(t, mined.Nonce, want)
	assert.Equal(t, mined.IsPowComputationValid(), true)
}

func TestSearchExhaustsRange(t *testing.T) {
	header := testHeader(2)
	want := firstValidNonce(header)
	if want == 0 {
		t.Skip("first nonce is already valid")
	}

	_, err := Search(context.Background(), header, SearchOptions{Attempts: want, Workers: 3})
	assert.Equal(t, errors.Is(err, ErrUnsuccessfulMining), true)

	_, err = Search(context.Background(), header, SearchOptions{Attempts: 0})
	assert.Equal(t, errors.Is(err, ErrUnsuccessfulMining), true)
}

func TestSearchWithWorkers(t *testing.T) {
	for _, workers := range []int{1, 2, 4, 7} {
		mined, err := Search(context.Background(), testHeader(2), SearchOptions{Start: 1000, Attempts: 100_000, Workers: workers})
		assert.Equal(t, err, nil)
		assert.Equal(t, mined.IsPowComputationValid(), true)
		assert.Equal(t, mined.Nonce >= 1000, true)
	}
}

func TestSearchHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Search(ctx, testHeader(64), SearchOptions{Attempts: 1 << 40, Workers: 2})
	assert.Equal(t, errors.Is(err, context.Canceled), true)
}

func newMiner(t *testing.T, opts ...Option) (*Miner, *wallet.Wallet) {
	t.Helper()
	w, err := wallet.New()
	assert.Equal(t, err, nil)
	opts = append(opts, withClock(func() time.Time { return time.Unix(1700000000, 0) }))
	return New(w, opts...), w
}

func testJob(t *testing.T, difficulty uint64, parent common.Hash) Job {
	t.Helper()
	sender, err := wallet.New()
	assert.Equal(t, err, nil)
	txs, err := sender.SignRandomTxs("receiver", 3)
	assert.Equal(t, err, nil)
	return Job{
		Parent:     types.NewBlockHeader(common.HexToHash("0x02"), types.GenesisPrevHash, 0, 3, 1700000000),
		ParentHash: parent,
		Txs:        txs,
		Difficulty: difficulty,
		Reward:     uint256.NewInt(50),
	}
}

func TestMinePrependsCoinbase(t *testing.T) {
	m, w := newMiner(t, WithAttempts(1_000_000), WithWorkers(2))
	job := testJob(t, 1, common.HexToHash("0x01"))

	header, txs, err := m.Mine(context.Background(), job)
	assert.Equal(t, err, nil)
	assert.Equal(t, header.IsPowComputationValid(), true)
	assert.Equal(t, header.BlockNumber, uint64(1))
	assert.Equal(t, header.PrevHash, common.HexToHash("0x01"))
	assert.Equal(t, header.MinerAddress, w.Address())
	assert.Equal(t, header.TxsNumber, uint64(4))
	assert.Equal(t, len(txs), 4)

	coinbase := txs[0]
	assert.Equal(t, coinbase.IsSelfAddressed(), true)
	assert.Equal(t, coinbase.From, w.Address())
	assert.Equal(t, coinbase.Value.Uint64(), uint64(50))
	assert.Equal(t, coinbase.IsCorrectlySigned(types.DefaultVerifier), true)
	for i, tx := range job.Txs {
		assert.Equal(t, txs[i+1].Hash(), tx.Hash())
	}
}

func TestRetriesContinueTheCursor(t *testing.T) {
	m, w := newMiner(t, WithAttempts(10))
	job := testJob(t, 64, common.HexToHash("0x01"))

	for i := uint64(1); i <= 3; i++ {
		_, _, err := m.Mine(context.Background(), job)
		assert.Equal(t, errors.Is(err, ErrUnsuccessfulMining), true)
		assert.Equal(t, m.Cursor(), 10*i)
	}
	assert.Equal(t, m.txs[0].Nonce, uint64(0))

	w.SetNonce(5)
	other := testJob(t, 64, common.HexToHash("0x02"))
	_, _, err := m.Mine(context.Background(), other)
	assert.Equal(t, errors.Is(err, ErrUnsuccessfulMining), true)
	assert.Equal(t, m.Cursor(), uint64(10))
	assert.Equal(t, m.txs[0].Nonce, uint64(5))
}

func TestCoinbaseLeavesWalletNonce(t *testing.T) {
	m, w := newMiner(t, WithAttempts(10))
	w.SetNonce(3)

	for _, parent := range []string{"0x01", "0x02", "0x03"} {
		_, _, err := m.Mine(context.Background(), testJob(t, 64, common.HexToHash(parent)))
		assert.Equal(t, errors.Is(err, ErrUnsuccessfulMining), true)
		assert.Equal(t, m.txs[0].Nonce, uint64(3))
		assert.Equal(t, m.txs[0].IsCorrectlySigned(types.DefaultVerifier), true)
	}
	assert.Equal(t, w.Nonce(), uint64(3))
}

func TestRandomStart(t *testing.T) {
	m, _ := newMiner(t, WithAttempts(1), WithRandomStart(true))
	job := testJob(t, 64, common.HexToHash("0x01"))

	_, _, err := m.Mine(context.Background(), job)
	assert.Equal(t, errors.Is(err, ErrUnsuccessfulMining), true)
	first := m.Cursor()
	assert.Equal(t, first < randomStartLimit+1, true)

	_, _, err = m.Mine(context.Background(), job)
	assert.Equal(t, errors.Is(err, ErrUnsuccessfulMining), true)
	assert.Equal(t, m.Cursor(), first+1)
}
