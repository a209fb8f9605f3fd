package miner

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"bfs-chain/merkle"
	"bfs-chain/types"
)

const (
	DefaultAttempts = 1_000_000

	// randomStartLimit keeps random starting nonces far from overflow.
	randomStartLimit = 1 << 62
)

// Signer is the wallet capability the miner needs to issue its coinbase. The
// coinbase carries the signer's current nonce and does not advance it.
type Signer interface {
	Address() string
	Nonce() uint64
	Sign(tx *types.Transaction) error
}

// Job describes the block to mine on top of Parent.
type Job struct {
	Parent     types.BlockHeader
	ParentHash common.Hash
	Txs        []*types.Transaction
	Difficulty uint64
	Reward     *uint256.Int
}

func (j *Job) key() common.Hash {
	buf := make([]byte, 0, common.HashLength*(len(j.Txs)+1)+8+32)
	buf = append(buf, j.ParentHash[:]...)
	for _, tx := range j.Txs {
		hash := tx.Hash()
		buf = append(buf, hash[:]...)
	}
	buf = binary.BigEndian.AppendUint64(buf, j.Difficulty)
	reward := types.AmountOrZero(j.Reward).Bytes32()
	buf = append(buf, reward[:]...)
	return crypto.Keccak256Hash(buf)
}

// Miner prepends a signed coinbase to a job's transactions and searches for
// a nonce. Retries of the same job resume where the previous batch stopped.
type Miner struct {
	signer      Signer
	attempts    uint64
	workers     int
	randomStart bool
	now         func() time.Time

	jobKey    common.Hash
	candidate *types.MiningBlockHeader
	txs       []*types.Transaction
	cursor    uint64

	logger *zap.SugaredLogger
}

type Option func(*Miner)

func WithAttempts(attempts uint64) Option {
	return func(m *Miner) {
		m.attempts = attempts
	}
}

func WithWorkers(workers int) Option {
	return func(m *Miner) {
		m.workers = workers
	}
}

// WithRandomStart starts the first batch of every new job at a random nonce.
func WithRandomStart(enabled bool) Option {
	return func(m *Miner) {
		m.randomStart = enabled
	}
}

func withClock(now func() time.Time) Option {
	return func(m *Miner) {
		m.now = now
	}
}

func New(signer Signer, opts ...Option) *Miner {
	m := &Miner{
		signer:   signer,
		attempts: DefaultAttempts,
		workers:  1,
		now:      time.Now,
		logger:   zap.S().Named("[miner]"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Miner) Address() string {
	return m.signer.Address()
}

// Cursor is the next nonce the current job will try.
func (m *Miner) Cursor() uint64 {
	return m.cursor
}

// Mine runs one bounded search batch. On success it returns the mined header
// and the transactions it commits to, coinbase first. ErrUnsuccessfulMining
// means the batch was exhausted; calling Mine again with the same job searches
// the next range.
func (m *Miner) Mine(ctx context.Context, job Job) (types.MiningBlockHeader, []*types.Transaction, error) {
	if key := job.key(); m.candidate == nil || key != m.jobKey {
		if err := m.prepare(key, &job); err != nil {
			return types.MiningBlockHeader{}, nil, err
		}
	}

	start := m.cursor
	header, err := Search(ctx, *m.candidate, SearchOptions{
		Start:    start,
		Attempts: m.attempts,
		Workers:  m.workers,
	})
	if err != nil {
		if errors.Is(err, ErrUnsuccessfulMining) {
			m.cursor = start + m.attempts
			m.logger.Debugf("Block [%d] not found in nonces [%d, %d)", header.BlockNumber, start, m.cursor)
		}
		return types.MiningBlockHeader{}, nil, err
	}

	txs := m.txs
	m.reset()
	m.logger.Infof("Mined block [%d] with nonce [%d] and [%d] txs", header.BlockNumber, header.Nonce, len(txs))
	return header, txs, nil
}

func (m *Miner) prepare(key common.Hash, job *Job) error {
	address := m.signer.Address()
	coinbase := types.NewTransaction(address, address, types.AmountOrZero(job.Reward).Clone(), new(uint256.Int),
		m.signer.Nonce(), m.now().Unix())
	if err := m.signer.Sign(coinbase); err != nil {
		return fmt.Errorf("sign coinbase: %w", err)
	}

	txs := make([]*types.Transaction, 0, len(job.Txs)+1)
	txs = append(txs, coinbase)
	for _, tx := range job.Txs {
		txs = append(txs, tx.Copy())
	}

	tree, err := merkle.FromTransactions(txs)
	if err != nil {
		return err
	}

	candidate := types.NewMiningBlockHeader(tree.Root(), job.ParentHash, job.Parent.BlockNumber+1, uint64(len(txs)),
		job.Difficulty, types.AmountOrZero(job.Reward).Clone(), address, m.now().Unix())

	m.jobKey = key
	m.candidate = &candidate
	m.txs = txs
	m.cursor = 0
	if m.randomStart {
		m.cursor = rand.Uint64N(randomStartLimit)
	}
	return nil
}

func (m *Miner) reset() {
	m.jobKey = common.Hash{}
	m.candidate = nil
	m.txs = nil
	m.cursor = 0
}
