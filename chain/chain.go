package chain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"bfs-chain/block"
	"bfs-chain/merkle"
	"bfs-chain/miner"
	"bfs-chain/state"
	"bfs-chain/types"
)

const DefaultDifficulty = 3

var ErrInvalidBlock = errors.New("invalid block")

// DefaultReward is the coinbase reward when none is configured.
func DefaultReward() *uint256.Int {
	return uint256.NewInt(1)
}

// Miner searches a proof of work for a job and returns the mined header with
// the transactions it commits to.
type Miner interface {
	Mine(ctx context.Context, job miner.Job) (types.MiningBlockHeader, []*types.Transaction, error)
}

// Blockchain is an append-only sequence of blocks starting at genesis and the
// account state obtained by replaying them. It is not safe for concurrent use.
type Blockchain struct {
	blocks []*block.Block
	mined  []*types.MiningBlockHeader
	byHash map[common.Hash]uint64

	state     *state.State
	validator *block.Validator

	difficulty uint64
	reward     *uint256.Int

	stateOpts []state.Option
	logger    *zap.SugaredLogger
}

type Option func(*Blockchain)

func WithDifficulty(difficulty uint64) Option {
	return func(bc *Blockchain) {
		bc.difficulty = difficulty
	}
}

func WithReward(reward *uint256.Int) Option {
	return func(bc *Blockchain) {
		bc.reward = types.AmountOrZero(reward).Clone()
	}
}

func WithValidator(validator *block.Validator) Option {
	return func(bc *Blockchain) {
		bc.validator = validator
	}
}

func WithStateOptions(opts ...state.Option) Option {
	return func(bc *Blockchain) {
		bc.stateOpts = append(bc.stateOpts, opts...)
	}
}

// NewGenesisBlock commits txs into block 0.
func NewGenesisBlock(validator *block.Validator, txs []*types.Transaction) (*block.Block, error) {
	tree, err := merkle.FromTransactions(txs)
	if err != nil {
		return nil, fmt.Errorf("%w: genesis: %w", ErrInvalidBlock, err)
	}
	header := types.NewBlockHeader(tree.Root(), types.GenesisPrevHash, 0, uint64(len(txs)), time.Now().Unix())
	return validator.Build(header, txs)
}

// FromGenesis starts a chain whose state is the replay of the genesis block.
func FromGenesis(genesis *block.Block, opts ...Option) (*Blockchain, error) {
	bc := &Blockchain{
		byHash:     make(map[common.Hash]uint64),
		validator:  block.NewValidator(),
		difficulty: DefaultDifficulty,
		reward:     DefaultReward(),
		logger:     zap.S().Named("[chain]"),
	}
	for _, opt := range opts {
		opt(bc)
	}

	bc.state = state.New(append([]state.Option{state.WithVerifier(bc.validator.Verifier())}, bc.stateOpts...)...)
	if err := bc.state.ApplyGenesis(genesis); err != nil {
		return nil, err
	}
	bc.append(genesis, nil)

	bc.logger.Infof("Chain started from genesis [%s] with [%d] txs, difficulty [%d], reward [%s]",
		genesis.Hash().Hex(), genesis.Len(), bc.difficulty, bc.reward.Dec())
	return bc, nil
}

// NextJob describes the block that would extend the current head.
func (bc *Blockchain) NextJob(txs []*types.Transaction) miner.Job {
	last := bc.LastBlock()
	return miner.Job{
		Parent:     last.Header(),
		ParentHash: last.Hash(),
		Txs:        txs,
		Difficulty: bc.difficulty,
		Reward:     bc.reward.Clone(),
	}
}

// BuildBlockCandidate finalizes a mined header and builds the block it commits to.
func (bc *Blockchain) BuildBlockCandidate(mined types.MiningBlockHeader, txs []*types.Transaction) (*block.Block, error) {
	return bc.validator.Build(mined.Finalize(), txs)
}

// MineBlock mines txs on top of the head with m and appends the result.
// miner.ErrUnsuccessfulMining is returned as is so callers can retry.
func (bc *Blockchain) MineBlock(ctx context.Context, m Miner, txs []*types.Transaction) (*block.Block, error) {
	mined, all, err := m.Mine(ctx, bc.NextJob(txs))
	if err != nil {
		return nil, err
	}
	b, err := bc.BuildBlockCandidate(mined, all)
	if err != nil {
		return nil, err
	}
	if err := bc.AddBlock(mined, b); err != nil {
		return nil, err
	}
	return b, nil
}

// AddBlock verifies b against its mined header and the current head, then
// replays its transactions ordered by (nonce, time). Nothing changes unless
// every check and every transaction succeeds.
func (bc *Blockchain) AddBlock(mined types.MiningBlockHeader, b *block.Block) error {
	if err := bc.checkMined(&mined, b); err != nil {
		bc.logger.Warnf("Rejected block [%d]: %v", mined.BlockNumber, err)
		return err
	}

	txs := b.Txs()
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Nonce != txs[j].Nonce {
			return txs[i].Nonce < txs[j].Nonce
		}
		return txs[i].Time < txs[j].Time
	})

	work := bc.state.Copy()
	for _, tx := range txs {
		if err := work.ApplyTx(tx, mined.MinerAddress); err != nil {
			bc.logger.Warnf("Rejected block [%d]: %v", mined.BlockNumber, err)
			return fmt.Errorf("%w: block %d: %w", ErrInvalidBlock, mined.BlockNumber, err)
		}
	}
	work.ApplyMiningReward(mined.MinerAddress, mined.Reward)

	bc.state = work
	bc.append(b, &mined)

	bc.logger.Infof("Appended block [%d] [%s] with [%d] txs, volume [%s]",
		b.Number(), b.Hash().Hex(), b.Len(), b.Info().Volume.Dec())
	return nil
}

func (bc *Blockchain) checkMined(mined *types.MiningBlockHeader, b *block.Block) error {
	if b == nil {
		return fmt.Errorf("%w: missing block", ErrInvalidBlock)
	}
	if !mined.IsPowComputationValid() {
		return fmt.Errorf("%w: nonce %d does not meet difficulty %d", ErrInvalidBlock, mined.Nonce, mined.Difficulty)
	}
	if mined.Difficulty < bc.difficulty {
		return fmt.Errorf("%w: difficulty %d below chain difficulty %d", ErrInvalidBlock, mined.Difficulty, bc.difficulty)
	}
	if !types.AmountOrZero(mined.Reward).Eq(bc.reward) {
		return fmt.Errorf("%w: reward %s, chain reward is %s", ErrInvalidBlock, types.AmountOrZero(mined.Reward).Dec(), bc.reward.Dec())
	}
	if mined.BlockNumber != uint64(len(bc.blocks)) {
		return fmt.Errorf("%w: block number %d, expected %d", ErrInvalidBlock, mined.BlockNumber, len(bc.blocks))
	}
	if last := bc.LastBlock(); mined.PrevHash != last.Hash() {
		return fmt.Errorf("%w: prev hash %s, head is %s", ErrInvalidBlock, mined.PrevHash.Hex(), last.Hash().Hex())
	}
	if b.Header() != mined.Finalize() {
		return fmt.Errorf("%w: block header does not match mined header", ErrInvalidBlock)
	}
	return nil
}

func (bc *Blockchain) append(b *block.Block, mined *types.MiningBlockHeader) {
	bc.byHash[b.Hash()] = uint64(len(bc.blocks))
	bc.blocks = append(bc.blocks, b)
	bc.mined = append(bc.mined, mined)
}

// LastBlock returns the head. A chain always holds at least its genesis.
func (bc *Blockchain) LastBlock() *block.Block {
	return bc.blocks[len(bc.blocks)-1]
}

func (bc *Blockchain) Block(number uint64) (*block.Block, bool) {
	if number >= uint64(len(bc.blocks)) {
		return nil, false
	}
	return bc.blocks[number], true
}

func (bc *Blockchain) BlockByHash(hash common.Hash) (*block.Block, bool) {
	number, ok := bc.byHash[hash]
	if !ok {
		return nil, false
	}
	return bc.blocks[number], true
}

// Blocks returns the blocks in [from, to), clamped to the chain.
func (bc *Blockchain) Blocks(from, to uint64) []*block.Block {
	to = min(to, uint64(len(bc.blocks)))
	if from >= to {
		return nil
	}
	return append([]*block.Block(nil), bc.blocks[from:to]...)
}

// MinedHeader returns the header block number was mined with. Genesis has none.
func (bc *Blockchain) MinedHeader(number uint64) (types.MiningBlockHeader, bool) {
	if number >= uint64(len(bc.mined)) || bc.mined[number] == nil {
		return types.MiningBlockHeader{}, false
	}
	header := *bc.mined[number]
	header.Reward = types.AmountOrZero(header.Reward).Clone()
	return header, true
}

func (bc *Blockchain) Account(address string) (state.AccountState, bool) {
	return bc.state.Account(address)
}

func (bc *Blockchain) Accounts() []state.Account {
	return bc.state.Accounts()
}

func (bc *Blockchain) TotalSupply() *uint256.Int {
	return bc.state.TotalSupply()
}

func (bc *Blockchain) Difficulty() uint64 {
	return bc.difficulty
}

func (bc *Blockchain) Reward() *uint256.Int {
	return bc.reward.Clone()
}

func (bc *Blockchain) Len() int {
	return len(bc.blocks)
}
