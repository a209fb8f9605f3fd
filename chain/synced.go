package chain

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"bfs-chain/block"
	"bfs-chain/state"
	"bfs-chain/types"
)

// Synced shares a Blockchain between one writer and many readers. Blocks are
// immutable once appended, so they are handed out without copying.
type Synced struct {
	mu sync.RWMutex
	bc *Blockchain
}

func NewSynced(bc *Blockchain) *Synced {
	return &Synced{bc: bc}
}

// Update runs fn with exclusive access.
func (s *Synced) Update(fn func(bc *Blockchain) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(s.bc)
}

// View runs fn with shared access. fn must not modify the chain.
func (s *Synced) View(fn func(bc *Blockchain)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fn(s.bc)
}

func (s *Synced) LastBlock() *block.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.bc.LastBlock()
}

func (s *Synced) Block(number uint64) (*block.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.bc.Block(number)
}

func (s *Synced) BlockByHash(hash common.Hash) (*block.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.bc.BlockByHash(hash)
}

func (s *Synced) Blocks(from, to uint64) []*block.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.bc.Blocks(from, to)
}

func (s *Synced) MinedHeader(number uint64) (types.MiningBlockHeader, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.bc.MinedHeader(number)
}

func (s *Synced) Account(address string) (state.AccountState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.bc.Account(address)
}

func (s *Synced) Accounts() []state.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.bc.Accounts()
}

func (s *Synced) TotalSupply() *uint256.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.bc.TotalSupply()
}

func (s *Synced) Difficulty() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.bc.Difficulty()
}

func (s *Synced) Reward() *uint256.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.bc.Reward()
}

func (s *Synced) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.bc.Len()
}
