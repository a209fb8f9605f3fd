package block

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"bfs-chain/merkle"
	"bfs-chain/types"
)

// Info aggregates the amounts moved by a block.
type Info struct {
	Volume    *uint256.Int `json:"volume"`
	TotalFees *uint256.Int `json:"total_fees"`
}

func NewInfo(txs []*types.Transaction) Info {
	info := Info{Volume: new(uint256.Int), TotalFees: new(uint256.Int)}
	for _, tx := range txs {
		info.Volume.Add(info.Volume, types.AmountOrZero(tx.Value))
		info.TotalFees.Add(info.TotalFees, types.AmountOrZero(tx.Fee))
	}
	return info
}

// Block is immutable once built. Transactions are indexed by hash and iterate
// in insertion order.
type Block struct {
	header types.BlockHeader
	info   Info
	tree   *merkle.Tree
	txs    *orderedmap.OrderedMap[common.Hash, *types.Transaction]
	hash   common.Hash
}

func (b *Block) Header() types.BlockHeader {
	return b.header
}

func (b *Block) Info() Info {
	return Info{Volume: b.info.Volume.Clone(), TotalFees: b.info.TotalFees.Clone()}
}

func (b *Block) MerkleTree() *merkle.Tree {
	return b.tree
}

// Hash is the cached hash of the block header.
func (b *Block) Hash() common.Hash {
	return b.hash
}

func (b *Block) Number() uint64 {
	return b.header.BlockNumber
}

func (b *Block) Len() int {
	return b.txs.Len()
}

// Tx looks a transaction up by hash.
func (b *Block) Tx(hash common.Hash) (*types.Transaction, bool) {
	tx, ok := b.txs.Get(hash)
	if !ok {
		return nil, false
	}
	return tx.Copy(), true
}

// Txs returns copies of the transactions in insertion order.
func (b *Block) Txs() []*types.Transaction {
	txs := make([]*types.Transaction, 0, b.txs.Len())
	for pair := b.txs.Oldest(); pair != nil; pair = pair.Next() {
		txs = append(txs, pair.Value.Copy())
	}
	return txs
}
