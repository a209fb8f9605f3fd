package types

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	bfscommon "bfs-chain/common"
)

// GenesisPrevHash is the prev_hash sentinel carried by block 0.
var GenesisPrevHash = common.Hash{}

type BlockHeader struct {
	Root        common.Hash `json:"root"`
	PrevHash    common.Hash `json:"prev_hash"`
	BlockNumber uint64      `json:"number"`
	TxsNumber   uint64      `json:"n_txs"`
	Mined       bool        `json:"mined"`
	CreatedAt   int64       `json:"time"`
}

type canonicalHeader struct {
	Root        common.Hash
	PrevHash    common.Hash
	BlockNumber uint64
	TxsNumber   uint64
	Mined       bool
	CreatedAt   uint64
}

func NewBlockHeader(root, prevHash common.Hash, blockNumber, txsNumber uint64, createdAt int64) BlockHeader {
	return BlockHeader{
		Root:        root,
		PrevHash:    prevHash,
		BlockNumber: blockNumber,
		TxsNumber:   txsNumber,
		CreatedAt:   createdAt,
	}
}

func (h *BlockHeader) CanonicalBytes() []byte {
	return mustEncode(&canonicalHeader{
		Root:        h.Root,
		PrevHash:    h.PrevHash,
		BlockNumber: h.BlockNumber,
		TxsNumber:   h.TxsNumber,
		Mined:       h.Mined,
		CreatedAt:   uint64(h.CreatedAt),
	})
}

// Hash is the block hash used for prev_hash linkage.
func (h *BlockHeader) Hash() common.Hash {
	return crypto.Keccak256Hash(h.CanonicalBytes())
}

// MiningBlockHeader is a header candidate under proof-of-work search.
type MiningBlockHeader struct {
	Root         common.Hash  `json:"root"`
	PrevHash     common.Hash  `json:"prev_hash"`
	BlockNumber  uint64       `json:"number"`
	TxsNumber    uint64       `json:"n_txs"`
	Mined        bool         `json:"mined"`
	CreatedAt    int64        `json:"time"`
	Difficulty   uint64       `json:"diff"`
	Reward       *uint256.Int `json:"reward"`
	MinerAddress string       `json:"miner"`
	Nonce        uint64       `json:"nonce"`
}

type canonicalMiningHeader struct {
	Root         common.Hash
	PrevHash     common.Hash
	BlockNumber  uint64
	TxsNumber    uint64
	Mined        bool
	CreatedAt    uint64
	Difficulty   uint64
	Reward       []byte
	MinerAddress string
}

func NewMiningBlockHeader(root, prevHash common.Hash, blockNumber, txsNumber, difficulty uint64,
	reward *uint256.Int, minerAddress string, createdAt int64) MiningBlockHeader {
	return MiningBlockHeader{
		Root:         root,
		PrevHash:     prevHash,
		BlockNumber:  blockNumber,
		TxsNumber:    txsNumber,
		Mined:        true,
		CreatedAt:    createdAt,
		Difficulty:   difficulty,
		Reward:       reward,
		MinerAddress: minerAddress,
	}
}

// PowPrefix is the canonical encoding of every header field except the nonce.
func (h *MiningBlockHeader) PowPrefix() []byte {
	return mustEncode(&canonicalMiningHeader{
		Root:         h.Root,
		PrevHash:     h.PrevHash,
		BlockNumber:  h.BlockNumber,
		TxsNumber:    h.TxsNumber,
		Mined:        h.Mined,
		CreatedAt:    uint64(h.CreatedAt),
		Difficulty:   h.Difficulty,
		Reward:       AmountOrZero(h.Reward).Bytes(),
		MinerAddress: h.MinerAddress,
	})
}

// PowHash returns digest(prefix || decimal(nonce)).
func PowHash(prefix []byte, nonce uint64) common.Hash {
	return crypto.Keccak256Hash(prefix, strconv.AppendUint(nil, nonce, 10))
}

func (h *MiningBlockHeader) PowHash() common.Hash {
	return PowHash(h.PowPrefix(), h.Nonce)
}

// IsPowComputationValid checks the header's own nonce against its declared difficulty.
func (h *MiningBlockHeader) IsPowComputationValid() bool {
	return bfscommon.HasZeroPrefix(h.PowHash(), h.Difficulty)
}

// Finalize derives the plain header stored in the block.
func (h *MiningBlockHeader) Finalize() BlockHeader {
	return BlockHeader{
		Root:        h.Root,
		PrevHash:    h.PrevHash,
		BlockNumber: h.BlockNumber,
		TxsNumber:   h.TxsNumber,
		Mined:       h.Mined,
		CreatedAt:   h.CreatedAt,
	}
}
