package block

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goccy/go-json"

	"bfs-chain/merkle"
	"bfs-chain/types"
)

// persistedBlock is the on-disk layout of a block. The merkle levels are kept
// for readers of the file; they are rebuilt from txs on load.
type persistedBlock struct {
	Header     types.BlockHeader    `json:"header"`
	Info       Info                 `json:"info"`
	MerkleTree *merkle.Tree         `json:"merkle_tree"`
	Txs        []*types.Transaction `json:"txs"`
	Hash       common.Hash          `json:"hash"`
}

// Encode renders the block as indented JSON.
func (b *Block) Encode() ([]byte, error) {
	return json.MarshalIndent(&persistedBlock{
		Header:     b.header,
		Info:       b.Info(),
		MerkleTree: b.tree,
		Txs:        b.Txs(),
		Hash:       b.hash,
	}, "", "  ")
}

func (b *Block) WriteFile(path string) error {
	data, err := b.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Decode rebuilds a block from its persisted form. The block goes through Build
// again and its recomputed hash must match the stored one.
func (v *Validator) Decode(data []byte) (*Block, error) {
	var persisted persistedBlock
	if err := json.Unmarshal(data, &persisted); err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}

	b, err := v.Build(persisted.Header, persisted.Txs)
	if err != nil {
		return nil, err
	}

	if persisted.MerkleTree != nil && !persisted.MerkleTree.Equal(b.tree) {
		return nil, fmt.Errorf("%w: stored merkle tree does not match transactions", ErrInvalidBlockHeader)
	}
	if persisted.Hash != b.hash {
		return nil, fmt.Errorf("%w: stored hash %s, computed %s", ErrInvalidBlockHeader, persisted.Hash.Hex(), b.hash.Hex())
	}
	return b, nil
}

func (v *Validator) ReadFile(path string) (*Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return v.Decode(data)
}
