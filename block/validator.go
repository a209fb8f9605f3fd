package block

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"bfs-chain/merkle"
	"bfs-chain/types"
)

var (
	ErrInvalidTransaction    = errors.New("invalid transaction")
	ErrDuplicatedTransaction = errors.New("duplicated transaction")
	ErrInvalidBlockHeader    = errors.New("invalid block header")
)

// Validator turns a header and a transaction set into a Block, enforcing that
// the set and the header's commitment agree.
type Validator struct {
	verifier       types.Verifier
	inclusionCheck bool
}

type Option func(*Validator)

func WithVerifier(verifier types.Verifier) Option {
	return func(v *Validator) {
		v.verifier = verifier
	}
}

// WithInclusionCheck toggles proving every transaction against the tree
// before it is indexed. Enabled by default.
func WithInclusionCheck(enabled bool) Option {
	return func(v *Validator) {
		v.inclusionCheck = enabled
	}
}

func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		verifier:       types.DefaultVerifier,
		inclusionCheck: true,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Validator) Verifier() types.Verifier {
	return v.verifier
}

// ValidateAndIndex checks every transaction and indexes copies of them by hash.
// tree may be nil when the inclusion check is disabled.
func (v *Validator) ValidateAndIndex(tree *merkle.Tree, txs []*types.Transaction) (*orderedmap.OrderedMap[common.Hash, *types.Transaction], error) {
	index := orderedmap.New[common.Hash, *types.Transaction](len(txs))
	for i, tx := range txs {
		if tx == nil {
			return nil, fmt.Errorf("%w: tx %d is missing", ErrInvalidTransaction, i)
		}
		hash := tx.Hash()
		if v.inclusionCheck && (tree == nil || !tree.Contains(hash)) {
			return nil, fmt.Errorf("%w: tx %d %s is not committed by the merkle tree", ErrInvalidTransaction, i, hash.Hex())
		}
		if !tx.IsCorrectlySigned(v.verifier) {
			return nil, fmt.Errorf("%w: tx %d %s is not correctly signed", ErrInvalidTransaction, i, hash.Hex())
		}
		if _, present := index.Set(hash, tx.Copy()); present {
			return nil, fmt.Errorf("%w: tx %d %s", ErrDuplicatedTransaction, i, hash.Hex())
		}
	}
	return index, nil
}

// Build recomputes the merkle tree over txs and checks it against header.
func (v *Validator) Build(header types.BlockHeader, txs []*types.Transaction) (*Block, error) {
	for i, tx := range txs {
		if tx == nil {
			return nil, fmt.Errorf("%w: tx %d is missing", ErrInvalidTransaction, i)
		}
	}

	tree, err := merkle.FromTransactions(txs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBlockHeader, err)
	}

	index, err := v.ValidateAndIndex(tree, txs)
	if err != nil {
		return nil, err
	}

	if header.Root != tree.Root() {
		return nil, fmt.Errorf("%w: root %s, computed %s", ErrInvalidBlockHeader, header.Root.Hex(), tree.Root().Hex())
	}
	if header.TxsNumber != uint64(len(txs)) {
		return nil, fmt.Errorf("%w: txs number %d, got %d transactions", ErrInvalidBlockHeader, header.TxsNumber, len(txs))
	}

	return &Block{
		header: header,
		info:   NewInfo(txs),
		tree:   tree,
		txs:    index,
		hash:   header.Hash(),
	}, nil
}
