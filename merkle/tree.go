// Package merkle commits to an ordered list of transaction hashes.
//
// Levels are kept as an ordered slice: level 1 holds the leaves and the last
// level holds the single root. When the leaf count is odd the leaf level is
// padded with the hash of the last leaf. On upper levels an unpaired trailing
// node is paired with itself.
package merkle

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/goccy/go-json"

	"bfs-chain/types"
)

var (
	ErrEmptyTree     = errors.New("merkle: no leaves")
	ErrMissingLeaf   = errors.New("merkle: missing leaf")
	ErrMalformedTree = errors.New("merkle: malformed levels")
)

type Tree struct {
	levels [][]common.Hash
}

// New builds the tree over hashes in the given order.
func New(hashes []common.Hash) (*Tree, error) {
	if len(hashes) == 0 {
		return nil, ErrEmptyTree
	}

	leaves := make([]common.Hash, len(hashes), len(hashes)+1)
	copy(leaves, hashes)
	if len(leaves)%2 != 0 {
		last := leaves[len(leaves)-1]
		leaves = append(leaves, crypto.Keccak256Hash(last[:]))
	}

	t := &Tree{levels: [][]common.Hash{leaves}}
	for level := leaves; len(level) > 1; {
		parents := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left, right := level[i], level[i]
			if i+1 < len(level) {
				right = level[i+1]
			}
			parents = append(parents, hashPair(left, right))
		}
		t.levels = append(t.levels, parents)
		level = parents
	}
	return t, nil
}

// FromTransactions builds the tree over the transactions' hashes.
func FromTransactions(txs []*types.Transaction) (*Tree, error) {
	hashes := make([]common.Hash, len(txs))
	for i, tx := range txs {
		if tx == nil {
			return nil, fmt.Errorf("%w: tx %d", ErrMissingLeaf, i)
		}
		hashes[i] = tx.Hash()
	}
	return New(hashes)
}

func hashPair(left, right common.Hash) common.Hash {
	return crypto.Keccak256Hash(left[:], right[:])
}

func (t *Tree) Root() common.Hash {
	return t.levels[len(t.levels)-1][0]
}

// Height is the number of levels, leaves and root included.
func (t *Tree) Height() int {
	return len(t.levels)
}

// Level returns the hashes of level n, 1 being the leaves.
func (t *Tree) Level(n int) []common.Hash {
	if n < 1 || n > len(t.levels) {
		return nil
	}
	return t.levels[n-1]
}

// Contains recomputes the path from the leaf to the root and compares it with
// the stored root. Hashes that are not leaves yield false.
func (t *Tree) Contains(hash common.Hash) bool {
	idx := indexOf(t.levels[0], hash)
	if idx < 0 {
		return false
	}

	cur := hash
	for _, level := range t.levels[:len(t.levels)-1] {
		if idx%2 == 0 {
			sibling := level[min(idx+1, len(level)-1)]
			cur = hashPair(cur, sibling)
		} else {
			cur = hashPair(level[idx-1], cur)
		}
		idx /= 2
	}
	return cur == t.Root()
}

// Verify reports whether tx is committed to by this tree.
func (t *Tree) Verify(tx *types.Transaction) bool {
	return t.Contains(tx.Hash())
}

// Equal compares roots only.
func (t *Tree) Equal(other *Tree) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Root() == other.Root()
}

// MarshalJSON writes the levels, leaves first.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.levels)
}

// UnmarshalJSON reads levels written by MarshalJSON. Only their shape is
// checked; compare the result with a tree rebuilt from the transactions.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var levels [][]common.Hash
	if err := json.Unmarshal(data, &levels); err != nil {
		return err
	}
	if len(levels) == 0 {
		return ErrEmptyTree
	}
	for i, level := range levels {
		if len(level) == 0 {
			return fmt.Errorf("%w: level %d is empty", ErrMalformedTree, i+1)
		}
	}
	if top := levels[len(levels)-1]; len(top) != 1 {
		return fmt.Errorf("%w: %d roots", ErrMalformedTree, len(top))
	}
	t.levels = levels
	return nil
}

func indexOf(level []common.Hash, hash common.Hash) int {
	for i, h := range level {
		if h == hash {
			return i
		}
	}
	return -1
}
