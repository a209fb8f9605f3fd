package miner

import (
	"context"
	"errors"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	bfscommon "bfs-chain/common"
	"bfs-chain/types"
)

var ErrUnsuccessfulMining = errors.New("unsuccessful mining")

// errFound stops the other workers once a nonce is found.
var errFound = errors.New("nonce found")

const cancelCheckInterval = 4096

type SearchOptions struct {
	// Start is the first nonce tried.
	Start uint64
	// Attempts bounds the number of nonces tried.
	Attempts uint64
	// Workers partitions [Start, Start+Attempts) into contiguous ranges.
	Workers int
}

// Search looks for a nonce in [Start, Start+Attempts) whose PoW digest meets
// the header's difficulty and returns the header carrying it. With several
// workers the nonce returned is not necessarily the lowest valid one.
func Search(ctx context.Context, header types.MiningBlockHeader, opts SearchOptions) (types.MiningBlockHeader, error) {
	attempts := opts.Attempts
	if attempts > math.MaxUint64-opts.Start {
		attempts = math.MaxUint64 - opts.Start
	}
	if attempts == 0 {
		return header, ErrUnsuccessfulMining
	}

	workers := uint64(max(opts.Workers, 1))
	if workers > attempts {
		workers = attempts
	}

	prefix := header.PowPrefix()
	difficulty := header.Difficulty

	var (
		once  sync.Once
		nonce uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	chunk, rest := attempts/workers, attempts%workers
	lo := opts.Start
	for w := uint64(0); w < workers; w++ {
		size := chunk
		if w < rest {
			size++
		}
		from, to := lo, lo+size
		lo = to

		g.Go(func() error {
			for n := from; n < to; n++ {
				if (n-from)%cancelCheckInterval == 0 && gctx.Err() != nil {
					return nil
				}
				if bfscommon.HasZeroPrefix(types.PowHash(prefix, n), difficulty) {
					once.Do(func() { nonce = n })
					return errFound
				}
			}
			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, errFound) {
		header.Nonce = nonce
		return header, nil
	}
	if err := ctx.Err(); err != nil {
		return header, err
	}
	return header, ErrUnsuccessfulMining
}
