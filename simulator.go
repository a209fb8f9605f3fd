package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"bfs-chain/block"
	"bfs-chain/bot"
	"bfs-chain/chain"
	bfscommon "bfs-chain/common"
	"bfs-chain/config"
	"bfs-chain/miner"
	"bfs-chain/state"
	"bfs-chain/types"
	"bfs-chain/utils"
	"bfs-chain/wallet"
)

const richListSize = 5

// Simulator mints a genesis from its own wallet to alice, then keeps mining
// blocks of transfers between alice and bob.
type Simulator struct {
	cfg *config.Config

	chain    *chain.Synced
	miner    *miner.Miner
	notifier *bot.Notifier

	minter, alice, bob *wallet.Wallet
	pending            []*types.Transaction
	tries              int

	reporter *utils.Reporter
	txCount  atomic.Uint64
	ctx      context.Context
	cancel   context.CancelFunc
	loopWG   sync.WaitGroup
	quitCh   chan struct{}
	logger   *zap.SugaredLogger
}

// NewSimulator builds the genesis block and the chain. notifier may be nil.
func NewSimulator(cfg *config.Config, notifier *bot.Notifier) (*Simulator, error) {
	s := &Simulator{
		cfg:      cfg,
		notifier: notifier,
		reporter: utils.NewReporter(0, 0, "Simulator report, mined [%d] blocks in [%.2fs], speed [%.4fblocks/sec]"),
		quitCh:   make(chan struct{}),
		logger:   zap.S().Named("[simulator]"),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	for _, w := range []**wallet.Wallet{&s.alice, &s.bob} {
		var err error
		if *w, err = wallet.New(); err != nil {
			return nil, err
		}
	}
	minter, err := loadMinter(cfg.Simulator.MinerKeyFile)
	if err != nil {
		return nil, err
	}
	s.minter = minter

	validator := block.NewValidator(block.WithInclusionCheck(cfg.Chain.InclusionCheck))
	genesis, err := s.buildGenesis(validator)
	if err != nil {
		return nil, err
	}

	bc, err := chain.FromGenesis(genesis,
		chain.WithValidator(validator),
		chain.WithDifficulty(cfg.Chain.Difficulty),
		chain.WithReward(uint256.NewInt(cfg.Chain.Reward)),
		chain.WithStateOptions(state.WithGenesisBalanceCheck(cfg.Chain.GenesisBalanceCheck)),
	)
	if err != nil {
		return nil, err
	}
	s.chain = chain.NewSynced(bc)

	s.miner = miner.New(s.minter,
		miner.WithAttempts(cfg.Miner.Attempts),
		miner.WithWorkers(cfg.Miner.Workers),
		miner.WithRandomStart(cfg.Miner.RandomStart),
	)

	if dir := cfg.Simulator.ExportDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create export dir: %w", err)
		}
		s.export(genesis)
	}
	return s, nil
}

// loadMinter reads the minting wallet from path, or generates one.
func loadMinter(path string) (*wallet.Wallet, error) {
	if path == "" {
		return wallet.New()
	}
	return wallet.LoadFile(path)
}

func (s *Simulator) buildGenesis(validator *block.Validator) (*block.Block, error) {
	amount := uint256.NewInt(s.cfg.Simulator.GenesisAmount)
	txs := make([]*types.Transaction, 0, s.cfg.Simulator.GenesisTxs)
	for i := 0; i < s.cfg.Simulator.GenesisTxs; i++ {
		tx, err := s.minter.Send(s.alice.Address(), amount.Clone(), new(uint256.Int))
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return chain.NewGenesisBlock(validator, txs)
}

// Chain exposes the shared chain for readers such as the explorer API.
func (s *Simulator) Chain() *chain.Synced {
	return s.chain
}

func (s *Simulator) Start() {
	s.loopWG.Add(1)
	go s.loop()

	s.logger.Infof("Simulator started, alice [%s], bob [%s], miner [%s]",
		bfscommon.ShortHash(s.alice.Address()), bfscommon.ShortHash(s.bob.Address()), bfscommon.ShortHash(s.miner.Address()))
}

func (s *Simulator) Stop() {
	close(s.quitCh)
	s.cancel()
	s.loopWG.Wait()
	s.logger.Info(s.reporter.Finish("Simulator quit, mined [%d] blocks in [%ds], speed [%.4fblocks/sec]"))
}

func (s *Simulator) loop() {
	defer s.loopWG.Done()

	interval := s.cfg.Simulator.Interval()
	for {
		select {
		case <-s.quitCh:
			return
		default:
		}

		if !s.doMineBlock() {
			continue
		}

		select {
		case <-s.quitCh:
			return
		case <-time.After(interval):
		}
	}
}

// doMineBlock runs one mining batch and reports whether a block was appended.
// An exhausted batch keeps the pending transactions so the next call resumes
// the same search.
func (s *Simulator) doMineBlock() bool {
	if s.pending == nil {
		txs, err := s.nextTxs()
		if err != nil {
			s.logger.Errorf("Sign transfers: %v", err)
			return false
		}
		s.pending = txs
	}

	var job miner.Job
	s.chain.View(func(bc *chain.Blockchain) {
		job = bc.NextJob(s.pending)
		if acc, ok := bc.Account(s.minter.Address()); ok {
			s.minter.SetNonce(acc.Nonce)
		}
	})

	header, txs, err := s.miner.Mine(s.ctx, job)
	if errors.Is(err, miner.ErrUnsuccessfulMining) {
		s.tries++
		return false
	}
	if err != nil {
		if s.ctx.Err() == nil {
			s.logger.Errorf("Mine block [%d]: %v", job.Parent.BlockNumber+1, err)
		}
		return false
	}

	var b *block.Block
	err = s.chain.Update(func(bc *chain.Blockchain) error {
		candidate, err := bc.BuildBlockCandidate(header, txs)
		if err != nil {
			return err
		}
		if err := bc.AddBlock(header, candidate); err != nil {
			return err
		}
		b = candidate
		return nil
	})
	s.pending = nil
	if err != nil {
		s.logger.Warnf("Dropped block [%d] after [%d] tries: %v", header.BlockNumber, s.tries, err)
		s.tries = 0
		return false
	}

	s.logger.Infof("Successfully mined block [%d] [%s] after [%d] tries",
		b.Number(), bfscommon.ShortHash(b.Hash().Hex()), s.tries)
	s.tries = 0
	s.txCount.Add(uint64(b.Len()))
	s.reporter.Add(1)

	s.export(b)
	if s.notifier != nil {
		s.notifier.NotifyBlock(b, header)
	}
	return true
}

// nextTxs signs a batch of transfers from the richer of alice and bob to the
// other, starting from the sender's nonce on chain.
func (s *Simulator) nextTxs() ([]*types.Transaction, error) {
	aliceAcc, _ := s.chain.Account(s.alice.Address())
	bobAcc, _ := s.chain.Account(s.bob.Address())

	from, to, acc := s.alice, s.bob, aliceAcc
	if bobAcc.Balance != nil && (aliceAcc.Balance == nil || bobAcc.Balance.Gt(aliceAcc.Balance)) {
		from, to, acc = s.bob, s.alice, bobAcc
	}
	from.SetNonce(acc.Nonce)
	return from.SignRandomTxs(to.Address(), s.cfg.Simulator.TxsPerBlock)
}

func (s *Simulator) export(b *block.Block) {
	dir := s.cfg.Simulator.ExportDir
	if dir == "" {
		return
	}
	path := filepath.Join(dir, blockFileName(b.Number()))
	if err := b.WriteFile(path); err != nil {
		s.logger.Errorf("Export block [%d] to [%s]: %v", b.Number(), path, err)
	}
}

func blockFileName(number uint64) string {
	return fmt.Sprintf("block_%06d.json", number)
}

// Report logs the throughput since the last report and the richest accounts.
func (s *Simulator) Report() {
	report := s.reporter.Report()
	head := s.chain.LastBlock()
	richest := utils.TopN(s.chain.Accounts(), richListSize, func(a, b state.Account) bool {
		return a.Balance.Gt(b.Balance)
	})

	s.logger.Infof("%s, head [%d] [%s], total txs [%s], supply [%s]", report,
		head.Number(), bfscommon.ShortHash(head.Hash().Hex()),
		bfscommon.FormatWithUnits(float64(s.txCount.Load())), bfscommon.FormatAmount(s.chain.TotalSupply()))
	if s.notifier != nil {
		s.notifier.NotifyReport(report, richest)
	}
}
